package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the storefront's Prometheus collectors. A nil *Metrics is valid and
// records nothing, so library packages can take one optionally.
type Metrics struct {
	Registry        *prometheus.Registry
	logins          *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	backendRequests *prometheus.CounterVec
	guardDecisions  *prometheus.CounterVec
}

// New registers the collectors on a fresh registry.
func New(namespace string) *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_refreshes_total",
			Help:      "Access token refresh calls by result.",
		}, []string{"result"}),
		backendRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_requests_total",
			Help:      "Requests sent to the course backend by method and status class.",
		}, []string{"method", "status"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_decisions_total",
			Help:      "Route guard outcomes.",
		}, []string{"action"}),
	}
	m.Registry.MustRegister(m.logins, m.refreshes, m.backendRequests, m.guardDecisions)
	return m
}

func (m *Metrics) Login(ok bool) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result(ok)).Inc()
}

func (m *Metrics) Refresh(ok bool) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result(ok)).Inc()
}

// BackendRequest records one HTTP attempt; status 0 means no response arrived.
func (m *Metrics) BackendRequest(method string, status int) {
	if m == nil {
		return
	}
	class := "none"
	if status > 0 {
		class = strconv.Itoa(status/100) + "xx"
	}
	m.backendRequests.WithLabelValues(method, class).Inc()
}

func (m *Metrics) GuardDecision(action string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(action).Inc()
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
