package metrics_test

import (
	"testing"

	"github.com/jrsteele09/academy-storefront/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := metrics.New("academy")
	m.Login(true)
	m.Login(false)
	m.Refresh(true)
	m.BackendRequest("GET", 200)
	m.BackendRequest("GET", 0)
	m.GuardDecision("redirect")

	count, err := testutil.GatherAndCount(m.Registry)
	require.NoError(t, err)
	require.Equal(t, 6, count)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.Login(true)
		m.Refresh(false)
		m.BackendRequest("POST", 401)
		m.GuardDecision("render")
	})
}
