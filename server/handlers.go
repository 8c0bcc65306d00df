package server

import (
	"encoding/json"
	"net/http"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/guard"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/rs/zerolog/log"
)

// ErrorPageData is the model of error.html
type ErrorPageData struct {
	Status int
	Title  string
}

// backendFailure answers a failed backend call. Visitors whose session did not survive
// the call are sent to log in and return to returnTo afterwards.
func (s *Server) backendFailure(w http.ResponseWriter, r *http.Request, err error, returnTo string) {
	err = errors.Classify(err, false)
	if errors.Is(err, errors.ErrAuthentication) {
		// Still rejected after the client's refresh: the backend no longer honours
		// this session, so end it here too.
		if store := storeFromRequest(r); store != nil && store.State().IsAuthenticated {
			log.Warn().Err(err).Str("path", r.URL.Path).Msg("Backend rejected a refreshed session")
			_ = store.Logout(r.Context())
		}
		redirectSuccess(w, r, guard.LoginLocation(returnTo))
		return
	}
	if sessionLost(err) {
		redirectSuccess(w, r, guard.LoginLocation(returnTo))
		return
	}

	data := ErrorPageData{Status: http.StatusBadGateway, Title: "The course service is unavailable"}
	var serverErr *errors.ServerError
	if errors.As(err, &serverErr) && serverErr.Status == http.StatusNotFound {
		data = ErrorPageData{Status: http.StatusNotFound, Title: "Not found"}
	} else {
		log.Err(err).Str("path", r.URL.Path).Msg("Backend request failed")
	}

	page := s.page(r, data)
	page.Error = userMessage(err)
	if data.Status == http.StatusNotFound {
		page.Error = "We could not find what you were looking for."
	}
	s.render(w, r, s.errorTmpl, data.Status, page)
}

// SessionStateResponse is the redacted session exposed to scripts. It never carries tokens.
type SessionStateResponse struct {
	Status          string        `json:"status"`
	IsAuthenticated bool          `json:"isAuthenticated"`
	IsLoading       bool          `json:"isLoading"`
	User            *backend.User `json:"user"`
}

// SessionStateHandler reports the visitor's session (GET /api/session)
func (s *Server) SessionStateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := s.sessionState(r)
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, SessionStateResponse{
			Status:          state.Status.String(),
			IsAuthenticated: state.IsAuthenticated,
			IsLoading:       state.IsLoading,
			User:            state.User,
		})
	}
}

// HealthHandler runs the registered checks (GET /healthz)
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		checks := make(map[string]string, len(s.health))
		for name, check := range s.health {
			if err := check(r); err != nil {
				log.Err(err).Str("check", name).Msg("Health check failed")
				checks[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		body := map[string]any{"status": "ok", "sessions": s.sessions.Len(), "checks": checks}
		if status != http.StatusOK {
			body["status"] = "unavailable"
		}
		writeJSON(w, status, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to write JSON response")
	}
}
