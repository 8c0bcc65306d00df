package server

import (
	"net/http"

	"github.com/jrsteele09/academy-storefront/guard"
	"github.com/rs/zerolog/log"
)

// RequireSession guards a page behind a logged in session. It must run after
// SessionMiddleware.
func (s *Server) RequireSession() func(http.HandlerFunc) http.HandlerFunc {
	loadingTmpl, err := ParseTemplate("loading.html")
	if err != nil {
		panic("Failed to parse loading template: " + err.Error())
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			decision := guard.Evaluate(s.sessionState(r), r.URL.RequestURI())
			s.metrics.GuardDecision(decision.Action.String())

			switch decision.Action {
			case guard.Render:
				next(w, r)
			case guard.Loading:
				w.Header().Set("Cache-Control", "no-store")
				s.render(w, r, loadingTmpl, http.StatusOK, nil)
			case guard.Redirect:
				log.Debug().Str("path", r.URL.Path).Msg("redirecting anonymous visitor to login")
				redirectSuccess(w, r, decision.Location)
			}
		}
	}
}
