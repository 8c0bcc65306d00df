package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/session"
	"github.com/rs/zerolog/log"
)

type ctxKey int

const (
	storeKey ctxKey = iota
	sessionIDKey
)

// readyWait bounds how long a request waits for a fresh store to finish restoring
// before the guard sees it as loading.
const readyWait = 250 * time.Millisecond

// SessionMiddleware attaches the visitor's session store to the request, issuing a
// new browser session id when the cookie is missing or fails verification.
func (s *Server) SessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// A tampered or stale cookie still yields a usable new session.
		cookie, _ := s.cookies.Get(r, sessionCookieName)

		sid, _ := cookie.Values[sessionIDValue].(string)
		if sid == "" {
			sid = uuid.NewString()
			cookie.Values[sessionIDValue] = sid
			if err := cookie.Save(r, w); err != nil {
				log.Err(err).Msg("Failed to save session cookie")
				http.Error(w, "session unavailable", http.StatusInternalServerError)
				return
			}
		}

		store, err := s.sessions.Get(sid)
		if err != nil {
			log.Err(err).Msg("Failed to open session store")
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}

		select {
		case <-store.Ready():
		case <-time.After(readyWait):
		case <-r.Context().Done():
			return
		}

		ctx := context.WithValue(r.Context(), storeKey, store)
		ctx = context.WithValue(ctx, sessionIDKey, sid)
		next(w, r.WithContext(ctx))

		// Anonymous visitors keep only their cookie; the store is rebuilt on demand.
		s.sessions.Release(sid)
	}
}

// rotateSession forgets the current browser session and issues a new id.
func (s *Server) rotateSession(w http.ResponseWriter, r *http.Request) error {
	if sid, ok := r.Context().Value(sessionIDKey).(string); ok {
		s.sessions.Forget(sid)
	}
	cookie, _ := s.cookies.Get(r, sessionCookieName)
	cookie.Values[sessionIDValue] = uuid.NewString()
	return cookie.Save(r, w)
}

func storeFromRequest(r *http.Request) *session.Store {
	store, _ := r.Context().Value(storeKey).(*session.Store)
	return store
}

// apiFor is the backend bound to the visitor's session, or the anonymous backend
// outside SessionMiddleware.
func (s *Server) apiFor(r *http.Request) *backend.API {
	if store := storeFromRequest(r); store != nil {
		return s.api.WithSession(store)
	}
	return s.api
}

func (s *Server) sessionState(r *http.Request) session.State {
	if store := storeFromRequest(r); store != nil {
		return store.State()
	}
	return session.State{Status: session.StatusUnauthenticated}
}
