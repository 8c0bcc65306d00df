package server

import (
	"net/http"

	"github.com/jrsteele09/academy-storefront/guard"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/rs/zerolog/log"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Email  string // Preserve email on error
	Next   string
	Fields FieldErrors
	Demo   bool
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		panic("Failed to parse login template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		next := guard.SafeNext(r.URL.Query().Get(guard.NextParam))
		if s.sessionState(r).IsAuthenticated {
			redirectSuccess(w, r, next)
			return
		}

		data := LoginPageData{
			Email: r.URL.Query().Get("email"),
			Next:  next,
			Demo:  s.env == "DEV",
		}
		s.render(w, r, loginTmpl, http.StatusOK, s.page(r, data))
	}
}

// LoginSubmissionHandler processes the login form submission (POST /login)
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	loginTmpl, err := ParseTemplate("login.html")
	if err != nil {
		panic("Failed to parse login template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var form loginForm
		if err := decodeForm(r, &form); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		next := guard.SafeNext(form.Next)

		renderError := func(status int, msg string, fields FieldErrors) {
			page := s.page(r, LoginPageData{Email: form.Email, Next: next, Fields: fields, Demo: s.env == "DEV"})
			page.Error = msg
			s.render(w, r, loginTmpl, status, page)
		}

		if err := s.validate.Struct(form); err != nil {
			renderError(http.StatusUnprocessableEntity, "Email and password are required", formErrors(err))
			return
		}

		if err := storeFromRequest(r).Login(r.Context(), form.Email, form.Password); err != nil {
			status := http.StatusUnauthorized
			if !errors.Is(err, errors.ErrAuthentication) {
				status = http.StatusBadGateway
				log.Err(err).Msg("Login failed")
			}
			renderError(status, userMessage(err), nil)
			return
		}

		redirectSuccess(w, r, next)
	}
}

// LogoutHandler ends the session and issues a fresh browser session id (POST /logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Logout always ends logged out; backend failures are logged by the store.
		_ = storeFromRequest(r).Logout(r.Context())

		if err := s.rotateSession(w, r); err != nil {
			log.Err(err).Msg("Failed to rotate session cookie")
		}
		redirectSuccess(w, r, PathHome)
	}
}
