package server

import (
	"net/http"
	"net/url"

	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/jrsteele09/academy-storefront/session"
	"github.com/rs/zerolog/log"
)

// SignupPageData is the signup form model. Passwords are never echoed back.
type SignupPageData struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Fields    FieldErrors
}

// SignupGetHandler renders the signup page
func (s *Server) SignupGetHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("signup.html")
	if err != nil {
		panic("Failed to parse signup template: " + err.Error())
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sessionState(r).IsAuthenticated {
			redirectSuccess(w, r, PathDashboard)
			return
		}
		s.render(w, r, tmpl, http.StatusOK, s.page(r, SignupPageData{}))
	}
}

// SignupPostHandler registers a student account and logs it in
func (s *Server) SignupPostHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("signup.html")
	if err != nil {
		panic("Failed to parse signup template: " + err.Error())
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var form signupForm
		if err := decodeForm(r, &form); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		renderError := func(status int, msg string, fields FieldErrors) {
			page := s.page(r, SignupPageData{
				FirstName: form.FirstName,
				LastName:  form.LastName,
				Email:     form.Email,
				Phone:     form.Phone,
				Fields:    fields,
			})
			page.Error = msg
			s.render(w, r, tmpl, status, page)
		}

		if err := s.validate.Struct(form); err != nil {
			renderError(http.StatusUnprocessableEntity, "Please correct the highlighted fields.", formErrors(err))
			return
		}

		err := storeFromRequest(r).Signup(r.Context(), session.SignupInput{
			FirstName: form.FirstName,
			LastName:  form.LastName,
			Email:     form.Email,
			Phone:     form.Phone,
			Password:  form.Password,
		})
		switch {
		case err == nil:
			redirectSuccess(w, r, PathDashboard)
		case errors.Is(err, errors.ErrValidation):
			renderError(http.StatusUnprocessableEntity, userMessage(err), backendFieldErrors(err))
		case errors.Is(err, errors.ErrAuthentication):
			// Registered but the follow-up login was refused.
			redirectWithError(w, r, RouteLogin+"?email="+url.QueryEscape(form.Email), "Account created, please log in.")
		default:
			log.Err(err).Msg("Signup failed")
			renderError(http.StatusBadGateway, userMessage(err), nil)
		}
	}
}
