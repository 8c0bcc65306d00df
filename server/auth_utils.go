package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/jrsteele09/academy-storefront/guard"
	"github.com/jrsteele09/academy-storefront/internal/config"
	"github.com/jrsteele09/academy-storefront/internal/errors"
)

const (
	// sessionCookieName is the signed cookie carrying the browser session id
	sessionCookieName = "academy_session"
	sessionIDValue    = "sid"

	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json"
)

func newCookieStore(cfg config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.GetSessionSecret()))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.GetSessionCookieMaxAge().Seconds()),
		HttpOnly: true,
		Secure:   cfg.GetEnv() != "DEV",
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// redirectSuccess helper for htmx-aware success redirects
func redirectSuccess(w http.ResponseWriter, r *http.Request, path string) {
	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent) // 204 - no content, just redirect instruction
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError helper for htmx-aware error redirects
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg string) {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	fullPath := path + sep + "error=" + url.QueryEscape(errorMsg)

	if isHTMXRequest(r) {
		w.Header().Set("HX-Redirect", fullPath)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, fullPath, http.StatusSeeOther)
}

// isHTMXRequest checks if the request was initiated by HTMX
func isHTMXRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// sessionLost reports errors after which the visitor has to log in again.
func sessionLost(err error) bool {
	return errors.Is(err, errors.ErrRefreshFailed) || errors.Is(err, errors.ErrNotAuthenticated)
}

// redirectToLogin sends the visitor to the login page, returning to the current page.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	redirectSuccess(w, r, guard.LoginLocation(r.URL.RequestURI()))
}

// userMessage turns a backend error into something fit for a page banner.
func userMessage(err error) string {
	var validationErr *errors.ValidationError
	var authErr *errors.AuthenticationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		if validationErr.Detail != "" {
			return validationErr.Detail
		}
		if len(validationErr.Fields) > 0 {
			return "Please correct the highlighted fields."
		}
		return "The request was rejected."
	case errors.As(err, &authErr):
		if authErr.Detail != "" {
			return authErr.Detail
		}
		return "Invalid email or password."
	case errors.Is(err, errors.ErrRefreshFailed), errors.Is(err, errors.ErrNotAuthenticated):
		return "Your session has expired. Please log in again."
	case errors.Is(err, errors.ErrNetwork):
		return "The course service is unreachable. Please try again shortly."
	}
	return "Something went wrong. Please try again."
}
