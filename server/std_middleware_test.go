package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/academy-storefront/internal/config"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestRecoverMiddleware(t *testing.T) {
	s := &Server{}
	handler := ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, s.RecoverMiddleware)

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestChainMiddlewareOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.HandlerFunc) http.HandlerFunc {
		return func(next http.HandlerFunc) http.HandlerFunc {
			return func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next(w, r)
			}
		}
	}
	handler := ChainMiddleware(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}, mark("first"), mark("second"))

	handler(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"first", "second", "handler"}, order)
}

func TestCorsMiddleware(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com")
	s := &Server{config: config.New()}
	handler := ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, s.CorsMiddleware)

	req := httptest.NewRequest(http.MethodOptions, "/api/session", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler(rec, req)
	require.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	require.Equal(t, http.StatusNoContent, rec.Code, "preflights stop before the handler")

	req = httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.Header.Set("Origin", "https://other.example.com")
	rec = httptest.NewRecorder()
	handler(rec, req)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWWWRedirectMiddleware(t *testing.T) {
	s := &Server{}
	handler := ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}, s.WWWRedirectMiddleware)

	req := httptest.NewRequest(http.MethodGet, "https://www.academy.example/courses?q=go", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	require.Equal(t, http.StatusMovedPermanently, rec.Code)
	require.Equal(t, "https://academy.example/courses?q=go", rec.Header().Get("Location"))
}

func TestLoggingMiddlewareKeepsStatus(t *testing.T) {
	s := &Server{env: "DEV"}
	handler := ChainMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusSeeOther)
	}, s.LoggingMiddleware)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestColouredStatus(t *testing.T) {
	require.Equal(t, Green+"200"+ResetColor, colouredStatus(http.StatusOK))
	require.Equal(t, Cyan+"303"+ResetColor, colouredStatus(http.StatusSeeOther))
	require.Equal(t, Yellow+"422"+ResetColor, colouredStatus(http.StatusUnprocessableEntity))
	require.Equal(t, Red+"502"+ResetColor, colouredStatus(http.StatusBadGateway))
}

func TestFormErrors(t *testing.T) {
	v := newValidator()
	err := v.Struct(passwordForm{OldPassword: "same-secret", NewPassword: "same-secret", Confirm: "other"})
	fields := formErrors(err)
	require.Equal(t, "Choose a password different from the current one.", fields["new_password"])
	require.Equal(t, "Passwords do not match.", fields["confirm_password"])
	require.NotContains(t, fields, "old_password")
}

func TestUserMessage(t *testing.T) {
	require.Empty(t, userMessage(nil))
	require.Equal(t, "No active account found", userMessage(&errors.AuthenticationError{Detail: "No active account found"}))
	require.Equal(t, "Please correct the highlighted fields.", userMessage(&errors.ValidationError{Fields: map[string][]string{"email": {"taken"}}}))
	require.Equal(t, "Your session has expired. Please log in again.", userMessage(&errors.RefreshFailedError{Err: errors.New("expired")}))
}
