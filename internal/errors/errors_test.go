package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	t.Run("network errors pass through", func(t *testing.T) {
		netErr := &errors.NetworkError{Op: "POST /login", Err: stderrors.New("connection refused")}
		got := errors.Classify(netErr, true)
		require.ErrorIs(t, got, errors.ErrNetwork)
	})

	t.Run("401 on login is an authentication error", func(t *testing.T) {
		got := errors.Classify(&errors.ResponseError{Status: http.StatusUnauthorized, Detail: "No active account"}, true)
		require.ErrorIs(t, got, errors.ErrAuthentication)
		require.Contains(t, got.Error(), "No active account")
	})

	t.Run("400 with fields is a validation error", func(t *testing.T) {
		got := errors.Classify(&errors.ResponseError{
			Status: http.StatusBadRequest,
			Fields: map[string][]string{"email": {"user with this email already exists."}},
		}, false)
		var validationErr *errors.ValidationError
		require.True(t, errors.As(got, &validationErr))
		require.Equal(t, "user with this email already exists.", validationErr.Field("email"))
		require.ErrorIs(t, got, errors.ErrValidation)
	})

	t.Run("bare 400 on credentials is an authentication error", func(t *testing.T) {
		got := errors.Classify(&errors.ResponseError{Status: http.StatusBadRequest}, true)
		require.ErrorIs(t, got, errors.ErrAuthentication)
	})

	t.Run("5xx is a server error", func(t *testing.T) {
		got := errors.Classify(&errors.ResponseError{Status: http.StatusBadGateway}, false)
		require.ErrorIs(t, got, errors.ErrServer)
	})

	t.Run("wrapped response errors are found", func(t *testing.T) {
		wrapped := fmt.Errorf("outer: %w", &errors.ResponseError{Status: http.StatusInternalServerError})
		require.ErrorIs(t, errors.Classify(wrapped, false), errors.ErrServer)
	})
}

func TestRefreshFailedError(t *testing.T) {
	cause := &errors.ResponseError{Status: http.StatusUnauthorized, Detail: "Token is invalid or expired"}
	err := errors.Wrapf(&errors.RefreshFailedError{Err: cause}, "[Store.RefreshAccessToken]")

	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	var respErr *errors.ResponseError
	require.True(t, errors.As(err, &respErr))
	require.Equal(t, http.StatusUnauthorized, respErr.Status)
}

func TestFieldSummary(t *testing.T) {
	summary := errors.FieldSummary(map[string][]string{
		"phone": {"Enter a valid phone number."},
		"email": {"already exists", "invalid"},
	})
	require.Equal(t, "email: already exists, invalid; phone: Enter a valid phone number.", summary)
}
