package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error categories surfaced to the storefront and the CLI
var (
	// Transport errors
	ErrNetwork = errors.New("network error")
	ErrServer  = errors.New("server error")

	// Credential errors
	ErrAuthentication = errors.New("authentication failed")
	ErrValidation     = errors.New("validation failed")

	// Session errors
	ErrRefreshFailed    = errors.New("token refresh failed")
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoToken          = errors.New("no access token")
	ErrAlreadyRestored  = errors.New("session already restored")

	// Storage errors
	ErrBlobNotFound = errors.New("session blob not found")
)

// NetworkError means no response reached the client.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrNetwork, e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// ResponseError is an error response received from the backend.
type ResponseError struct {
	Status int
	Detail string
	Fields map[string][]string
	Body   []byte
}

func (e *ResponseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend responded %d: %s", e.Status, e.Detail)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("backend responded %d: %s", e.Status, FieldSummary(e.Fields))
	}
	return fmt.Sprintf("backend responded %d", e.Status)
}

// AuthenticationError is returned when the backend rejects credentials.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	if e.Detail == "" {
		return ErrAuthentication.Error()
	}
	return fmt.Sprintf("%s: %s", ErrAuthentication, e.Detail)
}

func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// ValidationError carries field level messages from the backend.
type ValidationError struct {
	Detail string
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	switch {
	case len(e.Fields) > 0:
		return fmt.Sprintf("%s: %s", ErrValidation, FieldSummary(e.Fields))
	case e.Detail != "":
		return fmt.Sprintf("%s: %s", ErrValidation, e.Detail)
	}
	return ErrValidation.Error()
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Field returns the first message recorded for name.
func (e *ValidationError) Field(name string) string {
	if msgs := e.Fields[name]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// RefreshFailedError is returned after a failed refresh has cleared the session.
type RefreshFailedError struct {
	Err error
}

func (e *RefreshFailedError) Error() string {
	if e.Err == nil {
		return ErrRefreshFailed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrRefreshFailed, e.Err)
}

func (e *RefreshFailedError) Unwrap() error { return e.Err }

func (e *RefreshFailedError) Is(target error) bool { return target == ErrRefreshFailed }

// ServerError covers 5xx and any response the caller did not expect.
type ServerError struct {
	Status int
	Detail string
}

func (e *ServerError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (%d)", ErrServer, e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", ErrServer, e.Status, e.Detail)
}

func (e *ServerError) Is(target error) bool { return target == ErrServer }

// Classify maps a transport error onto the taxonomy. credentials marks calls that submit
// a password, where a bare 400 means the credentials were rejected.
func Classify(err error, credentials bool) error {
	if err == nil {
		return nil
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return err
	}
	var respErr *ResponseError
	if !errors.As(err, &respErr) {
		return err
	}
	switch {
	case respErr.Status == http.StatusUnauthorized, respErr.Status == http.StatusForbidden:
		return &AuthenticationError{Detail: respErr.Detail}
	case respErr.Status == http.StatusBadRequest && credentials && len(respErr.Fields) == 0:
		return &AuthenticationError{Detail: respErr.Detail}
	case respErr.Status == http.StatusBadRequest, respErr.Status == http.StatusUnprocessableEntity, respErr.Status == http.StatusConflict:
		return &ValidationError{Detail: respErr.Detail, Fields: respErr.Fields}
	}
	return &ServerError{Status: respErr.Status, Detail: respErr.Detail}
}

// FieldSummary renders field errors in a stable order.
func FieldSummary(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(fields[name], ", "))
	}
	return strings.Join(parts, "; ")
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single errors import
func New(text string) error {
	return errors.New(text)
}
