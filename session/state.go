package session

import (
	"fmt"

	"github.com/jrsteele09/academy-storefront/backend"
)

// Status is the lifecycle position of a Store.
type Status int

const (
	StatusUninitialized Status = iota
	StatusLoading
	StatusAuthenticated
	StatusRefreshPending
	StatusUnauthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshPending:
		return "refresh_pending"
	case StatusUnauthenticated:
		return "unauthenticated"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// State is a snapshot of a Store. Empty token strings mean no token.
type State struct {
	User            *backend.User
	AccessToken     string
	RefreshToken    string
	IsAuthenticated bool
	IsLoading       bool
	Status          Status
}

// RestorePolicy decides what Restore does with a stored session.
type RestorePolicy string

const (
	// RestoreVerify adopts the stored session and checks it against the profile
	// endpoint in the background.
	RestoreVerify RestorePolicy = "verify"
	// RestoreTrust adopts the stored session without asking the backend.
	RestoreTrust RestorePolicy = "trust"
)

func ParseRestorePolicy(s string) (RestorePolicy, error) {
	switch p := RestorePolicy(s); p {
	case RestoreVerify, RestoreTrust:
		return p, nil
	case "":
		return RestoreVerify, nil
	}
	return "", fmt.Errorf("unknown restore policy %q", s)
}

// SignupInput is the registration form. Every signup registers a student.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Password  string
}

func (in SignupInput) registration() backend.Registration {
	return backend.Registration{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Password:  in.Password,
		Role:      backend.DefaultRole,
	}
}
