package backend_test

import (
	"context"

	"github.com/jrsteele09/academy-storefront/internal/errors"
	"golang.org/x/oauth2"
)

// staticSession authorizes requests with a fixed token and cannot refresh.
type staticSession string

func (s staticSession) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: string(s)}, nil
}

func (s staticSession) RefreshIfCurrent(context.Context, string) error {
	return errors.ErrNoRefreshToken
}
