package session

import (
	"context"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/errors"
)

// SetUser replaces the user in memory and storage, keeping the tokens.
func (s *Store) SetUser(ctx context.Context, user *backend.User) error {
	if user == nil {
		return errors.New("[Store.SetUser] user is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.IsAuthenticated {
		return errors.ErrNotAuthenticated
	}
	s.state.User = user.Clone()
	if err := s.saveLocked(ctx, s.state); err != nil {
		return errors.Wrapf(err, "[Store.SetUser] persist")
	}
	return nil
}

// UpdateProfile sends update to the backend and stores the returned user. The call is
// authorized by the store itself, so a rejected access token is refreshed and the
// request replayed once by the client.
func (s *Store) UpdateProfile(ctx context.Context, update backend.ProfileUpdate) (*backend.User, error) {
	current := s.State()
	if !current.IsAuthenticated {
		return nil, errors.ErrNotAuthenticated
	}
	user, err := s.account.UpdateProfile(ctx, "", current.User, update)
	if err != nil {
		return nil, errors.Wrapf(errors.Classify(err, false), "[Store.UpdateProfile]")
	}
	if err := s.SetUser(ctx, user); err != nil {
		return nil, err
	}
	return user.Clone(), nil
}

func (s *Store) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if !s.State().IsAuthenticated {
		return errors.ErrNotAuthenticated
	}
	if err := s.account.ChangePassword(ctx, "", oldPassword, newPassword); err != nil {
		return errors.Wrapf(errors.Classify(err, false), "[Store.ChangePassword]")
	}
	return nil
}
