package session

import (
	"context"

	"github.com/jrsteele09/academy-storefront/internal/errors"
)

// Login exchanges credentials for tokens, fetches the profile and only then commits
// and persists. On any failure the previous state is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.login(ctx, email, password)
}

func (s *Store) login(ctx context.Context, email, password string) error {
	pair, err := s.auth.Login(ctx, email, password)
	if err == nil && pair.Access == "" {
		err = &errors.ServerError{Status: 200, Detail: "login response carried no access token"}
	}
	if err != nil {
		s.metrics.Login(false)
		return errors.Wrapf(errors.Classify(err, true), "[Store.Login] login")
	}

	user, err := s.auth.Profile(ctx, pair.Access)
	if err != nil {
		s.metrics.Login(false)
		return errors.Wrapf(errors.Classify(err, false), "[Store.Login] profile")
	}

	next := State{
		User:            user,
		AccessToken:     pair.Access,
		RefreshToken:    pair.Refresh,
		IsAuthenticated: true,
		Status:          StatusAuthenticated,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.saveLocked(ctx, next); err != nil {
		s.metrics.Login(false)
		return errors.Wrapf(err, "[Store.Login] persist")
	}
	s.epoch++
	s.state = next
	s.resolveLoadingLocked()
	s.metrics.Login(true)
	s.logger.Info().Int("user_id", user.ID).Msg("logged in")
	return nil
}

// Signup registers a student account and logs it in with the same credentials.
func (s *Store) Signup(ctx context.Context, in SignupInput) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if _, err := s.auth.Register(ctx, in.registration()); err != nil {
		return errors.Wrapf(errors.Classify(err, false), "[Store.Signup] register")
	}
	s.logger.Info().Msg("registered account")
	return s.login(ctx, in.Email, in.Password)
}

// Logout tells the backend to revoke the refresh token and clears the session. The
// backend call is best effort, so Logout always ends logged out and returns nil.
func (s *Store) Logout(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.RLock()
	access, refresh := s.state.AccessToken, s.state.RefreshToken
	s.mu.RUnlock()

	if refresh != "" {
		if err := s.auth.Logout(ctx, access, refresh); err != nil {
			s.logger.Warn().Err(err).Msg("backend logout failed")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
	s.logger.Info().Msg("logged out")
	return nil
}
