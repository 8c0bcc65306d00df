package session

import (
	"context"

	"github.com/jrsteele09/academy-storefront/internal/errors"
)

// RefreshAccessToken exchanges the refresh token for a new access token. Concurrent
// calls share one backend request. A failed refresh clears the session and returns
// *errors.RefreshFailedError; without a refresh token it returns
// errors.ErrNoRefreshToken at once.
func (s *Store) RefreshAccessToken(ctx context.Context) error {
	s.mu.RLock()
	refresh := s.state.RefreshToken
	s.mu.RUnlock()
	if refresh == "" {
		return errors.ErrNoRefreshToken
	}

	// The shared refresh outlives any one caller's context.
	ch := s.refreshes.DoChan(refresh, func() (any, error) {
		return nil, s.refresh(context.WithoutCancel(ctx), refresh)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RefreshIfCurrent refreshes unless the store already holds an access token other
// than rejected, which means another caller refreshed first.
func (s *Store) RefreshIfCurrent(ctx context.Context, rejected string) error {
	s.mu.RLock()
	current, authenticated := s.state.AccessToken, s.state.IsAuthenticated
	s.mu.RUnlock()
	if authenticated && current != "" && current != rejected {
		return nil
	}
	return s.RefreshAccessToken(ctx)
}

func (s *Store) refresh(ctx context.Context, refresh string) error {
	s.mu.Lock()
	if s.state.RefreshToken != refresh {
		authenticated := s.state.IsAuthenticated
		s.mu.Unlock()
		return supersededRefresh(authenticated)
	}
	epoch := s.epoch
	s.state.Status = StatusRefreshPending
	s.mu.Unlock()

	pair, err := s.auth.RefreshToken(ctx, refresh)
	if err == nil && pair.Access == "" {
		err = &errors.ServerError{Status: 200, Detail: "refresh response carried no access token"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		// Logged out or in again while the request was in flight.
		return supersededRefresh(s.state.IsAuthenticated)
	}
	if err != nil {
		s.metrics.Refresh(false)
		s.logger.Warn().Err(err).Msg("token refresh failed, clearing session")
		s.clearLocked(ctx)
		return &errors.RefreshFailedError{Err: errors.Classify(err, false)}
	}

	s.state.AccessToken = pair.Access
	if pair.Refresh != "" {
		s.state.RefreshToken = pair.Refresh
	}
	s.state.Status = StatusAuthenticated
	if err := s.saveLocked(ctx, s.state); err != nil {
		s.logger.Error().Err(err).Msg("could not persist refreshed token")
	}
	s.metrics.Refresh(true)
	s.logger.Debug().Bool("rotated", pair.Refresh != "").Msg("refreshed access token")
	return nil
}

func supersededRefresh(authenticated bool) error {
	if authenticated {
		return nil
	}
	return &errors.RefreshFailedError{Err: errors.ErrNotAuthenticated}
}
