package session

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/errors"
)

// Storage keeps the serialized session under a key.
type Storage interface {
	// Load returns errors.ErrBlobNotFound when key holds nothing.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, blob []byte) error
	Delete(ctx context.Context, key string) error
}

// persistedSession is the stored blob.
type persistedSession struct {
	User            *backend.User `json:"user"`
	AccessToken     string        `json:"accessToken"`
	RefreshToken    string        `json:"refreshToken"`
	IsAuthenticated bool          `json:"isAuthenticated"`
}

// valid reports whether the blob describes a usable session.
func (p *persistedSession) valid() bool {
	return p.IsAuthenticated && p.AccessToken != "" && p.User != nil
}

// load reads the stored session. A missing or logged-out blob yields nil. A blob that
// cannot be decoded is deleted and reported.
func (s *Store) load(ctx context.Context) (*persistedSession, error) {
	blob, err := s.storage.Load(ctx, s.key)
	if errors.Is(err, errors.ErrBlobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "[Store.load] read")
	}

	var persisted persistedSession
	if err := json.Unmarshal(blob, &persisted); err != nil {
		if delErr := s.storage.Delete(ctx, s.key); delErr != nil {
			s.logger.Warn().Err(delErr).Msg("could not delete malformed session")
		}
		return nil, errors.Wrapf(err, "[Store.load] decode")
	}
	if !persisted.valid() {
		return nil, nil
	}
	return &persisted, nil
}

// saveLocked writes st as the stored blob. Callers hold s.mu.
func (s *Store) saveLocked(ctx context.Context, st State) error {
	blob, err := json.Marshal(persistedSession{
		User:            st.User,
		AccessToken:     st.AccessToken,
		RefreshToken:    st.RefreshToken,
		IsAuthenticated: st.IsAuthenticated,
	})
	if err != nil {
		return errors.Wrapf(err, "[Store.save] encode")
	}
	if err := s.storage.Save(ctx, s.key, blob); err != nil {
		return errors.Wrapf(err, "[Store.save] write")
	}
	return nil
}
