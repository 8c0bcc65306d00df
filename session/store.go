// Package session owns the client side authentication state: the current user, the
// token pair, and the rules for restoring, refreshing and clearing them.
package session

import (
	"context"
	"net/http"
	"sync"

	"github.com/jrsteele09/academy-storefront/apiclient"
	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/jrsteele09/academy-storefront/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Authenticator is the part of the backend the store talks to. Calls that take an
// access token send exactly that token. *backend.API implements it.
type Authenticator interface {
	Register(ctx context.Context, reg backend.Registration) (*backend.User, error)
	Login(ctx context.Context, email, password string) (*backend.TokenPair, error)
	Profile(ctx context.Context, accessToken string) (*backend.User, error)
	Logout(ctx context.Context, accessToken, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (*backend.TokenPair, error)
	// WithSession returns the API authorized by s. The store binds it to itself for
	// the calls made on behalf of a committed session.
	WithSession(s apiclient.Session) *backend.API
}

// Store is the single authority over one session. All methods are safe for
// concurrent use.
type Store struct {
	auth    Authenticator
	account *backend.API
	storage Storage
	key     string
	policy  RestorePolicy
	logger  zerolog.Logger
	metrics *metrics.Metrics

	// opMu serializes login, signup and logout.
	opMu sync.Mutex

	mu    sync.RWMutex
	state State
	// epoch changes whenever the session identity changes (adopt, login, clear).
	// Work started under an older epoch does not commit.
	epoch        uint64
	ready        chan struct{}
	cancelVerify context.CancelFunc
	tornDown     bool

	refreshes singleflight.Group
	wg        sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

func WithRestorePolicy(policy RestorePolicy) Option {
	return func(s *Store) {
		s.policy = policy
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

// New creates an uninitialized store persisting under key.
func New(auth Authenticator, storage Storage, key string, opts ...Option) (*Store, error) {
	if auth == nil {
		return nil, errors.New("[session.New] authenticator is required")
	}
	if storage == nil {
		return nil, errors.New("[session.New] storage is required")
	}
	if key == "" {
		return nil, errors.New("[session.New] storage key is required")
	}

	s := &Store{
		auth:    auth,
		storage: storage,
		key:     key,
		policy:  RestoreVerify,
		logger:  zerolog.Nop(),
		state:   State{IsLoading: true, Status: StatusUninitialized},
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.account = auth.WithSession(s)
	return s, nil
}

// State returns a snapshot. The user is a copy.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.User = st.User.Clone()
	return st
}

// Ready is closed once IsLoading has become false.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Token implements oauth2.TokenSource. It returns errors.ErrNoToken when the store
// holds no authenticated session.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.state.IsAuthenticated || s.state.AccessToken == "" {
		return nil, errors.ErrNoToken
	}
	return &oauth2.Token{
		AccessToken:  s.state.AccessToken,
		RefreshToken: s.state.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

// Restore loads the stored session. It runs once; later calls return
// errors.ErrAlreadyRestored. Storage and decode failures leave the store logged out.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Status != StatusUninitialized {
		s.mu.Unlock()
		return errors.ErrAlreadyRestored
	}
	s.state.Status = StatusLoading
	s.mu.Unlock()

	persisted, err := s.load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discarding stored session")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Status != StatusLoading {
		// A login committed while the blob was being read.
		return nil
	}
	if persisted == nil {
		s.state = State{Status: StatusUnauthenticated}
		s.resolveLoadingLocked()
		return nil
	}

	s.epoch++
	s.state = State{
		User:            persisted.User,
		AccessToken:     persisted.AccessToken,
		RefreshToken:    persisted.RefreshToken,
		IsAuthenticated: true,
		Status:          StatusAuthenticated,
	}
	s.resolveLoadingLocked()
	s.logger.Debug().Int("user_id", persisted.User.ID).Str("policy", string(s.policy)).Msg("restored session")

	if s.policy == RestoreVerify {
		s.startVerifyLocked(s.epoch, persisted.AccessToken)
	}
	return nil
}

// resolveLoadingLocked ends the loading phase. Callers hold s.mu.
func (s *Store) resolveLoadingLocked() {
	s.state.IsLoading = false
	select {
	case <-s.ready:
	default:
		close(s.ready)
	}
}

func (s *Store) startVerifyLocked(epoch uint64, access string) {
	if s.tornDown {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelVerify = cancel
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.verify(ctx, epoch, access)
	}()
}

// verify checks a restored session against the profile endpoint. Only a 401 counts
// as proof that the token is bad; anything else keeps the session.
func (s *Store) verify(ctx context.Context, epoch uint64, access string) {
	user, err := s.auth.Profile(ctx, access)
	switch {
	case err == nil:
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != epoch || !s.state.IsAuthenticated {
			return
		}
		s.state.User = user
		if err := s.saveLocked(ctx, s.state); err != nil {
			s.logger.Error().Err(err).Msg("could not persist verified profile")
		}
	case isUnauthorized(err):
		if err := s.RefreshIfCurrent(ctx, access); err != nil {
			s.logger.Info().Err(err).Msg("stored session rejected")
		}
	default:
		s.logger.Warn().Err(err).Msg("could not verify stored session, keeping it")
	}
}

// Teardown stops background verification and waits for it to finish.
func (s *Store) Teardown() {
	s.mu.Lock()
	s.tornDown = true
	cancel := s.cancelVerify
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// clearLocked drops the session from memory and storage. Callers hold s.mu.
func (s *Store) clearLocked(ctx context.Context) {
	s.epoch++
	s.state = State{Status: StatusUnauthenticated}
	s.resolveLoadingLocked()
	if err := s.storage.Delete(ctx, s.key); err != nil {
		s.logger.Error().Err(err).Msg("could not delete stored session")
	}
}

func isUnauthorized(err error) bool {
	var respErr *errors.ResponseError
	return errors.As(err, &respErr) && respErr.Status == http.StatusUnauthorized
}
