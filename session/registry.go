package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/rs/zerolog"
)

// KeyPrefix prefixes the storage key of every browser session.
const KeyPrefix = "auth:"

// Factory creates the store persisting under key.
type Factory func(key string) (*Store, error)

type registryEntry struct {
	store    *Store
	lastUsed atomic.Int64 // unix nanoseconds
}

// Registry holds one Store per browser session, created on first use and restored in
// the background so callers can observe the loading phase.
//
// Stores are only a cache of the stored blobs. Release drops a store that ended a
// request logged out, and stores idle longer than the idle timeout are evicted, so
// cookie-less visitors do not accumulate.
type Registry struct {
	mu          sync.RWMutex
	stores      map[string]*registryEntry
	factory     Factory
	logger      zerolog.Logger
	wg          sync.WaitGroup
	idleTimeout time.Duration
	nowTime     func() time.Time
	lastSweep   time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithIdleTimeout evicts stores not requested for d. Zero keeps them until Forget,
// Release or Close.
func WithIdleTimeout(d time.Duration) RegistryOption {
	return func(r *Registry) {
		r.idleTimeout = d
	}
}

// WithRegistryNowTime sets the clock used for idle eviction.
func WithRegistryNowTime(now func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.nowTime = now
	}
}

func NewRegistry(factory Factory, logger zerolog.Logger, opts ...RegistryOption) *Registry {
	r := &Registry{
		stores:  make(map[string]*registryEntry),
		factory: factory,
		logger:  logger,
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.lastSweep = r.nowTime()
	return r
}

// Get returns the store of sessionID, creating it if needed.
func (r *Registry) Get(sessionID string) (*Store, error) {
	if sessionID == "" {
		return nil, errors.New("[Registry.Get] sessionID is required")
	}
	now := r.nowTime()

	r.mu.RLock()
	entry, ok := r.stores[sessionID]
	r.mu.RUnlock()
	if ok {
		entry.lastUsed.Store(now.UnixNano())
		return entry.store, nil
	}

	r.mu.Lock()
	idle := r.sweepLocked(now)
	entry, ok = r.stores[sessionID]
	if !ok {
		store, err := r.factory(KeyPrefix + sessionID)
		if err != nil {
			r.mu.Unlock()
			teardownAll(idle)
			return nil, errors.Wrapf(err, "[Registry.Get] create store")
		}
		entry = &registryEntry{store: store}
		r.stores[sessionID] = entry
		r.restore(store)
	}
	entry.lastUsed.Store(now.UnixNano())
	r.mu.Unlock()

	teardownAll(idle)
	return entry.store, nil
}

// restore runs the first Restore of store in the background. Callers hold r.mu.
func (r *Registry) restore(store *Store) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := store.Restore(context.Background()); err != nil && !errors.Is(err, errors.ErrAlreadyRestored) {
			r.logger.Error().Err(err).Msg("restore failed")
		}
	}()
}

// sweepLocked removes the stores idle past the timeout, at most once per quarter of
// it, and returns them for teardown outside the lock. Callers hold r.mu.
func (r *Registry) sweepLocked(now time.Time) []*Store {
	if r.idleTimeout <= 0 || now.Sub(r.lastSweep) < r.idleTimeout/4 {
		return nil
	}
	r.lastSweep = now

	cutoff := now.Add(-r.idleTimeout).UnixNano()
	var idle []*Store
	for id, entry := range r.stores {
		if entry.lastUsed.Load() < cutoff {
			delete(r.stores, id)
			idle = append(idle, entry.store)
		}
	}
	if len(idle) > 0 {
		r.logger.Debug().Int("evicted", len(idle)).Msg("evicted idle sessions")
	}
	return idle
}

// Release drops the store of sessionID if it finished restoring and is logged out.
// Nothing is lost: a later Get restores from storage again.
func (r *Registry) Release(sessionID string) {
	r.mu.Lock()
	entry, ok := r.stores[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	if st := entry.store.State(); st.IsLoading || st.IsAuthenticated {
		r.mu.Unlock()
		return
	}
	delete(r.stores, sessionID)
	r.mu.Unlock()
	entry.store.Teardown()
}

// Forget tears down and drops the store of sessionID. Its stored blob is kept.
func (r *Registry) Forget(sessionID string) {
	r.mu.Lock()
	entry, ok := r.stores[sessionID]
	delete(r.stores, sessionID)
	r.mu.Unlock()
	if ok {
		entry.store.Teardown()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// Close waits for pending restores and tears every store down.
func (r *Registry) Close() {
	r.wg.Wait()

	r.mu.Lock()
	entries := r.stores
	r.stores = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, entry := range entries {
		entry.store.Teardown()
	}
}

func teardownAll(stores []*Store) {
	for _, store := range stores {
		store.Teardown()
	}
}
