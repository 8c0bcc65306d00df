package session_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/academy-storefront/internal/backendfake"
	"github.com/jrsteele09/academy-storefront/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func (f *testFixture) newRegistry(t *testing.T, opts ...session.RegistryOption) *session.Registry {
	t.Helper()
	registry := session.NewRegistry(func(key string) (*session.Store, error) {
		return session.New(f.api, f.storage, key)
	}, zerolog.Nop(), opts...)
	t.Cleanup(registry.Close)
	return registry
}

func waitReady(t *testing.T, store *session.Store) {
	t.Helper()
	select {
	case <-store.Ready():
	case <-time.After(time.Second):
		t.Fatal("store did not finish restoring")
	}
}

func TestRegistry_GetCreatesAndRestores(t *testing.T) {
	f := setupTestFixture(t)
	registry := f.newRegistry(t)

	_, err := registry.Get("")
	require.Error(t, err)

	store, err := registry.Get("browser-1")
	require.NoError(t, err)
	waitReady(t, store)
	require.False(t, store.State().IsAuthenticated)

	again, err := registry.Get("browser-1")
	require.NoError(t, err)
	require.Same(t, store, again)

	other, err := registry.Get("browser-2")
	require.NoError(t, err)
	require.NotSame(t, store, other)
	require.Equal(t, 2, registry.Len())
}

func TestRegistry_SessionsAreIsolated(t *testing.T) {
	f := setupTestFixture(t)
	registry := f.newRegistry(t)
	ctx := context.Background()

	alice, err := registry.Get("alice")
	require.NoError(t, err)
	waitReady(t, alice)
	require.NoError(t, alice.Login(ctx, backendfake.DemoEmail, backendfake.DemoPassword))

	bob, err := registry.Get("bob")
	require.NoError(t, err)
	waitReady(t, bob)
	require.False(t, bob.State().IsAuthenticated)

	_, err = f.storage.Load(ctx, session.KeyPrefix+"alice")
	require.NoError(t, err)
}

func TestRegistry_ForgetKeepsStoredSession(t *testing.T) {
	f := setupTestFixture(t)
	registry := f.newRegistry(t)
	ctx := context.Background()

	store, err := registry.Get("browser")
	require.NoError(t, err)
	waitReady(t, store)
	require.NoError(t, store.Login(ctx, backendfake.DemoEmail, backendfake.DemoPassword))

	registry.Forget("browser")
	require.Zero(t, registry.Len())

	restored, err := registry.Get("browser")
	require.NoError(t, err)
	require.NotSame(t, store, restored)
	waitReady(t, restored)
	require.True(t, restored.State().IsAuthenticated)
	require.Equal(t, store.State().AccessToken, restored.State().AccessToken)
}

func TestRegistry_ReleaseDropsLoggedOutStores(t *testing.T) {
	f := setupTestFixture(t)
	registry := f.newRegistry(t)

	for i := range 100 {
		id := fmt.Sprintf("anonymous-%d", i)
		store, err := registry.Get(id)
		require.NoError(t, err)
		waitReady(t, store)
		registry.Release(id)
	}
	require.Zero(t, registry.Len())

	member, err := registry.Get("member")
	require.NoError(t, err)
	waitReady(t, member)
	require.NoError(t, member.Login(context.Background(), backendfake.DemoEmail, backendfake.DemoPassword))
	registry.Release("member")
	require.Equal(t, 1, registry.Len(), "logged in stores stay cached")

	again, err := registry.Get("member")
	require.NoError(t, err)
	require.Same(t, member, again)
}

func TestRegistry_EvictsIdleStores(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	f := setupTestFixture(t)
	registry := f.newRegistry(t, session.WithIdleTimeout(time.Minute), session.WithRegistryNowTime(clock))

	store, err := registry.Get("browser")
	require.NoError(t, err)
	waitReady(t, store)
	require.NoError(t, store.Login(context.Background(), backendfake.DemoEmail, backendfake.DemoPassword))

	advance(30 * time.Second)
	_, err = registry.Get("browser")
	require.NoError(t, err)
	advance(45 * time.Second)
	_, err = registry.Get("other")
	require.NoError(t, err)
	require.Equal(t, 2, registry.Len(), "recently used stores survive the sweep")

	advance(2 * time.Minute)
	_, err = registry.Get("late")
	require.NoError(t, err)
	require.Equal(t, 1, registry.Len())

	restored, err := registry.Get("browser")
	require.NoError(t, err)
	require.NotSame(t, store, restored)
	waitReady(t, restored)
	require.True(t, restored.State().IsAuthenticated, "evicted sessions come back from storage")
}
