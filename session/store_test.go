package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/academy-storefront/apiclient"
	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/backendfake"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/jrsteele09/academy-storefront/internal/utils"
	"github.com/jrsteele09/academy-storefront/session"
	"github.com/jrsteele09/academy-storefront/storage"
	"github.com/stretchr/testify/require"
)

const storageKey = "auth"

type testFixture struct {
	fake    *backendfake.Backend
	api     *backend.API
	storage *storage.Memory
}

func setupTestFixture(t *testing.T, opts ...backendfake.Option) *testFixture {
	t.Helper()
	fake := backendfake.New(opts...)
	t.Cleanup(fake.Close)

	client, err := apiclient.New(fake.URL())
	require.NoError(t, err)
	return &testFixture{
		fake:    fake,
		api:     backend.New(client),
		storage: storage.NewMemory(),
	}
}

func (f *testFixture) newStore(t *testing.T, opts ...session.Option) *session.Store {
	t.Helper()
	store, err := session.New(f.api, f.storage, storageKey, opts...)
	require.NoError(t, err)
	t.Cleanup(store.Teardown)
	return store
}

// restoredStore returns a store that has finished restoring an empty storage.
func (f *testFixture) restoredStore(t *testing.T, opts ...session.Option) *session.Store {
	t.Helper()
	store := f.newStore(t, opts...)
	require.NoError(t, store.Restore(context.Background()))
	return store
}

func (f *testFixture) loggedInStore(t *testing.T, opts ...session.Option) *session.Store {
	t.Helper()
	store := f.restoredStore(t, opts...)
	require.NoError(t, store.Login(context.Background(), backendfake.DemoEmail, backendfake.DemoPassword))
	return store
}

func (f *testFixture) blob(t *testing.T) map[string]any {
	t.Helper()
	raw, err := f.storage.Load(context.Background(), storageKey)
	if errors.Is(err, errors.ErrBlobNotFound) {
		return nil
	}
	require.NoError(t, err)
	var blob map[string]any
	require.NoError(t, json.Unmarshal(raw, &blob))
	return blob
}

func (f *testFixture) saveBlob(t *testing.T, raw string) {
	t.Helper()
	require.NoError(t, f.storage.Save(context.Background(), storageKey, []byte(raw)))
}

func requireLoggedOut(t *testing.T, store *session.Store) {
	t.Helper()
	st := store.State()
	require.False(t, st.IsAuthenticated)
	require.False(t, st.IsLoading)
	require.Nil(t, st.User)
	require.Empty(t, st.AccessToken)
	require.Empty(t, st.RefreshToken)
	require.Equal(t, session.StatusUnauthenticated, st.Status)
}

func TestNew_RequiresDependencies(t *testing.T) {
	f := setupTestFixture(t)

	_, err := session.New(nil, f.storage, storageKey)
	require.Error(t, err)
	_, err = session.New(f.api, nil, storageKey)
	require.Error(t, err)
	_, err = session.New(f.api, f.storage, "")
	require.Error(t, err)
}

func TestStore_InitialState(t *testing.T) {
	f := setupTestFixture(t)
	store := f.newStore(t)

	st := store.State()
	require.True(t, st.IsLoading)
	require.False(t, st.IsAuthenticated)
	require.Equal(t, session.StatusUninitialized, st.Status)

	_, err := store.Token()
	require.ErrorIs(t, err, errors.ErrNoToken)
}

func TestStore_RestoreEmpty(t *testing.T) {
	f := setupTestFixture(t)
	store := f.newStore(t)

	require.NoError(t, store.Restore(context.Background()))
	requireLoggedOut(t, store)

	select {
	case <-store.Ready():
	default:
		t.Fatal("ready should be closed after restore")
	}
	require.ErrorIs(t, store.Restore(context.Background()), errors.ErrAlreadyRestored)
	require.Zero(t, f.fake.Calls(backend.PathProfile))
}

func TestStore_RestoreDiscardsBadBlobs(t *testing.T) {
	tests := []struct {
		name        string
		blob        string
		loadErr     error
		blobDeleted bool
	}{
		{name: "malformed json", blob: `{not json`, blobDeleted: true},
		{name: "logged out blob", blob: `{"user":null,"accessToken":"","refreshToken":"","isAuthenticated":false}`},
		{name: "missing user", blob: `{"accessToken":"a","refreshToken":"r","isAuthenticated":true}`},
		{name: "missing access token", blob: `{"user":{"id":1},"refreshToken":"r","isAuthenticated":true}`},
		{
			name:    "storage read error",
			blob:    `{"user":{"id":1},"accessToken":"a","refreshToken":"r","isAuthenticated":true}`,
			loadErr: errors.New("disk on fire"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			f.saveBlob(t, tt.blob)
			store, err := session.New(f.api, &failingStorage{Memory: f.storage, loadErr: tt.loadErr}, storageKey)
			require.NoError(t, err)
			t.Cleanup(store.Teardown)

			require.NoError(t, store.Restore(context.Background()))
			requireLoggedOut(t, store)
			require.False(t, store.State().IsLoading)
			require.Equal(t, tt.blobDeleted, f.blob(t) == nil)
		})
	}
}

// failingStorage fails every Load with loadErr when it is set.
type failingStorage struct {
	*storage.Memory
	loadErr error
}

func (s *failingStorage) Load(ctx context.Context, key string) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.Memory.Load(ctx, key)
}

func TestStore_DemoLogin(t *testing.T) {
	f := setupTestFixture(t)
	store := f.restoredStore(t)

	require.NoError(t, store.Login(context.Background(), backendfake.DemoEmail, backendfake.DemoPassword))

	st := store.State()
	require.True(t, st.IsAuthenticated)
	require.False(t, st.IsLoading)
	require.Equal(t, session.StatusAuthenticated, st.Status)
	require.Equal(t, backendfake.DemoEmail, st.User.Email)
	require.NotEmpty(t, st.AccessToken)
	require.NotEmpty(t, st.RefreshToken)

	blob := f.blob(t)
	require.Equal(t, true, blob["isAuthenticated"])
	require.Equal(t, st.AccessToken, blob["accessToken"])
	require.Equal(t, st.RefreshToken, blob["refreshToken"])
	require.Equal(t, backendfake.DemoEmail, blob["user"].(map[string]any)["email"])

	token, err := store.Token()
	require.NoError(t, err)
	require.Equal(t, st.AccessToken, token.AccessToken)
	require.Equal(t, "Bearer", token.Type())

	require.Equal(t, 1, f.fake.Calls(backend.PathLogin))
	require.Equal(t, 1, f.fake.Calls(backend.PathProfile))
}

func TestStore_LoginBeforeRestore(t *testing.T) {
	f := setupTestFixture(t)
	store := f.newStore(t)

	require.NoError(t, store.Login(context.Background(), backendfake.DemoEmail, backendfake.DemoPassword))
	require.False(t, store.State().IsLoading)
	require.ErrorIs(t, store.Restore(context.Background()), errors.ErrAlreadyRestored)
	require.True(t, store.State().IsAuthenticated)
}

func TestStore_LoginFailureLeavesStateUnchanged(t *testing.T) {
	t.Run("logged out store", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.restoredStore(t)

		err := store.Login(context.Background(), backendfake.DemoEmail, "wrong-password")
		require.ErrorIs(t, err, errors.ErrAuthentication)
		var authErr *errors.AuthenticationError
		require.True(t, errors.As(err, &authErr))
		require.Equal(t, "No active account found with the given credentials", authErr.Detail)

		requireLoggedOut(t, store)
		require.Nil(t, f.blob(t))
		require.Zero(t, f.fake.Calls(backend.PathProfile), "no profile fetch after rejected credentials")
	})

	t.Run("logged in store", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.loggedInStore(t)
		before := store.State()
		blobBefore := f.blob(t)

		err := store.Login(context.Background(), "nobody@example.com", "whatever-password")
		require.ErrorIs(t, err, errors.ErrAuthentication)
		require.Equal(t, before, store.State())
		require.Equal(t, blobBefore, f.blob(t))
	})

	t.Run("profile fetch fails", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.restoredStore(t)
		f.fake.FailNext(backend.PathProfile, http.StatusInternalServerError)

		err := store.Login(context.Background(), backendfake.DemoEmail, backendfake.DemoPassword)
		require.ErrorIs(t, err, errors.ErrServer)
		requireLoggedOut(t, store)
		require.Nil(t, f.blob(t))
	})

	t.Run("backend unreachable", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.restoredStore(t)
		f.fake.Close()

		err := store.Login(context.Background(), backendfake.DemoEmail, backendfake.DemoPassword)
		require.ErrorIs(t, err, errors.ErrNetwork)
		requireLoggedOut(t, store)
	})
}

func TestStore_LogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	refresh := store.State().RefreshToken
	ctx := context.Background()

	require.NoError(t, store.Logout(ctx))
	requireLoggedOut(t, store)
	require.Nil(t, f.blob(t))

	require.NoError(t, store.Logout(ctx))
	requireLoggedOut(t, store)
	require.Equal(t, 1, f.fake.Calls(backend.PathLogout), "a logged out store has nothing to revoke")

	_, err := f.api.RefreshToken(ctx, refresh)
	require.Error(t, err, "logout revokes the refresh token")
}

func TestStore_LogoutSwallowsBackendFailure(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	f.fake.FailNext(backend.PathLogout, http.StatusInternalServerError)

	require.NoError(t, store.Logout(context.Background()))
	requireLoggedOut(t, store)
	require.Nil(t, f.blob(t))
}

func TestStore_PersistRestoreRoundTrip(t *testing.T) {
	f := setupTestFixture(t)
	first := f.loggedInStore(t)
	want := first.State()

	second := f.newStore(t, session.WithRestorePolicy(session.RestoreTrust))
	require.NoError(t, second.Restore(context.Background()))

	got := second.State()
	require.Equal(t, want.User, got.User)
	require.Equal(t, want.AccessToken, got.AccessToken)
	require.Equal(t, want.RefreshToken, got.RefreshToken)
	require.True(t, got.IsAuthenticated)
	require.False(t, got.IsLoading)
	require.Equal(t, 1, f.fake.Calls(backend.PathProfile), "trust policy does not call the backend")
}

func TestStore_RestoreVerify(t *testing.T) {
	t.Run("valid token refreshes the profile", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loggedInStore(t)
		blob := f.blob(t)
		blob["user"].(map[string]any)["first_name"] = "Stale"
		raw, _ := json.Marshal(blob)
		f.saveBlob(t, string(raw))

		store := f.newStore(t)
		require.NoError(t, store.Restore(context.Background()))
		require.True(t, store.State().IsAuthenticated, "adopted before verification")

		require.Eventually(t, func() bool {
			return store.State().User.FirstName == "Demo"
		}, time.Second, 5*time.Millisecond)
		require.Equal(t, 2, f.fake.Calls(backend.PathProfile))
	})

	t.Run("expired token is refreshed", func(t *testing.T) {
		f := setupTestFixture(t)
		before := f.loggedInStore(t).State()
		f.fake.ExpireAccessTokens()

		store := f.newStore(t)
		require.NoError(t, store.Restore(context.Background()))

		require.Eventually(t, func() bool {
			return store.State().AccessToken != before.AccessToken
		}, time.Second, 5*time.Millisecond)
		st := store.State()
		require.True(t, st.IsAuthenticated)
		require.Equal(t, before.RefreshToken, st.RefreshToken)
		require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh))
	})

	t.Run("revoked session is cleared", func(t *testing.T) {
		f := setupTestFixture(t)
		f.loggedInStore(t)
		f.fake.ExpireAccessTokens()
		f.fake.RevokeRefreshTokens()

		store := f.newStore(t)
		require.NoError(t, store.Restore(context.Background()))

		require.Eventually(t, func() bool {
			return !store.State().IsAuthenticated
		}, time.Second, 5*time.Millisecond)
		requireLoggedOut(t, store)
		require.Nil(t, f.blob(t))
	})

	t.Run("backend failure keeps the session", func(t *testing.T) {
		f := setupTestFixture(t)
		before := f.loggedInStore(t).State()
		f.fake.FailNext(backend.PathProfile, http.StatusServiceUnavailable)

		store := f.newStore(t)
		require.NoError(t, store.Restore(context.Background()))
		require.Eventually(t, func() bool {
			return f.fake.Calls(backend.PathProfile) == 2
		}, time.Second, 5*time.Millisecond)
		store.Teardown()

		st := store.State()
		require.True(t, st.IsAuthenticated)
		require.Equal(t, before.AccessToken, st.AccessToken)
		require.Zero(t, f.fake.Calls(backend.PathTokenRefresh))
	})
}

func TestStore_RefreshWithoutRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	store := f.restoredStore(t)

	require.ErrorIs(t, store.RefreshAccessToken(context.Background()), errors.ErrNoRefreshToken)
	requireLoggedOut(t, store)
	require.Zero(t, f.fake.Calls(backend.PathTokenRefresh))
}

func TestStore_RefreshReplacesAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	before := store.State()

	require.NoError(t, store.RefreshAccessToken(context.Background()))

	st := store.State()
	require.NotEqual(t, before.AccessToken, st.AccessToken)
	require.Equal(t, before.RefreshToken, st.RefreshToken)
	require.Equal(t, before.User, st.User)
	require.Equal(t, session.StatusAuthenticated, st.Status)
	require.Equal(t, st.AccessToken, f.blob(t)["accessToken"])
}

func TestStore_RefreshAdoptsRotatedRefreshToken(t *testing.T) {
	f := setupTestFixture(t, backendfake.WithRefreshRotation())
	store := f.loggedInStore(t)
	before := store.State()

	require.NoError(t, store.RefreshAccessToken(context.Background()))

	st := store.State()
	require.NotEqual(t, before.AccessToken, st.AccessToken)
	require.NotEqual(t, before.RefreshToken, st.RefreshToken)
	require.Equal(t, st.RefreshToken, f.blob(t)["refreshToken"])
}

func TestStore_RefreshFailureForcesLogout(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	f.fake.RevokeRefreshTokens()

	err := store.RefreshAccessToken(context.Background())
	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	var refreshErr *errors.RefreshFailedError
	require.True(t, errors.As(err, &refreshErr))
	require.ErrorIs(t, refreshErr.Err, errors.ErrAuthentication)

	requireLoggedOut(t, store)
	require.Nil(t, f.blob(t))
	require.Zero(t, f.fake.Calls(backend.PathLogout), "a failed refresh does not call logout")
}

func TestStore_ConcurrentRefreshesShareOneCall(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	f.fake.SetLatency(backend.PathTokenRefresh, 50*time.Millisecond)

	const n = 10
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.RefreshAccessToken(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh))
}

func TestStore_RefreshIfCurrentSkipsStaleRejections(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	ctx := context.Background()

	require.NoError(t, store.RefreshIfCurrent(ctx, "some-older-token"))
	require.Zero(t, f.fake.Calls(backend.PathTokenRefresh))

	require.NoError(t, store.RefreshIfCurrent(ctx, store.State().AccessToken))
	require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh))
}

func TestStore_LogoutDuringRefreshIsNotUndone(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	f.fake.SetLatency(backend.PathTokenRefresh, 100*time.Millisecond)

	result := make(chan error, 1)
	go func() {
		result <- store.RefreshAccessToken(context.Background())
	}()
	require.Eventually(t, func() bool {
		return store.State().Status == session.StatusRefreshPending
	}, time.Second, time.Millisecond)

	require.NoError(t, store.Logout(context.Background()))

	err := <-result
	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	requireLoggedOut(t, store)
	require.Nil(t, f.blob(t))
}

func TestStore_TransparentRecoveryThroughClient(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	api := f.api.WithSession(store)
	ctx := context.Background()

	_, err := api.Enroll(ctx, 1)
	require.NoError(t, err)
	f.fake.ExpireAccessTokens()
	callsBefore := f.fake.Calls(backend.PathEnrollments)

	enrollments, err := api.Enrollments(ctx)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh), "exactly one refresh")
	require.Equal(t, 2, f.fake.Calls(backend.PathEnrollments)-callsBefore, "original attempt plus one retry")
	require.True(t, store.State().IsAuthenticated)
}

func TestStore_AccessTokenLifetime(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	f := setupTestFixture(t, backendfake.WithNowTime(clock), backendfake.WithAccessTTL(time.Minute))
	store := f.loggedInStore(t)
	api := f.api.WithSession(store)
	ctx := context.Background()

	_, err := api.Enrollments(ctx)
	require.NoError(t, err)
	require.Zero(t, f.fake.Calls(backend.PathTokenRefresh))

	mu.Lock()
	now = now.Add(2 * time.Minute)
	mu.Unlock()
	expired := store.State().AccessToken

	_, err = api.Enrollments(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh))
	require.NotEqual(t, expired, store.State().AccessToken)
}

func TestStore_ConcurrentUnauthorizedRequestsShareOneRefresh(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	api := f.api.WithSession(store)
	f.fake.ExpireAccessTokens()
	f.fake.SetLatency(backend.PathTokenRefresh, 30*time.Millisecond)

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := api.Modules(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh))
}

func TestStore_ClientRefreshFailureLogsOut(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	api := f.api.WithSession(store)
	f.fake.ExpireAccessTokens()
	f.fake.RevokeRefreshTokens()

	_, err := api.Enrollments(context.Background())
	require.ErrorIs(t, err, errors.ErrRefreshFailed)
	requireLoggedOut(t, store)
	require.Equal(t, 1, f.fake.Calls(backend.PathEnrollments), "no retry after a failed refresh")
}

func TestStore_Signup(t *testing.T) {
	t.Run("registers and logs in", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.restoredStore(t)

		err := store.Signup(context.Background(), session.SignupInput{
			FirstName: "Nia",
			LastName:  "Okafor",
			Email:     "nia@example.com",
			Phone:     "0700000000",
			Password:  "correct-horse",
		})
		require.NoError(t, err)

		st := store.State()
		require.True(t, st.IsAuthenticated)
		require.Equal(t, "nia@example.com", st.User.Email)
		require.Equal(t, backend.DefaultRole, st.User.Role)
		require.Equal(t, "0700000000", utils.Value(st.User.Phone))
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.restoredStore(t)

		err := store.Signup(context.Background(), session.SignupInput{
			FirstName: "Demo",
			Email:     backendfake.DemoEmail,
			Password:  "another-password",
		})
		require.ErrorIs(t, err, errors.ErrValidation)
		var validation *errors.ValidationError
		require.True(t, errors.As(err, &validation))
		require.Equal(t, "user with this email already exists.", validation.Field("email"))

		requireLoggedOut(t, store)
		require.Zero(t, f.fake.Calls(backend.PathLogin))
	})
}

func TestStore_SetUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	store := f.restoredStore(t)
	require.ErrorIs(t, store.SetUser(ctx, &backend.User{ID: 1}), errors.ErrNotAuthenticated)

	require.NoError(t, store.Login(ctx, backendfake.DemoEmail, backendfake.DemoPassword))
	before := store.State()
	updated := before.User.Clone()
	updated.Bio = utils.Ptr("Now with a bio")

	require.NoError(t, store.SetUser(ctx, updated))
	st := store.State()
	require.Equal(t, "Now with a bio", utils.Value(st.User.Bio))
	require.Equal(t, before.AccessToken, st.AccessToken)
	require.Equal(t, before.RefreshToken, st.RefreshToken)
	require.Equal(t, "Now with a bio", f.blob(t)["user"].(map[string]any)["bio"])

	updated.FirstName = "Mutated"
	require.Equal(t, "Demo", store.State().User.FirstName, "the store keeps its own copy")
}

func TestStore_UpdateProfile(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	f.fake.ExpireAccessTokens()

	user, err := store.UpdateProfile(context.Background(), backend.ProfileUpdate{
		LastName: utils.Ptr("Scholar"),
		Picture:  &backend.Upload{Filename: "avatar.jpg", Content: []byte("jpg")},
	})
	require.NoError(t, err)
	require.Equal(t, "Scholar", user.LastName)
	require.Equal(t, "Scholar", store.State().User.LastName)
	require.Equal(t, "/media/profile_pictures/avatar.jpg", utils.Value(store.State().User.ProfilePicture))
	require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh))

	stored, ok := f.fake.User(backendfake.DemoEmail)
	require.True(t, ok)
	require.Equal(t, "Scholar", stored.LastName)
}

func TestStore_AccountCallsRefreshThroughClient(t *testing.T) {
	t.Run("replays once after a refresh", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.loggedInStore(t)
		before := store.State()
		f.fake.ExpireAccessTokens()

		require.NoError(t, store.ChangePassword(context.Background(), backendfake.DemoPassword, "brand-new-password"))
		require.Equal(t, 2, f.fake.Calls(backend.PathChangePassword))
		require.Equal(t, 1, f.fake.Calls(backend.PathTokenRefresh))
		require.NotEqual(t, before.AccessToken, store.State().AccessToken)
	})

	t.Run("failed refresh logs out", func(t *testing.T) {
		f := setupTestFixture(t)
		store := f.loggedInStore(t)
		f.fake.ExpireAccessTokens()
		f.fake.RevokeRefreshTokens()

		_, err := store.UpdateProfile(context.Background(), backend.ProfileUpdate{LastName: utils.Ptr("Scholar")})
		require.ErrorIs(t, err, errors.ErrRefreshFailed)
		requireLoggedOut(t, store)
		require.Equal(t, 1, f.fake.Calls(backend.PathUpdateProfile))
		require.Nil(t, f.blob(t))
	})
}

func TestStore_ChangePassword(t *testing.T) {
	f := setupTestFixture(t)
	store := f.loggedInStore(t)
	ctx := context.Background()

	err := store.ChangePassword(ctx, "not-the-password", "brand-new-password")
	var validation *errors.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Equal(t, "Wrong password.", validation.Field("old_password"))

	require.NoError(t, store.ChangePassword(ctx, backendfake.DemoPassword, "brand-new-password"))
	require.True(t, store.State().IsAuthenticated)

	unauthenticated, err := session.New(f.api, storage.NewMemory(), storageKey)
	require.NoError(t, err)
	require.NoError(t, unauthenticated.Restore(ctx))
	require.ErrorIs(t, unauthenticated.ChangePassword(ctx, "a", "b"), errors.ErrNotAuthenticated)
}

func TestParseRestorePolicy(t *testing.T) {
	p, err := session.ParseRestorePolicy("")
	require.NoError(t, err)
	require.Equal(t, session.RestoreVerify, p)

	p, err = session.ParseRestorePolicy("trust")
	require.NoError(t, err)
	require.Equal(t, session.RestoreTrust, p)

	_, err = session.ParseRestorePolicy("sometimes")
	require.Error(t, err)
}
