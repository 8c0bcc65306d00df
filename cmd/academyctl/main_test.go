package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/backendfake"
	"github.com/jrsteele09/academy-storefront/internal/errors"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	backend *backendfake.Backend
	dir     string
	env     map[string]string
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	fake := backendfake.New()
	t.Cleanup(fake.Close)
	return &testFixture{backend: fake, dir: t.TempDir(), env: map[string]string{}}
}

// academyctl runs one invocation and returns what it printed.
func (f *testFixture) academyctl(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	all := append([]string{"-server", f.backend.URL(), "-dir", f.dir}, args...)
	err := run(context.Background(), all, func(name string) string { return f.env[name] }, strings.NewReader(stdin), &out, &errOut)
	return out.String(), err
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	f := setupTestFixture(t)

	out, err := f.academyctl(t, "", "login", "-email", backendfake.DemoEmail, "-password", backendfake.DemoPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as")

	_, err = os.Stat(filepath.Join(f.dir, sessionKey+".json"))
	require.NoError(t, err, "the session file is written")

	out, err = f.academyctl(t, "", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, backendfake.DemoEmail)
	require.Equal(t, 1, f.backend.Calls(backend.PathProfile), "a trusted restore does not ask the backend")
}

func TestPasswordFromStdinAndEnv(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.academyctl(t, backendfake.DemoPassword+"\n", "login", "-email", backendfake.DemoEmail)
	require.NoError(t, err)

	f.env["ACADEMY_PASSWORD"] = backendfake.DemoPassword
	_, err = f.academyctl(t, "", "login", "-email", backendfake.DemoEmail)
	require.NoError(t, err)
	require.Equal(t, 2, f.backend.Calls(backend.PathLogin))
}

func TestLoginFailure(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.academyctl(t, "", "login", "-email", backendfake.DemoEmail, "-password", "wrong-password")
	require.ErrorIs(t, err, errors.ErrAuthentication)
	require.Contains(t, describe(err), "No active account found")

	_, err = f.academyctl(t, "", "whoami")
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)
}

func TestSignupDuplicateEmail(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.academyctl(t, "", "signup", "-first", "Demo", "-last", "Again", "-email", backendfake.DemoEmail, "-password", "password123")
	require.ErrorIs(t, err, errors.ErrValidation)
	require.Contains(t, describe(err), "user with this email already exists.")
}

func TestEnrollAndList(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.academyctl(t, "", "enroll", "2")
	require.ErrorIs(t, err, errors.ErrNotAuthenticated)

	_, err = f.academyctl(t, "", "login", "-email", backendfake.DemoEmail, "-password", backendfake.DemoPassword)
	require.NoError(t, err)

	out, err := f.academyctl(t, "", "enroll", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Enrolled in course 2")

	out, err = f.academyctl(t, "", "enrollments")
	require.NoError(t, err)
	require.Contains(t, out, "Web Services in Go")

	out, err = f.academyctl(t, "", "courses", "-category", "2")
	require.NoError(t, err)
	require.Contains(t, out, "Interface Design")
	require.NotContains(t, out, "Go Fundamentals")
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.academyctl(t, "", "login", "-email", backendfake.DemoEmail, "-password", backendfake.DemoPassword)
	require.NoError(t, err)

	f.backend.ExpireAccessTokens()
	_, err = f.academyctl(t, "", "enrollments")
	require.NoError(t, err)
	require.Equal(t, 1, f.backend.Calls(backend.PathTokenRefresh))
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.academyctl(t, "", "login", "-email", backendfake.DemoEmail, "-password", backendfake.DemoPassword)
	require.NoError(t, err)

	out, err := f.academyctl(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out")

	_, err = os.Stat(filepath.Join(f.dir, sessionKey+".json"))
	require.True(t, os.IsNotExist(err))

	out, err = f.academyctl(t, "", "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in")
}

func TestUnknownCommand(t *testing.T) {
	f := setupTestFixture(t)
	_, err := f.academyctl(t, "", "teleport")
	require.ErrorContains(t, err, `unknown command "teleport"`)
}
