// Command academyctl drives an academy account from the terminal. The session is kept
// in a file under the user's home directory and survives between invocations.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jrsteele09/academy-storefront/apiclient"
	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/logging"
	"github.com/jrsteele09/academy-storefront/session"
	"github.com/jrsteele09/academy-storefront/storage"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// sessionKey names the blob under the session folder.
const sessionKey = "auth"

const usage = `usage: academyctl [flags] <command> [command flags]

commands:
  login        log in (-email, -password or ACADEMY_PASSWORD, prompts otherwise)
  signup       create a student account and log in
  logout       end the session
  whoami       show the logged in user
  courses      list courses (-category, -q)
  enrollments  list your enrolled courses
  enroll       enroll in a course (-course or the course id as argument)

flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Getenv, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", describe(err))
		os.Exit(1)
	}
}

// run parses the global flags, restores the stored session and dispatches the command.
func run(ctx context.Context, args []string, getenv func(string) string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("academyctl", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprint(stderr, usage)
		flags.PrintDefaults()
	}
	server := flags.String("server", envOr(getenv, "ACADEMY_SERVER", "http://127.0.0.1:8000"), "backend base URL (ACADEMY_SERVER)")
	dir := flags.String("dir", envOr(getenv, "ACADEMY_HOME", defaultDir()), "folder holding the session file (ACADEMY_HOME)")
	timeout := flags.Duration("timeout", 15*time.Second, "backend request timeout")
	verbose := flags.Bool("v", false, "log requests and session changes")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return fmt.Errorf("no command given")
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, closer := logging.New(logging.Options{Env: "DEV", Level: level, Output: stderr})
	defer closer.Close()

	a, err := newApp(*server, *dir, *timeout, logger)
	if err != nil {
		return err
	}
	a.getenv = getenv
	a.in = stdin
	a.out = stdout
	defer a.store.Teardown()

	if err := a.store.Restore(ctx); err != nil {
		return err
	}
	return a.dispatch(ctx, flags.Arg(0), flags.Args()[1:])
}

func newApp(serverURL, dir string, timeout time.Duration, logger zerolog.Logger) (*app, error) {
	client, err := apiclient.New(serverURL,
		apiclient.WithTimeout(timeout),
		apiclient.WithLogger(logger),
		apiclient.WithUserAgent("academyctl"),
	)
	if err != nil {
		return nil, err
	}
	api := backend.New(client)

	blobs, err := storage.NewFile(afero.NewOsFs(), dir)
	if err != nil {
		return nil, fmt.Errorf("session folder %s: %w", dir, err)
	}

	// One process, one user: the stored session is trusted and the first request that
	// gets a 401 refreshes it.
	store, err := session.New(api, blobs, sessionKey,
		session.WithRestorePolicy(session.RestoreTrust),
		session.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return &app{store: store, api: api.WithSession(store)}, nil
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".academy"
	}
	return filepath.Join(home, ".academy")
}

func envOr(getenv func(string) string, name, fallback string) string {
	if v := strings.TrimSpace(getenv(name)); v != "" {
		return v
	}
	return fallback
}
