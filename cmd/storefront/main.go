package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/academy-storefront/apiclient"
	"github.com/jrsteele09/academy-storefront/backend"
	"github.com/jrsteele09/academy-storefront/internal/config"
	"github.com/jrsteele09/academy-storefront/internal/logging"
	"github.com/jrsteele09/academy-storefront/internal/metrics"
	"github.com/jrsteele09/academy-storefront/server"
	"github.com/jrsteele09/academy-storefront/session"
	"github.com/jrsteele09/academy-storefront/storage"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const redisSessionTTL = 30 * 24 * time.Hour

const (
	maxRunAttempts = 5
	restartDelay   = time.Second
)

func main() {
	if err := runWithRetry(run, maxRunAttempts, restartDelay); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
	log.Info().Msg("Server stopped")
}

// runWithRetry restarts run after a failure, up to attempts times in total, and
// returns the last error.
func runWithRetry(run func() error, attempts int, delay time.Duration) error {
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = run(); err == nil {
			return nil
		}
		if attempt < attempts {
			log.Error().Err(err).Int("attempt", attempt).Msg("Error running server, restarting")
			time.Sleep(delay)
		}
	}
	return err
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	logger, logCloser := logging.New(logging.Options{Env: c.GetEnv(), Level: c.GetLogLevel(), File: c.GetLogFile()})
	defer logCloser.Close()
	displayAppname(c.GetAppName())

	m := metrics.New("academy")

	client, err := apiclient.New(c.GetBackendURL(),
		apiclient.WithTimeout(c.GetBackendTimeout()),
		apiclient.WithLogger(logger.With().Str("component", "apiclient").Logger()),
		apiclient.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("apiclient.New: %w", err)
	}
	api := backend.New(client)

	policy, err := session.ParseRestorePolicy(c.GetRestorePolicy())
	if err != nil {
		return err
	}

	blobs, checks, closeStorage, err := newSessionStorage(c)
	if err != nil {
		return err
	}
	defer closeStorage()

	storeLogger := logger.With().Str("component", "session").Logger()
	registry := session.NewRegistry(func(key string) (*session.Store, error) {
		return session.New(api, blobs, key,
			session.WithRestorePolicy(policy),
			session.WithLogger(storeLogger.With().Str("key", key).Logger()),
			session.WithMetrics(m),
		)
	}, storeLogger, session.WithIdleTimeout(c.GetSessionIdleTimeout()))
	defer registry.Close()

	handler, err := server.New(c, api, registry, m, checks...)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	httpServer := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          stdLogger(logger),
	}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// newSessionStorage builds the configured blob storage and the health checks that go
// with it.
func newSessionStorage(c config.Config) (session.Storage, []server.Option, func(), error) {
	switch c.GetSessionStorage() {
	case config.StorageMemory:
		log.Warn().Msg("Sessions are kept in memory and are lost on restart")
		return storage.NewMemory(), nil, func() {}, nil

	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{Addr: c.GetRedisAddr()})
		blobs := storage.NewRedis(client, "", redisSessionTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := blobs.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, nil, fmt.Errorf("redis %s: %w", c.GetRedisAddr(), err)
		}
		check := server.WithHealthCheck("redis", func(r *http.Request) error {
			return blobs.Ping(r.Context())
		})
		return blobs, []server.Option{check}, func() { _ = client.Close() }, nil

	default:
		dir := filepath.Join(c.GetDataFolder(), "sessions")
		blobs, err := storage.NewFile(afero.NewOsFs(), dir)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("session folder %s: %w", dir, err)
		}
		return blobs, nil, func() {}, nil
	}
}

func listenAndServe(server *http.Server) error {
	log.Info().Msgf("Server listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}

func stdLogger(logger zerolog.Logger) *stdlog.Logger {
	return stdlog.New(logger.With().Str("component", "http").Logger(), "", 0)
}
