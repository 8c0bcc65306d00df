package config

import (
	"strings"
	"time"
)

// StorageDriver selects where session blobs are persisted
type StorageDriver string

const (
	StorageMemory StorageDriver = "memory"
	StorageFile   StorageDriver = "file"
	StorageRedis  StorageDriver = "redis"
)

// DefaultSessionSecret signs cookies when SESSION_SECRET is unset. Only DEV may run with it.
const DefaultSessionSecret = "dev-only-session-secret-change-me"

type Session struct{}

var _ SessionConfig = Session{}

// GetSessionSecret returns the key used to sign the browser session cookie.
func (Session) GetSessionSecret() string {
	return GetEnv("SESSION_SECRET", DefaultSessionSecret)
}

func (Session) GetSessionStorage() StorageDriver {
	switch StorageDriver(strings.ToLower(GetEnv("SESSION_STORAGE", string(StorageFile)))) {
	case StorageMemory:
		return StorageMemory
	case StorageRedis:
		return StorageRedis
	default:
		return StorageFile
	}
}

func (Session) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

// GetRestorePolicy is "verify" (check the token with the backend after restoring) or "trust"
func (Session) GetRestorePolicy() string {
	return strings.ToLower(GetEnv("RESTORE_POLICY", "verify"))
}

func (Session) GetSessionCookieMaxAge() time.Duration {
	return 30 * 24 * time.Hour
}

// GetSessionIdleTimeout is how long an in-memory session store outlives its last
// request. Evicted sessions are restored from storage on the next request.
func (Session) GetSessionIdleTimeout() time.Duration {
	if d, err := time.ParseDuration(GetEnv("SESSION_IDLE_TIMEOUT", "")); err == nil && d > 0 {
		return d
	}
	return 30 * time.Minute
}

func (Session) GetBackendTimeout() time.Duration {
	if d, err := time.ParseDuration(GetEnv("BACKEND_TIMEOUT", "")); err == nil && d > 0 {
		return d
	}
	return 15 * time.Second
}
