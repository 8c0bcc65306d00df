package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetBackendURL() string
	GetLogFile() string
	GetLogLevel() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type SessionConfig interface {
	GetSessionSecret() string
	GetSessionStorage() StorageDriver
	GetRedisAddr() string
	GetRestorePolicy() string
	GetSessionCookieMaxAge() time.Duration
	GetSessionIdleTimeout() time.Duration
	GetBackendTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
	Cors
	Session
}

func New() Config {
	return mainConfig{}
}
