package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	appNameVar     = "APP_NAME"
	folderEnvVar   = "DATA_FOLDER"
	backendURLVar  = "BACKEND_URL"
	logFileEnvVar  = "LOG_FILE"
	logLevelEnvVar = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Academy")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetBackendURL returns the base URL of the course backend REST API (e.g., "http://127.0.0.1:8000")
// Endpoint paths already carry the /api prefix
func (EnvVars) GetBackendURL() string {
	return strings.TrimRight(GetEnv(backendURLVar, "http://127.0.0.1:8000"), "/")
}

// GetLogFile returns the rotating log file path, empty for stderr only
func (EnvVars) GetLogFile() string {
	return GetEnv(logFileEnvVar, "")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelEnvVar, "info")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
