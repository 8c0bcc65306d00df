package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jrsteele09/academy-storefront/internal/logging"
	"github.com/stretchr/testify/require"
)

func TestNewJSONOutsideDev(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := logging.New(logging.Options{Env: "PROD", Level: "warn", Output: &buf})
	defer closer.Close()

	logger.Info().Msg("dropped")
	logger.Warn().Str("path", "/dashboard").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	require.Equal(t, "kept", line["message"])
	require.Equal(t, "/dashboard", line["path"])
	require.Equal(t, "warn", line["level"])
}

func TestNewBadLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, closer := logging.New(logging.Options{Env: "PROD", Level: "chatty", Output: &buf})
	defer closer.Close()

	logger.Debug().Msg("hidden")
	require.Zero(t, buf.Len())
	logger.Info().Msg("shown")
	require.NotZero(t, buf.Len())
}

func TestNewWritesRotatingFile(t *testing.T) {
	file := t.TempDir() + "/storefront.log"
	logger, closer := logging.New(logging.Options{Env: "PROD", File: file, Output: &bytes.Buffer{}})
	logger.Info().Msg("to file")
	require.NoError(t, closer.Close())
	require.FileExists(t, file)
}
