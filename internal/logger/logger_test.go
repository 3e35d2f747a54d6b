package logger_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStructuredFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "system_analysis.log")
	var console bytes.Buffer

	log, err := logger.New(logger.Options{Level: "debug", File: path, Console: &console})
	require.NoError(t, err)

	log.With("aggregator").Info().Str("domain", "cpu").Msg("collector finished")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &record))
	assert.Equal(t, "aggregator", record["component"])
	assert.Equal(t, "info", record["level"])
	assert.Equal(t, "collector finished", record["message"])
	assert.Equal(t, "cpu", record["domain"])
	assert.Contains(t, record, "time")

	// info is below the default console level
	assert.Empty(t, console.String())
}

func TestConsoleReceivesWarnings(t *testing.T) {
	var console bytes.Buffer

	log, err := logger.New(logger.Options{Level: "info", Console: &console})
	require.NoError(t, err)

	log.Warn().Msg("battery sensor missing")
	log.ErrorWithCode(errors.New().New(errors.ErrCollectorFailed)).Msg("disk failed")
	log.ErrorWithCode(errors.New().WithData(errors.ErrUnknownDomain, "gpu")).Msg("bad domain")
	require.NoError(t, log.Close())

	out := console.String()
	assert.True(t, strings.Contains(out, "battery sensor missing"))
	assert.True(t, strings.Contains(out, "collector_failed"))
	assert.True(t, strings.Contains(out, "error_data"))
}

func TestLevelFiltersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := logger.New(logger.Options{Level: "error", File: path, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Error().Msg("shown")
	require.NoError(t, log.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warning", "warn", "error", ""} {
		_, err := logger.ParseLevel(level)
		assert.NoError(t, err, level)
	}

	_, err := logger.ParseLevel("verbose")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestNopDiscards(t *testing.T) {
	log := logger.Nop()
	log.Error().Msg("nothing")
	assert.NoError(t, log.Close())
}
