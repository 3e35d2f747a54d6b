package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/sysreport/internal/config"
	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/output"
	"codeberg.org/mutker/sysreport/internal/report"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	configPath := filepath.Join(t.TempDir(), "sysreport.toml")
	err := os.WriteFile(configPath, []byte(content), 0o600)
	require.NoError(t, err)

	return configPath
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()

	fs := pflag.NewFlagSet("sysreport", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))

	return fs
}

func TestLoad(t *testing.T) {
	configPath := writeConfig(t, `
log_level = "debug"
log_file = "/tmp/sysreport.log"
output_dir = "/tmp/reports"
output_file = "host.yaml"
format = "yaml"
layout = "merged"
parallel = true
timeout = "10s"
sample_interval = "500ms"
probe_host = "example.org"
reboot_marker = "/tmp/reboot"
`)

	// Set environment variable to point to the test config file
	t.Setenv("SYSREPORT_CONFIG", configPath)

	cfg, err := config.Load(newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "/tmp/sysreport.log", cfg.LogFile)
	assert.Equal(t, "/tmp/reports", cfg.OutputDir)
	assert.Equal(t, "host.yaml", cfg.OutputFile)
	assert.Equal(t, output.FormatYAML, cfg.OutputFormat())
	assert.Equal(t, report.LayoutMerged, cfg.OutputLayout())
	assert.True(t, cfg.Parallel)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.SampleInterval)
	assert.Equal(t, "example.org", cfg.ProbeHost)
	assert.Equal(t, "/tmp/reboot", cfg.RebootMarker)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYSREPORT_CONFIG", "")

	cfg, err := config.Load(newFlags(t), config.WithConfigFile(writeConfig(t, "")))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultLogFile, cfg.LogFile)
	assert.Empty(t, cfg.OutputDir)
	assert.Empty(t, cfg.OutputFile)
	assert.Equal(t, output.FormatJSON, cfg.OutputFormat())
	assert.Equal(t, report.LayoutList, cfg.OutputLayout())
	assert.False(t, cfg.Parallel)
	assert.Equal(t, config.DefaultTimeout, cfg.Timeout)
	assert.Equal(t, config.DefaultSampleInterval, cfg.SampleInterval)
	assert.Equal(t, config.DefaultProbeHost, cfg.ProbeHost)
	assert.Equal(t, config.ProfileNone, cfg.Profile)
}

func TestLoadWithoutFlags(t *testing.T) {
	cfg, err := config.Load(nil, config.WithConfigFile(writeConfig(t, `format = "sqlite"`)))
	require.NoError(t, err)
	assert.Equal(t, output.FormatSQLite, cfg.OutputFormat())
}

func TestLoadPrecedence(t *testing.T) {
	configPath := writeConfig(t, `
format = "yaml"
log_level = "error"
timeout = "5s"
`)
	t.Setenv("SYSREPORT_CONFIG", configPath)
	t.Setenv("SYSREPORT_LOG_LEVEL", "warn")
	t.Setenv("SYSREPORT_TIMEOUT", "7s")

	cfg, err := config.Load(newFlags(t, "--timeout", "9s", "--parallel"))
	require.NoError(t, err)

	assert.Equal(t, output.FormatYAML, cfg.OutputFormat(), "file value kept")
	assert.Equal(t, config.LogLevelWarning, cfg.LogLevel, "env overrides file")
	assert.Equal(t, 9*time.Second, cfg.Timeout, "flag overrides env")
	assert.True(t, cfg.Parallel)
}

func TestLoadConfigFlag(t *testing.T) {
	configPath := writeConfig(t, `output_file = "flagged.json"`)

	cfg, err := config.Load(newFlags(t, "--config", configPath))
	require.NoError(t, err)
	assert.Equal(t, "flagged.json", cfg.OutputFile)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	configPath := writeConfig(t, `
This is not a valid TOML file
`)
	t.Setenv("SYSREPORT_CONFIG", configPath)

	_, err := config.Load(newFlags(t))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
	assert.Contains(t, err.Error(), "Failed to read config file")
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(newFlags(t), config.WithConfigFile(filepath.Join(t.TempDir(), "absent.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    errors.ErrorCode
	}{
		{"log level", `log_level = "invalid"`, errors.ErrInvalidLogLevel},
		{"format", `format = "xml"`, errors.ErrInvalidFormat},
		{"layout", `layout = "table"`, errors.ErrInvalidLayout},
		{"zero timeout", `timeout = "0s"`, errors.ErrInvalidTimeout},
		{"negative sample interval", `sample_interval = "-1s"`, errors.ErrInvalidConfig},
		{"profile", `profile = "block"`, errors.ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SYSREPORT_CONFIG", writeConfig(t, tt.content))

			_, err := config.Load(newFlags(t))
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestLogLevelFlag(t *testing.T) {
	t.Setenv("SYSREPORT_CONFIG", writeConfig(t, ""))

	cfg, err := config.Load(newFlags(t, "--log-level", "DEBUG"))
	require.NoError(t, err)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel, "Expected LogLevel to be set by flag")
}
