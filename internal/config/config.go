package config

import (
	"os"
	"strings"
	"time"

	"codeberg.org/mutker/sysreport/internal/errors"
	"codeberg.org/mutker/sysreport/internal/output"
	"codeberg.org/mutker/sysreport/internal/report"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultEnvPrefix      = "SYSREPORT"
	DefaultConfigFile     = "/etc/sysreport.toml"
	DefaultLogLevel       = LogLevelInfo
	DefaultLogFile        = "system_analysis.log"
	DefaultFormat         = "json"
	DefaultLayout         = "list"
	DefaultTimeout        = 30 * time.Second
	DefaultSampleInterval = time.Second
	DefaultProbeHost      = "www.google.com"
	DefaultRebootMarker   = "/run/reboot-required"
)

type Config struct {
	LogLevel       LogLevel      `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	OutputDir      string        `mapstructure:"output_dir"`
	OutputFile     string        `mapstructure:"output_file"`
	Format         string        `mapstructure:"format"`
	Layout         string        `mapstructure:"layout"`
	Parallel       bool          `mapstructure:"parallel"`
	Timeout        time.Duration `mapstructure:"timeout"`
	SampleInterval time.Duration `mapstructure:"sample_interval"`
	ProbeHost      string        `mapstructure:"probe_host"`
	RebootMarker   string        `mapstructure:"reboot_marker"`
	Profile        ProfileMode   `mapstructure:"profile"`
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"log-level":       "log_level",
	"log-file":        "log_file",
	"output-dir":      "output_dir",
	"output-file":     "output_file",
	"format":          "format",
	"layout":          "layout",
	"parallel":        "parallel",
	"timeout":         "timeout",
	"sample-interval": "sample_interval",
	"probe-host":      "probe_host",
	"reboot-marker":   "reboot_marker",
	"profile":         "profile",
}

// RegisterFlags adds every configuration flag to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to the configuration file")
	fs.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")
	fs.String("log-file", DefaultLogFile, "Path to the log file")
	fs.String("output-dir", "", "Directory the report is written to")
	fs.String("output-file", "", "File name of the report")
	fs.String("format", DefaultFormat, "Output format (json, yaml, sqlite)")
	fs.String("layout", DefaultLayout, "Layout of multi-domain reports (list, merged)")
	fs.Bool("parallel", false, "Run collectors concurrently")
	fs.Duration("timeout", DefaultTimeout, "Timeout for each collector")
	fs.Duration("sample-interval", DefaultSampleInterval, "Sampling window for CPU and network rates")
	fs.String("probe-host", DefaultProbeHost, "Host resolved to check internet connectivity")
	fs.String("reboot-marker", DefaultRebootMarker, "File whose presence means a reboot is pending")
	fs.String("profile", "", "Write a runtime profile (cpu, mem)")
}

// Load reads the configuration file, SYSREPORT_* environment variables and
// flags, in increasing order of precedence, and validates the result.
func Load(flags *pflag.FlagSet, opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errFactory.Wrap(errors.ErrBindFlags, err)
				}
			}
		}
		if o.configPath == "" {
			if f := flags.Lookup("config"); f != nil {
				o.configPath = f.Value.String()
			}
		}
	}

	if err := readConfigFile(v, o); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	cfg.LogLevel = LogLevel(strings.ToLower(string(cfg.LogLevel)))
	if cfg.LogLevel == "warn" {
		cfg.LogLevel = LogLevelWarning
	}
	cfg.Profile = ProfileMode(strings.ToLower(string(cfg.Profile)))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("log_file", DefaultLogFile)
	v.SetDefault("output_dir", "")
	v.SetDefault("output_file", "")
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("layout", DefaultLayout)
	v.SetDefault("parallel", false)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("sample_interval", DefaultSampleInterval)
	v.SetDefault("probe_host", DefaultProbeHost)
	v.SetDefault("reboot_marker", DefaultRebootMarker)
	v.SetDefault("profile", "")
}

// readConfigFile loads an explicit file, or the one named by
// <PREFIX>_CONFIG, or the system default. Only the system default may be
// missing.
func readConfigFile(v *viper.Viper, o *options) error {
	errFactory := errors.New()

	path := o.configPath
	if path == "" {
		path = os.Getenv(o.envPrefix + "_CONFIG")
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return nil
		}
		path = DefaultConfigFile
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errFactory.WithData(errors.ErrReadConfig, struct {
			Path  string
			Error string
		}{
			Path:  path,
			Error: err.Error(),
		})
	}

	return nil
}

// Validate checks every field against its allowed values.
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel.String())
	}
	if _, err := output.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := report.ParseLayout(c.Layout); err != nil {
		return err
	}
	if c.Timeout <= 0 {
		return errFactory.WithData(errors.ErrInvalidTimeout, c.Timeout.String())
	}
	if c.SampleInterval < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value string
		}{
			Field: "sample_interval",
			Value: c.SampleInterval.String(),
		})
	}
	if !c.Profile.IsValid() {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value string
		}{
			Field: "profile",
			Value: string(c.Profile),
		})
	}

	return nil
}

// OutputFormat returns the validated output format.
func (c *Config) OutputFormat() output.Format {
	f, _ := output.ParseFormat(c.Format)
	return f
}

// OutputLayout returns the validated report layout.
func (c *Config) OutputLayout() report.Layout {
	l, _ := report.ParseLayout(c.Layout)
	return l
}
