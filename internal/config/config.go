// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/probe/pkg/query"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Query   QueryConfig   `mapstructure:"query" yaml:"query"`
}

// LoggerConfig controls construction of the zap logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// BrowserConfig controls the launched browser process.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent         string        `mapstructure:"user_agent" yaml:"user_agent"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	StartupTimeout    time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// QueryConfig selects the session-wide default retry policy. Individual
// queries and waits can still override it per call.
type QueryConfig struct {
	// Poller is one of "once", "deadline", "attempts" or
	// "deadline-min-attempts".
	Poller      string        `mapstructure:"poller" yaml:"poller"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Interval    time.Duration `mapstructure:"interval" yaml:"interval"`
	MinAttempts int           `mapstructure:"min_attempts" yaml:"min_attempts"`
}

// Policy translates the configured poller into a query.Policy.
func (q QueryConfig) Policy() (query.Policy, error) {
	switch strings.ToLower(strings.TrimSpace(q.Poller)) {
	case "", "once", "nowait":
		return query.Once(), nil
	case "deadline":
		if q.Timeout <= 0 {
			return query.Policy{}, fmt.Errorf("query.timeout must be positive for the deadline poller")
		}
		return query.Deadline(q.Timeout, q.Interval), nil
	case "attempts":
		if q.MinAttempts <= 0 {
			return query.Policy{}, fmt.Errorf("query.min_attempts must be positive for the attempts poller")
		}
		return query.Attempts(q.MinAttempts, q.Interval), nil
	case "deadline-min-attempts":
		if q.Timeout <= 0 || q.MinAttempts <= 0 {
			return query.Policy{}, fmt.Errorf("query.timeout and query.min_attempts must be positive for the deadline-min-attempts poller")
		}
		return query.DeadlineMinAttempts(q.Timeout, q.Interval, q.MinAttempts), nil
	default:
		return query.Policy{}, fmt.Errorf("unknown poller %q", q.Poller)
	}
}

// NewDefaultConfig returns the built-in defaults, used when no config file
// or environment overrides are present.
func NewDefaultConfig() *Config {
	return &Config{
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "console",
			ServiceName: "probe",
			MaxSize:     50,
			MaxBackups:  3,
			MaxAge:      14,
		},
		Browser: BrowserConfig{
			Headless:          true,
			StartupTimeout:    30 * time.Second,
			NavigationTimeout: 30 * time.Second,
		},
		Query: QueryConfig{
			Poller:   "deadline",
			Timeout:  10 * time.Second,
			Interval: 500 * time.Millisecond,
		},
	}
}

// SetDefaults registers the default values on a viper instance so that
// partial config files and environment overrides merge cleanly.
func SetDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)

	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.startup_timeout", d.Browser.StartupTimeout)
	v.SetDefault("browser.navigation_timeout", d.Browser.NavigationTimeout)

	v.SetDefault("query.poller", d.Query.Poller)
	v.SetDefault("query.timeout", d.Query.Timeout)
	v.SetDefault("query.interval", d.Query.Interval)
}

// Load builds a Config from the given viper instance, applying defaults
// for any keys the sources left unset.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling configuration: %w", err)
	}
	if _, err := cfg.Query.Policy(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
