// Package config handles configuration loading and management for pharmint.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/ShayCichocki/pharmint/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. PHARMINT_REPORT_FORMAT.
const EnvPrefix = "PHARMINT"

// ErrInvalid is wrapped by every Validate error.
var ErrInvalid = errors.New("invalid configuration")

// Backend selects where the reference workers read lookup tables from.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config holds all configuration for pharmint.
type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Report  ReportConfig  `mapstructure:"report"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Events  EventsConfig  `mapstructure:"events"`
}

// DataConfig holds catalog settings.
type DataConfig struct {
	// Dir is a fixture directory; empty uses the embedded sample dataset.
	Dir        string `mapstructure:"dir"`
	Backend    string `mapstructure:"backend"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Dir    string `mapstructure:"dir"`
	Format string `mapstructure:"format"`
	Write  bool   `mapstructure:"write"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	JSON  bool   `mapstructure:"json"`
}

// MetricsConfig holds the metrics endpoint address. Empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// EventsConfig holds event channel settings.
type EventsConfig struct {
	Buffer int `mapstructure:"buffer"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (PHARMINT_*)
// 2. Project config (.pharmint.yaml in current directory or parent)
// 3. User config (~/.config/pharmint/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("merging project config: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromPath loads configuration from a specific path (for testing).
// Environment overrides still apply.
func LoadFromPath(path string) (*Config, error) {
	v := newViper()

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}

	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Data.Dir = os.ExpandEnv(cfg.Data.Dir)
	cfg.Data.SQLitePath = os.ExpandEnv(cfg.Data.SQLitePath)
	cfg.Report.Dir = os.ExpandEnv(cfg.Report.Dir)
	cfg.Logging.File = os.ExpandEnv(cfg.Logging.File)
	return cfg, nil
}

// Validate checks enumerated values and required combinations.
func (c *Config) Validate() error {
	var errs []error

	switch c.Data.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Data.SQLitePath == "" {
			errs = append(errs, fmt.Errorf("%w: data.sqlite_path is required for the sqlite backend", ErrInvalid))
		}
	default:
		errs = append(errs, fmt.Errorf("%w: data.backend %q (want %s or %s)", ErrInvalid, c.Data.Backend, BackendMemory, BackendSQLite))
	}

	if !models.ArtifactFormat(c.Report.Format).Valid() {
		errs = append(errs, fmt.Errorf("%w: report.format %q (want markdown, text, html or xlsx)", ErrInvalid, c.Report.Format))
	}
	if c.Report.Write && c.Report.Dir == "" {
		errs = append(errs, fmt.Errorf("%w: report.dir is required when report.write is set", ErrInvalid))
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: logging.level %q", ErrInvalid, c.Logging.Level))
	}

	if c.Events.Buffer < 0 {
		errs = append(errs, fmt.Errorf("%w: events.buffer must not be negative", ErrInvalid))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to the user config file.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(userConfigDir, "config.yaml"))
	for key, value := range cfg.Settings() {
		v.Set(key, value)
	}
	return v.WriteConfig()
}

// Settings flattens the configuration into dotted keys.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"data.dir":         c.Data.Dir,
		"data.backend":     c.Data.Backend,
		"data.sqlite_path": c.Data.SQLitePath,
		"report.dir":       c.Report.Dir,
		"report.format":    c.Report.Format,
		"report.write":     c.Report.Write,
		"logging.level":    c.Logging.Level,
		"logging.file":     c.Logging.File,
		"logging.json":     c.Logging.JSON,
		"metrics.addr":     c.Metrics.Addr,
		"events.buffer":    c.Events.Buffer,
	}
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// DefaultSQLitePath returns the default catalog database path under the
// XDG data directory.
func DefaultSQLitePath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "pharmint", "catalog.db")
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	d := Default()
	for key, value := range d.Settings() {
		v.SetDefault(key, value)
	}
}

// getUserConfigDir returns the XDG config directory for pharmint.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "pharmint")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "pharmint")
	}
	return filepath.Join(home, ".config", "pharmint")
}

// findProjectConfig searches for .pharmint.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".pharmint.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Backend:    BackendMemory,
			SQLitePath: DefaultSQLitePath(),
		},
		Report: ReportConfig{
			Dir:    "reports",
			Format: string(models.FormatMarkdown),
			Write:  true,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
		Events: EventsConfig{
			Buffer: 64,
		},
	}
}
