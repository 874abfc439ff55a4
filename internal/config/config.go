package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppName names the config and data directories.
const AppName = "daylog"

// Config represents the complete daylog configuration
type Config struct {
	// DataDir is the application data directory; log files live in its
	// "logs" subdirectory. Empty means DefaultDataDir().
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// AppVersion is stamped on every record. Empty means the version from
	// the binary's build info.
	AppVersion string `mapstructure:"app_version" yaml:"app_version"`
	// Debug makes the sink's diagnostics verbose, including stack traces of
	// swallowed errors.
	Debug    bool           `mapstructure:"debug" yaml:"debug"`
	Shutdown ShutdownConfig `mapstructure:"shutdown" yaml:"shutdown"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
}

// ShutdownConfig controls what happens to queued records when the writer stops
type ShutdownConfig struct {
	// Policy is "drop" (default) to discard queued records, or "drain" to
	// write them first.
	Policy string `mapstructure:"policy" yaml:"policy"`
	// GraceMs bounds how long "drain" keeps writing, in milliseconds (0 = no bound)
	GraceMs int `mapstructure:"grace_ms" yaml:"grace_ms"`
}

// DisplayConfig controls CLI and viewer output
type DisplayConfig struct {
	// Color is "auto" (color only on a terminal), "always" or "never"
	Color string `mapstructure:"color" yaml:"color"`
	// Tail is how many records `logs show` prints when -n is not given (0 = all)
	Tail int `mapstructure:"tail" yaml:"tail"`
}

// Grace returns the drain grace period as a duration.
func (c *ShutdownConfig) Grace() time.Duration {
	return time.Duration(c.GraceMs) * time.Millisecond
}

// DiagnosticsLevel returns the level for the sink's diagnostics.
func (c *Config) DiagnosticsLevel() string {
	if c.Debug {
		return "DEBUG"
	}
	return "WARN"
}

// ResolveDataDir returns the data directory with ~ expanded.
// If DataDir is empty, DefaultDataDir() is returned.
func (c *Config) ResolveDataDir() string {
	if c.DataDir == "" {
		return DefaultDataDir()
	}
	return expandHome(c.DataDir)
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Shutdown: ShutdownConfig{
			Policy:  "drop",
			GraceMs: 2000,
		},
		Display: DisplayConfig{
			Color: "auto",
			Tail:  50,
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("data_dir", defaults.DataDir)
	viper.SetDefault("app_version", defaults.AppVersion)
	viper.SetDefault("debug", defaults.Debug)

	viper.SetDefault("shutdown.policy", defaults.Shutdown.Policy)
	viper.SetDefault("shutdown.grace_ms", defaults.Shutdown.GraceMs)

	viper.SetDefault("display.color", defaults.Display.Color)
	viper.SetDefault("display.tail", defaults.Display.Tail)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, or the defaults if it does not load
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DefaultDataDir returns the data directory used when data_dir is not set
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".local", "share", AppName)
}
