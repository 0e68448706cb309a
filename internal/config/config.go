// Package config loads Milestone's layered configuration: built-in defaults,
// an optional config.toml, and MILESTONE_-prefixed environment variables,
// in that order of increasing precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/milestonehq/milestone/internal/logging"
	"github.com/milestonehq/milestone/internal/paths"
	"github.com/spf13/viper"
)

// APIConfig controls the address the HTTP surface binds to.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ScanConfig holds scanner defaults.
type ScanConfig struct {
	DefaultThrottle string `mapstructure:"default_throttle"` // low, normal, fast
}

// QueueConfig holds operations-queue defaults.
type QueueConfig struct {
	Concurrency int `mapstructure:"concurrency"` // 1..10, default 2
}

// Config is the full set of Milestone configuration values.
type Config struct {
	// WriteMode gates destructive/mutating actions (Copier, Quarantine,
	// Restore, PATCH /items). false means the process runs read-only.
	WriteMode bool `mapstructure:"write_mode"`

	DataDir string `mapstructure:"data_dir"`

	API     APIConfig      `mapstructure:"api"`
	Logging logging.Config `mapstructure:"logging"`
	Scan    ScanConfig     `mapstructure:"scan"`
	Queue   QueueConfig    `mapstructure:"queue"`
}

// DefaultConfig returns the built-in defaults used when no config file or
// environment override is present.
func DefaultConfig() *Config {
	dataDir, _ := paths.DataDir()
	return &Config{
		WriteMode: false,
		DataDir:   dataDir,
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Logging: logging.DefaultConfig(),
		Scan: ScanConfig{
			DefaultThrottle: "normal",
		},
		Queue: QueueConfig{
			Concurrency: 2,
		},
	}
}

// Load reads defaults, then config.toml (if present), then environment
// variables prefixed MILESTONE_ (e.g. MILESTONE_API_PORT, MILESTONE_WRITE_MODE).
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is like Load but takes an explicit config file path; an empty
// path falls back to paths.ConfigPath().
func LoadFrom(configFile string) (*Config, error) {
	v := viper.New()

	if configFile == "" {
		p, err := paths.ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve config path: %w", err)
		}
		configFile = p
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("toml")

	v.SetEnvPrefix("MILESTONE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultConfig()
	setDefaults(v, cfg)

	if _, err := os.Stat(configFile); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("unable to read config file %s: %w", configFile, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config: %w", err)
	}

	if cfg.DataDir == "" {
		dir, err := paths.DataDir()
		if err != nil {
			return nil, fmt.Errorf("unable to resolve data dir: %w", err)
		}
		cfg.DataDir = dir
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("write_mode", cfg.WriteMode)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("api.host", cfg.API.Host)
	v.SetDefault("api.port", cfg.API.Port)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.max_size_mb", cfg.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", cfg.Logging.MaxBackups)
	v.SetDefault("scan.default_throttle", cfg.Scan.DefaultThrottle)
	v.SetDefault("queue.concurrency", cfg.Queue.Concurrency)
}

// DatabasePath returns <data_dir>/milestone.db.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "milestone.db")
}

// LogsDir returns <data_dir>/logs, where scan log pairs are written.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// Addr returns the host:port the API should bind to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.API.Host, c.API.Port)
}

// ConfigExists reports whether a config file is present at the default
// config path.
func ConfigExists() bool {
	path, err := paths.ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes c to the default config path as TOML, creating the parent
// directory if needed.
func (c *Config) Save() error {
	configFile, err := paths.ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("unable to create config dir: %w", err)
	}

	return os.WriteFile(configFile, []byte(c.ToTOML()), 0644)
}

// ToTOML renders c as a config.toml document.
func (c *Config) ToTOML() string {
	return fmt.Sprintf(`# Milestone configuration
write_mode = %t
data_dir = %q

[api]
host = %q
port = %d

[logging]
level = %q
max_size_mb = %d
max_backups = %d

[scan]
default_throttle = %q

[queue]
concurrency = %d
`,
		c.WriteMode, c.DataDir,
		c.API.Host, c.API.Port,
		c.Logging.Level, c.Logging.MaxSizeMB, c.Logging.MaxBackups,
		c.Scan.DefaultThrottle,
		c.Queue.Concurrency)
}
