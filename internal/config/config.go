// Package config loads questlog's TOML settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/questlog/internal/constants"
)

// Config holds all user configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	Log       LogConfig       `toml:"log"`
	Cache     CacheConfig     `toml:"cache"`
	Analytics AnalyticsConfig `toml:"analytics"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// StorageConfig selects the database. A postgres:// DSN takes precedence
// over Path and must not carry a password.
type StorageConfig struct {
	Path string `toml:"path"`
	DSN  string `toml:"dsn"`
}

// LogConfig controls logging behavior.
type LogConfig struct {
	Debug bool   `toml:"debug"`
	Level string `toml:"level"`
}

// CacheConfig enables the Redis report cache when RedisURL is set.
type CacheConfig struct {
	RedisURL string `toml:"redis_url"`
	TTL      string `toml:"ttl"`
}

// AnalyticsConfig tunes the stats report.
type AnalyticsConfig struct {
	TopN       int `toml:"top_n"`
	WindowDays int `toml:"window_days"`
}

// MetricsConfig sets where `metrics export` writes.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	home := Home()
	return Config{
		Storage: StorageConfig{
			Path: filepath.Join(home, constants.AppName+".db"),
		},
		Log: LogConfig{
			Level: "",
		},
		Cache: CacheConfig{
			TTL: constants.DefaultCacheTTL.String(),
		},
		Analytics: AnalyticsConfig{
			TopN:       constants.DefaultTopHabits,
			WindowDays: constants.DefaultWindowDays,
		},
		Metrics: MetricsConfig{
			Textfile: filepath.Join(home, "metrics", constants.AppName+".prom"),
		},
	}
}

// CacheTTL parses Cache.TTL, falling back to the default.
func (c Config) CacheTTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return constants.DefaultCacheTTL, nil
	}
	d, err := time.ParseDuration(c.Cache.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid cache ttl %q: %w", c.Cache.TTL, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("cache ttl must be positive, got %s", c.Cache.TTL)
	}
	return d, nil
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(Home(), constants.ConfigFileName)
}

// Load reads the config at path, falling back to defaults when the file
// does not exist. Unset fields keep their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("parse config: unknown key %q", undecoded[0].String())
	}

	if _, err := cfg.CacheTTL(); err != nil {
		return cfg, err
	}
	cfg.Storage.Path = ExpandPath(cfg.Storage.Path)
	cfg.Metrics.Textfile = ExpandPath(cfg.Metrics.Textfile)
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Home returns the questlog data directory. QUESTLOG_HOME overrides the
// default of ~/.config/questlog.
func Home() string {
	if env := os.Getenv(constants.HomeEnvVar); env != "" {
		return env
	}
	return ExpandPath(constants.DefaultConfigDir)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
