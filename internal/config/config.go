// Package config loads and validates filmbro configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. FILMBRO_TMDB_API_KEY.
const EnvPrefix = "FILMBRO"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	HTTP       HTTPConfig       `mapstructure:"http"`
	Letterboxd LetterboxdConfig `mapstructure:"letterboxd"`
	TMDB       TMDBConfig       `mapstructure:"tmdb"`
	Roulette   RouletteConfig   `mapstructure:"roulette"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Workers    WorkersConfig    `mapstructure:"workers"`
	Stars      StarsConfig      `mapstructure:"stars"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// HTTPConfig configures outbound requests.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// LetterboxdConfig points at the review site.
type LetterboxdConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	ShortLinkBase string `mapstructure:"short_link_base"`
}

// TMDBConfig points at the metadata API.
type TMDBConfig struct {
	APIBase   string `mapstructure:"api_base"`
	ImageBase string `mapstructure:"image_base"`
	APIKey    string `mapstructure:"api_key"`
}

// RouletteConfig bounds random discovery.
type RouletteConfig struct {
	MaxProbes        int `mapstructure:"max_probes"`
	Attempts         int `mapstructure:"attempts"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// CacheConfig tunes the per-kind result caches. MaxEntries of 0 keeps every
// result for the life of the process.
type CacheConfig struct {
	MaxEntries     int  `mapstructure:"max_entries"`
	DedupeInflight bool `mapstructure:"dedupe_inflight"`
}

// WorkersConfig sizes the fetch worker pool.
type WorkersConfig struct {
	Size       int `mapstructure:"size"`
	QueueDepth int `mapstructure:"queue_depth"`
}

// StarsConfig holds the rating glyphs.
type StarsConfig struct {
	Whole string `mapstructure:"whole"`
	Half  string `mapstructure:"half"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment. With an empty path, a
// filmbro.yaml in the working directory or $HOME/.filmbro is used when
// present.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("filmbro")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.filmbro")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "filmbro/0.1")
	v.SetDefault("letterboxd.base_url", "https://letterboxd.com")
	v.SetDefault("letterboxd.short_link_base", "https://boxd.it")
	v.SetDefault("tmdb.api_base", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_base", "https://www.themoviedb.org/t/p/original")
	v.SetDefault("tmdb.api_key", "")
	v.SetDefault("roulette.max_probes", 200)
	v.SetDefault("roulette.attempts", 3)
	v.SetDefault("roulette.backoff_initial_ms", 250)
	v.SetDefault("roulette.backoff_max_ms", 2000)
	v.SetDefault("cache.max_entries", 0)
	v.SetDefault("cache.dedupe_inflight", false)
	v.SetDefault("workers.size", 8)
	v.SetDefault("workers.queue_depth", 64)
	v.SetDefault("stars.whole", "★")
	v.SetDefault("stars.half", "½")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Letterboxd.BaseURL == "" {
		return fmt.Errorf("letterboxd.base_url must be set")
	}
	if c.Roulette.MaxProbes <= 0 {
		return fmt.Errorf("roulette.max_probes must be > 0")
	}
	if c.Roulette.Attempts <= 0 {
		return fmt.Errorf("roulette.attempts must be > 0")
	}
	if c.Roulette.BackoffMaxMs < c.Roulette.BackoffInitialMs {
		return fmt.Errorf("roulette.backoff_max_ms must be >= roulette.backoff_initial_ms")
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("cache.max_entries must be >= 0")
	}
	if c.Workers.Size <= 0 {
		return fmt.Errorf("workers.size must be > 0")
	}
	if c.Workers.QueueDepth < 0 {
		return fmt.Errorf("workers.queue_depth must be >= 0")
	}
	if c.Stars.Whole == "" {
		return fmt.Errorf("stars.whole must be set")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// Timeout converts the outbound request timeout into a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RouletteBackoff returns the initial and maximum delay between roulette
// attempts.
func (c Config) RouletteBackoff() (time.Duration, time.Duration) {
	return time.Duration(c.Roulette.BackoffInitialMs) * time.Millisecond,
		time.Duration(c.Roulette.BackoffMaxMs) * time.Millisecond
}
