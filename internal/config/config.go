// Package config holds server settings and logging setup.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"go.ngs.io/tidecalc/internal/domain"
)

// Config is the runtime configuration of the tide server.
type Config struct {
	Environment        string
	LogLevel           zerolog.Level
	Port               string
	DataDir            string   // CSV station profiles.
	ProfileDir         string   // YAML/JSON/TOML station profiles.
	FESDir             string   // NetCDF constituent grids.
	CORSAllowedOrigins []string // Empty allows all origins.
	GridCacheSize      int
	ProfileCacheSize   int
	MaxSamples         int
}

// env mirrors Config as environment variables.
type env struct {
	Environment        string   `envconfig:"ENV" default:"production"`
	LogLevel           string   `envconfig:"LOG_LEVEL" default:"info"`
	Port               string   `envconfig:"PORT" default:"8080"`
	DataDir            string   `envconfig:"DATA_DIR" default:"./data"`
	ProfileDir         string   `envconfig:"PROFILE_DIR" default:"./data/profiles"`
	FESDir             string   `envconfig:"FES_DIR" default:"./data/fes"`
	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`
	GridCacheSize      int      `envconfig:"GRID_CACHE_SIZE" default:"32"`
	ProfileCacheSize   int      `envconfig:"PROFILE_CACHE_SIZE" default:"128"`
	MaxSamples         int      `envconfig:"MAX_SAMPLES" default:"10000"`
}

// Option configures a Config.
type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil || level == "" {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithPort sets the listen port.
func WithPort(port string) Option {
	return func(c *Config) {
		c.Port = port
	}
}

// WithDirs sets the CSV, profile document and FES directories.
func WithDirs(dataDir, profileDir, fesDir string) Option {
	return func(c *Config) {
		c.DataDir = dataDir
		c.ProfileDir = profileDir
		c.FESDir = fesDir
	}
}

// WithCORSAllowedOrigins restricts CORS to the given origins.
func WithCORSAllowedOrigins(origins ...string) Option {
	return func(c *Config) {
		c.CORSAllowedOrigins = origins
	}
}

// WithCacheSizes sets the FES grid and station profile cache sizes.
func WithCacheSizes(grids, profiles int) Option {
	return func(c *Config) {
		c.GridCacheSize = grids
		c.ProfileCacheSize = profiles
	}
}

// WithMaxSamples bounds the samples a single request may produce.
func WithMaxSamples(n int) Option {
	return func(c *Config) {
		c.MaxSamples = n
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:      "production",
		LogLevel:         zerolog.InfoLevel,
		Port:             "8080",
		DataDir:          "./data",
		ProfileDir:       "./data/profiles",
		FESDir:           "./data/fes",
		GridCacheSize:    32,
		ProfileCacheSize: 128,
		MaxSamples:       10000,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.GridCacheSize <= 0 || c.ProfileCacheSize <= 0 {
		return fmt.Errorf("cache sizes must be positive, got grid=%d profile=%d", c.GridCacheSize, c.ProfileCacheSize)
	}
	if c.MaxSamples <= 0 || c.MaxSamples > domain.MaxSeriesSamples {
		return fmt.Errorf("max samples must be in [1, %d], got %d", domain.MaxSeriesSamples, c.MaxSamples)
	}
	return nil
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	var e env
	if err := envconfig.Process("", &e); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg := New(
		WithEnvironment(e.Environment),
		WithLogLevel(e.LogLevel),
		WithPort(e.Port),
		WithDirs(e.DataDir, e.ProfileDir, e.FESDir),
		WithCORSAllowedOrigins(e.CORSAllowedOrigins...),
		WithCacheSizes(e.GridCacheSize, e.ProfileCacheSize),
		WithMaxSamples(e.MaxSamples),
	)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
