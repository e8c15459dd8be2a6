// Package config reads the puzzle service configuration from the environment.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// Config configures the puzzle HTTP function.
type Config struct {
	// Port falls back to PORT, which Cloud Functions sets.
	Port      string `env:"BEE_PORT"`
	LocalOnly bool   `env:"BEE_LOCAL_ONLY"`

	Project         string `env:"BEE_BQ_PROJECT"`
	Location        string `env:"BEE_BQ_LOCATION" envDefault:"US"`
	DictionaryTable string `env:"BEE_BQ_DICTIONARY_TABLE"`
	FrequencyTable  string `env:"BEE_BQ_FREQUENCY_TABLE"`

	// Local files, used when no BigQuery project is set.
	DictionaryPath string `env:"BEE_DICTIONARY_PATH"`
	FrequencyPath  string `env:"BEE_FREQUENCY_PATH"`

	MinWords           int     `env:"BEE_MIN_WORDS" envDefault:"20"`
	FrequencyThreshold float64 `env:"BEE_FREQUENCY_THRESHOLD" envDefault:"5e-6"`
	DropUnknownWords   bool    `env:"BEE_DROP_UNKNOWN_WORDS" envDefault:"true"`

	DBPath    string `env:"BEE_DB_PATH"`
	Verbosity int    `env:"BEE_VERBOSITY" envDefault:"0"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Port == "" {
		cfg.Port = os.Getenv("PORT")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.MinWords <= 0 {
		return Config{}, fmt.Errorf("BEE_MIN_WORDS must be positive, got %d", cfg.MinWords)
	}
	if cfg.FrequencyThreshold < 0 {
		return Config{}, fmt.Errorf("BEE_FREQUENCY_THRESHOLD must not be negative, got %v", cfg.FrequencyThreshold)
	}
	if cfg.Project == "" && cfg.DictionaryPath == "" {
		return Config{}, fmt.Errorf("one of BEE_BQ_PROJECT or BEE_DICTIONARY_PATH is required")
	}
	if cfg.Project != "" && cfg.DictionaryTable == "" {
		return Config{}, fmt.Errorf("BEE_BQ_DICTIONARY_TABLE is required with BEE_BQ_PROJECT")
	}
	return cfg, nil
}

// Hostname is the listen address host: loopback when LocalOnly, otherwise all
// interfaces.
func (c Config) Hostname() string {
	if c.LocalOnly {
		return "127.0.0.1"
	}
	return ""
}

// Exitf prints a formatted message to stderr and exits with status 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
