// Package config loads tokensavings settings from defaults, a TOML file,
// .env files and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sdpower/token-savings-go/internal/calculator"
	"github.com/sdpower/token-savings-go/internal/dedup"
	"github.com/sdpower/token-savings-go/internal/logstore"
	"github.com/sdpower/token-savings-go/internal/pricing"
	"github.com/sdpower/token-savings-go/internal/types"
)

// Environment variables recognized by Load.
const (
	EnvLogFile       = "TOKEN_SAVINGS_LOG_FILE"
	EnvReadsPerFile  = "TOKEN_SAVINGS_READS_PER_FILE"
	EnvRate          = "TOKEN_SAVINGS_RATE_PER_MILLION"
	EnvDedupCapacity = "TOKEN_SAVINGS_DEDUP_CAPACITY"
	EnvWorkingDays   = "TOKEN_SAVINGS_WORKING_DAYS"
	EnvTimezone      = "TOKEN_SAVINGS_TIMEZONE"
	EnvModel         = "TOKEN_SAVINGS_MODEL"
)

// Config holds the application configuration.
type Config struct {
	LogFilePath         string  `toml:"log_file_path"`
	ReadsPerFile        int     `toml:"reads_per_file"`
	RatePerMillionUSD   float64 `toml:"rate_per_million_usd"`
	DedupCacheCapacity  int     `toml:"dedup_cache_capacity"`
	WorkingDaysPerMonth int     `toml:"working_days_per_month"`
	Timezone            string  `toml:"timezone,omitempty"`
	Model               string  `toml:"model,omitempty"`

	// rateSet records that the rate came from a file, env var or flag and
	// must not be replaced by the model's price.
	rateSet bool
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		LogFilePath:         logstore.DefaultFileName,
		ReadsPerFile:        calculator.DefaultReadsPerFile,
		RatePerMillionUSD:   calculator.DefaultRatePerMillion,
		DedupCacheCapacity:  dedup.DefaultCapacity,
		WorkingDaysPerMonth: calculator.DefaultWorkingDays,
	}
}

// DefaultPath returns the config file looked up when none is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(dir, "tokensavings", "config.toml")
}

// Load builds the configuration. An explicitly named file must exist; the
// default file is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if err := cfg.loadTOML(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	// .env in the working directory is optional, but must parse when present
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadTOML(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	meta, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file %s: %w", path, err)
	}
	if meta.IsDefined("rate_per_million_usd") {
		c.rateSet = true
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. Malformed values
// are reported, not ignored.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvLogFile); v != "" {
		c.LogFilePath = v
	}
	if v := os.Getenv(EnvTimezone); v != "" {
		c.Timezone = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Model = v
	}

	ints := []struct {
		key   string
		field string
		dst   *int
	}{
		{EnvReadsPerFile, "reads_per_file", &c.ReadsPerFile},
		{EnvDedupCapacity, "dedup_cache_capacity", &c.DedupCacheCapacity},
		{EnvWorkingDays, "working_days_per_month", &c.WorkingDaysPerMonth},
	}
	for _, e := range ints {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return types.ValidationError{Field: e.field, Message: fmt.Sprintf("%s=%q is not an integer", e.key, v)}
		}
		*e.dst = n
	}

	if v := os.Getenv(EnvRate); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return types.ValidationError{Field: "rate_per_million_usd", Message: fmt.Sprintf("%s=%q is not a number", EnvRate, v)}
		}
		c.SetRate(rate)
	}
	return nil
}

// SetRate fixes the USD rate per million tokens.
func (c *Config) SetRate(rate float64) {
	c.RatePerMillionUSD = rate
	c.rateSet = true
}

// Validate rejects out-of-range values.
func (c *Config) Validate() error {
	if c.LogFilePath == "" {
		return types.ValidationError{Field: "log_file_path", Message: "must not be empty"}
	}
	if c.ReadsPerFile < 1 {
		return types.ValidationError{Field: "reads_per_file", Message: fmt.Sprintf("must be at least 1, got %d", c.ReadsPerFile)}
	}
	if c.RatePerMillionUSD < 0 {
		return types.ValidationError{Field: "rate_per_million_usd", Message: fmt.Sprintf("must not be negative, got %g", c.RatePerMillionUSD)}
	}
	if c.DedupCacheCapacity < 1 {
		return types.ValidationError{Field: "dedup_cache_capacity", Message: fmt.Sprintf("must be at least 1, got %d", c.DedupCacheCapacity)}
	}
	if c.WorkingDaysPerMonth < 1 {
		return types.ValidationError{Field: "working_days_per_month", Message: fmt.Sprintf("must be at least 1, got %d", c.WorkingDaysPerMonth)}
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves Timezone; empty means the system zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, types.ValidationError{Field: "timezone", Message: fmt.Sprintf("invalid timezone %s: %v", c.Timezone, err)}
	}
	return loc, nil
}

// Rate returns the USD rate per million tokens. A configured model supplies
// the rate unless one was set explicitly.
func (c *Config) Rate() (float64, error) {
	if c.Model == "" || c.rateSet {
		return c.RatePerMillionUSD, nil
	}
	return pricing.RatePerMillion(c.Model)
}

// CalculatorOptions converts the configuration for the savings calculator.
func (c *Config) CalculatorOptions() (calculator.Options, error) {
	rate, err := c.Rate()
	if err != nil {
		return calculator.Options{}, err
	}
	return calculator.Options{
		ReadsPerFile:   c.ReadsPerFile,
		RatePerMillion: rate,
		WorkingDays:    c.WorkingDaysPerMonth,
	}, nil
}

// fileConfig is the on-disk form of Config. The rate is omitted when it
// is derived from the model so that reloading keeps following the model.
type fileConfig struct {
	LogFilePath         string   `toml:"log_file_path"`
	ReadsPerFile        int      `toml:"reads_per_file"`
	RatePerMillionUSD   *float64 `toml:"rate_per_million_usd,omitempty"`
	DedupCacheCapacity  int      `toml:"dedup_cache_capacity"`
	WorkingDaysPerMonth int      `toml:"working_days_per_month"`
	Timezone            string   `toml:"timezone,omitempty"`
	Model               string   `toml:"model,omitempty"`
}

func newFileConfig(c *Config) fileConfig {
	fc := fileConfig{
		LogFilePath:         c.LogFilePath,
		ReadsPerFile:        c.ReadsPerFile,
		DedupCacheCapacity:  c.DedupCacheCapacity,
		WorkingDaysPerMonth: c.WorkingDaysPerMonth,
		Timezone:            c.Timezone,
		Model:               c.Model,
	}
	if c.Model == "" || c.rateSet {
		rate := c.RatePerMillionUSD
		fc.RatePerMillionUSD = &rate
	}
	return fc
}

// Save writes the configuration as TOML, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# tokensavings configuration file")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(newFileConfig(cfg)); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
