// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml)
//  2. Environment variables (fallback)
//
// Command-line flags override both.
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	ledgerPath := cfg.Ledger.File
//	window := cfg.Matching.DateWindowDays
package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/eshaffer321/hledger-clear/internal/domain/matcher"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
)

// Config represents the entire application configuration
type Config struct {
	Ledger        LedgerConfig        `yaml:"ledger"`
	Statement     StatementConfig     `yaml:"statement"`
	Matching      MatchingConfig      `yaml:"matching"`
	Resolve       ResolveConfig       `yaml:"resolve"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LedgerConfig holds journal settings
type LedgerConfig struct {
	File    string `yaml:"file"`
	Account string `yaml:"account"` // account whose postings are matched; empty uses the last posting
}

// StatementConfig holds statement CSV settings
type StatementConfig struct {
	Delimiter   string            `yaml:"delimiter"`
	NoHeader    bool              `yaml:"no_header"`
	Columns     statement.Columns `yaml:"columns"`
	DateFormats []string          `yaml:"date_formats"`
	InvertSign  bool              `yaml:"invert_sign"`
	Strict      bool              `yaml:"strict"`
}

// MatchingConfig holds matcher thresholds
type MatchingConfig struct {
	AmountEpsilon  string `yaml:"amount_epsilon"`
	DateWindowDays int    `yaml:"date_window_days"`
}

// ResolveConfig holds the ambiguity policy
type ResolveConfig struct {
	Policy string `yaml:"policy"` // interactive, skip, first or abort
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${LEDGER_FILE})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{
		Ledger: LedgerConfig{
			File:    os.Getenv("LEDGER_FILE"),
			Account: os.Getenv("HLEDGER_CLEAR_ACCOUNT"),
		},
		Statement: StatementConfig{
			Delimiter:  getEnv("HLEDGER_CLEAR_DELIMITER", ","),
			InvertSign: getEnvBool("HLEDGER_CLEAR_INVERT_SIGN", false),
		},
		Matching: MatchingConfig{
			DateWindowDays: getEnvInt("HLEDGER_CLEAR_DATE_WINDOW", 3),
		},
		Resolve: ResolveConfig{
			Policy: getEnv("HLEDGER_CLEAR_POLICY", "interactive"),
		},
		Storage: StorageConfig{
			DatabasePath: getEnv("HLEDGER_CLEAR_DB_PATH", "hledger_clear.db"),
		},
		API: APIConfig{
			Port: getEnvInt("HLEDGER_CLEAR_PORT", 8085),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "text"),
			},
		},
	}
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnvWithPath("config.yaml")
}

// LoadOrEnvWithPath tries to load from specified path, falls back to environment variables
func LoadOrEnvWithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

func (c *Config) applyDefaults() {
	if c.Ledger.File == "" {
		c.Ledger.File = os.Getenv("LEDGER_FILE")
	}
	if c.Statement.Delimiter == "" {
		c.Statement.Delimiter = ","
	}
	if c.Matching.AmountEpsilon == "" {
		c.Matching.AmountEpsilon = "0.000001"
	}
	if c.Matching.DateWindowDays == 0 {
		c.Matching.DateWindowDays = 3
	}
	if c.Resolve.Policy == "" {
		c.Resolve.Policy = "interactive"
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = "hledger_clear.db"
	}
	if c.API.Port == 0 {
		c.API.Port = 8085
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
}

// StatementParseConfig converts the statement section into parser settings.
func (c *Config) StatementParseConfig() (statement.Config, error) {
	out := statement.DefaultConfig()

	delim, size := utf8.DecodeRuneInString(c.Statement.Delimiter)
	if c.Statement.Delimiter != "" {
		if size != len(c.Statement.Delimiter) {
			return out, fmt.Errorf("delimiter must be a single character, got %q", c.Statement.Delimiter)
		}
		out.Delimiter = delim
	}
	out.Header = !c.Statement.NoHeader
	if c.Statement.Columns.Date != "" {
		out.Columns.Date = c.Statement.Columns.Date
	}
	if c.Statement.Columns.Amount != "" {
		out.Columns.Amount = c.Statement.Columns.Amount
	}
	if c.Statement.Columns.Description != "" {
		out.Columns.Description = c.Statement.Columns.Description
	}
	out.Columns.Debit = c.Statement.Columns.Debit
	out.Columns.Credit = c.Statement.Columns.Credit
	if len(c.Statement.DateFormats) > 0 {
		out.DateFormats = c.Statement.DateFormats
	}
	out.InvertSign = c.Statement.InvertSign
	out.Strict = c.Statement.Strict

	return out, nil
}

// MatcherConfig converts the matching section into matcher settings.
func (c *Config) MatcherConfig() (matcher.Config, error) {
	out := matcher.DefaultConfig()
	if c.Matching.AmountEpsilon != "" {
		eps, err := decimal.NewFromString(c.Matching.AmountEpsilon)
		if err != nil {
			return out, fmt.Errorf("invalid amount_epsilon %q: %w", c.Matching.AmountEpsilon, err)
		}
		out.AmountEpsilon = eps
	}
	if c.Matching.DateWindowDays > 0 {
		out.DateWindowDays = c.Matching.DateWindowDays
	}
	return out, nil
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch os.Getenv(key) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	}
	return fallback
}
