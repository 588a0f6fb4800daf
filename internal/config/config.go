// Package config loads dispatcher configuration from an optional YAML
// file with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port int `yaml:"port" env:"CAS_PORT"`
}

// SymbolicConfig controls the in-process goja-backed symbolic engine.
type SymbolicConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds" env:"CAS_SYMBOLIC_TIMEOUT"`
}

// CalcConfig controls the external Maxima-like engine.
type CalcConfig struct {
	Path           string `yaml:"path" env:"CAS_CALC_PATH"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"CAS_CALC_TIMEOUT"`
}

// AlgebraConfig controls the external GAP-like engine.
type AlgebraConfig struct {
	Path           string `yaml:"path" env:"CAS_ALGEBRA_PATH"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"CAS_ALGEBRA_TIMEOUT"`
}

// OracleConfig controls the remote WolframAlpha-like oracle engine.
type OracleConfig struct {
	AppID          string `yaml:"app_id" env:"CAS_ORACLE_APPID"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"CAS_ORACLE_TIMEOUT"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CAS_LOG_LEVEL"`
	Format string `yaml:"format" env:"CAS_LOG_FORMAT"`
}

// Config is the top-level dispatcher configuration.
type Config struct {
	Server        ServerConfig   `yaml:"server"`
	Symbolic      SymbolicConfig `yaml:"symbolic"`
	Calc          CalcConfig     `yaml:"calc"`
	Algebra       AlgebraConfig  `yaml:"algebra"`
	Oracle        OracleConfig   `yaml:"oracle"`
	Logging       LoggingConfig  `yaml:"logging"`
	DefaultEngine string         `yaml:"default_engine" env:"CAS_DEFAULT_ENGINE"`
	MaxJobs       int            `yaml:"max_jobs" env:"CAS_MAX_JOBS"`
	ValidateRPS   float64        `yaml:"validate_rps" env:"CAS_VALIDATE_RPS"`
}

// New returns a Config populated with the dispatcher's defaults.
func New() *Config {
	return &Config{
		Server:        ServerConfig{Port: 8769},
		Symbolic:      SymbolicConfig{TimeoutSeconds: 5},
		Calc:          CalcConfig{Path: "maxima", TimeoutSeconds: 10},
		Algebra:       AlgebraConfig{Path: "gap", TimeoutSeconds: 30},
		Oracle:        OracleConfig{TimeoutSeconds: 10},
		Logging:       LoggingConfig{Level: "info", Format: "json"},
		DefaultEngine: "",
		MaxJobs:       100,
		ValidateRPS:   50,
	}
}

// Load loads configuration from CAS_CONFIG_FILE (if set, else
// configs/config.yaml when present) and then applies environment
// variable overrides, which always win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	path := strings.TrimSpace(os.Getenv("CAS_CONFIG_FILE"))
	if path == "" {
		path = "configs/config.yaml"
	}
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := envdecode.Decode(cfg); err != nil {
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks invariants the dispatcher relies on at startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	if c.MaxJobs <= 0 {
		return fmt.Errorf("config: max_jobs must be positive, got %d", c.MaxJobs)
	}
	if c.ValidateRPS <= 0 {
		return fmt.Errorf("config: validate_rps must be positive, got %f", c.ValidateRPS)
	}
	return nil
}

// SymbolicTimeout returns the symbolic engine timeout as a duration.
func (c *Config) SymbolicTimeout() time.Duration {
	return time.Duration(c.Symbolic.TimeoutSeconds) * time.Second
}

// CalcTimeout returns the calc engine timeout as a duration.
func (c *Config) CalcTimeout() time.Duration {
	return time.Duration(c.Calc.TimeoutSeconds) * time.Second
}

// AlgebraTimeout returns the algebra engine timeout as a duration.
func (c *Config) AlgebraTimeout() time.Duration {
	return time.Duration(c.Algebra.TimeoutSeconds) * time.Second
}

// OracleTimeout returns the oracle engine timeout as a duration.
func (c *Config) OracleTimeout() time.Duration {
	return time.Duration(c.Oracle.TimeoutSeconds) * time.Second
}
