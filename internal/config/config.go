package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"qsignal/pkg/contracts/domain"
)

// Config represents the complete application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" envconfig:"SERVER"`
	Security   SecurityConfig   `yaml:"security" envconfig:"SECURITY"`
	Logging    LoggingConfig    `yaml:"logging" envconfig:"LOGGING"`
	Limits     LimitsConfig     `yaml:"limits" envconfig:"LIMITS"`
	Processing ProcessingConfig `yaml:"processing" envconfig:"PROCESSING"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// SecurityConfig contains the demo access gate configuration. The access
// code is one shared static secret compared in-process: no per-user keys,
// no rotation, no hashing. It must never be logged.
type SecurityConfig struct {
	AccessCode string        `yaml:"access_code" envconfig:"ACCESS_CODE" default:"Demo2025"`
	CookieName string        `yaml:"cookie_name" envconfig:"COOKIE_NAME" default:"qsignal_session"`
	SessionTTL time.Duration `yaml:"session_ttl" envconfig:"SESSION_TTL" default:"1h"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// LimitsConfig contains the demo processing ceilings. Fixed at startup and
// never mutated, so they are safe to read from concurrent sessions.
type LimitsConfig struct {
	MaxFileBytes int64 `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES" default:"2097152"`
	MaxRows      int   `yaml:"max_rows" envconfig:"MAX_ROWS" default:"500"`
}

// ProcessingConfig contains fixed processing parameters that are not
// caller-configurable in the demo.
type ProcessingConfig struct {
	SampleRateHz      float64 `yaml:"sample_rate_hz" envconfig:"SAMPLE_RATE_HZ" default:"256"`
	WatermarkTemplate string  `yaml:"watermark_template" envconfig:"WATERMARK_TEMPLATE" default:"QuantumSignal Demo | Not for Production | %s"`
}

// Load loads configuration from environment variables (prefix QSIGNAL),
// overlaid on an optional YAML file named by QSIGNAL_CONFIG_FILE.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("QSIGNAL_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := envconfig.Process("QSIGNAL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Security.AccessCode == "" {
		return fmt.Errorf("security access_code must not be empty")
	}
	if c.Security.SessionTTL <= 0 {
		return fmt.Errorf("security session_ttl must be positive, got %s", c.Security.SessionTTL)
	}
	if c.Limits.MaxFileBytes <= 0 {
		return fmt.Errorf("limits max_file_bytes must be positive, got %d", c.Limits.MaxFileBytes)
	}
	if c.Limits.MaxRows <= 0 {
		return fmt.Errorf("limits max_rows must be positive, got %d", c.Limits.MaxRows)
	}
	if c.Processing.SampleRateHz <= 0 {
		return fmt.Errorf("processing sample_rate_hz must be positive, got %f", c.Processing.SampleRateHz)
	}
	return nil
}

// DomainLimits converts the configured ceilings to the contract type.
func (c *Config) DomainLimits() domain.Limits {
	return domain.Limits{
		MaxFileBytes: c.Limits.MaxFileBytes,
		MaxRows:      c.Limits.MaxRows,
	}
}
