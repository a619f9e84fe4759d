package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/artpar/anchor/internal/core/domain"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Environment EnvironmentConfig `mapstructure:"environment"`
	Gateway     GatewayConfig     `mapstructure:"gateway"`
	Records     RecordsConfig     `mapstructure:"records"`
	Owner       OwnerConfig       `mapstructure:"owner"`
	Verify      VerifyConfig      `mapstructure:"verify"`
	History     HistoryConfig     `mapstructure:"history"`
	Log         LogConfig         `mapstructure:"log"`
}

// EnvironmentConfig identifies the target execution environment.
type EnvironmentConfig struct {
	// ID is the environment identifier, cross-checked against the
	// gateway at startup.
	ID string `mapstructure:"id"`

	// Host is a short alias for the gateway host, used in diff ledger
	// filenames.
	Host string `mapstructure:"host"`
}

// GatewayConfig holds the environment gateway connection settings.
type GatewayConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`

	// Factory is the deterministic factory's address on the
	// environment.
	Factory string `mapstructure:"factory"`

	// Caller is the identity deployments are issued under.
	Caller string `mapstructure:"caller"`
}

// RecordsConfig holds the on-disk record layout.
type RecordsConfig struct {
	// Root is the base directory for ledgers and verification records.
	Root string `mapstructure:"root"`

	// Subfolder separates independent deployment trees under Root.
	Subfolder string `mapstructure:"subfolder"`
}

// OwnerConfig holds the ownership handoff configuration.
type OwnerConfig struct {
	// Target receives administrative control on managed environments.
	// Empty downgrades handoff to a warning.
	Target string `mapstructure:"target"`

	// ManagedEnvironments lists production-like environment IDs.
	ManagedEnvironments []string `mapstructure:"managed_environments"`
}

// VerifyConfig holds the verification gate configuration.
type VerifyConfig struct {
	// BuildDir is where the build drops standard-json-input documents,
	// one per artifact name.
	BuildDir string `mapstructure:"build_dir"`

	// ForceOverride lets a run proceed past a verification mismatch.
	// The divergent content is persisted next to, never over, the
	// published record.
	ForceOverride bool `mapstructure:"force_override"`
}

// HistoryConfig holds the deployment history database configuration.
type HistoryConfig struct {
	// DSN is the sqlite database path. Empty disables history.
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("environment.id", "")
	v.SetDefault("environment.host", "local")
	v.SetDefault("gateway.url", "http://localhost:8547")
	v.SetDefault("gateway.timeout", "30s")
	v.SetDefault("gateway.factory", "")
	v.SetDefault("gateway.caller", "")
	v.SetDefault("records.root", "./deployments")
	v.SetDefault("records.subfolder", "default")
	v.SetDefault("owner.target", "")
	v.SetDefault("owner.managed_environments", []string{})
	v.SetDefault("verify.build_dir", "./out")
	v.SetDefault("verify.force_override", false)
	v.SetDefault("history.dsn", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("ANCHOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// CallerAddress parses the configured caller identity.
func (c *Config) CallerAddress() (domain.Address, error) {
	if c.Gateway.Caller == "" {
		return domain.Address{}, fmt.Errorf("gateway.caller is required")
	}
	return domain.ParseAddress(c.Gateway.Caller)
}

// FactoryAddress parses the configured factory address.
func (c *Config) FactoryAddress() (domain.Address, error) {
	if c.Gateway.Factory == "" {
		return domain.Address{}, fmt.Errorf("gateway.factory is required")
	}
	return domain.ParseAddress(c.Gateway.Factory)
}

// TargetOwnerAddress parses the configured target owner; a zero
// address when unset.
func (c *Config) TargetOwnerAddress() (domain.Address, error) {
	if c.Owner.Target == "" {
		return domain.Address{}, nil
	}
	return domain.ParseAddress(c.Owner.Target)
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
