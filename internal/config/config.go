// Package config provides configuration management for the strategy valuation tool.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apperrors "optstrat/internal/errors"
	"optstrat/internal/logging"
)

// Config holds all application configuration.
type Config struct {
	Contracts ContractsConfig   `mapstructure:"contracts"`
	Store     StoreConfig       `mapstructure:"store"`
	Payoff    PayoffConfig      `mapstructure:"payoff"`
	UI        UIConfig          `mapstructure:"ui"`
	Log       logging.LogConfig `mapstructure:"log"`
}

// ContractsConfig locates the contract reference data file.
type ContractsConfig struct {
	Path string `mapstructure:"path"` // .csv or .json
}

// StoreConfig holds SQLite store configuration.
type StoreConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// PayoffConfig holds defaults for payoff evaluation.
type PayoffConfig struct {
	Step       float64 `mapstructure:"step"`
	Padding    float64 `mapstructure:"padding"`    // fraction of the mid strike added on each side
	Multiplier float64 `mapstructure:"multiplier"` // for legs given without one
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	Currency     string `mapstructure:"currency"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/optstrat"
	}
	return filepath.Join(home, ".config", "optstrat")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is created from the template and then loaded.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	// .env is optional
	if err := godotenv.Load(filepath.Join(configDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{}
	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)
	resolvePaths(configDir, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func newViper(configDir, name string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	defaults := Default()
	v.SetDefault("contracts.path", defaults.Contracts.Path)
	v.SetDefault("store.enabled", defaults.Store.Enabled)
	v.SetDefault("store.path", defaults.Store.Path)
	v.SetDefault("payoff.step", defaults.Payoff.Step)
	v.SetDefault("payoff.padding", defaults.Payoff.Padding)
	v.SetDefault("payoff.multiplier", defaults.Payoff.Multiplier)
	v.SetDefault("ui.color_enabled", defaults.UI.ColorEnabled)
	v.SetDefault("ui.currency", defaults.UI.Currency)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.console", defaults.Log.Console)
	v.SetDefault("log.file", defaults.Log.File)
	v.SetDefault("log.file_path", defaults.Log.FilePath)
	v.SetDefault("log.max_size", defaults.Log.MaxSize)
	v.SetDefault("log.max_backups", defaults.Log.MaxBackups)
	v.SetDefault("log.max_age", defaults.Log.MaxAge)
	return v
}

func loadConfigFile(configDir, name string, target interface{}) error {
	v := newViper(configDir, name)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		if err := createTemplateConfig(configDir, name); err != nil {
			return err
		}
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	return v.Unmarshal(target)
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Contracts: ContractsConfig{Path: "contracts.csv"},
		Store:     StoreConfig{Enabled: true, Path: "optstrat.db"},
		Payoff:    PayoffConfig{Step: 1, Padding: 0.1, Multiplier: 1},
		UI:        UIConfig{ColorEnabled: true, Currency: "$"},
		Log:       logging.DefaultLogConfig(),
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPTSTRAT_CONTRACTS"); v != "" {
		cfg.Contracts.Path = v
	}
	if v := os.Getenv("OPTSTRAT_DB"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("OPTSTRAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("OPTSTRAT_STEP"); v != "" {
		if step, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Payoff.Step = step
		}
	}
}

// resolvePaths makes relative data paths relative to the config directory.
func resolvePaths(configDir string, cfg *Config) {
	if cfg.Contracts.Path != "" && !filepath.IsAbs(cfg.Contracts.Path) {
		cfg.Contracts.Path = filepath.Join(configDir, cfg.Contracts.Path)
	}
	if cfg.Store.Path != "" && !filepath.IsAbs(cfg.Store.Path) {
		cfg.Store.Path = filepath.Join(configDir, cfg.Store.Path)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Payoff.Step <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "payoff.step must be positive, got %v", c.Payoff.Step)
	}
	if c.Payoff.Padding < 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "payoff.padding must be non-negative, got %v", c.Payoff.Padding)
	}
	if c.Payoff.Multiplier <= 0 {
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "payoff.multiplier must be positive, got %v", c.Payoff.Multiplier)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return apperrors.Wrap(apperrors.ErrConfigInvalid, "store.path is required when the store is enabled")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return apperrors.Wrapf(apperrors.ErrConfigInvalid, "log.level %q (must be debug, info, warn or error)", c.Log.Level)
	}
	return nil
}
