package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# optstrat configuration

[contracts]
# Contract reference data (.csv or .json), relative to this directory
path = "contracts.csv"

[store]
# Keep imported contracts and saved strategies in SQLite
enabled = true
path = "optstrat.db"

[payoff]
# Price increment used when --step is not given
step = 1.0
# Fraction of the mid strike added on each side of the default price range
padding = 0.1
# Contract multiplier for legs given without one
multiplier = 1.0

[ui]
# Enable colored output
color_enabled = true
# Prefix for money columns
currency = "$"

[log]
# Level: debug, info, warn, error
level = "info"
console = true
# Rotating file log
file = false
max_size = 100
max_backups = 7
max_age = 30
`

const envTemplate = `# Environment overrides for optstrat
# OPTSTRAT_CONTRACTS=/path/to/contracts.csv
# OPTSTRAT_DB=/path/to/optstrat.db
# OPTSTRAT_LOG_LEVEL=debug
# OPTSTRAT_STEP=5
`

// createTemplateConfig writes the default config.toml and a commented .env.
// An existing .env is left untouched.
func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	envPath := filepath.Join(configDir, ".env")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		if err := os.WriteFile(envPath, []byte(envTemplate), 0600); err != nil {
			return fmt.Errorf("writing env template: %w", err)
		}
	}

	return nil
}

// TemplatePath returns where Load looks for the config file.
func TemplatePath(configDir string) string {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}
	return filepath.Join(configDir, "config.toml")
}
