package main

import (
	"fmt"
	"os"

	"github.com/jihwankim/shader-fuzz/pkg/artifacts"
	"github.com/jihwankim/shader-fuzz/pkg/binaries"
	"github.com/jihwankim/shader-fuzz/pkg/config"
	"github.com/jihwankim/shader-fuzz/pkg/reporting"
)

// loadConfig loads the configuration from file, auto-generating if needed
func loadConfig() (*config.Config, error) {
	configPath := cfgFile
	if configPath == "" {
		configPath = "config.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Printf("Config file not found, creating default configuration at: %s\n", configPath)

		cfg := config.DefaultConfig()
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		return cfg, nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newLogger builds the process logger from config and the --verbose flag.
func newLogger(cfg *config.Config) *reporting.Logger {
	logLevel := reporting.LogLevel(cfg.Framework.LogLevel)
	if verbose {
		logLevel = reporting.LogLevelDebug
	}
	return reporting.NewLogger(reporting.LoggerConfig{
		Level:  logLevel,
		Format: reporting.LogFormat(cfg.Framework.LogFormat),
		Output: os.Stdout,
	})
}

// newBinaryManager builds the session's binary manager: the default override
// list over the built-in catalog, materializing archives under the
// configured artifacts directory.
func newBinaryManager(cfg *config.Config, logger *reporting.Logger) *binaries.Manager {
	store := artifacts.NewStore(cfg.Paths.ArtifactsDir, logger)
	return binaries.NewManager(binaries.DefaultBinaries, "", store, logger)
}
