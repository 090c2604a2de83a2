package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the shader-fuzz configuration
type Config struct {
	Framework FrameworkConfig `yaml:"framework"`
	Paths     PathsConfig     `yaml:"paths"`
	Fuzz      FuzzConfig      `yaml:"fuzz"`
	Amber     AmberConfig     `yaml:"amber"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// FrameworkConfig contains general framework settings
type FrameworkConfig struct {
	Version   string `yaml:"version"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// PathsConfig contains the on-disk layout roots
type PathsConfig struct {
	// TempDir receives one directory per fuzzed test; treated as scratch.
	TempDir string `yaml:"temp_dir"`
	// ReportsDir receives the bucketed crash reports.
	ReportsDir string `yaml:"reports_dir"`
	// DonorsDir holds the reference shader job corpus.
	DonorsDir string `yaml:"donors_dir"`
	// ArtifactsDir is where downloaded binary archives are materialized.
	ArtifactsDir string `yaml:"artifacts_dir"`
	// DeviceList is the device roster file.
	DeviceList string `yaml:"device_list"`
}

// FuzzConfig contains fuzzing loop settings
type FuzzConfig struct {
	// Seed is the master seed; every random choice in a run derives from it.
	Seed int64 `yaml:"seed"`
	// Iterations limits the loop; 0 means run until interrupted.
	Iterations int `yaml:"iterations"`
	// KeepGoing disables the skip-remaining-presets heuristic and downgrades
	// reduction failures to per-report errors.
	KeepGoing bool `yaml:"keep_going"`
	// DryRun logs what each iteration would do without executing anything.
	DryRun bool `yaml:"dry_run"`
}

// AmberConfig contains Amber execution settings
type AmberConfig struct {
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	// ListenAddr serves /metrics when nonempty (e.g. ":9101").
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Framework: FrameworkConfig{
			Version:   "v1",
			LogLevel:  "info",
			LogFormat: "text",
		},
		Paths: PathsConfig{
			TempDir:      "./temp",
			ReportsDir:   "./reports",
			DonorsDir:    "./donors",
			ArtifactsDir: "./artifacts",
			DeviceList:   "./devices.yaml",
		},
		Fuzz: FuzzConfig{
			Seed:       0,
			Iterations: 0,
			KeepGoing:  false,
			DryRun:     false,
		},
		Amber: AmberConfig{
			RunTimeout: 30 * time.Second,
		},
		Metrics: MetricsConfig{
			ListenAddr: "",
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(expandedData, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Paths.TempDir == "" {
		return fmt.Errorf("paths.temp_dir is required")
	}

	if c.Paths.ReportsDir == "" {
		return fmt.Errorf("paths.reports_dir is required")
	}

	if c.Paths.DonorsDir == "" {
		return fmt.Errorf("paths.donors_dir is required")
	}

	if c.Amber.RunTimeout <= 0 {
		return fmt.Errorf("amber.run_timeout must be positive")
	}

	return nil
}
