// Package config holds the attestor configuration: artifact paths, proof
// generation options and logging. Loaded from attestor.yaml with environment
// overrides for the paths CI pipelines most often relocate.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all attestor configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Artifact paths
	Paths PathsConfig `yaml:"paths"`

	// Proof generation options
	Generation GenerationConfig `yaml:"generation"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PathsConfig locates the suite's inputs and artifacts.
type PathsConfig struct {
	ContractsDir  string `yaml:"contracts_dir"`
	ProofPath     string `yaml:"proof_path"`
	RegistryDB    string `yaml:"registry_db"`
	ScorecardPath string `yaml:"scorecard_path"`
}

// GenerationConfig configures proof generation.
type GenerationConfig struct {
	// SortByRuleID pins canonical leaf order so roots reproduce across
	// platforms regardless of contract enumeration order.
	SortByRuleID bool `yaml:"sort_by_rule_id"`

	// LoaderConcurrency bounds parallel contract parsing.
	LoaderConcurrency int `yaml:"loader_concurrency"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "attestor",
		Version: "1.0.0",

		Paths: PathsConfig{
			ContractsDir:  "contracts",
			ProofPath:     "artifacts/sot_merkle_proof.json",
			RegistryDB:    "artifacts/attestor_registry.db",
			ScorecardPath: "artifacts/compliance_scorecard.yaml",
		},

		Generation: GenerationConfig{
			SortByRuleID:      true,
			LoaderConcurrency: 4,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from path, applying defaults for missing fields
// and environment overrides last. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if cfg.Generation.LoaderConcurrency <= 0 {
		cfg.Generation.LoaderConcurrency = 4
	}
	return cfg, nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variables over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("ATTESTOR_CONTRACTS_DIR"); v != "" {
		c.Paths.ContractsDir = v
	}
	if v := os.Getenv("ATTESTOR_PROOF_PATH"); v != "" {
		c.Paths.ProofPath = v
	}
	if v := os.Getenv("ATTESTOR_REGISTRY_DB"); v != "" {
		c.Paths.RegistryDB = v
	}
	if v := os.Getenv("ATTESTOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}
