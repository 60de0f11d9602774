// Package config loads and saves the YAML run specification the CLI's
// solve and scenario commands consume, in the same Load/Save shape the
// teacher repository's own config package uses.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jangwj7/dae-cpp/internal/dae"
)

const (
	DefaultProblem = "robertson"
	DefaultT1      = 400.0
)

// Config is the YAML-loadable run specification: which problem to
// integrate, the solver parameters, and where to write results.
type Config struct {
	Problem    string     `yaml:"problem"`
	T1         float64    `yaml:"t1"`
	Solver     dae.Config `yaml:"solver"`
	OutputName string     `yaml:"output_name"`
}

// DefaultConfig returns the Robertson problem over [0, 400] with the
// solver's own defaults.
func DefaultConfig() *Config {
	return &Config{
		Problem: DefaultProblem,
		T1:      DefaultT1,
		Solver:  dae.DefaultConfig(),
	}
}

// Load reads a run specification from path, filling any field the file
// omits from DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Solver.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
