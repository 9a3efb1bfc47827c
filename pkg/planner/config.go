package planner

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/ethpandaops/decarb/pkg/report"
	"github.com/ethpandaops/decarb/pkg/solver"
	"github.com/ethpandaops/decarb/pkg/submodel"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is read when no config path is given.
const DefaultConfigPath = "config.yaml"

// Config represents the complete planner configuration
type Config struct {
	// Core settings
	Logging     string `yaml:"logging" default:"info" validate:"oneof=panic fatal error warn info debug trace"`
	MetricsFile string `yaml:"metricsFile"`

	// Mode overrides the workbook regime cell when set (cost or emission)
	Mode string `yaml:"mode"`

	// Diagnose solves each period on its own when the linked program has no optimum
	Diagnose bool `yaml:"diagnose" default:"true"`
	// DiagnoseWorkers bounds the standalone period solves run at once
	DiagnoseWorkers int `yaml:"diagnoseWorkers" default:"4"`

	// Solver configuration
	Solver solver.Config `yaml:"solver"`

	// Report configuration
	Report report.Config `yaml:"report"`
}

// Validate validates the planner configuration
func (c *Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Logging); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogging, c.Logging)
	}

	if c.DiagnoseWorkers <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidWorkers, c.DiagnoseWorkers)
	}

	if c.Mode != "" {
		if _, err := submodel.ParseMode(c.Mode); err != nil {
			return err
		}
	}

	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("invalid solver configuration: %w", err)
	}

	if err := c.Report.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}

	return nil
}

// ResolveMode returns the configured mode override, or the workbook regime
// when no override is set.
func (c *Config) ResolveMode(costDriven bool) (submodel.Mode, error) {
	if c.Mode == "" {
		return submodel.ModeFromCostDriven(costDriven), nil
	}

	return submodel.ParseMode(c.Mode)
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config := &Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	// Try to read the file, but allow it to not exist
	yamlFile, err := os.ReadFile(path) //nolint:gosec // User-provided config file path
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}

		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	return config, nil
}
