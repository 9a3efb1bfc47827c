package solver

import "time"

// Config controls the branch-and-bound solver.
type Config struct {
	// Wall-clock budget for a single solve, zero disables the limit
	Timeout time.Duration `yaml:"timeout" default:"60s"`
	// Reduced-cost tolerance handed to the simplex method
	Tolerance float64 `yaml:"tolerance" default:"1e-9"`
	// Distance from an integer below which a binary is considered integral
	IntegralityTolerance float64 `yaml:"integralityTolerance" default:"1e-6"`
	// Upper limit on explored branch-and-bound nodes
	MaxNodes int `yaml:"maxNodes" default:"100000"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.Tolerance <= 0 || c.IntegralityTolerance <= 0 {
		return ErrInvalidTolerance
	}

	if c.MaxNodes <= 0 {
		return ErrInvalidMaxNodes
	}

	return nil
}
