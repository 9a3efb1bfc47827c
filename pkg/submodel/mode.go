package submodel

import (
	"fmt"
	"strings"
)

// Mode selects the objective regime. It is passed explicitly to the builder
// and the linker; nothing reads it from shared state.
type Mode string

const (
	// ModeCost minimises total cost with emissions pinned to the period limit
	ModeCost Mode = "cost"
	// ModeEmission minimises total emission with cost capped by the period budget
	ModeEmission Mode = "emission"
)

// ModeFromCostDriven maps the workbook's boolean regime cell to a Mode.
func ModeFromCostDriven(costDriven bool) Mode {
	if costDriven {
		return ModeCost
	}

	return ModeEmission
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeCost, "min_budget", "cost-driven":
		return ModeCost, nil
	case ModeEmission, "min_emission", "emission-driven":
		return ModeEmission, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Validate validates the mode
func (m Mode) Validate() error {
	switch m {
	case ModeCost, ModeEmission:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, string(m))
	}
}

func (m Mode) String() string {
	return string(m)
}
