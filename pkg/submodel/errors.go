package submodel

import (
	"errors"
	"fmt"
	"strings"
)

// Builder-specific errors
var (
	// ErrInvalidMode is returned for a mode other than cost or emission
	ErrInvalidMode = errors.New("invalid mode")
	// ErrEmptyRoster is returned when a period is built without plants
	ErrEmptyRoster = errors.New("plant roster is empty")
	// ErrParasiticLoss is returned when a CCS parasitic loss is outside [0, 1)
	ErrParasiticLoss = errors.New("parasitic loss must lie in [0, 1)")
	// ErrRemovalRatio is returned when a CCS removal ratio is outside [0, 1]
	ErrRemovalRatio = errors.New("removal ratio must lie in [0, 1]")
	// ErrUnboundedPlant is returned when a plant has no finite upper bound to gate CCS with
	ErrUnboundedPlant = errors.New("plant upper bound must be finite")
	// ErrUnknownFuel is returned when a plant fuel kind has no constraint branch
	ErrUnknownFuel = errors.New("no constraint branch for fuel kind")
)

// ModelError reports a structural violation found while building
// constraints, locating it by period, plant and CCS option where known.
type ModelError struct {
	Period int
	Plant  string
	CCS    int
	Err    error
}

func (e *ModelError) Error() string {
	parts := make([]string, 0, 3)

	if e.Period > 0 {
		parts = append(parts, fmt.Sprintf("period %d", e.Period))
	}

	if e.Plant != "" {
		parts = append(parts, "plant "+e.Plant)
	}

	if e.CCS > 0 {
		parts = append(parts, fmt.Sprintf("ccs option %d", e.CCS))
	}

	if len(parts) == 0 {
		return fmt.Sprintf("model error: %v", e.Err)
	}

	return fmt.Sprintf("model error (%s): %v", strings.Join(parts, ", "), e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}
