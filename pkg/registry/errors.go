package registry

import (
	"errors"
	"fmt"
	"strings"
)

// Registry-specific errors
var (
	// ErrNoPlants is returned when the plant roster is empty
	ErrNoPlants = errors.New("no plants defined")
	// ErrNoPeriods is returned when no planning period is defined
	ErrNoPeriods = errors.New("no periods defined")
	// ErrDuplicatePlant is returned when two plants share an id
	ErrDuplicatePlant = errors.New("duplicate plant id")
	// ErrMissingPlantID is returned when a plant row has no id
	ErrMissingPlantID = errors.New("plant id is required")
	// ErrUnknownFuel is returned when a fuel marker is not recognised
	ErrUnknownFuel = errors.New("unknown fuel kind")
	// ErrNonContiguousPeriods is returned when period indices are not 1..N in order
	ErrNonContiguousPeriods = errors.New("period indices must be contiguous and start at 1")
	// ErrMissingRow is returned when a sheet has no row for a period
	ErrMissingRow = errors.New("missing row for period")
	// ErrDuplicateRow is returned when a sheet has more than one row for a period
	ErrDuplicateRow = errors.New("duplicate row for period")
	// ErrUnknownPeriod is returned when a sheet has a row for a period that does not exist
	ErrUnknownPeriod = errors.New("row references unknown period")
	// ErrNegativeValue is returned when a quantity that must be non-negative is negative
	ErrNegativeValue = errors.New("value must not be negative")
	// ErrInvertedBounds is returned when a plant lower bound exceeds its upper bound
	ErrInvertedBounds = errors.New("lower bound exceeds upper bound")
	// ErrMissingValue is returned when a sheet row omits a required column
	ErrMissingValue = errors.New("required value is missing")
	// ErrNotFinite is returned when a value is NaN or infinite
	ErrNotFinite = errors.New("value must be finite")
)

// DataError reports malformed or inconsistent input, locating it by sheet,
// period, plant and field where known.
type DataError struct {
	Sheet  string
	Period int
	Plant  string
	Field  string
	Err    error
}

func (e *DataError) Error() string {
	parts := make([]string, 0, 4)

	if e.Sheet != "" {
		parts = append(parts, "sheet "+e.Sheet)
	}

	if e.Period > 0 {
		parts = append(parts, fmt.Sprintf("period %d", e.Period))
	}

	if e.Plant != "" {
		parts = append(parts, "plant "+e.Plant)
	}

	if e.Field != "" {
		parts = append(parts, "field "+e.Field)
	}

	if len(parts) == 0 {
		return fmt.Sprintf("data error: %v", e.Err)
	}

	return fmt.Sprintf("data error (%s): %v", strings.Join(parts, ", "), e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}
