package report

import (
	"errors"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Format is an output format.
type Format string

const (
	// FormatTable is one aligned text table per period
	FormatTable Format = "table"
	// FormatCSV is a single flat CSV document
	FormatCSV Format = "csv"
	// FormatYAML is a structured YAML document
	FormatYAML Format = "yaml"
)

const maxPrecision = 12

var (
	// ErrInvalidFormat is returned for an unknown output format
	ErrInvalidFormat = errors.New("invalid report format")
	// ErrInvalidPrecision is returned when the decimal precision is out of range
	ErrInvalidPrecision = errors.New("precision must lie in [0, 12]")
	// ErrInvalidSummary is returned when the summary template does not parse
	ErrInvalidSummary = errors.New("invalid summary template")
)

// Config controls how a plan is rendered.
type Config struct {
	// Output format: table, csv or yaml
	Format Format `yaml:"format" default:"table"`
	// Output file path, empty writes to stdout
	Output string `yaml:"output"`
	// Decimal places for reported quantities
	Precision int32 `yaml:"precision" default:"2"`
	// Summary overrides the text/template printed after the tables
	Summary string `yaml:"summary"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Format {
	case FormatTable, FormatCSV, FormatYAML:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Format)
	}

	if c.Precision < 0 || c.Precision > maxPrecision {
		return fmt.Errorf("%w: got %d", ErrInvalidPrecision, c.Precision)
	}

	if c.Summary != "" {
		if _, err := template.New("summary").Funcs(sprig.TxtFuncMap()).Parse(c.Summary); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidSummary, err)
		}
	}

	return nil
}
