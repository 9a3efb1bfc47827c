// Package workbook decodes the planning workbook: one YAML document whose
// top-level keys are the sheets of the planning spreadsheet.
package workbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyWorkbook is returned when the document contains no sheets
	ErrEmptyWorkbook = errors.New("workbook is empty")
)

// Workbook holds the raw sheet rows. No cross-sheet validation happens here;
// the registry joins and validates the rows.
//
// Every row column without omitempty is required. A required cell absent
// from the document decodes as zero and is recorded by Parse; see Missing.
type Workbook struct {
	Settings     Settings     `yaml:"settings"`
	Plants       []PlantRow   `yaml:"plants"`
	Periods      []PeriodRow  `yaml:"periods"`
	EnergyPrices []PriceRow   `yaml:"energyPrices"`
	AltSolid     []AltFuelRow `yaml:"altSolid"`
	AltGas       []AltFuelRow `yaml:"altGas"`
	CCS          []CCSRow     `yaml:"ccs"`
	NETIntensity []NETRow     `yaml:"netIntensity"`
	NETCost      []NETRow     `yaml:"netCost"`
	Ceilings     []CeilingRow `yaml:"ceilings,omitempty"`

	missing []Cell
}

// Cell locates a required value that a sheet row leaves out. Row is
// 1-based; Period and ID echo the row's period or id cell when present.
type Cell struct {
	Sheet  string
	Row    int
	Period int
	ID     string
	Column string
}

// Missing returns the required cells absent from the parsed document, in
// document order.
func (wb *Workbook) Missing() []Cell {
	return append([]Cell(nil), wb.missing...)
}

// Settings is the configuration cell block of the plant sheet.
type Settings struct {
	// CostDriven selects cost minimisation under a fixed emission limit;
	// false selects emission minimisation under a fixed budget.
	CostDriven bool `yaml:"costDriven"`
}

// PlantRow is one row of the plant roster.
type PlantRow struct {
	ID              string  `yaml:"id"`
	Fuel            string  `yaml:"fuel"`
	CarbonIntensity float64 `yaml:"carbonIntensity"`
	LowerBound      float64 `yaml:"lowerBound"`
	UpperBound      float64 `yaml:"upperBound"`
}

// PeriodRow carries demand, limit, budget and compensatory energy options.
type PeriodRow struct {
	Period        int     `yaml:"period"`
	Demand        float64 `yaml:"demand"`
	EmissionLimit float64 `yaml:"emissionLimit"`
	Budget        float64 `yaml:"budget"`
	CompCI1       float64 `yaml:"compCI1"`
	CompCost1     float64 `yaml:"compCost1"`
	CompCI2       float64 `yaml:"compCI2"`
	CompCost2     float64 `yaml:"compCost2"`
}

// PriceRow carries the base energy price per fuel kind.
type PriceRow struct {
	Period     int     `yaml:"period"`
	Renewable  float64 `yaml:"renewable"`
	NaturalGas float64 `yaml:"naturalGas"`
	Oil        float64 `yaml:"oil"`
	Coal       float64 `yaml:"coal"`
}

// AltFuelRow carries the two alternative fuel grades of one family.
type AltFuelRow struct {
	Period int     `yaml:"period"`
	CI1    float64 `yaml:"ci1"`
	Cost1  float64 `yaml:"cost1"`
	CI2    float64 `yaml:"ci2"`
	Cost2  float64 `yaml:"cost2"`
}

// CCSRow carries the two CCS technology options.
type CCSRow struct {
	Period        int     `yaml:"period"`
	RemovalRatio1 float64 `yaml:"removalRatio1"`
	Parasitic1    float64 `yaml:"parasitic1"`
	Cost1         float64 `yaml:"cost1"`
	FixedCost1    float64 `yaml:"fixedCost1"`
	RemovalRatio2 float64 `yaml:"removalRatio2"`
	Parasitic2    float64 `yaml:"parasitic2"`
	Cost2         float64 `yaml:"cost2"`
	FixedCost2    float64 `yaml:"fixedCost2"`
}

// NETRow carries one value per NET option: three plant-integrated (EP) and
// three post-hoc compensating (EC). It is used for both intensities and costs.
type NETRow struct {
	Period int     `yaml:"period"`
	EP1    float64 `yaml:"ep1"`
	EP2    float64 `yaml:"ep2"`
	EP3    float64 `yaml:"ep3"`
	EC1    float64 `yaml:"ec1"`
	EC2    float64 `yaml:"ec2"`
	EC3    float64 `yaml:"ec3"`
}

// CeilingRow caps deployment of compensatory and NET options. Absent values
// leave the option uncapped.
type CeilingRow struct {
	Period int      `yaml:"period"`
	Comp1  *float64 `yaml:"comp1,omitempty"`
	Comp2  *float64 `yaml:"comp2,omitempty"`
	EP1    *float64 `yaml:"ep1,omitempty"`
	EP2    *float64 `yaml:"ep2,omitempty"`
	EP3    *float64 `yaml:"ep3,omitempty"`
	EC1    *float64 `yaml:"ec1,omitempty"`
	EC2    *float64 `yaml:"ec2,omitempty"`
	EC3    *float64 `yaml:"ec3,omitempty"`
}

// Load reads and decodes a workbook file.
func Load(path string) (*Workbook, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided workbook path
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", path, err)
	}

	wb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook %s: %w", path, err)
	}

	return wb, nil
}

// Parse decodes a workbook document. Unknown sheets or columns are rejected
// so that misspelled headers do not silently read as zero.
func Parse(data []byte) (*Workbook, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	wb := &Workbook{}
	if err := dec.Decode(wb); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyWorkbook
		}

		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	wb.missing = missingCells(&doc)

	return wb, nil
}

// requiredColumns maps each sheet to the row columns it must carry.
//
//nolint:gochecknoglobals // Derived once from the row struct tags
var requiredColumns = func() map[string][]string {
	out := make(map[string][]string)
	wt := reflect.TypeOf(Workbook{})

	for i := 0; i < wt.NumField(); i++ {
		f := wt.Field(i)
		if !f.IsExported() || f.Type.Kind() != reflect.Slice {
			continue
		}

		sheet, _ := column(f)
		row := f.Type.Elem()

		for j := 0; j < row.NumField(); j++ {
			if name, optional := column(row.Field(j)); !optional {
				out[sheet] = append(out[sheet], name)
			}
		}
	}

	return out
}()

func column(f reflect.StructField) (string, bool) {
	name, opts, _ := strings.Cut(f.Tag.Get("yaml"), ",")

	return name, opts == "omitempty"
}

func missingCells(doc *yaml.Node) []Cell {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil
	}

	var out []Cell

	sheets := doc.Content[0].Content

	for i := 0; i+1 < len(sheets); i += 2 {
		sheet := sheets[i].Value

		columns, ok := requiredColumns[sheet]
		if !ok || sheets[i+1].Kind != yaml.SequenceNode {
			continue
		}

		for r, row := range sheets[i+1].Content {
			if row.Kind != yaml.MappingNode {
				continue
			}

			cells := make(map[string]string, len(row.Content)/2)
			for k := 0; k+1 < len(row.Content); k += 2 {
				cells[row.Content[k].Value] = row.Content[k+1].Value
			}

			for _, col := range columns {
				if _, ok := cells[col]; ok {
					continue
				}

				period, _ := strconv.Atoi(cells["period"])

				out = append(out, Cell{Sheet: sheet, Row: r + 1, Period: period, ID: cells["id"], Column: col})
			}
		}
	}

	return out
}
