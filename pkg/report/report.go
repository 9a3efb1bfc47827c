// Package report renders a plan as text tables, CSV or YAML.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"text/template"

	"github.com/ethpandaops/decarb/pkg/results"
	"github.com/ethpandaops/decarb/pkg/submodel"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Writer renders plans according to a Config.
type Writer struct {
	format    Format
	precision int32
	summary   *template.Template
}

// NewWriter creates a writer for a validated configuration
func NewWriter(cfg *Config) (*Writer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tmpl, err := parseSummary(cfg.Summary)
	if err != nil {
		return nil, err
	}

	return &Writer{
		format:    cfg.Format,
		precision: cfg.Precision,
		summary:   tmpl,
	}, nil
}

// Write renders the plan to out.
func (w *Writer) Write(out io.Writer, plan *results.Plan) error {
	switch w.format {
	case FormatTable:
		return w.writeTable(out, plan)
	case FormatCSV:
		return w.writeCSV(out, plan)
	case FormatYAML:
		return w.writeYAML(out, plan)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidFormat, w.format)
	}
}

// num rounds v half away from zero to the configured precision.
func (w *Writer) num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}

	return decimal.NewFromFloat(v).StringFixed(w.precision)
}

func (w *Writer) round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	return decimal.NewFromFloat(v).Round(w.precision).InexactFloat64()
}

func flag(selected bool) string {
	if selected {
		return "Y"
	}

	return "-"
}

func (w *Writer) writeTable(out io.Writer, plan *results.Plan) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	for i := range plan.Periods {
		p := &plan.Periods[i]

		_, _ = fmt.Fprintf(tw, "PERIOD %d\tdemand %s\tlimit %s\tbudget %s\n",
			p.Period, w.num(p.Demand), w.num(p.EmissionLimit), w.num(p.Budget))
		_, _ = fmt.Fprintln(tw, "SOURCE\tFUEL\tENERGY\tCI\tCCS1\tCCS2\tCCS1 EXTENT\tCCS2 EXTENT\tCCS1 CI\tCCS2 CI\tALT1\tALT2\tNET ENERGY\tCARBON LOAD\tCOST")

		for _, row := range p.Plants {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				row.ID, row.Fuel, w.num(row.Energy), w.num(row.CarbonIntensity),
				flag(row.CCSSelected[0]), flag(row.CCSSelected[1]),
				w.num(row.CCSExtent[0]), w.num(row.CCSExtent[1]),
				w.num(row.DeratedIntensity[0]), w.num(row.DeratedIntensity[1]),
				w.num(row.AltFuel[0]), w.num(row.AltFuel[1]),
				w.num(row.NetEnergy), w.num(row.CarbonLoad), w.num(row.Cost))
		}

		for _, row := range p.Options {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t-\t-\t-\t-\t-\t-\t-\t-\t%s\t%s\t%s\n",
				row.Name, row.Family, w.num(row.Energy), w.num(row.CarbonIntensity),
				w.num(row.Energy), w.num(row.CarbonLoad), w.num(row.Energy*row.Cost))
		}

		// Demand sits under ENERGY, total carbon load and total cost under
		// their own columns.
		_, _ = fmt.Fprintf(tw, "TOTAL\t\t%s\t\t\t\t\t\t\t\t\t\t\t%s\t%s\n",
			w.num(p.Demand), w.num(p.TotalEmission), w.num(p.TotalCost))
		_, _ = fmt.Fprintln(tw)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	text, err := w.Summary(plan)
	if err != nil {
		return err
	}

	_, err = io.WriteString(out, text)

	return err
}

var csvHeader = []string{ //nolint:gochecknoglobals // Read-only column list
	"period", "kind", "id", "fuel", "energy", "carbon_intensity",
	"ccs1_selected", "ccs2_selected", "ccs1_extent", "ccs2_extent",
	"ccs1_intensity", "ccs2_intensity", "alt1", "alt2",
	"net_energy", "carbon_load", "cost",
}

func (w *Writer) writeCSV(out io.Writer, plan *results.Plan) error {
	cw := csv.NewWriter(out)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for i := range plan.Periods {
		p := &plan.Periods[i]
		period := strconv.Itoa(p.Period)

		for _, row := range p.Plants {
			record := []string{
				period, "plant", row.ID, row.Fuel.String(),
				w.num(row.Energy), w.num(row.CarbonIntensity),
				strconv.FormatBool(row.CCSSelected[0]), strconv.FormatBool(row.CCSSelected[1]),
				w.num(row.CCSExtent[0]), w.num(row.CCSExtent[1]),
				w.num(row.DeratedIntensity[0]), w.num(row.DeratedIntensity[1]),
				w.num(row.AltFuel[0]), w.num(row.AltFuel[1]),
				w.num(row.NetEnergy), w.num(row.CarbonLoad), w.num(row.Cost),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		for _, row := range p.Options {
			record := []string{
				period, "option", row.Name, row.Family.String(),
				w.num(row.Energy), w.num(row.CarbonIntensity),
				"", "", "", "", "", "", "", "",
				w.num(row.Energy), w.num(row.CarbonLoad), w.num(row.Energy * row.Cost),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}

		record := []string{
			period, "total", "", "", w.num(p.Demand), "",
			"", "", "", "", "", "", "", "",
			"", w.num(p.TotalEmission), w.num(p.TotalCost),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

type yamlPlant struct {
	ID               string     `yaml:"id"`
	Fuel             string     `yaml:"fuel"`
	Energy           float64    `yaml:"energy"`
	CarbonIntensity  float64    `yaml:"carbonIntensity"`
	CCSSelected      [2]bool    `yaml:"ccsSelected,flow"`
	CCSExtent        [2]float64 `yaml:"ccsExtent,flow"`
	DeratedIntensity [2]float64 `yaml:"ccsIntensity,flow"`
	AltFuel          [2]float64 `yaml:"altFuel,flow"`
	NetEnergy        float64    `yaml:"netEnergy"`
	CarbonLoad       float64    `yaml:"carbonLoad"`
	Cost             float64    `yaml:"cost"`
}

type yamlOption struct {
	Name            string  `yaml:"name"`
	Family          string  `yaml:"family"`
	CarbonIntensity float64 `yaml:"carbonIntensity"`
	Energy          float64 `yaml:"energy"`
	CarbonLoad      float64 `yaml:"carbonLoad"`
}

type yamlPeriod struct {
	Period        int          `yaml:"period"`
	Demand        float64      `yaml:"demand"`
	EmissionLimit float64      `yaml:"emissionLimit"`
	Budget        float64      `yaml:"budget"`
	TotalEmission float64      `yaml:"totalEmission"`
	TotalCost     float64      `yaml:"totalCost"`
	Plants        []yamlPlant  `yaml:"plants"`
	Options       []yamlOption `yaml:"options"`
}

type yamlDiagnostic struct {
	Period int    `yaml:"period"`
	Status string `yaml:"status"`
	Error  string `yaml:"error,omitempty"`
}

type yamlPlan struct {
	RunID       string           `yaml:"runId"`
	Mode        submodel.Mode    `yaml:"mode"`
	Status      string           `yaml:"status"`
	Objective   *float64         `yaml:"objective,omitempty"`
	Periods     []yamlPeriod     `yaml:"periods,omitempty"`
	Diagnostics []yamlDiagnostic `yaml:"diagnostics,omitempty"`
}

func (w *Writer) writeYAML(out io.Writer, plan *results.Plan) error {
	doc := yamlPlan{
		RunID:  plan.RunID,
		Mode:   plan.Mode,
		Status: plan.Status.String(),
	}

	if plan.Optimal() {
		objective := w.round(plan.Objective)
		doc.Objective = &objective
	}

	for i := range plan.Periods {
		p := &plan.Periods[i]

		yp := yamlPeriod{
			Period:        p.Period,
			Demand:        w.round(p.Demand),
			EmissionLimit: w.round(p.EmissionLimit),
			Budget:        w.round(p.Budget),
			TotalEmission: w.round(p.TotalEmission),
			TotalCost:     w.round(p.TotalCost),
			Plants:        make([]yamlPlant, 0, len(p.Plants)),
			Options:       make([]yamlOption, 0, len(p.Options)),
		}

		for _, row := range p.Plants {
			yp.Plants = append(yp.Plants, yamlPlant{
				ID:               row.ID,
				Fuel:             row.Fuel.String(),
				Energy:           w.round(row.Energy),
				CarbonIntensity:  w.round(row.CarbonIntensity),
				CCSSelected:      row.CCSSelected,
				CCSExtent:        [2]float64{w.round(row.CCSExtent[0]), w.round(row.CCSExtent[1])},
				DeratedIntensity: [2]float64{w.round(row.DeratedIntensity[0]), w.round(row.DeratedIntensity[1])},
				AltFuel:          [2]float64{w.round(row.AltFuel[0]), w.round(row.AltFuel[1])},
				NetEnergy:        w.round(row.NetEnergy),
				CarbonLoad:       w.round(row.CarbonLoad),
				Cost:             w.round(row.Cost),
			})
		}

		for _, row := range p.Options {
			yp.Options = append(yp.Options, yamlOption{
				Name:            row.Name,
				Family:          row.Family.String(),
				CarbonIntensity: w.round(row.CarbonIntensity),
				Energy:          w.round(row.Energy),
				CarbonLoad:      w.round(row.CarbonLoad),
			})
		}

		doc.Periods = append(doc.Periods, yp)
	}

	for _, d := range plan.Diagnostics {
		yd := yamlDiagnostic{Period: d.Period, Status: d.Status.String()}
		if d.Err != nil {
			yd.Status = "error"
			yd.Error = d.Err.Error()
		}

		doc.Diagnostics = append(doc.Diagnostics, yd)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}

	return enc.Close()
}
