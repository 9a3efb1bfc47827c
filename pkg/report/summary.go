package report

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/ethpandaops/decarb/pkg/results"
)

const defaultSummary = `Plan {{ .RunID | trunc 8 }} ({{ .Mode }}): {{ .Status | upper }}
{{- if .Optimal }} objective {{ .Objective }}{{ end }}
{{ range .Periods -}}
{{ printf "  period %d" .Period }}: emission {{ .TotalEmission }} (limit {{ .EmissionLimit }}), cost {{ .TotalCost }} (budget {{ .Budget }})
{{ end -}}
{{ range .Diagnostics -}}
{{ printf "  period %d" .Period }}: {{ .Status }}{{ with .Error }} ({{ . }}){{ end }}
{{ end -}}
`

type summaryPeriod struct {
	Period        int
	TotalEmission string
	EmissionLimit string
	TotalCost     string
	Budget        string
}

type summaryDiagnostic struct {
	Period int
	Status string
	Error  string
}

type summaryView struct {
	RunID       string
	Mode        string
	Status      string
	Optimal     bool
	Objective   string
	Periods     []summaryPeriod
	Diagnostics []summaryDiagnostic
}

func parseSummary(content string) (*template.Template, error) {
	if content == "" {
		content = defaultSummary
	}

	tmpl, err := template.New("summary").Funcs(sprig.TxtFuncMap()).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	return tmpl, nil
}

func (w *Writer) summaryView(plan *results.Plan) summaryView {
	view := summaryView{
		RunID:     plan.RunID,
		Mode:      plan.Mode.String(),
		Status:    plan.Status.String(),
		Optimal:   plan.Optimal(),
		Objective: w.num(plan.Objective),
	}

	for i := range plan.Periods {
		p := &plan.Periods[i]
		view.Periods = append(view.Periods, summaryPeriod{
			Period:        p.Period,
			TotalEmission: w.num(p.TotalEmission),
			EmissionLimit: w.num(p.EmissionLimit),
			TotalCost:     w.num(p.TotalCost),
			Budget:        w.num(p.Budget),
		})
	}

	for _, d := range plan.Diagnostics {
		sd := summaryDiagnostic{Period: d.Period, Status: d.Status.String()}
		if d.Err != nil {
			sd.Status = "error"
			sd.Error = d.Err.Error()
		}

		view.Diagnostics = append(view.Diagnostics, sd)
	}

	return view
}

// Summary renders the summary template for a plan.
func (w *Writer) Summary(plan *results.Plan) (string, error) {
	var buf bytes.Buffer
	if err := w.summary.Execute(&buf, w.summaryView(plan)); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
