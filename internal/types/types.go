package types

import "time"

// Company is one listing returned for a sub-sector
type Company struct {
	Symbol      string `json:"symbol"`
	CompanyName string `json:"company_name"`
}

// Label is the display string used by the company selector
func (c Company) Label() string {
	return c.Symbol + " - " + c.CompanyName
}

// PanelKind tells the UI how to display a panel result
type PanelKind string

const (
	PanelNarrative PanelKind = "narrative"
	PanelChart     PanelKind = "chart"
)

// PanelResult is the rendered output of one insight panel. Err is set when
// the panel failed and the run continued past it.
type PanelResult struct {
	Name     string    `json:"name"`
	Title    string    `json:"title"`
	Kind     PanelKind `json:"kind"`
	Markdown string    `json:"markdown,omitempty"`
	HTML     string    `json:"html,omitempty"`
	Text     string    `json:"text,omitempty"`
	SVG      string    `json:"svg,omitempty"`
	Err      string    `json:"error,omitempty"`
	Duration int64     `json:"duration_ms"`
}

// Failed reports whether the panel ended with an error
func (p PanelResult) Failed() bool {
	return p.Err != ""
}

// RunReport is the outcome of one dashboard run for a symbol
type RunReport struct {
	RunID     string        `json:"run_id"`
	Symbol    string        `json:"symbol"`
	StartedAt time.Time     `json:"started_at"`
	EndedAt   time.Time     `json:"ended_at"`
	Panels    []PanelResult `json:"panels"`
	Err       string        `json:"error,omitempty"`
}

// FailedPanels counts the panels that ended with an error
func (r *RunReport) FailedPanels() int {
	n := 0
	for _, p := range r.Panels {
		if p.Failed() {
			n++
		}
	}
	return n
}
