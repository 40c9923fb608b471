// Package panels holds the four insight panels of the dashboard. Each panel
// pairs a prompt template with a display action.
package panels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/prompt"
	"sector-insights/internal/render"
	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

// Panel names
const (
	NameSummary      = "summary"
	NameRevenueTrend = "revenue_trend"
	NameTrend        = "trend"
	NameRisk         = "risk"
)

// ErrNoFinancials is returned when a panel runs without a financials table
var ErrNoFinancials = errors.New("no financial data loaded")

// narrative is a panel whose output is model-written markdown
type narrative struct {
	name     string
	title    string
	template string
	engine   *prompt.Engine
}

func (n *narrative) Name() string  { return n.name }
func (n *narrative) Title() string { return n.title }

func (n *narrative) Render(ctx context.Context, in interfaces.PanelInput) (types.PanelResult, error) {
	start := time.Now()
	res := types.PanelResult{Name: n.name, Title: n.title, Kind: types.PanelNarrative}
	fail := func(err error) (types.PanelResult, error) {
		res.Duration = time.Since(start).Milliseconds()
		return res, fmt.Errorf("%s panel: %w", n.name, err)
	}

	if in.Financials == nil {
		return fail(ErrNoFinancials)
	}
	reply, err := n.engine.Run(ctx, n.template, in.Financials)
	if err != nil {
		return fail(err)
	}

	res.Markdown = reply
	res.HTML, res.Text, err = render.Narrative(reply)
	if err != nil {
		return fail(err)
	}
	res.Duration = time.Since(start).Milliseconds()
	return res, nil
}

// Summary loads the quarterly financials and writes the executive summary.
// The other panels reuse the table it loads.
type Summary struct {
	narrative
	source interfaces.DataSource
}

var _ interfaces.FinancialsLoader = (*Summary)(nil)

// NewSummary creates the financial summary panel
func NewSummary(source interfaces.DataSource, engine *prompt.Engine, lib *prompt.Library) *Summary {
	return &Summary{
		narrative: narrative{
			name:     NameSummary,
			title:    "💡 Financial Summary",
			template: lib.MustGet(prompt.Summary),
			engine:   engine,
		},
		source: source,
	}
}

// Load fetches the quarterly financials for symbol
func (s *Summary) Load(ctx context.Context, symbol string) (*table.Table, error) {
	tbl, err := s.source.QuarterlyFinancials(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to load financials for %s: %w", symbol, err)
	}
	return tbl, nil
}

// NewTrend creates the trend interpretation panel
func NewTrend(engine *prompt.Engine, lib *prompt.Library) interfaces.Panel {
	return &narrative{
		name:     NameTrend,
		title:    "🔎 Interpretasi Tren Keuangan",
		template: lib.MustGet(prompt.Trend),
		engine:   engine,
	}
}

// NewRisk creates the risk flag panel
func NewRisk(engine *prompt.Engine, lib *prompt.Library) interfaces.Panel {
	return &narrative{
		name:     NameRisk,
		title:    "⚠️ Potensi Risiko Keuangan",
		template: lib.MustGet(prompt.Risk),
		engine:   engine,
	}
}

// Default returns the dashboard panels in display order
func Default(source interfaces.DataSource, engine *prompt.Engine, lib *prompt.Library) []interfaces.Panel {
	return []interfaces.Panel{
		NewSummary(source, engine, lib),
		NewRevenueTrend(engine, lib),
		NewTrend(engine, lib),
		NewRisk(engine, lib),
	}
}
