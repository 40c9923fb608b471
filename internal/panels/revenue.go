package panels

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sector-insights/internal/chart"
	"sector-insights/internal/interfaces"
	"sector-insights/internal/prompt"
	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

// ErrEmptySample is returned when no quarter has both a date and a revenue
var ErrEmptySample = errors.New("no quarters with both date and revenue")

// RevenueTrend asks the model for a chart spec over date and revenue and
// draws it with the fixed SVG renderer
type RevenueTrend struct {
	template string
	engine   *prompt.Engine
	config   chart.Config
}

var _ interfaces.Panel = (*RevenueTrend)(nil)

// NewRevenueTrend creates the revenue chart panel
func NewRevenueTrend(engine *prompt.Engine, lib *prompt.Library) *RevenueTrend {
	return &RevenueTrend{
		template: lib.MustGet(prompt.Chart),
		engine:   engine,
		config:   chart.DefaultConfig(),
	}
}

func (r *RevenueTrend) Name() string  { return NameRevenueTrend }
func (r *RevenueTrend) Title() string { return "📊 Visualisasi Tren Pendapatan" }

// Sample selects the date and revenue columns and drops incomplete quarters
func Sample(financials *table.Table) (*table.Table, error) {
	sample, err := financials.Select("date", "revenue")
	if err != nil {
		return nil, err
	}
	sample = sample.DropNA()
	if sample.Empty() {
		return nil, ErrEmptySample
	}
	return sample, nil
}

func (r *RevenueTrend) Render(ctx context.Context, in interfaces.PanelInput) (types.PanelResult, error) {
	start := time.Now()
	res := types.PanelResult{Name: r.Name(), Title: r.Title(), Kind: types.PanelChart}
	fail := func(err error) (types.PanelResult, error) {
		res.Duration = time.Since(start).Milliseconds()
		return res, fmt.Errorf("%s panel: %w", NameRevenueTrend, err)
	}

	if in.Financials == nil {
		return fail(ErrNoFinancials)
	}
	sample, err := Sample(in.Financials)
	if err != nil {
		return fail(err)
	}

	reply, err := r.engine.Run(ctx, r.template, sample)
	if err != nil {
		return fail(err)
	}
	res.Markdown = reply

	spec, err := chart.Decode(reply)
	if err != nil {
		return fail(err)
	}
	svg, err := chart.RenderSVG(spec, sample, r.config)
	if err != nil {
		return fail(err)
	}

	res.SVG = svg
	res.Text = fmt.Sprintf("%s chart of %s by %s over %d quarters", spec.Kind, spec.Y, spec.X, sample.Len())
	res.Duration = time.Since(start).Milliseconds()
	return res, nil
}
