// Package dashboard runs the insight panels for a chosen symbol.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/logger"
	"sector-insights/internal/types"
)

// Driver runs panels in a fixed order, one after another
type Driver struct {
	panels   []interfaces.Panel
	isolate  bool
	recorder interfaces.RunRecorder
	now      func() time.Time
}

// Option configures the driver
type Option func(*Driver)

// WithIsolation controls whether a failed panel lets later panels run
func WithIsolation(isolate bool) Option {
	return func(d *Driver) {
		d.isolate = isolate
	}
}

// WithRecorder archives every finished run
func WithRecorder(r interfaces.RunRecorder) Option {
	return func(d *Driver) {
		d.recorder = r
	}
}

// NewDriver creates a driver. The first panel must implement
// interfaces.FinancialsLoader; its table feeds every panel.
func NewDriver(panels []interfaces.Panel, opts ...Option) (*Driver, error) {
	if len(panels) == 0 {
		return nil, errors.New("no panels configured")
	}
	if _, ok := panels[0].(interfaces.FinancialsLoader); !ok {
		return nil, fmt.Errorf("first panel %s does not load financials", panels[0].Name())
	}
	d := &Driver{panels: panels, isolate: true, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Panels returns the panels in run order
func (d *Driver) Panels() []interfaces.Panel {
	return d.panels
}

// Run loads the financials for symbol and renders every panel. With
// isolation on, panel failures are recorded in the report and the run goes
// on; the returned error is then only set when the financials could not be
// loaded or ctx was cancelled. With isolation off, the first failure stops
// the run and is returned with the partial report.
func (d *Driver) Run(ctx context.Context, symbol string) (*types.RunReport, error) {
	report := &types.RunReport{
		RunID:     uuid.NewString(),
		Symbol:    symbol,
		StartedAt: d.now(),
	}
	op := logger.StartOperation(ctx, "dashboard.Run", "symbol", symbol, "run_id", report.RunID)
	ctx = op.GetContext()

	err := d.run(ctx, symbol, report)

	report.EndedAt = d.now()
	if err != nil {
		report.Err = err.Error()
		op.EndWithError(err, "failed_panels", report.FailedPanels())
	} else {
		op.End("failed_panels", report.FailedPanels())
	}

	if d.recorder != nil {
		if rerr := d.recorder.Record(ctx, report); rerr != nil {
			logger.Warn(ctx, "Failed to record run", "run_id", report.RunID, "error", rerr)
		}
	}
	return report, err
}

func (d *Driver) run(ctx context.Context, symbol string, report *types.RunReport) error {
	loader := d.panels[0].(interfaces.FinancialsLoader)

	financials, err := loader.Load(ctx, symbol)
	if err != nil {
		report.Panels = append(report.Panels, types.PanelResult{
			Name:  loader.Name(),
			Title: loader.Title(),
			Kind:  types.PanelNarrative,
			Err:   err.Error(),
		})
		logger.Panel(ctx, symbol, loader.Name(), "failed", "error", err.Error())
		return err
	}

	in := interfaces.PanelInput{Symbol: symbol, Financials: financials}
	for _, p := range d.panels {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := p.Render(ctx, in)
		if res.Name == "" {
			res.Name, res.Title = p.Name(), p.Title()
		}
		if err != nil {
			res.Err = err.Error()
			report.Panels = append(report.Panels, res)
			logger.Panel(ctx, symbol, p.Name(), "failed", "error", err.Error(), "duration_ms", res.Duration)
			if !d.isolate || ctx.Err() != nil {
				return err
			}
			continue
		}
		report.Panels = append(report.Panels, res)
		logger.Panel(ctx, symbol, p.Name(), "ok", "duration_ms", res.Duration)
	}
	return nil
}
