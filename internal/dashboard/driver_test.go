package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sector-insights/internal/interfaces"
	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

type fakePanel struct {
	name    string
	err     error
	symbols *[]string
	calls   int
	onRun   func()
}

func (f *fakePanel) Name() string  { return f.name }
func (f *fakePanel) Title() string { return "title " + f.name }

func (f *fakePanel) Render(ctx context.Context, in interfaces.PanelInput) (types.PanelResult, error) {
	f.calls++
	*f.symbols = append(*f.symbols, f.name+":"+in.Symbol)
	if f.onRun != nil {
		f.onRun()
	}
	res := types.PanelResult{Name: f.name, Title: f.Title(), Markdown: "ok"}
	if in.Financials == nil {
		return res, errors.New("missing financials")
	}
	return res, f.err
}

type fakeLoader struct {
	fakePanel
	loadErr error
}

func (f *fakeLoader) Load(ctx context.Context, symbol string) (*table.Table, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return table.New([]string{"date", "revenue"}, [][]any{{"2023-09-30", 1.0}})
}

type memRecorder struct {
	reports []*types.RunReport
}

func (m *memRecorder) Record(ctx context.Context, r *types.RunReport) error {
	m.reports = append(m.reports, r)
	return nil
}

func setup() (*fakeLoader, []*fakePanel, []interfaces.Panel, *[]string) {
	seen := &[]string{}
	loader := &fakeLoader{fakePanel: fakePanel{name: "summary", symbols: seen}}
	rest := []*fakePanel{
		{name: "revenue_trend", symbols: seen},
		{name: "trend", symbols: seen},
		{name: "risk", symbols: seen},
	}
	panels := []interfaces.Panel{loader}
	for _, p := range rest {
		panels = append(panels, p)
	}
	return loader, rest, panels, seen
}

func TestRunOrderAndSymbol(t *testing.T) {
	_, _, panels, seen := setup()
	rec := &memRecorder{}
	d, err := NewDriver(panels, WithRecorder(rec))
	require.NoError(t, err)

	report, err := d.Run(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Equal(t, []string{"summary:BBCA", "revenue_trend:BBCA", "trend:BBCA", "risk:BBCA"}, *seen)
	assert.Len(t, report.Panels, 4)
	assert.Equal(t, 0, report.FailedPanels())
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.EndedAt.Before(report.StartedAt))
	require.Len(t, rec.reports, 1)
	assert.Same(t, report, rec.reports[0])
}

func TestRunIsolatesPanelFailures(t *testing.T) {
	_, rest, panels, _ := setup()
	rest[1].err = errors.New("llm provider groq failed")
	d, err := NewDriver(panels)
	require.NoError(t, err)

	report, err := d.Run(context.Background(), "BBCA")
	require.NoError(t, err)
	require.Len(t, report.Panels, 4)
	assert.True(t, report.Panels[2].Failed())
	assert.Contains(t, report.Panels[2].Err, "groq")
	assert.Equal(t, 1, rest[2].calls, "risk still runs after trend fails")
	assert.Equal(t, 1, report.FailedPanels())
}

func TestRunHaltsWithoutIsolation(t *testing.T) {
	_, rest, panels, _ := setup()
	cause := errors.New("malformed chart spec")
	rest[0].err = cause
	d, err := NewDriver(panels, WithIsolation(false))
	require.NoError(t, err)

	report, err := d.Run(context.Background(), "BBCA")
	assert.ErrorIs(t, err, cause)
	assert.Len(t, report.Panels, 2)
	assert.Equal(t, 0, rest[1].calls)
	assert.Equal(t, 0, rest[2].calls)
	assert.Equal(t, cause.Error(), report.Err)
}

func TestRunEndsWhenFinancialsFail(t *testing.T) {
	loader, rest, panels, _ := setup()
	cause := errors.New("HTTP 401")
	loader.loadErr = cause
	d, err := NewDriver(panels)
	require.NoError(t, err)

	report, err := d.Run(context.Background(), "BBCA")
	assert.ErrorIs(t, err, cause)
	require.Len(t, report.Panels, 1)
	assert.Equal(t, "summary", report.Panels[0].Name)
	assert.True(t, report.Panels[0].Failed())
	for _, p := range rest {
		assert.Equal(t, 0, p.calls)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	_, rest, panels, _ := setup()
	ctx, cancel := context.WithCancel(context.Background())
	rest[0].onRun = cancel
	d, err := NewDriver(panels)
	require.NoError(t, err)

	report, err := d.Run(ctx, "BBCA")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.Panels, 2)
	assert.Equal(t, 0, rest[1].calls)
}

func TestNewDriverRequiresLoader(t *testing.T) {
	seen := &[]string{}
	_, err := NewDriver([]interfaces.Panel{&fakePanel{name: "trend", symbols: seen}})
	assert.Error(t, err)

	_, err = NewDriver(nil)
	assert.Error(t, err)
}
