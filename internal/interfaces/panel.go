package interfaces

import (
	"context"

	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

// PanelInput carries what a panel needs. Financials is nil for the panel
// that loads them.
type PanelInput struct {
	Symbol     string
	Financials *table.Table
}

// Panel is one insight unit of the dashboard
type Panel interface {
	Name() string
	Title() string
	Render(ctx context.Context, in PanelInput) (types.PanelResult, error)
}

// FinancialsLoader is implemented by panels that also produce the financials table
type FinancialsLoader interface {
	Panel
	Load(ctx context.Context, symbol string) (*table.Table, error)
}
