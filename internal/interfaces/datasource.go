package interfaces

import (
	"context"

	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

// DataSource reads sub-sectors, companies and financial statements from the
// financial data API.
type DataSource interface {
	// Subsectors returns every sub-sector name, sorted ascending.
	Subsectors(ctx context.Context) ([]string, error)

	// Companies returns the companies listed under subsector, in API order.
	Companies(ctx context.Context, subsector string) ([]types.Company, error)

	// QuarterlyFinancials returns the trailing quarterly statements of symbol.
	QuarterlyFinancials(ctx context.Context, symbol string) (*table.Table, error)
}
