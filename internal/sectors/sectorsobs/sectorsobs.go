package sectorsobs

import (
	"context"
	"errors"
	"time"

	"sector-insights/internal/api"
	"sector-insights/internal/interfaces"
	"sector-insights/internal/logger"
	"sector-insights/internal/table"
	"sector-insights/internal/trace"
	"sector-insights/internal/types"
)

// observableDataSource wraps a DataSource with logging and tracing
type observableDataSource struct {
	source interfaces.DataSource
}

// Compile-time interface check
var _ interfaces.DataSource = (*observableDataSource)(nil)

// logFailure logs a failed call from the wrapper methods. Client errors such as
// an unknown symbol are the caller's problem and log at warn level.
func logFailure(ctx context.Context, msg string, err error, args ...any) {
	var httpErr *api.HTTPError
	if errors.As(err, &httpErr) && !httpErr.Temporary() {
		logger.WarnSkip(ctx, 2, msg, append([]any{"status", httpErr.StatusCode, "error", err}, args...)...)
		return
	}
	logger.ErrorWithErrSkip(ctx, 2, msg, err, args...)
}

// Wrap wraps a data source with observability middleware
func Wrap(source interfaces.DataSource) interfaces.DataSource {
	return &observableDataSource{source: source}
}

func (o *observableDataSource) Subsectors(ctx context.Context) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "sectors.Subsectors")
	defer span.End()

	start := time.Now()
	names, err := o.source.Subsectors(ctx)
	if err != nil {
		logFailure(ctx, "Failed to fetch subsectors", err)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Subsectors fetched",
		"count", len(names),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return names, nil
}

func (o *observableDataSource) Companies(ctx context.Context, subsector string) ([]types.Company, error) {
	ctx, span := trace.StartSpan(ctx, "sectors.Companies")
	defer span.End()

	start := time.Now()
	companies, err := o.source.Companies(ctx, subsector)
	if err != nil {
		logFailure(ctx, "Failed to fetch companies", err, "subsector", subsector)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Companies fetched",
		"subsector", subsector,
		"count", len(companies),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return companies, nil
}

func (o *observableDataSource) QuarterlyFinancials(ctx context.Context, symbol string) (*table.Table, error) {
	ctx, span := trace.StartSpan(ctx, "sectors.QuarterlyFinancials")
	defer span.End()

	start := time.Now()
	tbl, err := o.source.QuarterlyFinancials(ctx, symbol)
	if err != nil {
		logFailure(ctx, "Failed to fetch quarterly financials", err, "symbol", symbol)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Quarterly financials fetched",
		"symbol", symbol,
		"rows", tbl.Len(),
		"columns", len(tbl.Columns()),
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return tbl, nil
}
