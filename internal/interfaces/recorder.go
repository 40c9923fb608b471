package interfaces

import (
	"context"

	"sector-insights/internal/types"
)

// RunRecorder archives finished dashboard runs
type RunRecorder interface {
	Record(ctx context.Context, report *types.RunReport) error
}
