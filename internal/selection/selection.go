// Package selection implements the two-step sub-sector then company choice
// that produces the symbol analysed by the dashboard.
package selection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sector-insights/internal/interfaces"
)

// Separator joins symbol and company name in a company label
const Separator = " - "

// ErrUnknownCompany is returned when the chosen label is not in the listing
var ErrUnknownCompany = errors.New("company is not listed under the chosen subsector")

// Option is one entry of the company selector
type Option struct {
	Label  string `json:"label"`
	Symbol string `json:"symbol"`
}

// Flow walks SubsectorChosen -> CompanyChosen. It keeps no state between
// calls, so every step re-fetches from the data source.
type Flow struct {
	source interfaces.DataSource
}

// NewFlow creates a selection flow over source
func NewFlow(source interfaces.DataSource) *Flow {
	return &Flow{source: source}
}

// Subsectors returns the choices of the first selector
func (f *Flow) Subsectors(ctx context.Context) ([]string, error) {
	return f.source.Subsectors(ctx)
}

// Companies returns the choices of the second selector for subsector, in
// listing order
func (f *Flow) Companies(ctx context.Context, subsector string) ([]Option, error) {
	if strings.TrimSpace(subsector) == "" {
		return nil, errors.New("subsector is required")
	}
	companies, err := f.source.Companies(ctx, subsector)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies for %s: %w", subsector, err)
	}

	opts := make([]Option, len(companies))
	for i, c := range companies {
		opts[i] = Option{Label: c.Label(), Symbol: c.Symbol}
	}
	return opts, nil
}

// Choose completes the flow. It checks label against a fresh listing of
// subsector and returns the symbol it names.
func (f *Flow) Choose(ctx context.Context, subsector, label string) (string, error) {
	opts, err := f.Companies(ctx, subsector)
	if err != nil {
		return "", err
	}
	for _, o := range opts {
		if o.Label == label {
			return SymbolFromLabel(label), nil
		}
	}
	return "", fmt.Errorf("%w: %q in %s", ErrUnknownCompany, label, subsector)
}

// SymbolFromLabel returns the part of label before the first separator
func SymbolFromLabel(label string) string {
	symbol, _, _ := strings.Cut(label, Separator)
	return strings.TrimSpace(symbol)
}
