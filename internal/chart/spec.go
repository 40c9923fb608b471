// Package chart decodes the declarative chart spec returned by the model and
// renders it with a fixed SVG routine. Model output is only ever parsed as
// data.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"

	"sector-insights/internal/sanitize"
	"sector-insights/internal/table"
)

// Kinds
const (
	KindLine = "line"
	KindBar  = "bar"
)

// Spec describes a chart over two columns of a table
type Spec struct {
	Kind   string `json:"kind"`
	Title  string `json:"title"`
	X      string `json:"x"`
	Y      string `json:"y"`
	XLabel string `json:"x_label"`
	YLabel string `json:"y_label"`
}

// MalformedSpecError is returned when the model reply is not a usable chart spec
type MalformedSpecError struct {
	Reason string
	Raw    string
}

func (e *MalformedSpecError) Error() string {
	raw := e.Raw
	if len(raw) > 120 {
		raw = raw[:120] + "..."
	}
	return fmt.Sprintf("malformed chart spec: %s (reply: %q)", e.Reason, raw)
}

// Decode extracts a Spec from a model reply. The reply may wrap the object in
// a code fence or prose, and may be slightly invalid JSON. Parsing falls back
// from strict JSON to json-repair to Hjson.
func Decode(raw string) (*Spec, error) {
	candidate := sanitize.Clean(raw)
	if body, _, ok := sanitize.FencedBlock(raw); ok {
		candidate = body
	}
	if i, j := strings.Index(candidate, "{"), strings.LastIndex(candidate, "}"); i >= 0 && j > i {
		candidate = candidate[i : j+1]
	}
	if candidate == "" {
		return nil, &MalformedSpecError{Reason: "empty reply", Raw: raw}
	}

	var spec Spec
	if err := json.Unmarshal([]byte(candidate), &spec); err == nil {
		return normalize(&spec), nil
	}

	if repaired, err := jsonrepair.RepairJSON(candidate); err == nil {
		spec = Spec{}
		if err := json.Unmarshal([]byte(repaired), &spec); err == nil {
			return normalize(&spec), nil
		}
	}

	var loose map[string]any
	if err := hjson.Unmarshal([]byte(candidate), &loose); err == nil {
		if b, err := json.Marshal(loose); err == nil {
			spec = Spec{}
			if err := json.Unmarshal(b, &spec); err == nil {
				return normalize(&spec), nil
			}
		}
	}

	return nil, &MalformedSpecError{Reason: "not a JSON object", Raw: raw}
}

func normalize(s *Spec) *Spec {
	s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
	s.X = strings.TrimSpace(s.X)
	s.Y = strings.TrimSpace(s.Y)
	s.Title = strings.TrimSpace(s.Title)
	if s.XLabel == "" {
		s.XLabel = s.X
	}
	if s.YLabel == "" {
		s.YLabel = s.Y
	}
	return s
}

// Validate checks the spec against the data it will be drawn from
func (s *Spec) Validate(data *table.Table) error {
	raw, _ := json.Marshal(s)
	fail := func(format string, args ...any) error {
		return &MalformedSpecError{Reason: fmt.Sprintf(format, args...), Raw: string(raw)}
	}

	switch s.Kind {
	case KindLine, KindBar:
	default:
		return fail("unsupported kind '%s'", s.Kind)
	}
	if s.X == "" || s.Y == "" {
		return fail("x and y are required")
	}
	for _, col := range []string{s.X, s.Y} {
		if !data.Has(col) {
			return fail("unknown column '%s' (available: %s)", col, strings.Join(data.Columns(), ", "))
		}
	}
	for i := 0; i < data.Len(); i++ {
		v, ok := data.Float(i, s.Y)
		if !ok {
			return fail("column '%s' is not numeric at row %d", s.Y, i)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fail("column '%s' is not finite at row %d", s.Y, i)
		}
	}
	return nil
}
