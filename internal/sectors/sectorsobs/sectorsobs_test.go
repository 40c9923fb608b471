package sectorsobs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"sector-insights/internal/api"
	"sector-insights/internal/logger"
	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

type failingSource struct {
	err error
}

func (f *failingSource) Subsectors(ctx context.Context) ([]string, error) {
	return nil, f.err
}

func (f *failingSource) Companies(ctx context.Context, subsector string) ([]types.Company, error) {
	return nil, f.err
}

func (f *failingSource) QuarterlyFinancials(ctx context.Context, symbol string) (*table.Table, error) {
	return nil, f.err
}

func captureLevel(t *testing.T, call func()) string {
	t.Helper()
	var buf bytes.Buffer
	if err := logger.InitWithConfig(logger.LogConfig{Level: "DEBUG", Format: "json", DetailedLogging: true, Output: &buf}); err != nil {
		t.Fatal(err)
	}
	call()

	var line map[string]any
	first, _, _ := strings.Cut(strings.TrimSpace(buf.String()), "\n")
	if err := json.Unmarshal([]byte(first), &line); err != nil {
		t.Fatalf("Expected a JSON log line, got %q", buf.String())
	}
	level, _ := line["level"].(string)
	return level
}

func TestClientErrorsLogAtWarn(t *testing.T) {
	notFound := &api.HTTPError{Method: http.MethodGet, URL: "/financials/quarterly/NOPE/", StatusCode: http.StatusNotFound}
	ds := Wrap(&failingSource{err: notFound})

	level := captureLevel(t, func() {
		_, err := ds.QuarterlyFinancials(context.Background(), "NOPE")
		if !errors.Is(err, notFound) {
			t.Errorf("Expected the source error, got %v", err)
		}
	})
	if level != "WARN" {
		t.Errorf("Expected WARN, got %s", level)
	}
}

func TestServerErrorsLogAtError(t *testing.T) {
	cases := []error{
		&api.HTTPError{Method: http.MethodGet, URL: "/subsectors/", StatusCode: http.StatusBadGateway},
		errors.New("connection reset"),
	}
	for _, cause := range cases {
		ds := Wrap(&failingSource{err: cause})
		level := captureLevel(t, func() {
			ds.Subsectors(context.Background())
		})
		if level != "ERROR" {
			t.Errorf("Expected ERROR for %v, got %s", cause, level)
		}
	}
}
