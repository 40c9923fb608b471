package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sector-insights/internal/api"
	"sector-insights/internal/selection"
	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

type fakeSource struct {
	companyErr error
}

func (f *fakeSource) Subsectors(ctx context.Context) ([]string, error) {
	return []string{"banks", "coal"}, nil
}

func (f *fakeSource) Companies(ctx context.Context, subsector string) ([]types.Company, error) {
	if f.companyErr != nil {
		return nil, f.companyErr
	}
	if subsector == "banks" {
		return []types.Company{{Symbol: "BBCA", CompanyName: "Bank Central Asia"}}, nil
	}
	return []types.Company{{Symbol: "ADRO", CompanyName: "Adaro Energy"}}, nil
}

func (f *fakeSource) QuarterlyFinancials(ctx context.Context, symbol string) (*table.Table, error) {
	return nil, errors.New("not used")
}

type fakeRunner struct {
	symbols []string
	err     error
}

func (f *fakeRunner) Run(ctx context.Context, symbol string) (*types.RunReport, error) {
	f.symbols = append(f.symbols, symbol)
	return &types.RunReport{
		RunID:  "run-1",
		Symbol: symbol,
		Panels: []types.PanelResult{
			{Name: "summary", Title: "💡 Financial Summary", HTML: "<p><strong>Revenue</strong> up</p>"},
			{Name: "revenue_trend", Title: "📊 Visualisasi Tren Pendapatan", SVG: `<svg xmlns="http://www.w3.org/2000/svg"></svg>`},
			{Name: "trend", Title: "🔎 Interpretasi Tren Keuangan", Err: "trend panel: quota exceeded"},
		},
	}, f.err
}

func newTestServer(t *testing.T, src *fakeSource, runner *fakeRunner) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv, err := NewServer(":0", NewHandlers(selection.NewFlow(src), runner))
	require.NoError(t, err)
	return srv.Handler()
}

func TestIndexRendersSidebar(t *testing.T) {
	h := newTestServer(t, &fakeSource{}, &fakeRunner{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	for _, want := range []string{"📌 Analytic Selection", "🔽 Select Subsector", "🏢 Selec Company", "🔍 Lihat Insight", "BBCA - Bank Central Asia"} {
		assert.Contains(t, body, want)
	}
}

func TestInsightsRendersPanels(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(t, &fakeSource{}, runner)

	form := url.Values{"subsector": {"banks"}, "company": {"BBCA - Bank Central Asia"}}
	req := httptest.NewRequest(http.MethodPost, "/insights", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"BBCA"}, runner.symbols)
	body := w.Body.String()
	assert.Contains(t, body, "<strong>Revenue</strong> up")
	assert.Contains(t, body, `<svg xmlns="http://www.w3.org/2000/svg"></svg>`)
	assert.Contains(t, body, "trend panel: quota exceeded")
	assert.Contains(t, body, "📊 Visualisasi Tren Pendapatan")
}

func TestInsightsUnknownCompany(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(t, &fakeSource{}, runner)

	form := url.Values{"subsector": {"banks"}, "company": {"ADRO - Adaro Energy"}}
	req := httptest.NewRequest(http.MethodPost, "/insights", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, runner.symbols)
}

func TestInsightsCompaniesFailure(t *testing.T) {
	src := &fakeSource{companyErr: &api.HTTPError{Method: "GET", URL: "/companies/", StatusCode: http.StatusInternalServerError}}
	runner := &fakeRunner{}
	h := newTestServer(t, src, runner)

	form := url.Values{"subsector": {"banks"}, "company": {"BBCA - Bank Central Asia"}}
	req := httptest.NewRequest(http.MethodPost, "/insights", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Empty(t, runner.symbols, "no cached listing is used")
}

func TestAPICompanies(t *testing.T) {
	h := newTestServer(t, &fakeSource{}, &fakeRunner{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/companies?sub_sector=coal", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []selection.Option `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []selection.Option{{Label: "ADRO - Adaro Energy", Symbol: "ADRO"}}, resp.Data)

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/companies", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPISubsectors(t *testing.T) {
	h := newTestServer(t, &fakeSource{}, &fakeRunner{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/subsectors", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":["banks","coal"]}`, w.Body.String())
}

func TestAPIInsights(t *testing.T) {
	runner := &fakeRunner{}
	h := newTestServer(t, &fakeSource{}, runner)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/insights/bbca", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report types.RunReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, "BBCA", report.Symbol)
	assert.Len(t, report.Panels, 3)
	assert.Equal(t, []string{"BBCA"}, runner.symbols)
}

func TestAPIInsightsUpstreamError(t *testing.T) {
	runner := &fakeRunner{err: &api.HTTPError{Method: "GET", URL: "/financials/quarterly/XXXX/", StatusCode: http.StatusNotFound}}
	h := newTestServer(t, &fakeSource{}, runner)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/insights/XXXX", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &fakeSource{}, &fakeRunner{})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
