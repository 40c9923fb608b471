package sectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"sector-insights/internal/api"
	"sector-insights/internal/store"
)

func testConfig(baseURL string) *store.Config {
	cfg := &store.Config{}
	cfg.Sectors.BaseURL = baseURL
	cfg.Sectors.APIKey = "test-key"
	cfg.Sectors.NQuarters = 4
	cfg.Sectors.ReportDate = "2023-09-30"
	cfg.Sectors.TimeoutSeconds = 5
	cfg.Retry.MaxAttempts = 3
	cfg.Retry.InitialWaitMs = 1
	cfg.Retry.MaxWaitMs = 2
	cfg.Retry.Jitter = 0.5
	return cfg
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithLimiter(rate.NewLimiter(rate.Inf, 1))}, opts...)
	return NewClient(testConfig(srv.URL+"/v1"), opts...)
}

func TestSubsectorsSortedWithAuthHeader(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/v1/subsectors/", r.URL.Path)
		w.Write([]byte(`[{"subsector":"telecommunication"},{"subsector":"banks"},{"subsector":"coal"}]`))
	})

	names, err := c.Subsectors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"banks", "coal", "telecommunication"}, names)
}

func TestSubsectorsMissingField(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"banks"}]`))
	})

	_, err := c.Subsectors(context.Background())
	assert.Error(t, err)
}

func TestCompaniesFilteredBySubsector(t *testing.T) {
	listings := map[string]string{
		"banks": `[{"symbol":"BBCA.JK","company_name":"Bank Central Asia"},{"symbol":"BBRI.JK","company_name":"Bank Rakyat Indonesia"}]`,
		"coal":  `[{"symbol":"ADRO.JK","company_name":"Adaro Energy"}]`,
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/companies/", r.URL.Path)
		body, ok := listings[r.URL.Query().Get("sub_sector")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	})

	companies, err := c.Companies(context.Background(), "banks")
	require.NoError(t, err)
	require.Len(t, companies, 2)
	for _, co := range companies {
		assert.Contains(t, listings["banks"], co.Symbol)
		assert.NotContains(t, listings["coal"], co.Symbol)
	}
	assert.Equal(t, "BBCA.JK - Bank Central Asia", companies[0].Label())
}

func TestQuarterlyFinancialsQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/financials/quarterly/BBCA/", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("n_quarters"))
		assert.Equal(t, "2023-09-30", r.URL.Query().Get("report_date"))
		w.Write([]byte(`[{"date":"2023-09-30","revenue":100},{"date":"2023-06-30","revenue":90}]`))
	})

	tbl, err := c.QuarterlyFinancials(context.Background(), "BBCA")
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "revenue"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len())
}

func TestFetchPropagatesHTTPError(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"detail":"Invalid API key"}`, http.StatusUnauthorized)
	})

	_, err := c.Companies(context.Background(), "banks")
	var httpErr *api.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are not retried")
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"subsector":"banks"}]`))
	})

	names, err := c.Subsectors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"banks"}, names)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestReportDateLatest(t *testing.T) {
	cfg := testConfig("http://unused")
	cfg.Sectors.ReportDate = store.ReportDateLatest
	clock := func() time.Time { return time.Date(2025, time.February, 14, 10, 0, 0, 0, time.UTC) }

	c := NewClient(cfg, WithClock(clock))
	assert.Equal(t, "2024-12-31", c.ReportDate())
}

func TestLastQuarterEnd(t *testing.T) {
	cases := map[string]string{
		"2023-10-01": "2023-09-30",
		"2023-09-30": "2023-06-30",
		"2024-05-20": "2024-03-31",
		"2024-01-01": "2023-12-31",
	}
	for in, want := range cases {
		d, err := time.Parse("2006-01-02", in)
		require.NoError(t, err)
		assert.Equal(t, want, LastQuarterEnd(d).Format("2006-01-02"), in)
	}
}
