// Package sectors is the client for the Sectors financial data API.
package sectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"sector-insights/internal/api"
	"sector-insights/internal/interfaces"
	"sector-insights/internal/store"
	"sector-insights/internal/table"
	"sector-insights/internal/types"
)

// Client fetches sub-sectors, companies and quarterly financials
type Client struct {
	http       *api.Client
	limiter    *rate.Limiter
	retry      *api.RetryConfig
	nQuarters  int
	reportDate string
	now        func() time.Time
	hc         *http.Client
}

var _ interfaces.DataSource = (*Client)(nil)

// Option configures the client
type Option func(*Client)

// WithClock overrides the clock used to resolve the "latest" report date
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.hc = hc
	}
}

// WithLimiter replaces the request rate limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient builds a client from config. The API key is sent verbatim in
// the Authorization header.
func NewClient(cfg *store.Config, opts ...Option) *Client {
	rpm := cfg.Sectors.RequestsPerMin
	if rpm <= 0 {
		rpm = 60
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}

	c := &Client{
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		retry: &api.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: time.Duration(cfg.Retry.InitialWaitMs) * time.Millisecond,
			MaxWait:     time.Duration(cfg.Retry.MaxWaitMs) * time.Millisecond,
			Jitter:      cfg.Retry.Jitter,
		},
		nQuarters:  cfg.Sectors.NQuarters,
		reportDate: cfg.Sectors.ReportDate,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	clientOpts := []api.ClientOption{
		api.WithBaseURL(cfg.Sectors.BaseURL),
		api.WithTimeout(cfg.SectorsTimeout()),
		api.WithHeader("Authorization", cfg.Sectors.APIKey),
		api.WithLimiter(c.limiter),
		api.WithLogging(true),
	}
	if c.hc != nil {
		clientOpts = append(clientOpts, api.WithHTTPClient(c.hc))
	}
	c.http = api.NewClient(clientOpts...)
	return c
}

// Fetch issues an authenticated GET for endpoint (relative to the base URL)
// and returns the raw body. A failing status is returned as *api.HTTPError.
func (c *Client) Fetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	req := api.NewRequest(http.MethodGet, "/"+endpoint).WithContext(ctx)
	for k, vs := range params {
		for _, v := range vs {
			req.WithQuery(k, v)
		}
	}

	resp, err := c.http.DoWithRetry(req, c.retry)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Subsectors returns all sub-sector names sorted ascending
func (c *Client) Subsectors(ctx context.Context) ([]string, error) {
	body, err := c.Fetch(ctx, "subsectors/", nil)
	if err != nil {
		return nil, err
	}

	tbl, err := table.FromJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse subsectors: %w", err)
	}
	if _, err := tbl.Select("subsector"); err != nil {
		return nil, fmt.Errorf("failed to parse subsectors: %w", err)
	}

	names := make([]string, 0, tbl.Len())
	for i := 0; i < tbl.Len(); i++ {
		if s := tbl.Text(i, "subsector"); s != "" {
			names = append(names, s)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Companies returns the companies listed under subsector
func (c *Client) Companies(ctx context.Context, subsector string) ([]types.Company, error) {
	body, err := c.Fetch(ctx, "companies/", url.Values{"sub_sector": {subsector}})
	if err != nil {
		return nil, err
	}

	var companies []types.Company
	if err := json.Unmarshal(body, &companies); err != nil {
		return nil, fmt.Errorf("failed to parse companies: %w", err)
	}
	return companies, nil
}

// QuarterlyFinancials returns the trailing n_quarters statements of symbol,
// anchored at the configured report date
func (c *Client) QuarterlyFinancials(ctx context.Context, symbol string) (*table.Table, error) {
	params := url.Values{
		"n_quarters":  {strconv.Itoa(c.nQuarters)},
		"report_date": {c.ReportDate()},
	}
	body, err := c.Fetch(ctx, "financials/quarterly/"+url.PathEscape(symbol)+"/", params)
	if err != nil {
		return nil, err
	}

	tbl, err := table.FromJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse financials for %s: %w", symbol, err)
	}
	return tbl, nil
}

// ReportDate resolves the configured anchor to a YYYY-MM-DD date
func (c *Client) ReportDate() string {
	if c.reportDate != store.ReportDateLatest {
		return c.reportDate
	}
	return LastQuarterEnd(c.now()).Format("2006-01-02")
}

// LastQuarterEnd returns the end of the last calendar quarter that closed
// strictly before t's date
func LastQuarterEnd(t time.Time) time.Time {
	y, m, _ := t.Date()
	// First month of the current quarter, then step back one day.
	qStart := time.Month((int(m)-1)/3*3 + 1)
	return time.Date(y, qStart, 1, 0, 0, 0, 0, t.Location()).AddDate(0, 0, -1)
}
