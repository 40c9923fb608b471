package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts: attempts,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Jitter:      0.5,
	}
}

func TestDoSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "secret" {
			t.Errorf("Expected Authorization header secret, got %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/v1/companies/" {
			t.Errorf("Expected path /v1/companies/, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("sub_sector") != "Banks & Finance" {
			t.Errorf("Expected sub_sector query, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`[{"symbol":"BBCA"}]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/v1"), WithHeader("Authorization", "secret"))
	req := NewRequest(http.MethodGet, "/companies/").
		WithContext(context.Background()).
		WithQuery("sub_sector", "Banks & Finance")

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	var out []map[string]string
	if err := resp.ParseJSON(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0]["symbol"] != "BBCA" {
		t.Errorf("Expected BBCA, got %v", out)
	}
}

func TestDoReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient().Do(NewRequest(http.MethodGet, srv.URL+"/subsectors/"))
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("Expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", httpErr.StatusCode)
	}
	if httpErr.Temporary() {
		t.Error("Expected 403 to be non-temporary")
	}
}

func TestDoWithRetryRecoversFromServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`ok`))
	}))
	defer srv.Close()

	req := NewRequest(http.MethodGet, srv.URL)
	resp, err := NewClient().DoWithRetry(req, fastRetry(3))
	if err != nil {
		t.Fatalf("Expected success on third attempt, got %v", err)
	}
	if string(resp.Body) != "ok" {
		t.Errorf("Expected body ok, got %s", string(resp.Body))
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoWithRetryDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient().DoWithRetry(NewRequest(http.MethodGet, srv.URL), fastRetry(4))
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Expected 404 HTTPError, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestDoWithRetryIsBounded(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient().DoWithRetry(NewRequest(http.MethodGet, srv.URL), fastRetry(3))
	if err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Errorf("Expected wrapped HTTPError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, fastRetry(5), func(int) error {
		calls++
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(errors.New("connection reset")) {
		t.Error("Expected transport error to be retryable")
	}
	if !IsRetryable(&HTTPError{StatusCode: 503}) {
		t.Error("Expected 503 to be retryable")
	}
	if IsRetryable(&HTTPError{StatusCode: 400}) {
		t.Error("Expected 400 to be non-retryable")
	}
	if IsRetryable(context.DeadlineExceeded) {
		t.Error("Expected deadline exceeded to be non-retryable")
	}
}

func TestDoWaitsOnLimiter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	// One token, refilled far slower than the test runs.
	c := NewClient(WithBaseURL(srv.URL), WithLimiter(rate.NewLimiter(rate.Every(time.Hour), 1)))
	if _, err := c.Do(NewRequest(http.MethodGet, "/")); err != nil {
		t.Fatalf("Expected first request to pass, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.DoWithRetry(NewRequest(http.MethodGet, "/").WithContext(ctx), fastRetry(3))
	if err == nil {
		t.Fatal("Expected limiter error")
	}
	if IsRetryable(err) {
		t.Errorf("Expected limiter error to be permanent, got %v", err)
	}
}

func TestDoRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, MaxBodyBytes+10))
	}))
	defer srv.Close()

	if _, err := NewClient().Do(NewRequest(http.MethodGet, srv.URL)); err == nil {
		t.Error("Expected size limit error")
	}
}
