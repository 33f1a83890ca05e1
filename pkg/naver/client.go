// Package naver provides clients for the Naver Cloud Platform Maps APIs
// (geocode, reverse geocode, place search) and the Naver Developers local
// search API.
package naver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/keyword-cli/internal/resilience"
)

// Payload is a decoded JSON object as returned by the search endpoints.
// Its shape differs between providers, so callers normalize it.
type Payload = map[string]any

// Option configures a client.
type Option func(*transport)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(t *transport) {
		t.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(t *transport) {
		t.http = hc
	}
}

// WithLimiter shares a token bucket between clients. A nil limiter disables
// throttling.
func WithLimiter(l *rate.Limiter) Option {
	return func(t *transport) {
		t.limiter = l
	}
}

// WithDelay sets a fixed pause after every request.
func WithDelay(d time.Duration) Option {
	return func(t *transport) {
		t.delay = d
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(t *transport) {
		t.retry = cfg
	}
}

// WithBreaker guards every request with b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(t *transport) {
		t.breaker = b
	}
}

// NewLimiter returns a limiter allowing rps requests per second, or nil when
// rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
}

// NewIntervalLimiter returns a limiter releasing one request per interval
// with no burst, or nil when interval is not positive.
func NewIntervalLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

// transport holds what the Maps and Local clients share: auth headers,
// pacing and retries.
type transport struct {
	service string
	baseURL string
	headers http.Header
	http    *http.Client
	limiter *rate.Limiter
	delay   time.Duration
	retry   resilience.RetryConfig
	breaker *resilience.Breaker
}

func newTransport(service, baseURL string, headers http.Header, opts []Option) *transport {
	t := &transport{
		service: service,
		baseURL: baseURL,
		headers: headers,
		http:    &http.Client{Timeout: 15 * time.Second},
		retry:   resilience.RetryConfig{MaxAttempts: 1},
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// getJSON issues a GET to path and decodes the body into out.
func (t *transport) getJSON(ctx context.Context, op, path string, params url.Values, out any) error {
	retry := t.retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(t.service, op)
	}
	body, err := resilience.Guard(ctx, t.breaker, func(ctx context.Context) ([]byte, error) {
		return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]byte, error) {
			return t.get(ctx, path, params)
		})
	})
	if err != nil {
		return eris.Wrapf(err, "naver: %s", op)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return eris.Wrapf(err, "naver: %s: decode response", op)
	}
	return nil
}

func (t *transport) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limit wait")
		}
	}
	defer t.pause(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	for k, v := range t.headers {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read response")
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}
	return body, nil
}

func (t *transport) pause(ctx context.Context) {
	if t.delay <= 0 {
		return
	}
	timer := time.NewTimer(t.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
