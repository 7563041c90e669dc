// Package restclient is the JSON-over-HTTP GET client shared by the upstream
// catalog adapters. It owns the 429 retry policy, per-call timeouts, metrics
// and client spans so the adapters only deal with paths and payloads.
package restclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "github.com/narwhalmedia/fantasycards/pkg/errors"
	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
	"github.com/narwhalmedia/fantasycards/pkg/metrics"
	"github.com/narwhalmedia/fantasycards/pkg/tracing"
)

const maxBodyBytes = 10 << 20

// Params are query parameters. Values are rendered with fmt.Sprint, string
// and int slices are comma joined, nil values are skipped.
type Params map[string]any

// RetryPolicy retries only HTTP 429. MaxAttempts counts the first try.
// Waits grow as BaseDelay * 2^n and are capped at MaxDelay, without jitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// Config describes one upstream.
type Config struct {
	Name          string
	BaseURL       string
	Timeout       time.Duration
	DefaultParams Params
	Headers       map[string]string
	Retry         RetryPolicy
}

// Client issues GET requests against a single upstream.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     interfaces.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a client for the given upstream.
func New(cfg Config, logger interfaces.Logger, opts ...Option) *Client {
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	if cfg.Retry.MaxDelay < cfg.Retry.BaseDelay {
		cfg.Retry.MaxDelay = cfg.Retry.BaseDelay
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger.WithFields(interfaces.String("upstream", cfg.Name)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the upstream label.
func (c *Client) Name() string {
	return c.cfg.Name
}

// BaseURL returns the upstream root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// Get fetches path with params and decodes the JSON body into out. Non-2xx
// answers surface as *errors.UpstreamError; only 429 is retried.
func (c *Client) Get(ctx context.Context, path string, params Params, out any) error {
	target := c.buildURL(path, params)

	ctx, span := tracing.StartSpan(ctx, "upstream."+c.cfg.Name+".get")
	defer span.End()
	span.SetAttributes(
		attribute.String("upstream.name", c.cfg.Name),
		attribute.String("upstream.path", path),
	)

	attempt := 0
	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		attempt++
		return c.attempt(ctx, target)
	},
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.cfg.Retry.MaxAttempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			metrics.UpstreamRetries.WithLabelValues(c.cfg.Name).Inc()
			c.logger.Warn("Upstream rate limited, backing off",
				interfaces.String("path", path),
				interfaces.Int("attempt", attempt),
				interfaces.Duration("wait", wait))
		}),
	)
	span.SetAttributes(attribute.Int("upstream.attempts", attempt))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response for %s: %w", c.cfg.Name, path, err)
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, target string) ([]byte, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(c.cfg.Name, 0, start)
		return nil, backoff.Permanent(fmt.Errorf("%s request failed: %w", c.cfg.Name, err))
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(c.cfg.Name, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		upErr := &apperrors.UpstreamError{
			Upstream: c.cfg.Name,
			Status:   resp.StatusCode,
			URL:      redact(target),
		}
		if upErr.Temporary() {
			return nil, upErr
		}
		return nil, backoff.Permanent(upErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("reading %s response: %w", c.cfg.Name, err))
	}
	return body, nil
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.Retry.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = c.cfg.Retry.MaxDelay
	return b
}

func (c *Client) buildURL(path string, params Params) string {
	q := url.Values{}
	for k, v := range c.cfg.DefaultParams {
		if s, ok := render(v); ok {
			q.Set(k, s)
		}
	}
	for k, v := range params {
		if s, ok := render(v); ok {
			q.Set(k, s)
		}
	}

	target := c.cfg.BaseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

func render(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return val, true
	case []string:
		return strings.Join(val, ","), true
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ","), true
	case *int:
		if val == nil {
			return "", false
		}
		return strconv.Itoa(*val), true
	case *float64:
		if val == nil {
			return "", false
		}
		return strconv.FormatFloat(*val, 'f', -1, 64), true
	default:
		return fmt.Sprint(val), true
	}
}

// redact drops secrets like api_key from URLs that end up in errors and logs.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has("api_key") {
		q.Set("api_key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
