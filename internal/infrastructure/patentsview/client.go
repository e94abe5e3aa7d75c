// Package patentsview is a client for the PatentsView search API, the
// source of bibliographic data, dates and citations for US patents.
package patentsview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

const Version = "0.1.0"

const (
	patentPath   = "/patent/"
	citationPath = "/patent/us_patent_citation/"

	maxErrorBody = 512
)

// Config holds connection parameters for NewClient.
type Config struct {
	BaseURL       string
	APIKey        string
	Timeout       time.Duration
	MaxRetries    int
	RetryWait     time.Duration
	RatePerMinute int
}

// Client issues JSON queries against PatentsView with retries and a
// client-side rate limit.
type Client struct {
	baseURL      string
	apiKey       string
	userAgent    string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       logging.Logger
	metrics      *prometheus.AppMetrics
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// NewClient validates cfg and builds a client. An empty APIKey is allowed;
// PatentsView then answers 403, which surfaces as SRC_003.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "patentsview base url is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "invalid patentsview base url")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.New(errors.ErrCodeBadRequest, "patentsview base url scheme must be http or https").WithDetail(cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:       cfg.APIKey,
		userAgent:    fmt.Sprintf("patentsentry/%s", Version),
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      newLimiter(cfg.RatePerMinute),
		logger:       logging.NewNopLogger(),
		metrics:      prometheus.NewNoopAppMetrics(),
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 8 * time.Second,
	}
	if cfg.MaxRetries >= 0 {
		c.retryMax = cfg.MaxRetries
	}
	if cfg.RetryWait > 0 {
		c.retryWaitMin = cfg.RetryWait
		if c.retryWaitMax < c.retryWaitMin {
			c.retryWaitMax = c.retryWaitMin
		}
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// newLimiter converts a per-minute budget into a token bucket. A
// non-positive budget disables limiting.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := perMinute / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}

// post sends body to path and decodes the JSON response into result.
func (c *Client) post(ctx context.Context, operation, path string, body interface{}, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode patentsview query")
	}
	fullURL := c.baseURL + path
	log := c.logger.WithContext(ctx).With(logging.String("operation", operation))

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			c.metrics.DataSourceRetriesTotal.WithLabelValues(operation).Inc()
			wait := c.calculateBackoff(attempt)
			if ra, ok := lastErr.(*retryAfterError); ok && ra.wait > wait {
				wait = ra.wait
			}
			log.Warn("retrying patentsview request",
				logging.Int("attempt", attempt),
				logging.Duration("backoff", wait),
				logging.Err(lastErr))
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create patentsview request")
		}
		req.Header.Set("X-Api-Key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if id := logging.RequestIDFromContext(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)
		if err != nil {
			prometheus.RecordDataSourceRequest(c.metrics, operation, 0, duration)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = errors.Wrap(err, errors.ErrCodeDataSourceUnavailable, "patentsview request failed")
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		prometheus.RecordDataSourceRequest(c.metrics, operation, resp.StatusCode, duration)
		log.Debug("patentsview response",
			logging.Int("status", resp.StatusCode),
			logging.Duration("duration", duration))
		if readErr != nil {
			lastErr = errors.Wrap(readErr, errors.ErrCodeDataSourceUnavailable, "failed to read patentsview response")
			continue
		}

		if resp.StatusCode >= 400 {
			apiErr := statusError(resp.StatusCode, respBody)
			if !shouldRetry(resp.StatusCode) {
				return apiErr
			}
			lastErr = apiErr
			if resp.StatusCode == http.StatusTooManyRequests {
				if wait, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
					lastErr = &retryAfterError{AppError: apiErr, wait: wait}
				}
			}
			continue
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return errors.Wrap(err, errors.ErrCodeDataSourceParseError, "failed to decode patentsview response").WithDetail(operation)
			}
		}
		return nil
	}

	if ra, ok := lastErr.(*retryAfterError); ok {
		return ra.AppError
	}
	return lastErr
}

// retryAfterError carries the server's Retry-After hint to the next attempt.
type retryAfterError struct {
	*errors.AppError
	wait time.Duration
}

func statusError(status int, body []byte) *errors.AppError {
	detail := fmt.Sprintf("HTTP %d", status)
	if msg := strings.TrimSpace(string(body)); msg != "" {
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		detail += ": " + msg
	}
	switch {
	case status == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeDataSourceRateLimited, "patentsview rate limit exceeded").WithDetail(detail)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return errors.New(errors.ErrCodeDataSourceAuthFailed, "patentsview rejected the api key").WithDetail(detail)
	default:
		return errors.New(errors.ErrCodeDataSourceUnavailable, "patentsview request failed").WithDetail(detail)
	}
}

func shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds < 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax || backoff <= 0 {
		backoff = c.retryWaitMax
	}
	// up to 25% jitter
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(quarter))
	}
	return backoff
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
