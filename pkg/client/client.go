// Package client is a Go SDK for the PatentSentry HTTP API.
//
// A Client implements analysis.Service, so code written against the service
// interface runs unchanged against a remote server:
//
//	c, err := client.NewClient("http://localhost:8080")
//	res, err := c.Analyze(ctx, client.AnalyzeInput{PatentID: "US10000000"})
//
// Errors returned by the server come back as *errors.AppError carrying the
// server's code, so errors.IsCode works on both sides of the wire.
package client

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

	"github.com/google/uuid"

	"github.com/turtacn/PatentSentry/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentry/pkg/errors"
)

const Version = "0.1.0"

const patentSearchPath = "/patent-search"

type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       logging.Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

// NewClient validates baseURL and returns a client with three retries.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New(errors.ErrCodeBadRequest, "server address is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, errors.Newf(errors.ErrCodeBadRequest, "server address %q must be an http(s) URL", baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		userAgent:    fmt.Sprintf("patentsentry-go-sdk/%s", Version),
		logger:       logging.NewNopLogger(),
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// errorBody is the server's error document.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// do performs a JSON request, retrying transport errors, 429 and 502-504.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode request")
		}
	}

	requestID := logging.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	log := c.logger.WithContext(ctx).With(logging.String("path", path), logging.String("request_id", requestID))

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			wait := c.calculateBackoff(attempt)
			if ra, ok := lastErr.(*retryAfterError); ok && ra.wait > 0 {
				wait = ra.wait
			}
			log.Debug("retrying request", logging.Int("attempt", attempt), logging.Duration("wait", wait))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create request")
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("request failed", logging.Err(err))
			lastErr = errors.Wrap(err, errors.ErrCodeServiceUnavailable, "PatentSentry server unreachable")
			continue
		}
		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to read response")
			continue
		}

		if resp.StatusCode >= http.StatusBadRequest {
			apiErr := decodeError(resp.StatusCode, respBody)
			if !shouldRetry(resp.StatusCode) {
				return apiErr
			}
			lastErr = apiErr
			if resp.StatusCode == http.StatusTooManyRequests {
				if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
					lastErr = &retryAfterError{AppError: apiErr, wait: time.Duration(secs) * time.Second}
				}
			}
			continue
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode response")
			}
		}
		return nil
	}

	if ra, ok := lastErr.(*retryAfterError); ok {
		return ra.AppError
	}
	return lastErr
}

type retryAfterError struct {
	*errors.AppError
	wait time.Duration
}

// decodeError rebuilds the server's AppError. Bodies that are not an error
// document, or carry a code this SDK does not know, keep the HTTP status in
// the detail.
func decodeError(status int, body []byte) *errors.AppError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil && errors.ErrorCode(eb.Code).Known() {
		ae := errors.New(errors.ErrorCode(eb.Code), eb.Message)
		if eb.Detail != "" {
			ae = ae.WithDetail(eb.Detail)
		}
		return ae
	}
	code := errors.ErrCodeInternal
	switch {
	case status == http.StatusNotFound:
		code = errors.ErrCodeNotFound
	case status == http.StatusTooManyRequests:
		code = errors.ErrCodeTooManyRequests
	case status < http.StatusInternalServerError:
		code = errors.ErrCodeBadRequest
	case status == http.StatusServiceUnavailable || status == http.StatusBadGateway:
		code = errors.ErrCodeServiceUnavailable
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > 256 {
		detail = detail[:256]
	}
	return errors.New(code, http.StatusText(status)).WithDetail(fmt.Sprintf("HTTP %d: %s", status, detail))
}

func shouldRetry(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax || backoff <= 0 {
		backoff = c.retryWaitMax
	}
	if quarter := int64(backoff / 4); quarter > 0 {
		backoff += time.Duration(rand.Int63n(quarter))
	}
	return backoff
}
