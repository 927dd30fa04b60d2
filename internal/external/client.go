// Package external is the boundary between mistportal and the HTTP services it
// talks to: the misting device's portal API and the weather.gov forecast API.
// All outbound calls go through BaseClient, which applies the same circuit
// breaking, optional retries, request-ID propagation, gzip decoding and error
// mapping to every provider.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker/v2"

	"mistportal/internal/types"
)

// RetryPolicy configures the retry behavior for the BaseClient.
type RetryPolicy struct {
	MaxRetries int
	MinWait    time.Duration
	MaxWait    time.Duration
}

// DefaultRetryPolicy performs a single attempt. Every failure is terminal for
// the user action that issued it; callers opt in to retries explicitly.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 0,
		MinWait:    500 * time.Millisecond,
		MaxWait:    10 * time.Second,
	}
}

// BaseClient wraps an *http.Client and a circuit breaker. PortalClient and
// WeatherGovClient embed it.
type BaseClient struct {
	name        string
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker[*http.Response]
	retryPolicy RetryPolicy
	userAgent   string
	accept      string
	sleepFn     func(time.Duration) // for testability; defaults to time.Sleep
}

// BaseClientOption is a functional option for configuring a BaseClient.
type BaseClientOption func(*BaseClient)

// WithSleepFunc overrides the sleep function used between retries.
func WithSleepFunc(fn func(time.Duration)) BaseClientOption {
	return func(c *BaseClient) {
		c.sleepFn = fn
	}
}

// WithAccept sets the Accept header DoJSON sends.
func WithAccept(mediaType string) BaseClientOption {
	return func(c *BaseClient) {
		c.accept = mediaType
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(cb *gobreaker.CircuitBreaker[*http.Response]) BaseClientOption {
	return func(c *BaseClient) {
		c.breaker = cb
	}
}

// NewBaseClient creates a BaseClient. name labels the breaker and appears in
// mapped errors.
func NewBaseClient(
	httpClient *http.Client,
	name string,
	retryPolicy RetryPolicy,
	userAgent string,
	opts ...BaseClientOption,
) *BaseClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil
		},
	})

	bc := &BaseClient{
		name:        name,
		client:      httpClient,
		breaker:     cb,
		retryPolicy: retryPolicy,
		userAgent:   userAgent,
		accept:      "application/json",
		sleepFn:     time.Sleep,
	}

	for _, opt := range opts {
		opt(bc)
	}

	return bc
}

// Do executes the HTTP request with:
//  1. X-Request-ID injection from context
//  2. User-Agent and Accept-Encoding injection
//  3. Circuit breaker wrapping
//  4. Retry on 429/5xx when the policy allows (respecting Retry-After)
//  5. Transparent gzip decoding of the response body
//  6. Error mapping to types.AppError
//
// Responses other than 429/5xx are returned as-is; the caller closes the body.
func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	if reqID := types.GetRequestID(req.Context()); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept-Encoding", "gzip")

	// Snapshot the body so it can be replayed on retries.
	var bodyBytes []byte
	if req.Body != nil {
		var err error
		bodyBytes, err = io.ReadAll(req.Body)
		if err != nil {
			return nil, types.NewAppError(
				types.ErrCodeInternalUnexpected,
				"failed to read request body for retry support",
				err,
			)
		}
		req.Body.Close()
	}

	var lastResp *http.Response
	var lastErr error

	maxAttempts := 1 + c.retryPolicy.MaxRetries
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
			req.ContentLength = int64(len(bodyBytes))
		}

		resp, err := c.breaker.Execute(func() (*http.Response, error) {
			r, doErr := c.client.Do(req)
			if doErr != nil {
				return nil, doErr
			}
			if r.StatusCode >= 500 {
				return r, fmt.Errorf("upstream returned %d", r.StatusCode)
			}
			if r.StatusCode == http.StatusTooManyRequests {
				return r, fmt.Errorf("upstream returned 429")
			}
			return r, nil
		})

		if err == nil {
			if decErr := decodeBody(resp); decErr != nil {
				resp.Body.Close()
				return nil, types.NewAppError(types.ErrCodeUpstreamBadResponse, "failed to decode compressed response", decErr)
			}
			return resp, nil
		}

		lastErr = err
		if resp != nil {
			if attempt < maxAttempts-1 {
				resp.Body.Close()
			} else {
				lastResp = resp
			}
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			break
		}
		if req.Context().Err() != nil {
			break
		}

		if attempt < maxAttempts-1 {
			c.sleepFn(c.computeBackoff(attempt, resp))
		}
	}

	if lastResp != nil {
		lastResp.Body.Close()
	}

	return nil, c.mapError(lastResp, lastErr)
}

// DoJSON sends in (when non-nil) as a JSON body and decodes a 2xx response
// into out (when non-nil). Non-2xx responses are passed to onStatus, which
// returns the error to report.
func (c *BaseClient) DoJSON(
	ctx context.Context,
	method, url string,
	in, out any,
	onStatus func(*http.Response) error,
) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			var appErr *types.AppError
			if errors.As(err, &appErr) {
				return appErr
			}
			return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to serialize request body", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalUnexpected, "failed to create request", err)
	}
	req.Header.Set("Accept", c.accept)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return onStatus(resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewAppErrorWithDetails(types.ErrCodeUpstreamBadResponse,
			"failed to decode response", err, map[string]any{"upstream": c.name, "url": url})
	}
	return nil
}

// gzipBody closes both the gzip reader and the underlying body.
type gzipBody struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (g *gzipBody) Close() error {
	g.Reader.Close()
	return g.raw.Close()
}

// decodeBody swaps in a gzip reader when the server compressed the response.
// Setting Accept-Encoding by hand disables net/http's own decompression.
func decodeBody(resp *http.Response) error {
	if !strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		return nil
	}
	if resp.Request != nil && resp.Request.Method == http.MethodHead {
		return nil
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	resp.Body = &gzipBody{Reader: zr, raw: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// computeBackoff determines the wait before the next attempt. It honours
// Retry-After, otherwise uses exponential backoff with jitter clamped to
// [MinWait, MaxWait].
func (c *BaseClient) computeBackoff(attempt int, resp *http.Response) time.Duration {
	if resp != nil {
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds > 0 {
				return min(time.Duration(seconds)*time.Second, c.retryPolicy.MaxWait)
			}
			if t, err := http.ParseTime(retryAfter); err == nil {
				wait := time.Until(t)
				if wait <= 0 {
					return c.retryPolicy.MinWait
				}
				return min(wait, c.retryPolicy.MaxWait)
			}
		}
	}

	base := float64(c.retryPolicy.MinWait) * math.Pow(2, float64(attempt))
	base = math.Min(base, float64(c.retryPolicy.MaxWait))

	minWait := float64(c.retryPolicy.MinWait)
	if base <= minWait {
		return c.retryPolicy.MinWait
	}
	return time.Duration(minWait + rand.Float64()*(base-minWait))
}

// mapError translates HTTP-level failures into AppErrors tagged with the
// upstream name.
func (c *BaseClient) mapError(resp *http.Response, err error) *types.AppError {
	details := map[string]any{"upstream": c.name}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return types.NewAppErrorWithDetails(
			types.ErrCodeUpstreamRateLimited,
			"circuit breaker is open; upstream service unavailable",
			err, details,
		)
	}

	if resp != nil {
		details["status_code"] = resp.StatusCode
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return types.NewAppErrorWithDetails(
				types.ErrCodeUpstreamRateLimited,
				"upstream rate limit exceeded",
				err, details,
			)
		case resp.StatusCode >= 500:
			return types.NewAppErrorWithDetails(
				types.ErrCodeUpstreamUnavailable,
				fmt.Sprintf("upstream returned %d", resp.StatusCode),
				err, details,
			)
		}
	}

	return types.NewAppErrorWithDetails(
		types.ErrCodeUpstreamUnavailable,
		"upstream request failed",
		err, details,
	)
}
