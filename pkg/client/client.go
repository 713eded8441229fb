// Package client is the Go SDK for the remote comparison service: drawing
// ingestion, comparison generation, alignment, and change records.  It is
// also what internal/infrastructure/remote builds the domain ports on.
//
// The service speaks JSON over REST.  Successful responses arrive wrapped in
// a data envelope ({"data": ..., "meta": ...}); failures arrive in the
// matching error envelope ({"error": {"code": ..., "message": ...}}) and are
// surfaced as *APIError.
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
)

const Version = "0.1.0"

// maxErrorBodyBytes caps how much of a non-JSON error body is kept in the
// APIError message.
const maxErrorBodyBytes = 512

// Logger defines the logging interface used by the Client.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// noopLogger is a no-op implementation of Logger.
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// retryPolicy bounds how a failed call is reissued.  Job status polling has
// its own retry semantics one layer up, so the transport budget stays small:
// it papers over a blip, not an outage.
type retryPolicy struct {
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// delay returns the wait before retry number attempt (1-based): exponential
// growth from waitMin, capped at waitMax, with equal jitter so simultaneous
// pollers do not reissue in lockstep.
func (p retryPolicy) delay(attempt int) time.Duration {
	d := p.waitMin << uint(attempt-1)
	if d <= 0 || d > p.waitMax {
		d = p.waitMax
	}
	half := int64(d / 2)
	if half <= 0 {
		return d
	}
	return time.Duration(half + rand.Int63n(half))
}

// Client is the comparison-service SDK client.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	logger     Logger
	retry      retryPolicy

	comparisons *ComparisonsClient
	changes     *ChangesClient
	drawings    *DrawingsClient
}

// APIError is a non-2xx response from the comparison service.
type APIError struct {
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("planlens: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// APIResponse is the service's success envelope.
type APIResponse[T any] struct {
	Data T             `json:"data"`
	Meta *ResponseMeta `json:"meta,omitempty"`
}

// ResponseMeta contains pagination metadata.
type ResponseMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	HasMore  bool  `json:"has_more"`
}

// NewClient creates a comparison-service SDK client.  baseURL and apiKey are
// required; everything else has defaults adjustable through options.
func NewClient(baseURL string, apiKey string, opts ...Option) (*Client, error) {
	normalized, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		return nil, fmt.Errorf("client: apiKey is required")
	}

	c := &Client{
		baseURL:    normalized,
		apiKey:     apiKey,
		userAgent:  fmt.Sprintf("planlens-go-sdk/%s", Version),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     noopLogger{},
		retry: retryPolicy{
			maxRetries: 3,
			waitMin:    500 * time.Millisecond,
			waitMax:    5 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	c.comparisons = &ComparisonsClient{client: c}
	c.changes = &ChangesClient{client: c}
	c.drawings = &DrawingsClient{client: c}
	return c, nil
}

// normalizeBaseURL validates the service endpoint and strips any trailing
// slash so path joining stays uniform.
func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		return "", fmt.Errorf("client: baseURL is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("client: invalid baseURL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("client: baseURL scheme must be http or https")
	}
	if u.Host == "" {
		return "", fmt.Errorf("client: baseURL has no host")
	}
	return strings.TrimSuffix(raw, "/"), nil
}

// Comparisons returns the comparison and job endpoints.
func (c *Client) Comparisons() *ComparisonsClient { return c.comparisons }

// Changes returns the change-record endpoints.
func (c *Client) Changes() *ChangesClient { return c.changes }

// Drawings returns the drawing-ingestion endpoints.
func (c *Client) Drawings() *DrawingsClient { return c.drawings }

// do issues one logical call, reissuing it per the retry policy.  The body
// is marshalled once up front; every attempt replays the same bytes.
func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("client: encoding %s %s body: %w", method, path, err)
		}
	}

	for attempt := 0; ; attempt++ {
		retry, wait, err := c.roundTrip(ctx, method, path, payload, result)
		if err == nil {
			return nil
		}
		if !retry || attempt >= c.retry.maxRetries {
			return err
		}

		// A Retry-After from the server overrides the local schedule.
		if wait <= 0 {
			wait = c.retry.delay(attempt + 1)
		}
		c.logger.Debugf("%s %s failed (%v), retry %d/%d in %v",
			method, path, err, attempt+1, c.retry.maxRetries, wait)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// roundTrip performs a single HTTP exchange.  It reports whether the failure
// is safe to reissue and any server-directed wait before doing so.
func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, result interface{}) (retry bool, wait time.Duration, err error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return false, 0, fmt.Errorf("client: building request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("%s %s: %v", method, path, err)
		return c.shouldRetry(method, 0), 0, err
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.logger.Debugf("%s %s %d (%v)", method, path, resp.StatusCode, time.Since(start))
	if readErr != nil {
		return c.shouldRetry(method, 0), 0, fmt.Errorf("client: reading response body: %w", readErr)
	}

	if resp.StatusCode >= 400 {
		apiErr := decodeAPIError(resp.StatusCode, requestID, respBody)
		if apiErr.IsRateLimited() {
			wait = retryAfter(resp)
		}
		return c.shouldRetry(method, resp.StatusCode), wait, apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return false, 0, fmt.Errorf("client: decoding response: %w", err)
		}
	}
	return false, 0, nil
}

// shouldRetry decides whether a failed exchange may be reissued.  Reads are
// retried on transport errors and 5xx responses.  Writes are retried only on
// 429, where the service has refused the request outright: a write that
// failed mid-flight may already have created a job, and replaying it would
// submit a duplicate.
func (c *Client) shouldRetry(method string, statusCode int) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	if method != http.MethodGet && method != http.MethodHead {
		return false
	}
	return statusCode == 0 || statusCode >= 500
}

// retryAfter reads the server's requested delay from a 429, capped at five
// seconds so a misbehaving header cannot stall a caller.  HTTP-date values
// are ignored; the service only emits delay-seconds.
func retryAfter(resp *http.Response) time.Duration {
	seconds, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil || seconds < 0 {
		return 0
	}
	return min(time.Duration(seconds)*time.Second, 5*time.Second)
}

// decodeAPIError extracts the error envelope from a failure body.  Early
// service deployments returned code and message at the top level; both
// shapes are accepted.
func decodeAPIError(statusCode int, requestID string, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, RequestID: requestID}
	if len(body) == 0 {
		return apiErr
	}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	switch err := json.Unmarshal(body, &envelope); {
	case err != nil:
		if len(body) > maxErrorBodyBytes {
			body = body[:maxErrorBodyBytes]
		}
		apiErr.Message = string(body)
	case envelope.Error != nil:
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	default:
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	}
	return apiErr
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) patch(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}
