package client

import (
	"net/http"
	"time"
)

// Option adjusts a Client during construction.  Options with invalid
// arguments are ignored so a misconfigured caller degrades to the defaults
// instead of a broken client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, e.g. to share a
// transport or connection pool across SDK instances.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRequestTimeout bounds each HTTP exchange, retries excluded.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger routes the SDK's request traces to the given logger.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRetryMax sets how many times a failed call is reissued.  Zero disables
// transport retries entirely, which is what the job poller wants: it owns
// its own retry budget.
func WithRetryMax(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.retry.maxRetries = n
		}
	}
}

// WithRetryWait sets the backoff window.  A max below min is raised to min,
// so WithRetryWait(d, d) pins a constant wait.
func WithRetryWait(waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		if waitMin <= 0 {
			return
		}
		c.retry.waitMin = waitMin
		c.retry.waitMax = max(waitMax, waitMin)
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}
