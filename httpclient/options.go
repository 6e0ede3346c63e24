package httpclient

import (
	nethttp "net/http"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-astrox/logger"
)

// DefaultMaxPayloadLogBytes caps the body preview written by payload logging.
const DefaultMaxPayloadLogBytes = 1024

// Option customizes a client beyond its RequestConfig.
type Option func(*client)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logger.Logger) Option {
	return func(c *client) {
		if log != nil {
			c.logger = log
		}
	}
}

// WithHTTPClient replaces the pooled HTTP client. Its Timeout should be zero; attempts
// are bounded by RequestConfig.Timeout.
func WithHTTPClient(hc *nethttp.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogPayloads enables debug previews of request and response bodies, truncated at
// maxBytes (DefaultMaxPayloadLogBytes when maxBytes <= 0).
func WithLogPayloads(maxBytes int) Option {
	return func(c *client) {
		c.logPayloads = true
		if maxBytes <= 0 {
			maxBytes = DefaultMaxPayloadLogBytes
		}
		c.maxPayloadLogBytes = maxBytes
	}
}

// WithRateLimit throttles attempts to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}
