package httpclient

import (
	nethttp "net/http"
	"time"

	"github.com/gaborage/go-astrox/logger"
)

// Builder assembles a Client fluently.
//
//	c, err := httpclient.NewBuilder(log).
//		WithBaseURL("http://localhost:8765").
//		WithTimeout(10 * time.Second).
//		Build()
type Builder struct {
	config  RequestConfig
	options []Option
}

// NewBuilder starts from DefaultRequestConfig. log may be nil.
func NewBuilder(log logger.Logger) *Builder {
	b := &Builder{config: DefaultRequestConfig()}
	if log != nil {
		b.options = append(b.options, WithLogger(log))
	}
	return b
}

func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

func (b *Builder) WithMaxRetries(n int) *Builder {
	b.config.MaxRetries = n
	return b
}

func (b *Builder) WithRetryDelay(d time.Duration) *Builder {
	b.config.RetryDelay = d
	return b
}

// WithConfig replaces every RequestConfig field at once.
func (b *Builder) WithConfig(cfg RequestConfig) *Builder {
	b.config = cfg
	return b
}

func (b *Builder) WithHTTPClient(hc *nethttp.Client) *Builder {
	b.options = append(b.options, WithHTTPClient(hc))
	return b
}

func (b *Builder) WithLogPayloads(maxBytes int) *Builder {
	b.options = append(b.options, WithLogPayloads(maxBytes))
	return b
}

func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	b.options = append(b.options, WithRateLimit(rps, burst))
	return b
}

func (b *Builder) WithUserAgent(ua string) *Builder {
	b.options = append(b.options, WithUserAgent(ua))
	return b
}

// WithOptions appends arbitrary options.
func (b *Builder) WithOptions(opts ...Option) *Builder {
	b.options = append(b.options, opts...)
	return b
}

// Build validates the configuration and creates the client.
func (b *Builder) Build() (Client, error) {
	return New(b.config, b.options...)
}
