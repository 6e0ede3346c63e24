package httpclient

import (
	"fmt"
	"strings"
	"time"

	"github.com/gaborage/go-astrox/validation"
)

// Defaults for RequestConfig
const (
	DefaultBaseURL    = "http://astrox.cn:8765"
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = time.Second
)

// RequestConfig is the connection configuration of one client. Clients copy it at
// construction and never change it; reconfiguring means building a new client.
type RequestConfig struct {
	// BaseURL is prefixed to every endpoint; a trailing slash is ignored
	BaseURL string `json:"base_url" validate:"required,url"`
	// Timeout bounds each individual attempt
	Timeout time.Duration `json:"timeout" validate:"gt=0"`
	// MaxRetries is the total number of attempts, including the first one
	MaxRetries int `json:"max_retries" validate:"min=1"`
	// RetryDelay is the base of the exponential backoff: attempt i waits RetryDelay*2^i
	RetryDelay time.Duration `json:"retry_delay" validate:"gte=0"`
}

// DefaultRequestConfig returns the documented defaults.
func DefaultRequestConfig() RequestConfig {
	return RequestConfig{
		BaseURL:    DefaultBaseURL,
		Timeout:    DefaultTimeout,
		MaxRetries: DefaultMaxRetries,
		RetryDelay: DefaultRetryDelay,
	}
}

// Validate checks the preconditions of the request executor.
func (c RequestConfig) Validate() error {
	if err := validation.Default().Struct(c); err != nil {
		return fmt.Errorf("invalid request config: %w", err)
	}
	return nil
}

// URL joins the base URL and endpoint.
func (c RequestConfig) URL(endpoint string) string {
	return strings.TrimRight(c.BaseURL, "/") + endpoint
}
