// Package httpclient implements the transport core of the ASTROX client: it normalizes
// a payload, POSTs it to the ASTROX web API, retries transient failures with exponential
// backoff and returns the decoded JSON body or a typed ClientError.
package httpclient

import (
	"context"
	nethttp "net/http"
	"time"
)

// Version is reported in the User-Agent header.
const Version = "0.1.0"

const (
	// DefaultUserAgent identifies this library to the ASTROX server
	DefaultUserAgent = "go-astrox/" + Version
	// HeaderXRequestID carries the per-request correlation ID; retries reuse the same value
	HeaderXRequestID = "X-Request-ID"
	// HeaderContentType and HeaderAccept are always application/json
	HeaderContentType = "Content-Type"
	HeaderAccept      = "Accept"
	contentTypeJSON   = "application/json"
)

// Client sends requests to the ASTROX API. Implementations are safe for concurrent use
// and keep one pooled HTTP connection set for their whole lifetime.
type Client interface {
	// Post sends payload to endpoint and returns the decoded JSON object.
	Post(ctx context.Context, endpoint string, payload Payload) (map[string]any, error)
	// Do is Post without the requirement that the body is a JSON object.
	Do(ctx context.Context, endpoint string, payload Payload) (*Response, error)
	// Config returns a copy of the configuration the client was built with.
	Config() RequestConfig
}

// Response is the result of a successful request.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    nethttp.Header
	// Data is the decoded body when it is a JSON object, nil otherwise
	Data  map[string]any
	Stats Stats
}

// Stats describes how a response was obtained.
type Stats struct {
	// ElapsedTime covers all attempts and backoff sleeps
	ElapsedTime time.Duration
	// Attempts is the number of HTTP attempts made, including the successful one
	Attempts int
	// CallCount is the API call count of the calling context (see logger.WithAPICounter)
	CallCount int64
}
