package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	nethttp "net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/gaborage/go-astrox/internal/tracking"
	"github.com/gaborage/go-astrox/logger"
)

const tracerName = "go-astrox/httpclient"

// client is the default Client implementation.
type client struct {
	httpClient         *nethttp.Client
	config             RequestConfig
	logger             logger.Logger
	limiter            *rate.Limiter
	userAgent          string
	logPayloads        bool
	maxPayloadLogBytes int
	sleep              func(ctx context.Context, d time.Duration) error
}

// New validates cfg and creates a client with its own pooled connections.
func New(cfg RequestConfig, opts ...Option) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &client{
		config:             cfg,
		logger:             logger.Nop(),
		userAgent:          DefaultUserAgent,
		maxPayloadLogBytes: DefaultMaxPayloadLogBytes,
		sleep:              sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &nethttp.Client{Transport: newTransport()}
	}
	return c, nil
}

// NewDefault creates a client with DefaultRequestConfig.
func NewDefault(opts ...Option) (Client, error) {
	return New(DefaultRequestConfig(), opts...)
}

func newTransport() *nethttp.Transport {
	return &nethttp.Transport{
		Proxy: nethttp.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

func (c *client) Config() RequestConfig {
	return c.config
}

func (c *client) Post(ctx context.Context, endpoint string, payload Payload) (map[string]any, error) {
	resp, err := c.Do(ctx, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, NewAPIError(endpoint, "response is not a JSON object", resp.StatusCode, resp.Body)
	}
	return resp.Data, nil
}

func (c *client) Do(ctx context.Context, endpoint string, payload Payload) (resp *Response, err error) {
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	fields, err := Normalize(payload)
	if err != nil {
		return nil, NewValidationError(endpoint, "invalid payload: "+err.Error(), nil)
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return nil, NewValidationError(endpoint, "invalid payload: "+err.Error(), nil)
	}

	url := c.config.URL(endpoint)
	requestID := ensureRequestID(ctx)
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "astrox.post "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", nethttp.MethodPost),
			attribute.String("url.full", url),
			attribute.String(tracking.AttrEndpoint, endpoint),
		))

	attempts := 0
	defer func() {
		span.SetAttributes(attribute.Int("astrox.attempts", attempts))
		if resp != nil {
			span.SetAttributes(attribute.Int(tracking.AttrStatusCode, resp.StatusCode))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		tracking.RecordRequest(ctx, endpoint, time.Since(start), errorTypeOf(err))
	}()

	var lastErr error
	for attempt := 0; attempt < c.config.MaxRetries; attempt++ {
		attempts++
		result, o, attemptErr := c.attempt(ctx, endpoint, url, body, requestID, start)
		if o == outcomeSuccess {
			result.Stats.Attempts = attempts
			return result, nil
		}

		lastErr = attemptErr
		if o == outcomeFatal || attempt == c.config.MaxRetries-1 {
			break
		}

		delay := backoffDelay(c.config.RetryDelay, attempt)
		c.logger.Warn().
			Err(attemptErr).
			Str("endpoint", endpoint).
			Str("request_id", requestID).
			Int("attempt", attempt+1).
			Int("max_retries", c.config.MaxRetries).
			Dur("retry_delay", delay).
			Msg("ASTROX request failed, retrying")
		tracking.RecordRetry(ctx, endpoint, errorTypeOf(attemptErr))

		if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
			lastErr = NewConnectionError(endpoint, "request cancelled during backoff", sleepErr)
			break
		}
	}

	if lastErr == nil {
		lastErr = NewConnectionError(endpoint, "request failed after all retries", nil)
	}
	return nil, lastErr
}

// attempt performs one HTTP exchange. The response body is fully read before the
// per-attempt context is released.
func (c *client) attempt(ctx context.Context, endpoint, url string, body []byte, requestID string, start time.Time) (*Response, outcome, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, outcomeFatal, NewConnectionError(endpoint, "rate limiter wait failed", err)
		}
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := nethttp.NewRequestWithContext(attemptCtx, nethttp.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, outcomeFatal, NewConnectionError(endpoint, "failed to create request", err)
	}
	req.Header.Set(HeaderContentType, contentTypeJSON)
	req.Header.Set(HeaderAccept, contentTypeJSON)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(HeaderXRequestID, requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	c.logRequest(req, body, requestID)
	logger.IncrementAPICounter(ctx)
	attemptStart := time.Now()

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		logger.AddAPIElapsed(ctx, time.Since(attemptStart))
		return c.transportFailure(ctx, attemptCtx, endpoint, requestID, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	logger.AddAPIElapsed(ctx, time.Since(attemptStart))
	if err != nil {
		return c.transportFailure(ctx, attemptCtx, endpoint, requestID, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       respBody,
		Headers:    httpResp.Header,
		Stats: Stats{
			ElapsedTime: time.Since(start),
			CallCount:   logger.APICallCount(ctx),
		},
	}
	c.logResponse(resp, requestID)

	data, o, classErr := classifyResponse(endpoint, resp.StatusCode, respBody)
	tracking.RecordAttempt(ctx, endpoint, o.String(), resp.StatusCode, errorTypeOf(classErr))
	if classErr != nil {
		return nil, o, classErr
	}
	resp.Data = data
	return resp, outcomeSuccess, nil
}

func (c *client) transportFailure(ctx, attemptCtx context.Context, endpoint, requestID string, err error) (*Response, outcome, error) {
	o, classErr := classifyTransportError(ctx, attemptCtx, endpoint, c.config.Timeout, err)
	c.logger.Debug().
		Err(err).
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Str("outcome", o.String()).
		Msg("ASTROX request produced no response")
	tracking.RecordAttempt(ctx, endpoint, o.String(), 0, errorTypeOf(classErr))
	return nil, o, classErr
}

func errorTypeOf(err error) string {
	if err == nil {
		return ""
	}
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.Type().String()
	}
	return "unknown"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
