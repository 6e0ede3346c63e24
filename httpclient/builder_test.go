package httpclient

import (
	"bytes"
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-astrox/logger"
	"github.com/gaborage/go-astrox/testing/astroxtest"
)

func TestBuilderDefaults(t *testing.T) {
	c, err := NewBuilder(nil).Build()
	require.NoError(t, err)

	assert.Equal(t, DefaultRequestConfig(), c.Config())
	impl := c.(*client)
	assert.Equal(t, DefaultUserAgent, impl.userAgent)
	assert.Nil(t, impl.limiter)
	assert.NotNil(t, impl.httpClient)
	assert.Zero(t, impl.httpClient.Timeout)
}

func TestBuilderOverrides(t *testing.T) {
	hc := &http.Client{}
	log := logger.Nop()

	c, err := NewBuilder(log).
		WithBaseURL("http://localhost:8765").
		WithTimeout(5*time.Second).
		WithMaxRetries(5).
		WithRetryDelay(250*time.Millisecond).
		WithHTTPClient(hc).
		WithLogPayloads(0).
		WithRateLimit(10, 0).
		WithUserAgent("tester/1.0").
		Build()
	require.NoError(t, err)

	assert.Equal(t, RequestConfig{
		BaseURL:    "http://localhost:8765",
		Timeout:    5 * time.Second,
		MaxRetries: 5,
		RetryDelay: 250 * time.Millisecond,
	}, c.Config())

	impl := c.(*client)
	assert.Same(t, hc, impl.httpClient)
	assert.Same(t, log, impl.logger)
	assert.True(t, impl.logPayloads)
	assert.Equal(t, DefaultMaxPayloadLogBytes, impl.maxPayloadLogBytes)
	require.NotNil(t, impl.limiter)
	assert.Equal(t, 1, impl.limiter.Burst())
	assert.Equal(t, "tester/1.0", impl.userAgent)
}

func TestBuilderWithConfigAndInvalidValues(t *testing.T) {
	cfg := DefaultRequestConfig()
	cfg.MaxRetries = 0

	_, err := NewBuilder(nil).WithConfig(cfg).Build()
	assert.Error(t, err)

	_, err = NewBuilder(nil).WithBaseURL("not a url").Build()
	assert.Error(t, err)
}

func TestRateLimitDisabledByNonPositiveRPS(t *testing.T) {
	c, err := NewBuilder(nil).WithRateLimit(10, 2).WithOptions(WithRateLimit(0, 2)).Build()
	require.NoError(t, err)
	assert.Nil(t, c.(*client).limiter)
}

func TestBuilderLogsRequests(t *testing.T) {
	srv := astroxtest.New(t)
	srv.Script(testJ2,
		astroxtest.Status(http.StatusServiceUnavailable, "busy"),
		astroxtest.Success(nil),
	)
	var buf bytes.Buffer

	c, err := NewBuilder(newBufferLogger(&buf)).WithBaseURL(srv.URL).WithRetryDelay(0).Build()
	require.NoError(t, err)

	_, err = c.Post(context.Background(), testJ2, nil)
	require.NoError(t, err)

	lines := logLines(t, &buf)
	assert.Len(t, linesWithLevel(lines, "warn"), 1)
	infos := linesWithLevel(lines, "info")
	require.Len(t, infos, 4)
	assert.Equal(t, testRestClientRequest, infos[0]["message"])
	assert.Equal(t, testRestClientResponse, infos[1]["message"])
}
