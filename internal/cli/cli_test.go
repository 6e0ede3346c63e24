package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/gaborage/go-astrox/httpclient"
	"github.com/gaborage/go-astrox/testing/astroxtest"
	"github.com/gaborage/go-astrox/testing/mocks"
)

const testEndpoint = "/Propagator/TwoBody"

func clearEnvironmentVariables(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "ASTROX_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "", "version")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "astrox version test", lines[0])
	assert.Contains(t, lines[1], httpclient.DefaultUserAgent)
	assert.Equal(t, "Built with "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH, lines[2])
}

func TestPostFromStdin(t *testing.T) {
	clearEnvironmentVariables(t)

	srv := astroxtest.New(t)
	srv.Script(testEndpoint, astroxtest.Success(map[string]any{"Position": "ok"}))

	out, errOut, err := execute(t, `{"Start":"2024-01-01T00:00:00.000Z","Step":60}`,
		"post", testEndpoint, "-d", "-", "--base-url", srv.URL)
	require.NoError(t, err)

	var data map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &data))
	assert.Equal(t, "ok", data["Position"])

	body := srv.Requests(testEndpoint)[0].JSON()
	assert.Equal(t, "2024-01-01T00:00:00.000Z", body["Start"])
	assert.Equal(t, 60.0, body["Step"])

	assert.Contains(t, errOut, "ASTROX call finished")
	assert.Contains(t, errOut, `"api_calls":1`)
}

func TestPostFromFileWithRetries(t *testing.T) {
	clearEnvironmentVariables(t)

	srv := astroxtest.New(t)
	srv.Script(testEndpoint, astroxtest.Status(503, "busy"), astroxtest.Success(nil))

	path := filepath.Join(t.TempDir(), "body.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"OrbitEpoch":"2024-01-01T00:00:00.000Z"}`), 0o600))

	_, errOut, err := execute(t, "", "post", testEndpoint, "--data", path,
		"--base-url", srv.URL, "--retry-delay", "1ms", "--max-retries", "2")
	require.NoError(t, err)

	assert.Equal(t, 2, srv.Count(testEndpoint))
	assert.Contains(t, errOut, `"api_calls":2`)
}

func TestPostWithoutBodySendsEmptyObject(t *testing.T) {
	clearEnvironmentVariables(t)

	srv := astroxtest.New(t)
	srv.Script(testEndpoint, astroxtest.Success(nil))

	_, _, err := execute(t, "", "post", testEndpoint, "--base-url", srv.URL)
	require.NoError(t, err)
	assert.Empty(t, srv.Requests(testEndpoint)[0].JSON())
}

func TestPostConfigFileAndEnvironment(t *testing.T) {
	clearEnvironmentVariables(t)

	srv := astroxtest.New(t)
	srv.Script(testEndpoint, astroxtest.Failure("bad orbit"))

	path := filepath.Join(t.TempDir(), "astrox.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  baseurl: http://ignored:1\n"), 0o600))
	t.Setenv("ASTROX_API_BASEURL", srv.URL)

	_, errOut, err := execute(t, "", "post", testEndpoint, "--config", path)
	require.Error(t, err)
	assert.True(t, httpclient.IsErrorType(err, httpclient.APIError))
	assert.Contains(t, err.Error(), "bad orbit")
	assert.Contains(t, errOut, `"level":"error"`)
	assert.Equal(t, 1, srv.Count(testEndpoint))
}

func TestPostExportsTelemetry(t *testing.T) {
	clearEnvironmentVariables(t)
	tp, mp, prop := otel.GetTracerProvider(), otel.GetMeterProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
		otel.SetTextMapPropagator(prop)
	})

	srv := astroxtest.New(t)
	srv.Script(testEndpoint, astroxtest.Success(nil))
	t.Setenv("ASTROX_TELEMETRY_ENABLED", "true")

	_, errOut, err := execute(t, "", "post", testEndpoint, "--base-url", srv.URL)
	require.NoError(t, err)

	assert.Contains(t, errOut, "astrox.post "+testEndpoint)
	assert.NotEmpty(t, srv.Requests(testEndpoint)[0].Header.Get("Traceparent"))
}

func TestPostRejectsBadInput(t *testing.T) {
	clearEnvironmentVariables(t)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  string
	}{
		{"missing endpoint", "", []string{"post"}, "accepts 1 arg"},
		{"array body", "[1,2]", []string{"post", testEndpoint, "-d", "-"}, "must be a JSON object"},
		{"null body", "null", []string{"post", testEndpoint, "-d", "-"}, "must be a JSON object"},
		{"missing file", "", []string{"post", testEndpoint, "-d", filepath.Join(t.TempDir(), "nope.json")}, "failed to read request body"},
		{"invalid timeout", "", []string{"post", testEndpoint, "--timeout", "0s"}, "invalid request config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.stdin, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfigCommand(t *testing.T) {
	clearEnvironmentVariables(t)
	t.Setenv("ASTROX_API_MAXRETRIES", "6")

	out, _, err := execute(t, "", "config")
	require.NoError(t, err)

	var all map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &all))
	api := all["api"].(map[string]any)
	assert.Equal(t, httpclient.DefaultBaseURL, api["baseurl"])
	assert.Equal(t, "6", api["maxretries"])

	out, _, err = execute(t, "", "config", "--key", "api.timeout")
	require.NoError(t, err)
	assert.Equal(t, "\"30s\"\n", out)

	_, _, err = execute(t, "", "config", "--key", "api.nope")
	assert.ErrorContains(t, err, "unknown configuration key")
}

func TestConfigCommandInvalidFile(t *testing.T) {
	clearEnvironmentVariables(t)

	path := filepath.Join(t.TempDir(), "astrox.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: chatty\n"), 0o600))

	_, _, err := execute(t, "", "config", "-c", path)
	assert.ErrorContains(t, err, "log.level")
}

func TestBenchCommand(t *testing.T) {
	clearEnvironmentVariables(t)

	srv := astroxtest.New(t)
	srv.Script(testEndpoint, astroxtest.Success(nil))

	out, errOut, err := execute(t, `{"Start":"2024-01-01T00:00:00.000Z"}`,
		"bench", testEndpoint, "-d", "-", "-n", "6", "-p", "3", "--base-url", srv.URL)
	require.NoError(t, err)

	var report BenchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 6, report.Requests)
	assert.Equal(t, 6, report.Succeeded)
	assert.Zero(t, report.Failed)
	assert.EqualValues(t, 6, report.Attempts)
	assert.GreaterOrEqual(t, report.Latency.Max, report.Latency.P50)
	assert.Equal(t, 6, srv.Count(testEndpoint))
	assert.Contains(t, errOut, "ASTROX benchmark finished")
}

func TestBenchCountsFailuresByType(t *testing.T) {
	clearEnvironmentVariables(t)

	srv := astroxtest.New(t)
	srv.Script(testEndpoint, astroxtest.Failure("no"))

	out, _, err := execute(t, "", "bench", testEndpoint, "-n", "3", "--base-url", srv.URL)
	require.NoError(t, err)

	var report BenchReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Failed)
	assert.Equal(t, map[string]int{"api": 3}, report.Errors)
	assert.Zero(t, report.Latency.Max)
}

func TestBenchRejectsBadCounts(t *testing.T) {
	_, _, err := execute(t, "", "bench", testEndpoint, "-n", "0")
	assert.ErrorContains(t, err, "--requests")

	_, _, err = execute(t, "", "bench", testEndpoint, "-p", "0")
	assert.ErrorContains(t, err, "--parallel")
}

func TestBenchLatencySummary(t *testing.T) {
	m := mocks.NewMockClient()
	m.On("Do", mock.Anything, testEndpoint, mock.Anything).
		Return(&httpclient.Response{Stats: httpclient.Stats{ElapsedTime: 10 * time.Millisecond}}, nil).Times(3)
	m.On("Do", mock.Anything, testEndpoint, mock.Anything).
		Return(&httpclient.Response{Stats: httpclient.Stats{ElapsedTime: 40 * time.Millisecond}}, nil).Once()
	m.On("Do", mock.Anything, testEndpoint, mock.Anything).
		Return(nil, httpclient.NewTimeoutError(testEndpoint, time.Second, context.DeadlineExceeded)).Once()

	report, err := bench(context.Background(), m, testEndpoint, nil, 5, 1)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Succeeded)
	assert.Equal(t, map[string]int{"timeout": 1}, report.Errors)
	assert.InDelta(t, 10, report.Latency.Min, 0.05)
	assert.InDelta(t, 10, report.Latency.P50, 0.05)
	assert.InDelta(t, 40, report.Latency.Max, 0.05)
	assert.InDelta(t, 17.5, report.Latency.Mean, 0.05)
}
