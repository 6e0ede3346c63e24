package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gaborage/go-astrox/httpclient"
	"github.com/gaborage/go-astrox/logger"
)

// Latencies are recorded in microseconds up to this bound; slower calls are clamped.
const maxRecordedLatency = time.Hour

// BenchOptions holds options for the bench command
type BenchOptions struct {
	RequestOptions
	Requests    int
	Concurrency int
}

// BenchReport is printed by the bench command.
type BenchReport struct {
	Endpoint  string         `json:"endpoint"`
	Requests  int            `json:"requests"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Errors    map[string]int `json:"errors,omitempty"`
	Attempts  int64          `json:"attempts"`
	Wall      string         `json:"wall"`
	Latency   LatencySummary `json:"latency_ms"`
}

// LatencySummary covers successful calls only, retries and backoff included.
type LatencySummary struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	P99  float64 `json:"p99"`
	Max  float64 `json:"max"`
}

// NewBenchCommand creates the bench command
func NewBenchCommand() *cobra.Command {
	opts := &BenchOptions{}

	cmd := &cobra.Command{
		Use:   "bench <endpoint>",
		Short: "Measure endpoint latency with repeated calls",
		Long: `Posts the same body to an endpoint repeatedly and prints a latency report.

Failed calls are counted by error type and do not stop the run. Configured
rate limits (api.ratelimit.*) apply across all workers.`,
		Example: `  # 50 calls, 5 at a time
  astrox bench /Propagator/J2 -d j2.json -n 50 -p 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd, args[0], opts)
		},
	}

	opts.bind(cmd)
	cmd.Flags().IntVarP(&opts.Requests, "requests", "n", 10, "Number of calls")
	cmd.Flags().IntVarP(&opts.Concurrency, "parallel", "p", 1, "Calls in flight at once")

	return cmd
}

func runBench(cmd *cobra.Command, endpoint string, opts *BenchOptions) error {
	if opts.Requests < 1 {
		return fmt.Errorf("--requests must be at least 1, got %d", opts.Requests)
	}
	if opts.Concurrency < 1 {
		return fmt.Errorf("--parallel must be at least 1, got %d", opts.Concurrency)
	}

	s, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	ctx := logger.WithAPICounter(cmd.Context())
	start := time.Now()
	report, err := bench(ctx, s.client, endpoint, s.payload, opts.Requests, opts.Concurrency)
	if err != nil {
		return err
	}
	report.Wall = time.Since(start).Round(time.Millisecond).String()
	report.Attempts = logger.APICallCount(ctx)

	s.log.Info().
		Str("endpoint", endpoint).
		Int("succeeded", report.Succeeded).
		Int("failed", report.Failed).
		Int64("api_calls", report.Attempts).
		Msg("ASTROX benchmark finished")

	return writeJSON(cmd, report)
}

func bench(ctx context.Context, c httpclient.Client, endpoint string, payload httpclient.Payload, n, parallel int) (*BenchReport, error) {
	hist := hdrhistogram.New(1, maxRecordedLatency.Microseconds(), 3)
	report := &BenchReport{Endpoint: endpoint, Requests: n, Errors: map[string]int{}}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for range n {
		g.Go(func() error {
			resp, err := c.Do(gctx, endpoint, payload)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors[errorTypeName(err)]++
				return nil
			}
			report.Succeeded++
			return hist.RecordValue(min(resp.Stats.ElapsedTime, maxRecordedLatency).Microseconds())
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to record latency: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if hist.TotalCount() > 0 {
		ms := func(us int64) float64 { return float64(us) / 1000 }
		report.Latency = LatencySummary{
			Min:  ms(hist.Min()),
			Mean: hist.Mean() / 1000,
			P50:  ms(hist.ValueAtQuantile(50)),
			P90:  ms(hist.ValueAtQuantile(90)),
			P99:  ms(hist.ValueAtQuantile(99)),
			Max:  ms(hist.Max()),
		}
	}
	return report, nil
}

func errorTypeName(err error) string {
	var clientErr httpclient.ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type().String()
	}
	return "unknown"
}
