package logger

import (
	"context"
	"sync/atomic"
	"time"
)

type contextKey string

const (
	apiCounterKey contextKey = "astrox_api_call_counter"
	apiElapsedKey contextKey = "astrox_api_elapsed_nanos"
)

// WithAPICounter returns a context that tracks how many HTTP attempts were made to the
// ASTROX API and how long they took in total. Calls made with a derived context add to
// the same counters.
func WithAPICounter(ctx context.Context) context.Context {
	var counter, elapsed int64
	ctx = context.WithValue(ctx, apiCounterKey, &counter)
	return context.WithValue(ctx, apiElapsedKey, &elapsed)
}

// IncrementAPICounter adds one to the call counter when the context tracks it.
func IncrementAPICounter(ctx context.Context) {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// APICallCount returns the number of attempts recorded in ctx, or 0 when untracked.
func APICallCount(ctx context.Context) int64 {
	if counter, ok := ctx.Value(apiCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddAPIElapsed adds d to the elapsed time recorded in ctx.
func AddAPIElapsed(ctx context.Context, d time.Duration) {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, int64(d))
	}
}

// APIElapsed returns the total attempt time recorded in ctx.
func APIElapsed(ctx context.Context) time.Duration {
	if elapsed, ok := ctx.Value(apiElapsedKey).(*int64); ok && elapsed != nil {
		return time.Duration(atomic.LoadInt64(elapsed))
	}
	return 0
}
