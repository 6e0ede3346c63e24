package httpclient

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Call is one request of a PostAll batch.
type Call struct {
	Endpoint string
	Payload  Payload
}

// PostAll posts calls concurrently over c, at most limit at a time (unbounded when
// limit <= 0). Results are returned in input order. The first failure cancels the
// calls still in flight and is returned.
func PostAll(ctx context.Context, c Client, calls []Call, limit int) ([]map[string]any, error) {
	results := make([]map[string]any, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, call := range calls {
		g.Go(func() error {
			data, err := c.Post(gctx, call.Endpoint, call.Payload)
			if err != nil {
				return err
			}
			results[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
