package locator

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Warm resolves names concurrently, typically right after startup so that
// the first request does not pay for construction. The first failure
// cancels the remaining waits and is returned.
func Warm(ctx context.Context, c Container, names ...string) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, name := range names {
		g.Go(func() error {
			_, err := c.ResolveContext(gctx, name)

			return err
		})
	}

	return g.Wait()
}
