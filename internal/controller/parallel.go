package controller

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Parallel runs fns concurrently. The first failure cancels the shared
// context and is returned once every fn has finished.
func Parallel(ctx context.Context, fns ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		fn := fn
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}
