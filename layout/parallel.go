package layout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// parallelizeWorkers caps how many region layouts run concurrently;
// unbounded fan-out over a large document would contend badly on the
// shared diag.Sink and Introspector build that follows.
const parallelizeWorkers = 8

// Parallelize runs fn over each item concurrently (bounded to
// parallelizeWorkers in flight at once) and returns results in submission
// order — spec §4.H.5: "parallelize(items, fn) -> iterator, ... may run
// sequentially or via a worker pool; the semantics are single-threaded,
// only the scheduling differs". Promoted from the module's existing
// indirect golang.org/x/sync dependency to direct use here, since
// errgroup.Group is exactly the bounded-concurrency-with-first-error
// primitive this helper needs and nothing in-tree already wraps it.
func Parallelize[In, Out any](items []In, fn func(In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(items))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(parallelizeWorkers)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			r, err := fn(item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
