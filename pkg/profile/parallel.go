package profile

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// AggregateParallel walks documents from docs on a pool of workers and
// tree-reduces the per-worker partial aggregates into one profile.
// Because Merge is commutative and associative, the outcome matches a
// sequential pass over the same documents in any order.
//
// Walking one document touches no shared state; the only coordination
// points are the input channel and the final reduction. The caller
// closes docs to end the pass. Under FailFast the first failure cancels
// the group and no profile is produced. Coverage tracking requires
// document ordinals from a single sequence and is not supported here.
func AggregateParallel(ctx context.Context, docs <-chan any, workers int, opts Options) (*Profile, error) {
	if opts.TrackCoverage {
		return nil, errors.New("profile: coverage tracking requires sequential aggregation")
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type partial struct {
		schema    *Descriptor
		documents int64
		skipped   []Skip
	}

	partials := make([]partial, workers)
	var index atomic.Int64
	var accepted atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		p := &partials[i]
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case doc, ok := <-docs:
					if !ok {
						return nil
					}
					idx := int(index.Add(1) - 1)

					d, err := WalkWithOptions(doc, opts.walkOptions())
					if err != nil {
						if opts.FailFast {
							return fmt.Errorf("document %d: %w", idx, err)
						}
						p.skipped = append(p.skipped, Skip{Index: idx, Reason: err.Error()})
						continue
					}

					if opts.SampleLimit > 0 && accepted.Add(1) > int64(opts.SampleLimit) {
						continue
					}
					p.schema = merge(p.schema, d)
					p.documents++
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Join partial aggregates; merge order does not matter.
	agg := New(opts)
	for i := range partials {
		agg.schema = merge(agg.schema, partials[i].schema)
		agg.documents += partials[i].documents
		agg.skipped = append(agg.skipped, partials[i].skipped...)
	}
	sort.Slice(agg.skipped, func(i, j int) bool {
		return agg.skipped[i].Index < agg.skipped[j].Index
	})
	return agg.Finalize()
}
