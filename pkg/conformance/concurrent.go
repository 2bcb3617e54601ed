package conformance

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/checkflow/checkflow/internal/model"
	"github.com/checkflow/checkflow/pkg/errors"
)

// ConcurrentOptions tunes CheckLogConcurrent.
type ConcurrentOptions struct {
	// Workers is the number of checking goroutines. Defaults to
	// runtime.NumCPU().
	Workers int

	// Progress, if set, is called after each checked case with the number
	// of cases completed so far. It may be called from multiple
	// goroutines and must be safe for concurrent use.
	Progress func(done int64)
}

// CheckLogConcurrent checks a log's cases in parallel and aggregates the
// results. Per-case checking shares no mutable state, so cases fan out
// across workers freely; the aggregation is a single-threaded reduction
// after all workers finish, which keeps the summary counters race-free.
//
// Results are written into a slice indexed by case position, so the
// output is identical to the sequential CheckLog regardless of worker
// scheduling. The context cancels remaining work; partial results are
// discarded on cancellation.
func (c *Checker) CheckLogConcurrent(ctx context.Context, log model.Log, opts ConcurrentOptions) (LogResult, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type indexed struct {
		idx int
		cs  model.Case
	}

	// Pre-filter empty cases so workers and the progress callback only
	// see real work, matching CheckLog's skip semantics.
	checkable := make([]indexed, 0, len(log))
	skipped := 0
	for _, cs := range log {
		if len(cs.Events) == 0 {
			skipped++
			continue
		}
		checkable = append(checkable, indexed{idx: len(checkable), cs: cs})
	}

	results := make([]CaseResult, len(checkable))
	work := make(chan indexed)

	var done int64

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(work)
		for _, item := range checkable {
			select {
			case work <- item:
			case <-ctx.Done():
				return errors.Wrap(ctx.Err(), errors.CodeContextCanceled, "log check canceled")
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for item := range work {
				results[item.idx] = c.CheckTrace(item.cs.Events, item.cs.ID)
				n := atomic.AddInt64(&done, 1)
				if opts.Progress != nil {
					opts.Progress(n)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return LogResult{}, err
	}

	out := c.Aggregate(results)
	out.SkippedCases = skipped
	return out, nil
}
