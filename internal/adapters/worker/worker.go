// Package worker runs independent per-category jobs on a bounded set of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

// Job processes item i. Jobs share only read-only inputs and write their
// result to their own slot.
type Job func(ctx context.Context, i int) error

// Pool bounds concurrent job execution.
type Pool struct {
	name   string
	limit  int
	logger logger.Logger
}

// NewPool creates a pool limited to runtime.NumCPU() jobs unless configured.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		name:  "worker-pool",
		limit: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	metrics.UpdateWorkerLimit(p.limit)
	return p
}

// Limit returns the concurrency bound.
func (p *Pool) Limit() int { return p.limit }

// Run executes job for every index in [0, n). The first failure cancels the
// context passed to the remaining jobs and is returned.
func (p *Pool) Run(ctx context.Context, n int, job Job) error {
	if n == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			err := job(gctx, i)
			metrics.RecordWorkerJob(err == nil, float64(time.Since(start).Microseconds())/1000)
			if err != nil {
				return fmt.Errorf("job %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.logger.Error(ctx, "pool run failed", logger.Int("jobs", n), logger.Error(err))
		return err
	}
	p.logger.Debug(ctx, "pool run finished", logger.Int("jobs", n), logger.Int("limit", p.limit))
	return nil
}

// Map applies fn to every element of in on p and returns the results in input order.
func Map[T, R any](ctx context.Context, p *Pool, in []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	err := p.Run(ctx, len(in), func(ctx context.Context, i int) error {
		r, err := fn(ctx, in[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
