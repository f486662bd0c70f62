package app

import (
	"github.com/okian/foodlca/internal/adapters/worker"
	"github.com/okian/foodlca/pkg/logger"
)

// Option applies a configuration option to the Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(l logger.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.base = l
		}
	}
}

// WithPool sets the worker pool used for per-category fan-out.
func WithPool(pool *worker.Pool) Option {
	return func(p *Pipeline) {
		if pool != nil {
			p.pool = pool
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(p *Pipeline) {
		if id != "" {
			p.runID = id
		}
	}
}
