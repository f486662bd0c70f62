package aggregate

import (
	"github.com/okian/foodlca/internal/adapters/worker"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/pkg/logger"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMethod selects the reduction method.
func WithMethod(m model.Method) Option {
	return func(a *Aggregator) {
		if m != "" {
			a.method = m
		}
	}
}

// WithPercentile sets the conservative quantile, in (0, 1].
func WithPercentile(p float64) Option {
	return func(a *Aggregator) { a.percentile = p }
}

// WithPool runs per-category work on p.
func WithPool(p *worker.Pool) Option {
	return func(a *Aggregator) {
		if p != nil {
			a.pool = p
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}
