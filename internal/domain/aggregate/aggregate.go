// Package aggregate reduces category match sets to single impact factors.
package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/foodlca/internal/adapters/worker"
	"github.com/okian/foodlca/internal/domain/mapping"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/units"
	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

// DefaultPercentile is the quantile used by the conservative method.
const DefaultPercentile = 0.75

// Aggregator applies one method to every match set.
type Aggregator struct {
	method     model.Method
	percentile float64
	pool       *worker.Pool
	logger     logger.Logger
}

// New returns an Aggregator; it fails on an out-of-range percentile.
func New(opts ...Option) (*Aggregator, error) {
	a := &Aggregator{method: model.MethodMedian, percentile: DefaultPercentile}
	for _, opt := range opts {
		opt(a)
	}
	if a.percentile <= 0 || a.percentile > 1 {
		return nil, &model.RangeError{Field: "percentile", Value: a.percentile, Want: "in (0, 1]"}
	}
	if _, err := reducer(a.method, a.percentile); err != nil {
		return nil, err
	}
	if a.logger == nil {
		a.logger = logger.Get().Named("aggregate")
	}
	if a.pool == nil {
		a.pool = worker.NewPool(worker.WithLogger(a.logger))
	}
	return a, nil
}

// Method returns the configured method.
func (a *Aggregator) Method() model.Method { return a.method }

// Percentile returns the configured conservative quantile.
func (a *Aggregator) Percentile() float64 { return a.percentile }

// AggregateAll reduces every set in parallel; results follow input order.
func (a *Aggregator) AggregateAll(ctx context.Context, sets []mapping.MatchSet) ([]model.AggregatedFactor, error) {
	start := time.Now()
	out, err := worker.Map(ctx, a.pool, sets, func(_ context.Context, s mapping.MatchSet) (model.AggregatedFactor, error) {
		return Aggregate(s, a.method, a.percentile)
	})
	if err != nil {
		metrics.RecordStageError("aggregate", "job")
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	for _, f := range out {
		for _, q := range model.Quantities() {
			if f.Quantity(q).Present {
				continue
			}
			metrics.RecordMissingQuantity(string(q))
			a.logger.Warn(ctx, "no contributing values",
				logger.String("category", string(f.Category)),
				logger.String("quantity", string(q)),
				logger.Int("records", f.Records),
			)
		}
	}
	metrics.RecordStageDuration("aggregate", float64(time.Since(start).Milliseconds()))
	a.logger.Info(ctx, "match sets aggregated",
		logger.Int("categories", len(out)),
		logger.String("method", string(a.method)),
	)
	return out, nil
}

// Aggregate reduces one match set. Each quantity is reduced independently
// from its non-missing values; a quantity with none stays Missing. Water is
// converted from m3/kg to L/kg.
func Aggregate(set mapping.MatchSet, method model.Method, percentile float64) (model.AggregatedFactor, error) {
	reduce, err := reducer(method, percentile)
	if err != nil {
		return model.AggregatedFactor{}, err
	}

	f := model.AggregatedFactor{
		Category:     set.Category,
		Method:       method,
		Records:      len(set.Records),
		Contributors: make(map[model.Quantity]int, 3),
	}
	if method == model.MethodConservative {
		f.Percentile = percentile
	}

	var co2, land, water []float64
	for _, r := range set.Records {
		if v, ok := r.CO2.Get(); ok {
			co2 = append(co2, v)
		}
		if v, ok := r.Land.Get(); ok {
			land = append(land, v)
		}
		w, err := units.WaterToLitersPerKg(r.Water)
		if err != nil {
			return model.AggregatedFactor{}, fmt.Errorf("%s row %d: %w", set.Category, r.Row, err)
		}
		if v, ok := w.Get(); ok {
			water = append(water, v)
		}
	}

	f.CO2Total = reduceMeasure(co2, reduce, model.UnitKgCO2ePerKg)
	f.Land = reduceMeasure(land, reduce, model.UnitM2aPerKg)
	f.Water = reduceMeasure(water, reduce, model.UnitLPerKg)
	f.Contributors[model.QuantityCO2] = len(co2)
	f.Contributors[model.QuantityLand] = len(land)
	f.Contributors[model.QuantityWater] = len(water)
	return f, nil
}

func reducer(method model.Method, percentile float64) (func([]float64) float64, error) {
	switch method {
	case model.MethodMedian:
		return Median, nil
	case model.MethodMean:
		return Mean, nil
	case model.MethodConservative:
		if percentile <= 0 || percentile > 1 {
			return nil, &model.RangeError{Field: "percentile", Value: percentile, Want: "in (0, 1]"}
		}
		return func(v []float64) float64 {
			p, _ := Percentile(v, percentile)
			return p
		}, nil
	}
	return nil, fmt.Errorf("unknown aggregation method %q", method)
}

func reduceMeasure(values []float64, reduce func([]float64) float64, u model.Unit) model.Measure {
	if len(values) == 0 {
		return model.Missing(u)
	}
	return model.Known(reduce(values), u)
}
