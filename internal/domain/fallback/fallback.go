// Package fallback fills quantities the database could not supply from a
// curated table of literature values.
package fallback

import (
	"context"

	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/scope"
	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

// Entry holds the fallback values of one category. Any measure may be Missing.
type Entry struct {
	CO2   model.Measure // kgCO2e/kg
	Land  model.Measure // m2a/kg
	Water model.Measure // L/kg
}

// NewEntry returns an entry with all three quantities present.
func NewEntry(co2, land, waterL float64) Entry {
	return Entry{
		CO2:   model.Known(co2, model.UnitKgCO2ePerKg),
		Land:  model.Known(land, model.UnitM2aPerKg),
		Water: model.Known(waterL, model.UnitLPerKg),
	}
}

func (e Entry) quantity(q model.Quantity) model.Measure {
	switch q {
	case model.QuantityCO2:
		return e.CO2
	case model.QuantityLand:
		return e.Land
	case model.QuantityWater:
		return e.Water
	}
	return model.Measure{}
}

// Table maps categories to fallback entries.
type Table map[model.Category]Entry

// Resolver fills Missing quantities of a factor table.
type Resolver struct {
	table   Table
	require bool
	logger  logger.Logger
}

// NewResolver creates a resolver over table.
func NewResolver(table Table, opts ...Option) *Resolver {
	r := &Resolver{table: table, require: true}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("fallback")
	}
	return r
}

// Resolve returns a copy of in with every Missing quantity replaced by its
// fallback value and marked as such. Production and supply-chain shares are
// recomputed from a filled co2 total with the factor's own ratio. When a
// quantity has no fallback and the resolver requires completeness, the
// first such gap is returned as a *model.MissingValueError.
func (r *Resolver) Resolve(ctx context.Context, in *model.FactorTable) (*model.FactorTable, error) {
	out := in.Clone()
	filled := 0
	for i := range out.Factors {
		f := &out.Factors[i]
		if f.Sources == nil {
			f.Sources = make(map[model.Quantity]model.ValueSource, 3)
		}
		entry, has := r.table[f.Category]
		for _, q := range model.Quantities() {
			if f.Quantity(q).Present {
				continue
			}
			fb := entry.quantity(q)
			if !has || !fb.Present {
				if r.require {
					return nil, &model.MissingValueError{Category: f.Category, Quantity: q}
				}
				f.Sources[q] = model.SourceMissing
				r.logger.Warn(ctx, "quantity left missing",
					logger.String("category", string(f.Category)),
					logger.String("quantity", string(q)),
				)
				continue
			}
			set(f, q, fb)
			f.Sources[q] = model.SourceFallback
			filled++
			metrics.RecordFallbackFill(string(q))
			r.logger.Info(ctx, "quantity filled from fallback",
				logger.String("category", string(f.Category)),
				logger.String("quantity", string(q)),
				logger.Float64("value", fb.Value),
			)
			if q == model.QuantityCO2 {
				f.ProductionShare, f.SupplyChainShare = scope.Split(f.CO2Total, f.ProductionRatio)
			}
		}
	}
	r.logger.Info(ctx, "fallback resolution finished", logger.Int("filled", filled))
	return out, nil
}

func set(f *model.CalibratedFactor, q model.Quantity, m model.Measure) {
	switch q {
	case model.QuantityCO2:
		f.CO2Total = m
	case model.QuantityLand:
		f.Land = m
	case model.QuantityWater:
		f.Water = m
	}
}

// DefaultTable returns the curated model defaults used when the database
// has no usable records for a category.
func DefaultTable() Table {
	return Table{
		model.Beef:            NewEntry(28.0, 25.0, 15400),
		model.Pork:            NewEntry(5.0, 9.0, 6000),
		model.Lamb:            NewEntry(24.0, 20.0, 10400),
		model.Chicken:         NewEntry(3.5, 7.0, 4300),
		model.Cheese:          NewEntry(10.0, 12.0, 5000),
		model.Milk:            NewEntry(1.3, 1.5, 1000),
		model.Dairy:           NewEntry(1.3, 1.5, 1000),
		model.Fish:            NewEntry(3.5, 0.5, 2000),
		model.Eggs:            NewEntry(2.2, 2.5, 3300),
		model.Pulses:          NewEntry(0.9, 3.0, 4000),
		model.Nuts:            NewEntry(0.3, 2.5, 9000),
		model.MeatSubs:        NewEntry(2.5, 3.0, 200),
		model.Grains:          NewEntry(1.1, 1.8, 1600),
		model.Bread:           NewEntry(1.2, 1.6, 1500),
		model.Pasta:           NewEntry(1.1, 1.8, 1600),
		model.Rice:            NewEntry(2.5, 3.0, 2300),
		model.Vegetables:      NewEntry(0.6, 0.5, 320),
		model.Fruits:          NewEntry(0.7, 0.6, 960),
		model.Potatoes:        NewEntry(0.4, 0.3, 290),
		model.Sugar:           NewEntry(2.0, 1.5, 200),
		model.Processed:       NewEntry(2.5, 1.5, 300),
		model.Snacks:          NewEntry(4.0, 2.0, 400),
		model.ReadyMeals:      NewEntry(4.5, 2.2, 450),
		model.InstantNoodles:  NewEntry(3.5, 2.0, 400),
		model.InstantPasta:    NewEntry(2.5, 1.8, 350),
		model.Coffee:          NewEntry(2.8, 0.8, 140),
		model.Tea:             NewEntry(0.4, 0.2, 300),
		model.Alcohol:         NewEntry(1.2, 0.5, 500),
		model.Butter:          NewEntry(12.0, 8.0, 5000),
		model.AnimalFats:      NewEntry(14.0, 9.0, 6000),
		model.FryingOilAnimal: NewEntry(14.0, 9.0, 6000),
		model.Oils:            NewEntry(1.0, 1.0, 200),
		model.CondimentSauces: NewEntry(3.0, 1.5, 400),
		model.SpiceMixes:      NewEntry(2.0, 1.0, 250),
		model.Condiments:      NewEntry(0.8, 0.4, 100),
	}
}
