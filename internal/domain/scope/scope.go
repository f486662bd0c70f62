// Package scope splits total emission factors into production (Scope 1+2)
// and supply-chain shares.
package scope

import (
	"math"
	"sort"

	"github.com/okian/foodlca/internal/domain/model"
)

// DefaultRatio applies to categories without an explicit entry.
const DefaultRatio = 0.40

// RatioTable maps categories to production ratios in [0, 1].
type RatioTable struct {
	ratios map[model.Category]float64
	def    float64
	source string
}

// NewRatioTable validates every ratio; values outside [0, 1] are rejected,
// never clamped.
func NewRatioTable(ratios map[model.Category]float64, def float64, source string) (*RatioTable, error) {
	if err := checkRatio("default_ratio", "", def); err != nil {
		return nil, err
	}
	t := &RatioTable{ratios: make(map[model.Category]float64, len(ratios)), def: def, source: source}
	keys := make([]model.Category, 0, len(ratios))
	for c := range ratios {
		keys = append(keys, c)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, c := range keys {
		if !c.Valid() {
			return nil, &model.RangeError{Field: "ratio", Category: c, Value: ratios[c], Want: "a known category"}
		}
		if err := checkRatio("ratio", c, ratios[c]); err != nil {
			return nil, err
		}
		t.ratios[c] = ratios[c]
	}
	return t, nil
}

func checkRatio(field string, c model.Category, r float64) error {
	if r < 0 || r > 1 || math.IsNaN(r) {
		return &model.RangeError{Field: field, Category: c, Value: r, Want: "in [0, 1]"}
	}
	return nil
}

// Ratio returns the ratio for c, or the default when c has no entry.
func (t *RatioTable) Ratio(c model.Category) float64 {
	if r, ok := t.ratios[c]; ok {
		return r
	}
	return t.def
}

// Explicit reports whether c has its own entry.
func (t *RatioTable) Explicit(c model.Category) bool {
	_, ok := t.ratios[c]
	return ok
}

// Default returns the default ratio.
func (t *RatioTable) Default() float64 { return t.def }

// Source names where the table came from.
func (t *RatioTable) Source() string { return t.source }

// Split returns co2Total*r and co2Total*(1-r). A missing total gives missing
// shares.
func Split(co2Total model.Measure, r float64) (production, supply model.Measure) {
	if !co2Total.Present {
		return model.Missing(model.UnitKgCO2ePerKg), model.Missing(model.UnitKgCO2ePerKg)
	}
	p := co2Total.Value * r
	return model.Known(p, model.UnitKgCO2ePerKg), model.Known(co2Total.Value-p, model.UnitKgCO2ePerKg)
}

// Apply builds the calibrated factor for agg using its category's ratio.
func Apply(agg model.AggregatedFactor, t *RatioTable) model.CalibratedFactor {
	r := t.Ratio(agg.Category)
	prod, supply := Split(agg.CO2Total, r)
	f := model.CalibratedFactor{
		AggregatedFactor: agg,
		ProductionRatio:  r,
		ProductionShare:  prod,
		SupplyChainShare: supply,
		Sources:          make(map[model.Quantity]model.ValueSource, 3),
	}
	for _, q := range model.Quantities() {
		if agg.Quantity(q).Present {
			f.Sources[q] = model.SourceAggregated
		} else {
			f.Sources[q] = model.SourceMissing
		}
	}
	return f
}

// ApplyAll splits every aggregate, preserving order.
func ApplyAll(aggs []model.AggregatedFactor, t *RatioTable) []model.CalibratedFactor {
	out := make([]model.CalibratedFactor, len(aggs))
	for i, a := range aggs {
		out[i] = Apply(a, t)
	}
	return out
}

// DefaultRatios returns the per-category Scope 1+2 ratios used for the
// Monitor Voedsel Amsterdam calibration.
func DefaultRatios() map[model.Category]float64 {
	return map[model.Category]float64{
		model.Alcohol:         0.40,
		model.AnimalFats:      0.55,
		model.Beef:            0.60,
		model.Bread:           0.40,
		model.Butter:          0.55,
		model.Cheese:          0.55,
		model.Chicken:         0.45,
		model.Coffee:          0.60,
		model.CondimentSauces: 0.40,
		model.Condiments:      0.35,
		model.Dairy:           0.50,
		model.Eggs:            0.45,
		model.Fish:            0.50,
		model.Fruits:          0.25,
		model.FryingOilAnimal: 0.55,
		model.Grains:          0.35,
		model.InstantNoodles:  0.45,
		model.InstantPasta:    0.40,
		model.Lamb:            0.60,
		model.MeatSubs:        0.35,
		model.Milk:            0.50,
		model.Nuts:            0.20,
		model.Oils:            0.30,
		model.Pasta:           0.35,
		model.Pork:            0.55,
		model.Potatoes:        0.30,
		model.Processed:       0.45,
		model.Pulses:          0.30,
		model.ReadyMeals:      0.50,
		model.Rice:            0.30,
		model.Snacks:          0.45,
		model.SpiceMixes:      0.25,
		model.Sugar:           0.35,
		model.Tea:             0.50,
		model.Vegetables:      0.28,
	}
}
