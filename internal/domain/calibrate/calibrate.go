// Package calibrate compares simulated totals with a reference target and
// rescales factor tables until they agree.
package calibrate

import (
	"math"

	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/scope"
)

// Result is one evaluation of a simulated total against the target.
type Result struct {
	Iteration  int
	Simulated  float64
	Target     float64
	ErrorPct   float64
	Adjustment float64
	Tier       Tier
}

// Evaluate computes the signed error and the multiplicative adjustment that
// would bring simulated onto target. The adjustment is 1 inside tolerance.
func Evaluate(simulated, target float64, p Policy) (Result, error) {
	if target <= 0 || math.IsNaN(target) {
		return Result{}, &model.RangeError{Field: "target", Value: target, Want: "> 0"}
	}
	if simulated <= 0 || math.IsNaN(simulated) {
		return Result{}, &model.RangeError{Field: "simulated", Value: simulated, Want: "> 0"}
	}
	r := Result{
		Simulated:  simulated,
		Target:     target,
		ErrorPct:   (simulated - target) / target * 100,
		Adjustment: 1,
	}
	r.Tier = p.tier(r.ErrorPct)
	if r.Tier != TierWithin {
		r.Adjustment = target / simulated
	}
	return r, nil
}

func checkAdjustment(adj float64) error {
	if adj <= 0 || math.IsNaN(adj) || math.IsInf(adj, 0) {
		return &model.RangeError{Field: "adjustment", Value: adj, Want: "> 0"}
	}
	return nil
}

// ScaleTable returns a copy of t with co2_total, production share and
// supply-chain share all multiplied by adj. Ratios are unchanged.
func ScaleTable(t *model.FactorTable, adj float64) (*model.FactorTable, error) {
	if err := checkAdjustment(adj); err != nil {
		return nil, err
	}
	out := t.Clone()
	for i := range out.Factors {
		f := &out.Factors[i]
		f.CO2Total = f.CO2Total.Scale(adj)
		f.ProductionShare = f.ProductionShare.Scale(adj)
		f.SupplyChainShare = f.SupplyChainShare.Scale(adj)
	}
	return out, nil
}

// ScaleProductionShare returns a copy of t with only the production share
// multiplied by adj; co2_total is held fixed and the supply-chain share
// absorbs the difference. It fails with a RangeError when a category's
// effective ratio would leave [0, 1].
func ScaleProductionShare(t *model.FactorTable, adj float64) (*model.FactorTable, error) {
	if err := checkAdjustment(adj); err != nil {
		return nil, err
	}
	out := t.Clone()
	for i := range out.Factors {
		f := &out.Factors[i]
		if !f.CO2Total.Present || !f.ProductionShare.Present {
			continue
		}
		ratio := f.ProductionRatio * adj
		if ratio > 1 || ratio < 0 {
			return nil, &model.RangeError{Field: "production_ratio", Category: f.Category, Value: ratio, Want: "in [0, 1] after rescale"}
		}
		f.ProductionRatio = ratio
		f.ProductionShare, f.SupplyChainShare = scope.Split(f.CO2Total, ratio)
	}
	return out, nil
}

// RecomputeSplit returns a copy of t with shares derived from ratios.
func RecomputeSplit(t *model.FactorTable, ratios *scope.RatioTable) *model.FactorTable {
	out := t.Clone()
	for i := range out.Factors {
		f := &out.Factors[i]
		f.ProductionRatio = ratios.Ratio(f.Category)
		f.ProductionShare, f.SupplyChainShare = scope.Split(f.CO2Total, f.ProductionRatio)
	}
	out.Provenance.RatioSource = ratios.Source()
	out.Provenance.DefaultRatio = ratios.Default()
	return out
}

func (p Policy) apply(t *model.FactorTable, adj float64) (*model.FactorTable, error) {
	if p.Mode == ModeProductionShare {
		return ScaleProductionShare(t, adj)
	}
	return ScaleTable(t, adj)
}
