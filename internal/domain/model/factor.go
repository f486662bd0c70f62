package model

import (
	"fmt"
	"sort"
	"strings"
)

// Method selects the statistic used to reduce a match set.
type Method string

// Aggregation methods.
const (
	MethodMedian       Method = "median"
	MethodMean         Method = "mean"
	MethodConservative Method = "conservative"
)

// ParseMethod validates an aggregation method name.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case MethodMedian, MethodMean, MethodConservative:
		return m, nil
	case "":
		return MethodMedian, nil
	}
	return "", fmt.Errorf("unknown aggregation method %q", s)
}

// ValueSource records where a factor quantity came from.
type ValueSource string

// Value sources.
const (
	SourceAggregated ValueSource = "aggregated"
	SourceFallback   ValueSource = "fallback"
	SourceMissing    ValueSource = "missing"
)

// AggregatedFactor is the per-category reduction of a match set.
type AggregatedFactor struct {
	Category Category
	CO2Total Measure // kgCO2e/kg
	Land     Measure // m2a/kg
	Water    Measure // L/kg

	Method     Method
	Percentile float64 // only meaningful for MethodConservative

	// Records is the deduplicated match set size; Contributors counts the
	// non-missing values per quantity.
	Records      int
	Contributors map[Quantity]int
}

// Quantity returns the measure for q.
func (a AggregatedFactor) Quantity(q Quantity) Measure {
	switch q {
	case QuantityCO2:
		return a.CO2Total
	case QuantityLand:
		return a.Land
	case QuantityWater:
		return a.Water
	}
	return Measure{}
}

// CalibratedFactor adds the production / supply-chain split to an aggregate.
// ProductionShare + SupplyChainShare equals CO2Total whenever CO2Total is present.
type CalibratedFactor struct {
	AggregatedFactor

	ProductionRatio  float64
	ProductionShare  Measure // kgCO2e/kg
	SupplyChainShare Measure // kgCO2e/kg

	Sources map[Quantity]ValueSource
}

// Source returns the provenance of quantity q.
func (f CalibratedFactor) Source(q Quantity) ValueSource {
	if s, ok := f.Sources[q]; ok {
		return s
	}
	if f.Quantity(q).Present {
		return SourceAggregated
	}
	return SourceMissing
}

// Clone returns a deep copy.
func (f CalibratedFactor) Clone() CalibratedFactor {
	out := f
	if f.Contributors != nil {
		out.Contributors = make(map[Quantity]int, len(f.Contributors))
		for k, v := range f.Contributors {
			out.Contributors[k] = v
		}
	}
	if f.Sources != nil {
		out.Sources = make(map[Quantity]ValueSource, len(f.Sources))
		for k, v := range f.Sources {
			out.Sources[k] = v
		}
	}
	return out
}

// CalibrationState is the lifecycle position of a factor table.
type CalibrationState string

// Calibration states.
const (
	StateUncalibrated       CalibrationState = "uncalibrated"
	StateEvaluated          CalibrationState = "evaluated"
	StateAdjustmentProposed CalibrationState = "adjustment_proposed"
	StateAccepted           CalibrationState = "accepted"
	StateReviewRequired     CalibrationState = "review_required"
	StateNotConverged       CalibrationState = "not_converged"
)

// Provenance describes how a factor table was produced.
type Provenance struct {
	RunID           string           `json:"run_id"`
	Method          Method           `json:"method"`
	Percentile      float64          `json:"percentile,omitempty"`
	RatioSource     string           `json:"ratio_source"`
	DefaultRatio    float64          `json:"default_ratio"`
	DatabaseRecords int              `json:"database_records"`
	Iterations      int              `json:"calibration_iterations"`
	FinalErrorPct   float64          `json:"final_error_pct"`
	State           CalibrationState `json:"state"`
	CalibrationMode string           `json:"calibration_mode,omitempty"`
	Adjustment      float64          `json:"cumulative_adjustment"`
}

// FactorTable is the ordered set of calibrated factors plus provenance.
type FactorTable struct {
	Factors    []CalibratedFactor
	Provenance Provenance
}

// NewFactorTable builds a table sorted in canonical category order.
func NewFactorTable(factors []CalibratedFactor, prov Provenance) *FactorTable {
	t := &FactorTable{Factors: make([]CalibratedFactor, len(factors)), Provenance: prov}
	copy(t.Factors, factors)
	t.sort()
	return t
}

func (t *FactorTable) sort() {
	sort.SliceStable(t.Factors, func(i, j int) bool {
		return t.Factors[i].Category.Order() < t.Factors[j].Category.Order()
	})
}

// Get returns the factor for c.
func (t *FactorTable) Get(c Category) (CalibratedFactor, bool) {
	for _, f := range t.Factors {
		if f.Category == c {
			return f, true
		}
	}
	return CalibratedFactor{}, false
}

// Set replaces or inserts the factor for f.Category.
func (t *FactorTable) Set(f CalibratedFactor) {
	for i := range t.Factors {
		if t.Factors[i].Category == f.Category {
			t.Factors[i] = f
			return
		}
	}
	t.Factors = append(t.Factors, f)
	t.sort()
}

// Len returns the number of categories in the table.
func (t *FactorTable) Len() int { return len(t.Factors) }

// Clone returns a deep copy safe to mutate independently.
func (t *FactorTable) Clone() *FactorTable {
	if t == nil {
		return nil
	}
	out := &FactorTable{Factors: make([]CalibratedFactor, len(t.Factors)), Provenance: t.Provenance}
	for i, f := range t.Factors {
		out.Factors[i] = f.Clone()
	}
	return out
}
