// Package diet simulates the annual impact of a population eating a diet.
package diet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/units"
	"github.com/okian/foodlca/pkg/logger"
	"github.com/okian/foodlca/pkg/metrics"
)

// Params scale a per-capita diet to a population.
type Params struct {
	// Population is the number of people eating the diet.
	Population float64

	// ProcessingLoss multiplies eaten mass to account for farm-to-table
	// losses, typically 1.0 to 1.15.
	ProcessingLoss float64
}

// Validate rejects non-positive values.
func (p Params) Validate() error {
	if p.Population <= 0 {
		return &model.RangeError{Field: "population", Value: p.Population, Want: "> 0"}
	}
	if p.ProcessingLoss <= 0 {
		return &model.RangeError{Field: "processing_loss", Value: p.ProcessingLoss, Want: "> 0"}
	}
	return nil
}

// Basis selects which emission total a caller compares.
type Basis string

// Emission bases.
const (
	BasisProduction Basis = "production"
	BasisLifecycle  Basis = "lifecycle"
)

// ParseBasis validates a basis name; empty means production.
func ParseBasis(s string) (Basis, error) {
	switch b := Basis(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BasisProduction, nil
	case BasisProduction, BasisLifecycle:
		return b, nil
	}
	return "", fmt.Errorf("unknown emission basis %q", s)
}

// Line is the contribution of one category. Emissions are kgCO2e per year
// for the whole population.
type Line struct {
	Category          model.Category
	GramsPerDay       float64
	AnnualKgPerCapita float64
	Production        float64
	Lifecycle         float64
	Land              model.Measure // m2a
	Water             model.Measure // L
}

// Emission returns the line's total on basis b.
func (l Line) Emission(b Basis) float64 {
	if b == BasisLifecycle {
		return l.Lifecycle
	}
	return l.Production
}

// Skip records a diet category that contributed nothing.
type Skip struct {
	Category model.Category
	Reason   string
}

// Result is one simulation pass.
type Result struct {
	Profile string
	Params  Params
	Lines   []Line

	Production float64 // kgCO2e/yr, production share basis
	Lifecycle  float64 // kgCO2e/yr, co2_total basis
	Land       float64 // m2a/yr over lines with land
	Water      float64 // L/yr over lines with water

	Skipped []Skip
}

// Total returns the emission total on basis b.
func (r Result) Total(b Basis) float64 {
	if b == BasisLifecycle {
		return r.Lifecycle
	}
	return r.Production
}

// Line returns the line for c.
func (r Result) Line(c model.Category) (Line, bool) {
	for _, l := range r.Lines {
		if l.Category == c {
			return l, true
		}
	}
	return Line{}, false
}

// Simulate applies table to profile for params. Categories are visited in
// canonical order; a diet category with no factor or no co2 total is
// skipped, recorded in the result and logged.
func Simulate(ctx context.Context, table *model.FactorTable, profile model.DietProfile, params Params, opts ...Option) (Result, error) {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("diet")
	}
	if table == nil {
		return Result{}, &model.FormatError{Message: "nil factor table"}
	}
	if err := params.Validate(); err != nil {
		return Result{}, err
	}
	start := time.Now()

	res := Result{Profile: profile.Name, Params: params}
	for _, c := range model.AllCategories() {
		grams, ok := profile.Grams[c]
		if !ok {
			continue
		}
		if grams < 0 {
			return Result{}, &model.RangeError{Field: "grams_per_day", Category: c, Value: grams, Want: ">= 0"}
		}
		f, ok := table.Get(c)
		if !ok {
			res.skip(ctx, s.logger, c, "category not in factor table")
			continue
		}
		if !f.CO2Total.Present || !f.ProductionShare.Present {
			res.skip(ctx, s.logger, c, "co2 factor missing")
			continue
		}

		kg := units.GramsPerDayToKgPerYear(grams) * params.ProcessingLoss
		mass := kg * params.Population
		l := Line{
			Category:          c,
			GramsPerDay:       grams,
			AnnualKgPerCapita: kg,
			Production:        mass * f.ProductionShare.Value,
			Lifecycle:         mass * f.CO2Total.Value,
			Land:              model.Missing(model.UnitM2a),
			Water:             model.Missing(model.UnitLiter),
		}
		if v, ok := f.Land.Get(); ok {
			l.Land = model.Known(mass*v, model.UnitM2a)
			res.Land += l.Land.Value
		}
		if v, ok := f.Water.Get(); ok {
			l.Water = model.Known(mass*v, model.UnitLiter)
			res.Water += l.Water.Value
		}
		res.Production += l.Production
		res.Lifecycle += l.Lifecycle
		res.Lines = append(res.Lines, l)
	}

	metrics.UpdateSimulatedTotal("production_kgco2e", res.Production)
	metrics.UpdateSimulatedTotal("lifecycle_kgco2e", res.Lifecycle)
	metrics.UpdateSimulatedTotal("land_m2a", res.Land)
	metrics.UpdateSimulatedTotal("water_l", res.Water)
	metrics.RecordStageDuration("simulate", float64(time.Since(start).Milliseconds()))
	s.logger.Debug(ctx, "diet simulated",
		logger.String("profile", profile.Name),
		logger.Float64("production_kt", units.KgToKilotonnes(res.Production)),
		logger.Float64("lifecycle_kt", units.KgToKilotonnes(res.Lifecycle)),
		logger.Int("categories", len(res.Lines)),
		logger.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

func (r *Result) skip(ctx context.Context, log logger.Logger, c model.Category, reason string) {
	r.Skipped = append(r.Skipped, Skip{Category: c, Reason: reason})
	metrics.RecordSkippedCategory()
	log.Warn(ctx, "diet category skipped",
		logger.String("profile", r.Profile),
		logger.String("category", string(c)),
		logger.String("reason", reason),
	)
}
