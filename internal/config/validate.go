package config

import (
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/okian/foodlca/internal/adapters/source"
	"github.com/okian/foodlca/internal/domain/calibrate"
	"github.com/okian/foodlca/internal/domain/diet"
	"github.com/okian/foodlca/internal/domain/fallback"
	"github.com/okian/foodlca/internal/domain/mapping"
	"github.com/okian/foodlca/internal/domain/model"
	"github.com/okian/foodlca/internal/domain/scope"
	"github.com/okian/foodlca/internal/domain/units"
	"github.com/okian/foodlca/pkg/logger"
)

// Settings are the validated, typed values the pipeline runs with.
type Settings struct {
	LogLevel  slog.Level
	LogFormat logger.Format

	SourcePath    string
	Delimiter     rune
	SkipRows      int
	MinColumns    int
	Fallback      encoding.Encoding
	SkipMalformed bool
	Layout        source.Layout

	Rules       []mapping.Rule
	FoldAccents bool

	Method     model.Method
	Percentile float64
	Workers    int

	Ratios *scope.RatioTable

	Fallbacks       fallback.Table
	RequireFallback bool

	Profiles map[string]model.DietProfile
	Diet     model.DietProfile
	Params   diet.Params
	Basis    diet.Basis

	// TargetKg is the reference total in kgCO2e per year.
	TargetKg float64
	Groups   []calibrate.Group
	Policy   calibrate.Policy

	Output OutputConfig
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks every section and converts it to domain values. Errors
// match ErrInvalidConfig and, where applicable, model.ErrRange or
// model.ErrUnknownCategory.
func (c *Config) Validate() (*Settings, error) {
	s := &Settings{Output: c.Output}

	if err := s.LogLevel.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, invalidf("log_level %q", c.LogLevel)
	}
	f, err := logger.ParseFormat(c.LogFormat)
	if err != nil {
		return nil, invalid(err)
	}
	s.LogFormat = f

	if err := c.validateSource(s); err != nil {
		return nil, err
	}
	if err := c.validateMapping(s); err != nil {
		return nil, err
	}
	if err := c.validateAggregation(s); err != nil {
		return nil, err
	}
	if err := c.validateSplit(s); err != nil {
		return nil, err
	}
	if err := c.validateFallback(s); err != nil {
		return nil, err
	}
	if err := c.validateSimulation(s); err != nil {
		return nil, err
	}
	if err := c.validateReference(s); err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Config) validateSource(s *Settings) error {
	src := c.Source
	s.SourcePath = src.Path
	if utf8.RuneCountInString(src.Delimiter) != 1 {
		return invalidf("source.delimiter must be a single character, got %q", src.Delimiter)
	}
	s.Delimiter, _ = utf8.DecodeRuneInString(src.Delimiter)
	if src.SkipRows < 0 {
		return invalid(&model.RangeError{Field: "source.skip_rows", Value: float64(src.SkipRows), Want: ">= 0"})
	}
	if src.MinColumns < 1 {
		return invalid(&model.RangeError{Field: "source.min_columns", Value: float64(src.MinColumns), Want: ">= 1"})
	}
	s.SkipRows, s.MinColumns, s.SkipMalformed = src.SkipRows, src.MinColumns, src.SkipMalformed

	enc, err := source.EncodingByName(src.FallbackEncoding)
	if err != nil {
		return invalid(err)
	}
	s.Fallback = enc

	col := src.Columns
	if len(col.Names) == 0 {
		return invalidf("source.columns.names must list at least one column")
	}
	if col.CO2 < 0 {
		return invalidf("source.columns.co2 is required")
	}
	s.Layout = source.Layout{
		Names:    col.Names,
		Group:    col.Group,
		NevoCode: col.NevoCode,
		Unit:     col.Unit,
		CO2:      col.CO2,
		Land:     col.Land,
		Water:    col.Water,
	}
	return nil
}

func (c *Config) validateMapping(s *Settings) error {
	overrides := make([]mapping.Rule, 0, len(c.Mapping.Rules))
	for _, r := range c.Mapping.Rules {
		cat, err := model.ParseCategory(r.Category)
		if err != nil {
			return invalid(fmt.Errorf("mapping.rules: %w", err))
		}
		overrides = append(overrides, mapping.Rule{Category: cat, Include: r.Include, Exclude: r.Exclude})
	}
	s.Rules = mapping.MergeRules(mapping.DefaultRules(), overrides)
	if err := mapping.ValidateRules(s.Rules); err != nil {
		return invalid(err)
	}
	s.FoldAccents = c.Mapping.FoldAccents
	return nil
}

func (c *Config) validateAggregation(s *Settings) error {
	m, err := model.ParseMethod(c.Aggregation.Method)
	if err != nil {
		return invalid(err)
	}
	s.Method = m
	p := c.Aggregation.Percentile
	if p <= 0 || p > 1 {
		return invalid(&model.RangeError{Field: "aggregation.percentile", Value: p, Want: "in (0, 1]"})
	}
	s.Percentile = p
	if c.Aggregation.Workers < 1 {
		return invalid(&model.RangeError{Field: "aggregation.workers", Value: float64(c.Aggregation.Workers), Want: ">= 1"})
	}
	s.Workers = c.Aggregation.Workers
	return nil
}

func (c *Config) validateSplit(s *Settings) error {
	ratios := make(map[model.Category]float64, len(c.Split.Ratios))
	for _, k := range sortedKeys(c.Split.Ratios) {
		cat, err := model.ParseCategory(k)
		if err != nil {
			return invalid(fmt.Errorf("split.ratios: %w", err))
		}
		ratios[cat] = c.Split.Ratios[k]
	}
	t, err := scope.NewRatioTable(ratios, c.Split.DefaultRatio, c.Split.Source)
	if err != nil {
		return invalid(err)
	}
	s.Ratios = t
	return nil
}

func (c *Config) validateFallback(s *Settings) error {
	s.RequireFallback = c.Fallback.Require
	s.Fallbacks = make(fallback.Table, len(c.Fallback.Factors))
	for _, k := range sortedKeys(c.Fallback.Factors) {
		cat, err := model.ParseCategory(k)
		if err != nil {
			return invalid(fmt.Errorf("fallback.factors: %w", err))
		}
		v := c.Fallback.Factors[k]
		for field, x := range map[string]float64{"co2": v.CO2, "land_m2a": v.Land, "water_l": v.Water} {
			if x < 0 {
				return invalid(&model.RangeError{Field: "fallback." + field, Category: cat, Value: x, Want: ">= 0"})
			}
		}
		s.Fallbacks[cat] = fallback.NewEntry(v.CO2, v.Land, v.Water)
	}
	return nil
}

func (c *Config) validateSimulation(s *Settings) error {
	s.Profiles = make(map[string]model.DietProfile, len(c.Diets))
	for _, name := range sortedKeys(c.Diets) {
		p := model.DietProfile{Name: name, Grams: make(map[model.Category]float64)}
		grams := c.Diets[name]
		for _, k := range sortedKeys(grams) {
			cat, err := model.ParseCategory(k)
			if err != nil {
				return invalid(fmt.Errorf("diets.%s: %w", name, err))
			}
			if grams[k] < 0 {
				return invalid(&model.RangeError{Field: "diets." + name, Category: cat, Value: grams[k], Want: ">= 0"})
			}
			p.Grams[cat] = grams[k]
		}
		s.Profiles[name] = p
	}

	sim := c.Simulation
	p, ok := s.Profiles[sim.Diet]
	if !ok {
		return invalidf("simulation.diet %q is not a known profile (have %s)", sim.Diet, strings.Join(sortedKeys(c.Diets), ", "))
	}
	s.Diet = p
	s.Params = diet.Params{Population: sim.Population, ProcessingLoss: sim.ProcessingLoss}
	if err := s.Params.Validate(); err != nil {
		return invalid(err)
	}
	b, err := diet.ParseBasis(sim.Basis)
	if err != nil {
		return invalid(err)
	}
	s.Basis = b
	return nil
}

func (c *Config) validateReference(s *Settings) error {
	ref := c.Reference
	u, err := units.ParseEmissionUnit(ref.Unit)
	if err != nil {
		return invalid(err)
	}
	if ref.Target <= 0 {
		return invalid(&model.RangeError{Field: "reference.target", Value: ref.Target, Want: "> 0"})
	}
	if s.TargetKg, err = units.EmissionToKg(ref.Target, u); err != nil {
		return invalid(err)
	}

	for _, g := range ref.Groups {
		grp := calibrate.Group{Name: g.Name, SharePct: g.SharePct}
		for _, name := range g.Categories {
			cat, err := model.ParseCategory(name)
			if err != nil {
				return invalid(fmt.Errorf("reference.groups.%s: %w", g.Name, err))
			}
			grp.Categories = append(grp.Categories, cat)
		}
		s.Groups = append(s.Groups, grp)
	}
	if err := calibrate.ValidateGroups(s.Groups); err != nil {
		return invalid(err)
	}

	cal := c.Calibration
	mode, err := calibrate.ParseMode(cal.Mode)
	if err != nil {
		return invalid(err)
	}
	s.Policy = calibrate.Policy{
		TolerancePct:       cal.TolerancePct,
		ReviewThresholdPct: cal.ReviewThresholdPct,
		MaxIterations:      cal.MaxIterations,
		AllowLargeRescale:  cal.AllowLargeRescale,
		Mode:               mode,
	}
	if err := s.Policy.Validate(); err != nil {
		return invalid(err)
	}
	return nil
}
