// Package config defines the pipeline configuration and its loading hooks.
//
// Conventions:
//   - New() returns a Config filled with the built-in defaults.
//   - Load layers a YAML file and FOODLCA_ environment variables on top.
//   - Validate turns the raw values into typed domain settings.
package config

import (
	"runtime"
	"sort"

	"github.com/okian/foodlca/internal/adapters/source"
	"github.com/okian/foodlca/internal/domain/calibrate"
	"github.com/okian/foodlca/internal/domain/diet"
	"github.com/okian/foodlca/internal/domain/fallback"
	"github.com/okian/foodlca/internal/domain/scope"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	Source      SourceConfig      `koanf:"source"`
	Mapping     MappingConfig     `koanf:"mapping"`
	Aggregation AggregationConfig `koanf:"aggregation"`
	Split       SplitConfig       `koanf:"split"`
	Fallback    FallbackConfig    `koanf:"fallback"`

	// Diets maps profile names to category grams per day. Entries here are
	// added to, or replace, the built-in profiles.
	Diets map[string]map[string]float64 `koanf:"diets"`

	Simulation  SimulationConfig  `koanf:"simulation"`
	Reference   ReferenceConfig   `koanf:"reference"`
	Calibration CalibrationConfig `koanf:"calibration"`
	Output      OutputConfig      `koanf:"output"`
}

// SourceConfig describes the raw LCA database file.
type SourceConfig struct {
	Path             string        `koanf:"path"`
	Delimiter        string        `koanf:"delimiter"`
	SkipRows         int           `koanf:"skip_rows"`
	MinColumns       int           `koanf:"min_columns"`
	FallbackEncoding string        `koanf:"fallback_encoding"`
	SkipMalformed    bool          `koanf:"skip_malformed"`
	Columns          ColumnsConfig `koanf:"columns"`
}

// ColumnsConfig holds zero-based column indexes; -1 marks an absent column.
type ColumnsConfig struct {
	Names    []int `koanf:"names"`
	Group    []int `koanf:"group"`
	NevoCode int   `koanf:"nevo_code"`
	Unit     int   `koanf:"unit"`
	CO2      int   `koanf:"co2"`
	Land     int   `koanf:"land"`
	Water    int   `koanf:"water"`
}

// MappingConfig tunes category matching.
type MappingConfig struct {
	FoldAccents bool `koanf:"fold_accents"`

	// Rules override built-in rules by category or add new ones.
	Rules []RuleConfig `koanf:"rules"`
}

// RuleConfig is one include/exclude rule.
type RuleConfig struct {
	Category string   `koanf:"category"`
	Include  []string `koanf:"include"`
	Exclude  []string `koanf:"exclude"`
}

// AggregationConfig selects the reduction statistic.
type AggregationConfig struct {
	// Method is median, mean or conservative.
	Method string `koanf:"method"`

	// Percentile is used by the conservative method, in (0, 1].
	Percentile float64 `koanf:"percentile"`

	// Workers bounds per-category fan-out.
	Workers int `koanf:"workers"`
}

// SplitConfig holds production (Scope 1+2) ratios.
type SplitConfig struct {
	DefaultRatio float64            `koanf:"default_ratio"`
	Ratios       map[string]float64 `koanf:"ratios"`
	Source       string             `koanf:"source"`
}

// FallbackConfig holds curated values for categories the database cannot serve.
type FallbackConfig struct {
	// Require fails the build when a quantity has neither data nor fallback.
	Require bool                      `koanf:"require"`
	Factors map[string]FallbackFactor `koanf:"factors"`
}

// FallbackFactor is one curated fallback row.
type FallbackFactor struct {
	CO2   float64 `koanf:"co2"`
	Land  float64 `koanf:"land_m2a"`
	Water float64 `koanf:"water_l"`
}

// SimulationConfig scales a diet profile to a population.
type SimulationConfig struct {
	Diet           string  `koanf:"diet"`
	Population     float64 `koanf:"population"`
	ProcessingLoss float64 `koanf:"processing_loss"`

	// Basis is production or lifecycle.
	Basis string `koanf:"basis"`
}

// ReferenceConfig is the authoritative total the simulation is calibrated to.
type ReferenceConfig struct {
	Target float64 `koanf:"target"`

	// Unit is kg, t or kt (CO2e per year).
	Unit   string        `koanf:"unit"`
	Groups []GroupConfig `koanf:"groups"`
}

// GroupConfig is one reference breakdown bucket.
type GroupConfig struct {
	Name       string   `koanf:"name"`
	SharePct   float64  `koanf:"share_pct"`
	Categories []string `koanf:"categories"`
}

// CalibrationConfig holds the session policy.
type CalibrationConfig struct {
	Mode               string  `koanf:"mode"`
	TolerancePct       float64 `koanf:"tolerance_pct"`
	ReviewThresholdPct float64 `koanf:"review_threshold_pct"`
	MaxIterations      int     `koanf:"max_iterations"`
	AllowLargeRescale  bool    `koanf:"allow_large_rescale"`
}

// OutputConfig names the files written by the pipeline. Empty paths are skipped.
type OutputConfig struct {
	FactorTable     string `koanf:"factor_table"`
	Report          string `koanf:"report"`
	SQLite          string `koanf:"sqlite"`
	MetricsTextfile string `koanf:"metrics_textfile"`
}

// New creates a Config with the built-in defaults.
func New() *Config {
	l := source.DefaultLayout()
	p := calibrate.DefaultPolicy()
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Source: SourceConfig{
			Delimiter:        ";",
			SkipRows:         2,
			MinColumns:       9,
			FallbackEncoding: "windows-1252",
			Columns: ColumnsConfig{
				Names:    l.Names,
				Group:    l.Group,
				NevoCode: l.NevoCode,
				Unit:     l.Unit,
				CO2:      l.CO2,
				Land:     l.Land,
				Water:    l.Water,
			},
		},
		Mapping: MappingConfig{FoldAccents: true},
		Aggregation: AggregationConfig{
			Method:     "median",
			Percentile: 0.75,
			Workers:    runtime.NumCPU(),
		},
		Split: SplitConfig{
			DefaultRatio: scope.DefaultRatio,
			Ratios:       defaultRatios(),
			Source:       "built-in",
		},
		Fallback: FallbackConfig{
			Require: true,
			Factors: defaultFallbacks(),
		},
		Diets: defaultDiets(),
		Simulation: SimulationConfig{
			Diet:           diet.ProfileMonitor2024,
			Population:     882_000,
			ProcessingLoss: 1.15,
			Basis:          string(diet.BasisProduction),
		},
		Reference: ReferenceConfig{
			Target: 1750,
			Unit:   "kt",
			Groups: defaultGroups(),
		},
		Calibration: CalibrationConfig{
			Mode:               string(p.Mode),
			TolerancePct:       p.TolerancePct,
			ReviewThresholdPct: p.ReviewThresholdPct,
			MaxIterations:      p.MaxIterations,
			AllowLargeRescale:  p.AllowLargeRescale,
		},
		Output: OutputConfig{
			FactorTable: "out/factors.csv",
			Report:      "out/calibration.csv",
		},
	}
}

func defaultRatios() map[string]float64 {
	out := make(map[string]float64)
	for c, r := range scope.DefaultRatios() {
		out[string(c)] = r
	}
	return out
}

func defaultFallbacks() map[string]FallbackFactor {
	out := make(map[string]FallbackFactor)
	for c, e := range fallback.DefaultTable() {
		out[string(c)] = FallbackFactor{CO2: e.CO2.Value, Land: e.Land.Value, Water: e.Water.Value}
	}
	return out
}

func defaultDiets() map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for name, p := range diet.DefaultProfiles() {
		g := make(map[string]float64, len(p.Grams))
		for c, v := range p.Grams {
			g[string(c)] = v
		}
		out[name] = g
	}
	return out
}

func defaultGroups() []GroupConfig {
	groups := calibrate.MonitorGroups()
	out := make([]GroupConfig, 0, len(groups))
	for _, g := range groups {
		gc := GroupConfig{Name: g.Name, SharePct: g.SharePct}
		for _, c := range g.Categories {
			gc.Categories = append(gc.Categories, string(c))
		}
		out = append(out, gc)
	}
	return out
}

// sortedKeys orders map keys so that canonical spellings ("Beef") are seen
// before user spellings ("beef") and the latter override.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
