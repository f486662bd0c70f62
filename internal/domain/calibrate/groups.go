package calibrate

import (
	"fmt"
	"strings"

	"github.com/okian/foodlca/internal/domain/diet"
	"github.com/okian/foodlca/internal/domain/model"
)

// Group is a reference breakdown bucket. Its target is SharePct percent of
// the overall target. Groups may overlap.
type Group struct {
	Name       string
	Categories []model.Category
	SharePct   float64
}

// ValidateGroups rejects unnamed groups, unknown categories and shares
// outside (0, 100].
func ValidateGroups(groups []Group) error {
	seen := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			return fmt.Errorf("reference group with empty name")
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("duplicate reference group %q", name)
		}
		seen[name] = struct{}{}
		if g.SharePct <= 0 || g.SharePct > 100 {
			return &model.RangeError{Field: "share_pct of " + name, Value: g.SharePct, Want: "in (0, 100]"}
		}
		if len(g.Categories) == 0 {
			return fmt.Errorf("reference group %q has no categories", name)
		}
		for _, c := range g.Categories {
			if !c.Valid() {
				return fmt.Errorf("reference group %q: %w: %q", name, model.ErrUnknownCategory, c)
			}
		}
	}
	return nil
}

// GroupComparison is a simulated group total next to its reference.
type GroupComparison struct {
	Name       string
	Simulated  float64
	Target     float64
	ErrorPct   float64
	Adjustment float64
}

// CompareGroups sums simulated emissions on basis b per group and compares
// each with its share of target. Groups whose simulated total is zero get an
// error of -100% and an adjustment of 0.
func CompareGroups(res diet.Result, b diet.Basis, target float64, groups []Group) []GroupComparison {
	out := make([]GroupComparison, 0, len(groups))
	for _, g := range groups {
		gc := GroupComparison{Name: g.Name, Target: target * g.SharePct / 100}
		for _, c := range g.Categories {
			if l, ok := res.Line(c); ok {
				gc.Simulated += l.Emission(b)
			}
		}
		if gc.Target > 0 {
			gc.ErrorPct = (gc.Simulated - gc.Target) / gc.Target * 100
		}
		if gc.Simulated > 0 {
			gc.Adjustment = gc.Target / gc.Simulated
		}
		out = append(out, gc)
	}
	return out
}

// CategoryShare is one category's contribution to a simulated total.
type CategoryShare struct {
	Category  model.Category
	Simulated float64
	SharePct  float64
}

// Report collects everything written to the calibration report.
type Report struct {
	Basis      diet.Basis
	Total      Result
	Categories []CategoryShare
	Groups     []GroupComparison
}

// BuildReport assembles a report from one simulation and its evaluation.
func BuildReport(res diet.Result, b diet.Basis, eval Result, groups []Group) Report {
	r := Report{Basis: b, Total: eval}
	total := res.Total(b)
	for _, l := range res.Lines {
		cs := CategoryShare{Category: l.Category, Simulated: l.Emission(b)}
		if total > 0 {
			cs.SharePct = cs.Simulated / total * 100
		}
		r.Categories = append(r.Categories, cs)
	}
	if len(groups) > 0 {
		r.Groups = CompareGroups(res, b, eval.Target, groups)
	}
	return r
}

// MonitorGroups returns the 2024 national food monitor breakdown used as a
// reference for the group comparison.
func MonitorGroups() []Group {
	return []Group{
		{Name: "Meat", SharePct: 25, Categories: []model.Category{model.Beef, model.Pork, model.Chicken, model.Lamb, model.Fish}},
		{Name: "Non-alcoholic beverages", SharePct: 11, Categories: []model.Category{model.Coffee, model.Tea, model.Sugar}},
		{Name: "Fruit", SharePct: 6, Categories: []model.Category{model.Fruits}},
		{Name: "Alcohol", SharePct: 6, Categories: []model.Category{model.Alcohol}},
		{Name: "Vegetables", SharePct: 6, Categories: []model.Category{model.Vegetables, model.Potatoes}},
		{Name: "Fast food", SharePct: 5, Categories: []model.Category{model.Processed, model.ReadyMeals, model.Snacks}},
		{Name: "Fish", SharePct: 5, Categories: []model.Category{model.Fish}},
		{Name: "Cheese", SharePct: 5, Categories: []model.Category{model.Cheese, model.Dairy, model.Butter}},
		{Name: "Dairy", SharePct: 5, Categories: []model.Category{model.Milk, model.Dairy}},
		{Name: "Plant-based alternatives", SharePct: 3, Categories: []model.Category{model.MeatSubs, model.Pulses, model.Nuts}},
		{Name: "Nuts & Seeds", SharePct: 1, Categories: []model.Category{model.Nuts, model.Pulses}},
		{Name: "Grains", SharePct: 1, Categories: []model.Category{model.Grains, model.Bread, model.Pasta, model.Rice}},
	}
}
