package model

import "strings"

// RawRecord is one parsed product row of the LCA database.
type RawRecord struct {
	Row      int      // 1-based source line
	Names    []string // product name fields in source order; entries may be empty
	Group    string   // product group label
	NevoCode string   // food composition code, if any
	UnitTag  string   // source unit-of-measure column

	CO2   Measure // kgCO2e/kg
	Land  Measure // m2a/kg
	Water Measure // m3/kg as read
}

// PrimaryName returns the first non-empty name field.
func (r RawRecord) PrimaryName() string {
	for _, n := range r.Names {
		if s := strings.TrimSpace(n); s != "" {
			return s
		}
	}
	return ""
}

// Quantity returns the measure for q.
func (r RawRecord) Quantity(q Quantity) Measure {
	switch q {
	case QuantityCO2:
		return r.CO2
	case QuantityLand:
		return r.Land
	case QuantityWater:
		return r.Water
	}
	return Measure{}
}

// DietProfile maps categories to daily per-capita consumption in grams.
type DietProfile struct {
	Name  string
	Grams map[Category]float64
}
