// Package units holds the named unit conversions used by the pipeline.
//
// Land use stays in m2a (square metre-years of crop-equivalent occupation)
// per kg all the way to the factor table; only reporting converts to km2a.
// Water is read in m3/kg and stored in L/kg. Emission totals are computed in
// kgCO2e and converted to tonnes or kilotonnes for reporting.
package units

import (
	"fmt"

	"github.com/okian/foodlca/internal/domain/model"
)

// Conversion constants.
const (
	LitersPerCubicMetre   = 1000.0
	SquareMetresPerKm2    = 1_000_000.0
	KilogramsPerTonne     = 1000.0
	TonnesPerKilotonne    = 1000.0
	GramsPerKilogram      = 1000.0
	DaysPerYear           = 365.0
	kilogramsPerKilotonne = KilogramsPerTonne * TonnesPerKilotonne
)

// CubicMetresToLiters converts a water volume from m3 to L.
func CubicMetresToLiters(m3 float64) float64 { return m3 * LitersPerCubicMetre }

// LitersToCubicMetres converts a water volume from L to m3.
func LitersToCubicMetres(l float64) float64 { return l / LitersPerCubicMetre }

// SquareMetresToKm2 converts an area from m2 (or m2a) to km2 (or km2a).
func SquareMetresToKm2(m2 float64) float64 { return m2 / SquareMetresPerKm2 }

// KgToTonnes converts a mass from kg to t.
func KgToTonnes(kg float64) float64 { return kg / KilogramsPerTonne }

// TonnesToKg converts a mass from t to kg.
func TonnesToKg(t float64) float64 { return t * KilogramsPerTonne }

// KgToKilotonnes converts a mass from kg to kt.
func KgToKilotonnes(kg float64) float64 { return kg / kilogramsPerKilotonne }

// KilotonnesToKg converts a mass from kt to kg.
func KilotonnesToKg(kt float64) float64 { return kt * kilogramsPerKilotonne }

// GramsPerDayToKgPerYear converts a daily intake in grams to kg per year.
func GramsPerDayToKgPerYear(g float64) float64 { return g / GramsPerKilogram * DaysPerYear }

// WaterToLitersPerKg normalises a water intensity measure to L/kg.
func WaterToLitersPerKg(m model.Measure) (model.Measure, error) {
	switch m.Unit {
	case model.UnitLPerKg:
		return m, nil
	case model.UnitM3PerKg:
		if !m.Present {
			return model.Missing(model.UnitLPerKg), nil
		}
		return model.Known(CubicMetresToLiters(m.Value), model.UnitLPerKg), nil
	}
	return model.Measure{}, fmt.Errorf("cannot convert %q to %s", m.Unit, model.UnitLPerKg)
}

// EmissionToKg normalises an emission total to kgCO2e.
func EmissionToKg(v float64, u model.Unit) (float64, error) {
	switch u {
	case model.UnitKgCO2e:
		return v, nil
	case model.UnitTCO2e:
		return TonnesToKg(v), nil
	case model.UnitKtCO2e:
		return KilotonnesToKg(v), nil
	}
	return 0, fmt.Errorf("cannot convert %q to %s", u, model.UnitKgCO2e)
}

// ParseEmissionUnit accepts the common spellings of emission total units.
func ParseEmissionUnit(s string) (model.Unit, error) {
	switch s {
	case "kg", "kgco2e", "kgCO2e", "":
		return model.UnitKgCO2e, nil
	case "t", "tonne", "tonnes", "tco2e", "tCO2e":
		return model.UnitTCO2e, nil
	case "kt", "kton", "ktCO2e", "ktco2e":
		return model.UnitKtCO2e, nil
	}
	return "", fmt.Errorf("unknown emission unit %q", s)
}
