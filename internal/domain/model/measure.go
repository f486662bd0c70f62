package model

import (
	"fmt"
	"strconv"
)

// Unit tags the physical unit of a quantity. Every Measure carries one.
type Unit string

// Known units.
const (
	UnitKgCO2ePerKg Unit = "kgCO2e/kg"
	UnitM2aPerKg    Unit = "m2a/kg"
	UnitM3PerKg     Unit = "m3/kg"
	UnitLPerKg      Unit = "L/kg"
	UnitKgCO2e      Unit = "kgCO2e"
	UnitTCO2e       Unit = "tCO2e"
	UnitKtCO2e      Unit = "ktCO2e"
	UnitM2a         Unit = "m2a"
	UnitKm2a        Unit = "km2a"
	UnitLiter       Unit = "L"
	UnitM3          Unit = "m3"
)

// Quantity names one measured impact dimension of a record or factor.
type Quantity string

// Measured quantities.
const (
	QuantityCO2   Quantity = "co2_total"
	QuantityLand  Quantity = "land"
	QuantityWater Quantity = "water"
)

// Quantities lists the measured quantities in export order.
func Quantities() []Quantity {
	return []Quantity{QuantityCO2, QuantityLand, QuantityWater}
}

// Measure is a value with its unit. Present=false marks a Missing value; the
// Value field is meaningless in that case and is never read as zero.
type Measure struct {
	Value   float64
	Unit    Unit
	Present bool
}

// Known returns a present measure.
func Known(v float64, u Unit) Measure {
	return Measure{Value: v, Unit: u, Present: true}
}

// Missing returns a missing measure tagged with the unit it would have had.
func Missing(u Unit) Measure {
	return Measure{Unit: u}
}

// Get returns the value and whether it is present.
func (m Measure) Get() (float64, bool) {
	return m.Value, m.Present
}

// IsMissing reports whether the measure has no value.
func (m Measure) IsMissing() bool { return !m.Present }

// Scale multiplies a present measure by f; missing stays missing.
func (m Measure) Scale(f float64) Measure {
	if !m.Present {
		return m
	}
	m.Value *= f
	return m
}

func (m Measure) String() string {
	if !m.Present {
		return "NA " + string(m.Unit)
	}
	return fmt.Sprintf("%s %s", strconv.FormatFloat(m.Value, 'g', -1, 64), m.Unit)
}
