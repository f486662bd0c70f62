package calibrate

import (
	"fmt"
	"strings"

	"github.com/okian/foodlca/internal/domain/model"
)

// Tier classifies the size of a calibration error.
type Tier string

// Calibration tiers.
const (
	TierWithin   Tier = "within"
	TierModerate Tier = "moderate"
	TierLarge    Tier = "large"
)

// Mode selects how an adjustment is applied to the table.
type Mode string

// Rescale modes.
const (
	// ModeTable scales co2_total and both shares together.
	ModeTable Mode = "table"
	// ModeProductionShare scales the production share only, holding co2_total fixed.
	ModeProductionShare Mode = "production_share"
)

// ParseMode validates a mode name; empty means ModeTable.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeTable, nil
	case ModeTable, ModeProductionShare:
		return m, nil
	}
	return "", fmt.Errorf("unknown calibration mode %q", s)
}

// Policy holds the acceptance rules of a calibration session.
type Policy struct {
	// TolerancePct is the largest accepted |error| in percent.
	TolerancePct float64

	// ReviewThresholdPct separates moderate from large deviations.
	ReviewThresholdPct float64

	// MaxIterations bounds the number of simulate/evaluate rounds.
	MaxIterations int

	// AllowLargeRescale applies adjustments even to large deviations
	// instead of stopping for manual review.
	AllowLargeRescale bool

	Mode Mode
}

// DefaultPolicy returns 5% tolerance, 30% review threshold, ten iterations
// and whole-table rescaling.
func DefaultPolicy() Policy {
	return Policy{
		TolerancePct:       5,
		ReviewThresholdPct: 30,
		MaxIterations:      10,
		Mode:               ModeTable,
	}
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.TolerancePct <= 0 {
		return &model.RangeError{Field: "tolerance_pct", Value: p.TolerancePct, Want: "> 0"}
	}
	if p.ReviewThresholdPct < p.TolerancePct {
		return &model.RangeError{Field: "review_threshold_pct", Value: p.ReviewThresholdPct,
			Want: fmt.Sprintf(">= tolerance_pct (%g)", p.TolerancePct)}
	}
	if p.MaxIterations < 1 {
		return &model.RangeError{Field: "max_iterations", Value: float64(p.MaxIterations), Want: ">= 1"}
	}
	if _, err := ParseMode(string(p.Mode)); err != nil {
		return err
	}
	return nil
}

func (p Policy) tier(errPct float64) Tier {
	a := errPct
	if a < 0 {
		a = -a
	}
	switch {
	case a <= p.TolerancePct:
		return TierWithin
	case a <= p.ReviewThresholdPct:
		return TierModerate
	}
	return TierLarge
}
