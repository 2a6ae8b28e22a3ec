/*
policy.go - Hybrid-work policy and the compliance classifier

PURPOSE:
  PolicyConfig carries every tunable the engine needs: expected hours,
  required office days, presence threshold, traffic-light thresholds and the
  longest plausible shift. It is loaded once per computation and passed
  explicitly; there is no package-level policy state.

CLASSIFICATION:
  pct <  red             -> RED
  red <= pct < amber     -> AMBER
  pct >= amber           -> GREEN

  Comparisons are exact decimal comparisons on the unrounded percentage,
  so a boundary value always lands in the upper band.

SEE ALSO:
  - factory/policy.go: JSON <-> PolicyConfig with field validation
  - weekly.go: computes the percentage classified here
*/
package attendance

import (
	"github.com/shopspring/decimal"
)

var (
	sixty   = decimal.NewFromInt(60)
	hundred = decimal.NewFromInt(100)
)

// PolicyConfig is the hybrid-work policy.
type PolicyConfig struct {
	ExpectedHoursPerDay decimal.Decimal `json:"expected_hours_per_day"`
	WFODaysPerWeek      int             `json:"wfo_days_per_week"`
	WFHDaysPerWeek      int             `json:"wfh_days_per_week"`
	MinHoursForPresent  decimal.Decimal `json:"min_hours_for_present"`
	ThresholdRed        decimal.Decimal `json:"threshold_red"`
	ThresholdAmber      decimal.Decimal `json:"threshold_amber"`
	MaxShiftHours       decimal.Decimal `json:"max_shift_hours"`
}

// DefaultPolicy returns the policy used when none has been saved.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		ExpectedHoursPerDay: decimal.NewFromInt(8),
		WFODaysPerWeek:      3,
		WFHDaysPerWeek:      2,
		MinHoursForPresent:  decimal.NewFromInt(6),
		ThresholdRed:        decimal.NewFromInt(70),
		ThresholdAmber:      decimal.NewFromInt(90),
		MaxShiftHours:       decimal.NewFromInt(16),
	}
}

// Validate checks the policy invariants.
func (p PolicyConfig) Validate() error {
	switch {
	case p.ExpectedHoursPerDay.IsNegative():
		return &ConfigInvalidError{Field: "expected_hours_per_day", Reason: "must be >= 0"}
	case p.ExpectedHoursPerDay.GreaterThan(decimal.NewFromInt(24)):
		return &ConfigInvalidError{Field: "expected_hours_per_day", Reason: "must be <= 24"}
	case p.WFODaysPerWeek < 0 || p.WFODaysPerWeek > 7:
		return &ConfigInvalidError{Field: "wfo_days_per_week", Reason: "must be between 0 and 7"}
	case p.WFHDaysPerWeek < 0 || p.WFHDaysPerWeek > 7:
		return &ConfigInvalidError{Field: "wfh_days_per_week", Reason: "must be between 0 and 7"}
	case p.WFODaysPerWeek+p.WFHDaysPerWeek > 7:
		return &ConfigInvalidError{Field: "wfh_days_per_week", Reason: "office and home days exceed a week"}
	case p.MinHoursForPresent.IsNegative():
		return &ConfigInvalidError{Field: "min_hours_for_present", Reason: "must be >= 0"}
	case p.ThresholdRed.IsNegative():
		return &ConfigInvalidError{Field: "threshold_red", Reason: "must be >= 0"}
	case !p.ThresholdRed.LessThan(p.ThresholdAmber):
		return &ConfigInvalidError{Field: "threshold_red", Reason: "must be less than threshold_amber"}
	case !p.MaxShiftHours.IsPositive():
		return &ConfigInvalidError{Field: "max_shift_hours", Reason: "must be > 0"}
	case p.MaxShiftHours.GreaterThan(decimal.NewFromInt(24)):
		return &ConfigInvalidError{Field: "max_shift_hours", Reason: "must be <= 24"}
	}
	return nil
}

// ExpectedWeeklyMinutes is WFODaysPerWeek x ExpectedHoursPerDay x 60.
func (p PolicyConfig) ExpectedWeeklyMinutes() int {
	return p.ExpectedMinutesFor(p.WFODaysPerWeek)
}

// ExpectedMinutesFor returns the expected office minutes for n days,
// rounded to whole minutes.
func (p PolicyConfig) ExpectedMinutesFor(days int) int {
	return int(p.ExpectedHoursPerDay.Mul(sixty).Mul(decimal.NewFromInt(int64(days))).Round(0).IntPart())
}

// MinPresentMinutes is the presence threshold in minutes.
func (p PolicyConfig) MinPresentMinutes() int {
	return int(p.MinHoursForPresent.Mul(sixty).Ceil().IntPart())
}

// MaxShiftMinutes is the longest plausible span; 0 disables clamping.
func (p PolicyConfig) MaxShiftMinutes() int {
	return int(p.MaxShiftHours.Mul(sixty).Round(0).IntPart())
}

// DailyStatus classifies a day from its worked minutes and punch count.
func (p PolicyConfig) DailyStatus(totalMinutes, punches int) AttendanceStatus {
	if punches == 0 {
		return StatusAbsent
	}
	if punches >= 2 && totalMinutes >= p.MinPresentMinutes() {
		return StatusPresent
	}
	return StatusPartial
}

// Classify maps a compliance percentage to its traffic-light status.
func (p PolicyConfig) Classify(pct decimal.Decimal) ComplianceStatus {
	if pct.LessThan(p.ThresholdRed) {
		return ComplianceRed
	}
	if pct.LessThan(p.ThresholdAmber) {
		return ComplianceAmber
	}
	return ComplianceGreen
}

// Compliance returns actual/expected x 100, or zero when nothing is expected.
func Compliance(actualMinutes, expectedMinutes int) decimal.Decimal {
	if expectedMinutes <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(actualMinutes)).
		Div(decimal.NewFromInt(int64(expectedMinutes))).
		Mul(hundred)
}

// IsCompliant reports whether a percentage meets the minimum (red) threshold.
func (p PolicyConfig) IsCompliant(pct decimal.Decimal) bool {
	return pct.GreaterThanOrEqual(p.ThresholdRed)
}
