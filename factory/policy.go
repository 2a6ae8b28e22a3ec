/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy documents into attendance.PolicyConfig and back.
  The settings API, the SQLite store and the demo scenarios all speak this
  document, so there is exactly one place where field names, defaults and
  validation rules live.

JSON SCHEMA:
  {
    "expected_hours_per_day": 8,
    "wfo_days_per_week": 3,
    "wfh_days_per_week": 2,
    "min_hours_for_present": 6,
    "threshold_red": 70,
    "threshold_amber": 90,
    "max_shift_hours": 16
  }

VALIDATION:
  Struct tags (go-playground/validator) check ranges per field; the
  cross-field rules (red < amber, office + home days <= 7) are enforced by
  attendance.PolicyConfig.Validate. Any failure is an
  *attendance.ConfigInvalidError naming the JSON field.

USAGE:
  pf := NewPolicyFactory()
  policy, err := pf.ParsePolicy(`{"wfo_days_per_week": 4, ...}`)

SEE ALSO:
  - attendance/policy.go: PolicyConfig and the classifier
  - api/handlers.go: GET/PUT /api/settings
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/attendance-engine/attendance"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a policy.
type PolicyJSON struct {
	ExpectedHoursPerDay float64 `json:"expected_hours_per_day" validate:"gte=0,lte=24"`
	WFODaysPerWeek      int     `json:"wfo_days_per_week" validate:"gte=0,lte=7"`
	WFHDaysPerWeek      int     `json:"wfh_days_per_week" validate:"gte=0,lte=7"`
	MinHoursForPresent  float64 `json:"min_hours_for_present" validate:"gte=0,lte=24"`
	ThresholdRed        float64 `json:"threshold_red" validate:"gte=0,ltfield=ThresholdAmber"`
	ThresholdAmber      float64 `json:"threshold_amber" validate:"gt=0"`
	MaxShiftHours       float64 `json:"max_shift_hours,omitempty" validate:"omitempty,gt=0,lte=24"`
}

// =============================================================================
// POLICY FACTORY
// =============================================================================

// PolicyFactory converts JSON policies to Go structs.
type PolicyFactory struct {
	validate *validator.Validate
}

// NewPolicyFactory creates a new policy factory.
func NewPolicyFactory() *PolicyFactory {
	v := validator.New()
	// Report JSON names, not Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &PolicyFactory{validate: v}
}

// ParsePolicy parses a JSON string into a validated PolicyConfig. Fields
// missing from the document take their DefaultPolicy values.
func (f *PolicyFactory) ParsePolicy(jsonStr string) (attendance.PolicyConfig, error) {
	pj := ToJSON(attendance.DefaultPolicy())
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return attendance.PolicyConfig{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return f.FromJSON(pj)
}

// FromJSON validates pj and converts it to a PolicyConfig.
func (f *PolicyFactory) FromJSON(pj PolicyJSON) (attendance.PolicyConfig, error) {
	if err := f.validate.Struct(pj); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return attendance.PolicyConfig{}, &attendance.ConfigInvalidError{
				Field:  verrs[0].Field(),
				Reason: describeTag(verrs[0]),
			}
		}
		return attendance.PolicyConfig{}, fmt.Errorf("validate policy: %w", err)
	}

	policy := attendance.PolicyConfig{
		ExpectedHoursPerDay: decimal.NewFromFloat(pj.ExpectedHoursPerDay),
		WFODaysPerWeek:      pj.WFODaysPerWeek,
		WFHDaysPerWeek:      pj.WFHDaysPerWeek,
		MinHoursForPresent:  decimal.NewFromFloat(pj.MinHoursForPresent),
		ThresholdRed:        decimal.NewFromFloat(pj.ThresholdRed),
		ThresholdAmber:      decimal.NewFromFloat(pj.ThresholdAmber),
		MaxShiftHours:       decimal.NewFromFloat(pj.MaxShiftHours),
	}
	if pj.MaxShiftHours == 0 {
		policy.MaxShiftHours = attendance.DefaultPolicy().MaxShiftHours
	}

	if err := policy.Validate(); err != nil {
		return attendance.PolicyConfig{}, err
	}
	return policy, nil
}

// ToJSON converts a PolicyConfig to its JSON document.
func ToJSON(p attendance.PolicyConfig) PolicyJSON {
	return PolicyJSON{
		ExpectedHoursPerDay: p.ExpectedHoursPerDay.InexactFloat64(),
		WFODaysPerWeek:      p.WFODaysPerWeek,
		WFHDaysPerWeek:      p.WFHDaysPerWeek,
		MinHoursForPresent:  p.MinHoursForPresent.InexactFloat64(),
		ThresholdRed:        p.ThresholdRed.InexactFloat64(),
		ThresholdAmber:      p.ThresholdAmber.InexactFloat64(),
		MaxShiftHours:       p.MaxShiftHours.InexactFloat64(),
	}
}

// ValidationErrors maps each failing field to its rule, for API error details.
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, ve := range verrs {
			out[ve.Field()] = ve.Tag()
		}
		return out
	}
	var cfgErr *attendance.ConfigInvalidError
	if errors.As(err, &cfgErr) {
		out[cfgErr.Field] = cfgErr.Reason
	}
	return out
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "ltfield":
		return "must be less than threshold_amber"
	}
	return "failed " + fe.Tag()
}

// =============================================================================
// PRESETS
// =============================================================================

// Preset policies offered by the demo scenarios.
var presets = map[string]PolicyJSON{
	"hybrid-3-2": ToJSON(attendance.DefaultPolicy()),
	"office-first": {
		ExpectedHoursPerDay: 8, WFODaysPerWeek: 4, WFHDaysPerWeek: 1,
		MinHoursForPresent: 6, ThresholdRed: 75, ThresholdAmber: 95, MaxShiftHours: 16,
	},
	"remote-first": {
		ExpectedHoursPerDay: 7.5, WFODaysPerWeek: 1, WFHDaysPerWeek: 4,
		MinHoursForPresent: 4, ThresholdRed: 60, ThresholdAmber: 85, MaxShiftHours: 16,
	},
}

// PresetJSON returns a named preset as a JSON document.
func PresetJSON(name string) (string, bool) {
	pj, ok := presets[name]
	if !ok {
		return "", false
	}
	b, err := json.Marshal(pj)
	if err != nil {
		return "", false
	}
	return string(b), true
}
