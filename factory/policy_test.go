package factory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/attendance-engine/attendance"
)

func TestParsePolicy_FullDocument(t *testing.T) {
	pf := NewPolicyFactory()
	policy, err := pf.ParsePolicy(`{
		"expected_hours_per_day": 7.5,
		"wfo_days_per_week": 4,
		"wfh_days_per_week": 1,
		"min_hours_for_present": 5,
		"threshold_red": 60,
		"threshold_amber": 85,
		"max_shift_hours": 14
	}`)
	require.NoError(t, err)

	assert.Equal(t, "7.5", policy.ExpectedHoursPerDay.String())
	assert.Equal(t, 4, policy.WFODaysPerWeek)
	assert.Equal(t, 1800, policy.ExpectedWeeklyMinutes())
	assert.Equal(t, 840, policy.MaxShiftMinutes())
	assert.Equal(t, attendance.ComplianceAmber, policy.Classify(policy.ThresholdRed))
}

func TestParsePolicy_MissingFieldsUseDefaults(t *testing.T) {
	policy, err := NewPolicyFactory().ParsePolicy(`{"wfo_days_per_week": 2, "wfh_days_per_week": 3}`)
	require.NoError(t, err)

	def := attendance.DefaultPolicy()
	assert.True(t, def.ExpectedHoursPerDay.Equal(policy.ExpectedHoursPerDay))
	assert.True(t, def.ThresholdAmber.Equal(policy.ThresholdAmber))
	assert.Equal(t, 2, policy.WFODaysPerWeek)
}

func TestParsePolicy_RejectsInvertedThresholds(t *testing.T) {
	_, err := NewPolicyFactory().ParsePolicy(`{"threshold_red": 90, "threshold_amber": 70}`)
	require.Error(t, err)
	assert.True(t, errors.Is(err, attendance.ErrConfigInvalid))

	var cfgErr *attendance.ConfigInvalidError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "threshold_red", cfgErr.Field)
	assert.Equal(t, map[string]string{"threshold_red": "must be less than threshold_amber"}, ValidationErrors(err))
}

func TestParsePolicy_RejectsOutOfRange(t *testing.T) {
	tests := map[string]string{
		"negative hours":   `{"expected_hours_per_day": -1}`,
		"too many days":    `{"wfo_days_per_week": 8}`,
		"days exceed week": `{"wfo_days_per_week": 5, "wfh_days_per_week": 5}`,
		"huge shift":       `{"max_shift_hours": 30}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewPolicyFactory().ParsePolicy(doc)
			assert.ErrorIs(t, err, attendance.ErrConfigInvalid)
		})
	}
}

func TestParsePolicy_BadJSON(t *testing.T) {
	_, err := NewPolicyFactory().ParsePolicy(`{"wfo_days_per_week": "three"}`)
	require.Error(t, err)
	assert.False(t, errors.Is(err, attendance.ErrConfigInvalid))
}

func TestToJSON_RoundTrip(t *testing.T) {
	pf := NewPolicyFactory()
	policy, err := pf.FromJSON(ToJSON(attendance.DefaultPolicy()))
	require.NoError(t, err)
	assert.Equal(t, ToJSON(attendance.DefaultPolicy()), ToJSON(policy))
}

func TestPresets_AllValid(t *testing.T) {
	pf := NewPolicyFactory()
	for name := range presets {
		doc, ok := PresetJSON(name)
		require.True(t, ok)
		_, err := pf.ParsePolicy(doc)
		assert.NoError(t, err, name)
	}
	_, ok := PresetJSON("nope")
	assert.False(t, ok)
}
