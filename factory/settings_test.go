package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timeclock-engine/factory"
	"github.com/warp/timeclock-engine/timeclock"
)

func TestSettingsFactory_ParsePatch(t *testing.T) {
	// GIVEN: a patch touching a few fields
	// WHEN: it is applied to the defaults
	// THEN: only those fields change

	f := factory.NewSettingsFactory()
	patch, err := f.ParsePatch([]byte(`{
		"closing_day": 25,
		"scheduled_start_time": "09:30",
		"break_policy": {"type": "tiered", "tiers": [{"min_work_minutes": 480, "break_minutes": 60}, {"min_work_minutes": 360, "break_minutes": 45}]},
		"working_weekdays": [1, 2, 3, 4, 5, 6],
		"leave_approval_mode": "auto_approve",
		"company_holidays": ["2025-12-29", "2025-12-30"]
	}`))
	require.NoError(t, err)

	base := timeclock.DefaultSettings()
	s, err := patch.Apply(base)
	require.NoError(t, err)

	assert.Equal(t, 25, s.ClosingDay)
	assert.Equal(t, timeclock.NewClock(9, 30), s.ScheduledStart)
	assert.Equal(t, base.ScheduledEnd, s.ScheduledEnd)
	assert.Equal(t, timeclock.BreakTiered, s.Break.Kind)
	assert.Equal(t, 360, s.Break.Tiers[0].MinWorkMinutes, "tiers come back sorted")
	assert.Equal(t, base.Break.FixedMinutes, s.Break.FixedMinutes)
	assert.Contains(t, s.WorkingWeekdays, time.Saturday)
	assert.Equal(t, timeclock.ApprovalAuto, s.LeaveApproval)
	assert.Equal(t, []timeclock.Date{
		timeclock.NewDate(2025, time.December, 29),
		timeclock.NewDate(2025, time.December, 30),
	}, s.CompanyHolidays)
	assert.Equal(t, base.NightStart, s.NightStart)
}

func TestSettingsFactory_Rejects(t *testing.T) {
	f := factory.NewSettingsFactory()
	tests := []struct {
		name string
		body string
	}{
		{"closing day too large", `{"closing_day": 32}`},
		{"closing day zero", `{"closing_day": 0}`},
		{"bad clock", `{"scheduled_start_time": "9am"}`},
		{"minute out of range", `{"night_end": "05:75"}`},
		{"unknown break type", `{"break_policy": {"type": "hourly"}}`},
		{"negative tier", `{"break_policy": {"tiers": [{"min_work_minutes": -1, "break_minutes": 10}]}}`},
		{"weekday out of range", `{"working_weekdays": [7]}`},
		{"unknown approval mode", `{"leave_approval_mode": "manager"}`},
		{"bad date", `{"company_holidays": ["2025-13-01"]}`},
		{"not json", `{"closing_day":`},
		{"wrong type", `{"closing_day": "twenty"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ParsePatch([]byte(tt.body))
			require.Error(t, err)
			reason, ok := timeclock.ReasonOf(err)
			require.True(t, ok)
			assert.Equal(t, timeclock.ReasonInvalidSettings, reason)
		})
	}
}

func TestSettingsFactory_EmptyPatchIsIdentity(t *testing.T) {
	f := factory.NewSettingsFactory()
	patch, err := f.ParsePatch([]byte(`{}`))
	require.NoError(t, err)

	base := timeclock.DefaultSettings()
	s, err := patch.Apply(base)
	require.NoError(t, err)
	assert.Equal(t, base.Normalize(), s)
}

func TestToJSON(t *testing.T) {
	s := timeclock.DefaultSettings()
	s.CompanyDesignatedDates = []timeclock.Date{timeclock.NewDate(2025, time.August, 13)}

	out := factory.ToJSON(s)
	assert.Equal(t, 20, out.ClosingDay)
	assert.Equal(t, "08:55", out.ScheduledStartTime)
	assert.Equal(t, "22:00", out.NightStart)
	assert.Equal(t, "fixed", out.BreakPolicy.Type)
	require.NotNil(t, out.BreakPolicy.FixedMinutes)
	assert.Equal(t, 60, *out.BreakPolicy.FixedMinutes)
	assert.Len(t, out.BreakPolicy.Tiers, 2)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, out.WorkingWeekdays)
	assert.Equal(t, []string{"2025-08-13"}, out.CompanyDesignatedDates)
	assert.Equal(t, []string{}, out.CompanyHolidays)
	assert.Empty(t, out.HolidayCacheUpdatedAt)
}
