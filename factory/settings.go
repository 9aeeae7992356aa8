/*
Package factory provides JSON to Go settings conversion.

PURPOSE:
  Converts the JSON an admin UI sends into timeclock.Settings. Full
  documents are rendered with ToJSON; updates arrive as partial patches
  where only the fields present are changed.

JSON SCHEMA (all fields optional in a patch):
  {
    "closing_day": 20,
    "scheduled_start_time": "08:55",
    "scheduled_end_time": "17:55",
    "scheduled_work_minutes": 480,
    "grace_minutes": 5,
    "break_policy": {
      "type": "tiered",
      "fixed_minutes": 60,
      "tiers": [{"min_work_minutes": 360, "break_minutes": 45}]
    },
    "working_weekdays": [1, 2, 3, 4, 5],
    "leave_approval_mode": "require_admin",
    "special_leave_names": ["bereavement"],
    "company_designated_dates": ["2025-08-13"],
    "company_holidays": ["2025-12-29"],
    "required_work_minutes": 480,
    "night_start": "22:00",
    "night_end": "05:00",
    "allow_multiple_clock_in": false
  }

  Weekdays use 0 = Sunday ... 6 = Saturday.

VALIDATION:
  go-playground/validator tags on the patch. Failures come back as
  *timeclock.ValidationError with reason invalid_settings.

USAGE:
  f := factory.NewSettingsFactory()
  patch, err := f.ParsePatch(body)
  updated, err := engine.UpdateSettings(ctx, actor, patch.Apply)

SEE ALSO:
  - timeclock/settings.go: Settings type and defaults
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warp/timeclock-engine/timeclock"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SettingsJSON is the full JSON representation of the settings.
type SettingsJSON struct {
	ClosingDay             int             `json:"closing_day"`
	ScheduledStartTime     string          `json:"scheduled_start_time"`
	ScheduledEndTime       string          `json:"scheduled_end_time"`
	ScheduledWorkMinutes   int             `json:"scheduled_work_minutes"`
	GraceMinutes           int             `json:"grace_minutes"`
	BreakPolicy            BreakPolicyJSON `json:"break_policy"`
	WorkingWeekdays        []int           `json:"working_weekdays"`
	LeaveApprovalMode      string          `json:"leave_approval_mode"`
	SpecialLeaveNames      []string        `json:"special_leave_names"`
	CompanyDesignatedDates []string        `json:"company_designated_dates"`
	CompanyHolidays        []string        `json:"company_holidays"`
	HolidaySource          string          `json:"holiday_source"`
	HolidayCacheUpdatedAt  string          `json:"holiday_cache_updated_at,omitempty"`
	RequiredWorkMinutes    int             `json:"required_work_minutes"`
	NightStart             string          `json:"night_start"`
	NightEnd               string          `json:"night_end"`
	AllowMultipleClockIn   bool            `json:"allow_multiple_clock_in"`
	UpdatedBy              string          `json:"updated_by,omitempty"`
	UpdatedAt              string          `json:"updated_at,omitempty"`
}

// BreakPolicyJSON represents the break deduction rule.
type BreakPolicyJSON struct {
	Type         string     `json:"type" validate:"omitempty,oneof=fixed tiered"`
	FixedMinutes *int       `json:"fixed_minutes,omitempty" validate:"omitempty,min=0,max=1440"`
	Tiers        []TierJSON `json:"tiers,omitempty" validate:"omitempty,dive"`
}

// TierJSON is one tier of a tiered break policy.
type TierJSON struct {
	MinWorkMinutes int `json:"min_work_minutes" validate:"min=0,max=1440"`
	BreakMinutes   int `json:"break_minutes" validate:"min=0,max=1440"`
}

// SettingsPatch is a partial update. Nil fields are left unchanged.
type SettingsPatch struct {
	ClosingDay             *int             `json:"closing_day" validate:"omitempty,min=1,max=31"`
	ScheduledStartTime     *string          `json:"scheduled_start_time" validate:"omitempty,hhmm"`
	ScheduledEndTime       *string          `json:"scheduled_end_time" validate:"omitempty,hhmm"`
	ScheduledWorkMinutes   *int             `json:"scheduled_work_minutes" validate:"omitempty,min=0,max=1440"`
	GraceMinutes           *int             `json:"grace_minutes" validate:"omitempty,min=0,max=720"`
	BreakPolicy            *BreakPolicyJSON `json:"break_policy"`
	WorkingWeekdays        *[]int           `json:"working_weekdays" validate:"omitempty,dive,min=0,max=6"`
	LeaveApprovalMode      *string          `json:"leave_approval_mode" validate:"omitempty,oneof=require_admin auto_approve"`
	SpecialLeaveNames      *[]string        `json:"special_leave_names"`
	CompanyDesignatedDates *[]string        `json:"company_designated_dates" validate:"omitempty,dive,datetime=2006-01-02"`
	CompanyHolidays        *[]string        `json:"company_holidays" validate:"omitempty,dive,datetime=2006-01-02"`
	HolidaySource          *string          `json:"holiday_source"`
	RequiredWorkMinutes    *int             `json:"required_work_minutes" validate:"omitempty,min=0,max=1440"`
	NightStart             *string          `json:"night_start" validate:"omitempty,hhmm"`
	NightEnd               *string          `json:"night_end" validate:"omitempty,hhmm"`
	AllowMultipleClockIn   *bool            `json:"allow_multiple_clock_in"`
}

// =============================================================================
// SETTINGS FACTORY
// =============================================================================

// SettingsFactory parses and validates settings JSON.
type SettingsFactory struct {
	validate *validator.Validate
}

// NewSettingsFactory creates a factory with the "hhmm" validation registered.
func NewSettingsFactory() *SettingsFactory {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := timeclock.ParseClock(fl.Field().String())
		return err == nil
	})
	return &SettingsFactory{validate: v}
}

// Validator exposes the configured validator so request DTOs share the same
// custom rules.
func (f *SettingsFactory) Validator() *validator.Validate { return f.validate }

// ParsePatch decodes and validates a patch.
func (f *SettingsFactory) ParsePatch(data []byte) (*SettingsPatch, error) {
	var p SettingsPatch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidSettings, Detail: err.Error()}
	}
	if err := f.Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks a patch built in code.
func (f *SettingsFactory) Validate(p *SettingsPatch) error {
	if err := f.validate.Struct(p); err != nil {
		return &timeclock.ValidationError{Reason: timeclock.ReasonInvalidSettings, Detail: describe(err)}
	}
	return nil
}

// Apply returns base with the patch applied. Its signature matches
// Engine.UpdateSettings so it can be passed directly.
func (p *SettingsPatch) Apply(base timeclock.Settings) (timeclock.Settings, error) {
	s := base
	if p.ClosingDay != nil {
		s.ClosingDay = *p.ClosingDay
	}
	if err := setClock(&s.ScheduledStart, p.ScheduledStartTime, "scheduled_start_time"); err != nil {
		return base, err
	}
	if err := setClock(&s.ScheduledEnd, p.ScheduledEndTime, "scheduled_end_time"); err != nil {
		return base, err
	}
	if p.ScheduledWorkMinutes != nil {
		s.ScheduledWorkMinutes = *p.ScheduledWorkMinutes
	}
	if p.GraceMinutes != nil {
		s.GraceMinutes = *p.GraceMinutes
	}
	if bp := p.BreakPolicy; bp != nil {
		if bp.Type != "" {
			s.Break.Kind = timeclock.BreakPolicyKind(bp.Type)
		}
		if bp.FixedMinutes != nil {
			s.Break.FixedMinutes = *bp.FixedMinutes
		}
		if bp.Tiers != nil {
			s.Break.Tiers = make([]timeclock.BreakTier, 0, len(bp.Tiers))
			for _, t := range bp.Tiers {
				s.Break.Tiers = append(s.Break.Tiers, timeclock.BreakTier{
					MinWorkMinutes: t.MinWorkMinutes,
					BreakMinutes:   t.BreakMinutes,
				})
			}
		}
	}
	if p.WorkingWeekdays != nil {
		s.WorkingWeekdays = make([]time.Weekday, 0, len(*p.WorkingWeekdays))
		for _, wd := range *p.WorkingWeekdays {
			s.WorkingWeekdays = append(s.WorkingWeekdays, time.Weekday(wd))
		}
	}
	if p.LeaveApprovalMode != nil {
		s.LeaveApproval = timeclock.ApprovalMode(*p.LeaveApprovalMode)
	}
	if p.SpecialLeaveNames != nil {
		s.SpecialLeaveNames = append([]string(nil), *p.SpecialLeaveNames...)
	}
	if p.CompanyDesignatedDates != nil {
		dates, err := parseDates(*p.CompanyDesignatedDates, "company_designated_dates")
		if err != nil {
			return base, err
		}
		s.CompanyDesignatedDates = dates
	}
	if p.CompanyHolidays != nil {
		dates, err := parseDates(*p.CompanyHolidays, "company_holidays")
		if err != nil {
			return base, err
		}
		s.CompanyHolidays = dates
	}
	if p.HolidaySource != nil {
		s.HolidaySource = strings.TrimSpace(*p.HolidaySource)
	}
	if p.RequiredWorkMinutes != nil {
		s.RequiredWorkMinutes = *p.RequiredWorkMinutes
	}
	if err := setClock(&s.NightStart, p.NightStart, "night_start"); err != nil {
		return base, err
	}
	if err := setClock(&s.NightEnd, p.NightEnd, "night_end"); err != nil {
		return base, err
	}
	if p.AllowMultipleClockIn != nil {
		s.AllowMultipleClockIn = *p.AllowMultipleClockIn
	}
	return s.Normalize(), nil
}

// ToJSON renders settings for API responses.
func ToJSON(s timeclock.Settings) SettingsJSON {
	fixed := s.Break.FixedMinutes
	out := SettingsJSON{
		ClosingDay:           s.ClosingDay,
		ScheduledStartTime:   s.ScheduledStart.String(),
		ScheduledEndTime:     s.ScheduledEnd.String(),
		ScheduledWorkMinutes: s.ScheduledWorkMinutes,
		GraceMinutes:         s.GraceMinutes,
		BreakPolicy: BreakPolicyJSON{
			Type:         string(s.Break.Kind),
			FixedMinutes: &fixed,
			Tiers:        make([]TierJSON, 0, len(s.Break.Tiers)),
		},
		WorkingWeekdays:        make([]int, 0, len(s.WorkingWeekdays)),
		LeaveApprovalMode:      string(s.LeaveApproval),
		SpecialLeaveNames:      append([]string{}, s.SpecialLeaveNames...),
		CompanyDesignatedDates: formatDates(s.CompanyDesignatedDates),
		CompanyHolidays:        formatDates(s.CompanyHolidays),
		HolidaySource:          s.HolidaySource,
		RequiredWorkMinutes:    s.RequiredWorkMinutes,
		NightStart:             s.NightStart.String(),
		NightEnd:               s.NightEnd.String(),
		AllowMultipleClockIn:   s.AllowMultipleClockIn,
		UpdatedBy:              string(s.UpdatedBy),
	}
	for _, t := range s.Break.Tiers {
		out.BreakPolicy.Tiers = append(out.BreakPolicy.Tiers, TierJSON{
			MinWorkMinutes: t.MinWorkMinutes,
			BreakMinutes:   t.BreakMinutes,
		})
	}
	for _, wd := range s.WorkingWeekdays {
		out.WorkingWeekdays = append(out.WorkingWeekdays, int(wd))
	}
	if !s.HolidayCacheUpdatedAt.IsZero() {
		out.HolidayCacheUpdatedAt = s.HolidayCacheUpdatedAt.Format(time.RFC3339)
	}
	if !s.UpdatedAt.IsZero() {
		out.UpdatedAt = s.UpdatedAt.Format(time.RFC3339)
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

func setClock(dst *timeclock.Clock, src *string, field string) error {
	if src == nil {
		return nil
	}
	c, err := timeclock.ParseClock(*src)
	if err != nil {
		return &timeclock.ValidationError{Reason: timeclock.ReasonInvalidSettings, Detail: field + ": " + err.Error()}
	}
	*dst = c
	return nil
}

func parseDates(in []string, field string) ([]timeclock.Date, error) {
	out := make([]timeclock.Date, 0, len(in))
	for _, s := range in {
		d, err := timeclock.ParseDate(s)
		if err != nil {
			return nil, &timeclock.ValidationError{Reason: timeclock.ReasonInvalidSettings, Detail: fmt.Sprintf("%s: %q", field, s)}
		}
		out = append(out, d)
	}
	return out, nil
}

func formatDates(in []timeclock.Date) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		out = append(out, d.String())
	}
	return out
}

// describe flattens validator errors to "field: tag" pairs.
func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
