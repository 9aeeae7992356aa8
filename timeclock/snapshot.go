package timeclock

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// SUMMARY CACHE - Daily and per-period totals kept next to the log
// =============================================================================
//
// After every punch, edit or leave decision the affected day's DailySummary
// row and the enclosing period's MonthlySummary row are recomputed from the
// log and upserted. They are a convenience for reporting tools reading the
// store directly; the engine itself always recomputes from events.

type DailySummary struct {
	UserID          UserID
	Date            Date
	ClockIn         time.Time
	ClockOut        time.Time
	BreakMinutes    int
	WorkMinutes     int
	OvertimeMinutes int
	Incomplete      bool
	UpdatedAt       time.Time
}

type MonthlySummary struct {
	UserID          UserID
	Period          Period
	WorkMinutes     int
	OvertimeMinutes int
	UpdatedAt       time.Time
}

// syncSummariesLocked refreshes the cached rows for (user, d). Failures are
// logged and not returned: the punch that triggered the sync has already
// been stored.
func (e *Engine) syncSummariesLocked(ctx context.Context, user UserID, d Date) {
	if err := e.syncDailyLocked(ctx, user, d); err != nil {
		e.logger.Warn("daily summary sync failed",
			zap.String("user_id", string(user)), zap.Stringer("date", d), zap.Error(err))
	}
	if err := e.syncMonthlyLocked(ctx, user, d); err != nil {
		e.logger.Warn("monthly summary sync failed",
			zap.String("user_id", string(user)), zap.Stringer("date", d), zap.Error(err))
	}
}

func (e *Engine) syncDailyLocked(ctx context.Context, user UserID, d Date) error {
	rows, _, err := e.dailyRecordsLocked(ctx, user, Period{Start: d, End: d})
	if err != nil {
		return err
	}
	var day DayRow
	if len(rows) > 0 {
		day = rows[0]
	}
	s := DailySummary{
		UserID:          user,
		Date:            d,
		ClockIn:         day.ClockIn,
		ClockOut:        day.ClockOut,
		BreakMinutes:    day.BreakMinutes,
		WorkMinutes:     day.WorkedMinutes,
		OvertimeMinutes: day.OvertimeMinutes,
		Incomplete:      day.HasFlag(FlagIncomplete),
		UpdatedAt:       e.now().In(e.loc),
	}
	existing, err := e.rows.read(ctx, TableDailySummary)
	if err != nil {
		return err
	}
	row := encodeDailySummary(s, e.loc)
	return e.rows.replace(ctx, TableDailySummary, upsertRow(existing, row, "user_id", "date"))
}

func (e *Engine) syncMonthlyLocked(ctx context.Context, user UserID, d Date) error {
	closing, err := e.closingDayLocked(ctx, user)
	if err != nil {
		return err
	}
	p := PeriodFor(d, closing)
	_, summary, err := e.dailyRecordsLocked(ctx, user, p)
	if err != nil {
		return err
	}
	s := MonthlySummary{
		UserID:          user,
		Period:          p,
		WorkMinutes:     summary.WorkMinutes,
		OvertimeMinutes: summary.OvertimeMinutes,
		UpdatedAt:       e.now().In(e.loc),
	}
	existing, err := e.rows.read(ctx, TableMonthlySummary)
	if err != nil {
		return err
	}
	row := encodeMonthlySummary(s, e.loc)
	return e.rows.replace(ctx, TableMonthlySummary,
		upsertRow(existing, row, "user_id", "period_start", "period_end"))
}

// upsertRow replaces the first row matching row on every key column, or
// appends row.
func upsertRow(rows []Row, row Row, keys ...string) []Row {
	for i, existing := range rows {
		match := true
		for _, k := range keys {
			if existing[k] != row[k] {
				match = false
				break
			}
		}
		if match {
			rows[i] = row
			return rows
		}
	}
	return append(rows, row)
}

// DailySummaries returns the cached daily rows for the user.
func (e *Engine) DailySummaries(ctx context.Context, user UserID) ([]DailySummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rs, err := e.rows.read(ctx, TableDailySummary)
	if err != nil {
		return nil, err
	}
	var out []DailySummary
	for _, r := range rs {
		if UserID(r["user_id"]) != user {
			continue
		}
		if s, ok := decodeDailySummary(r, e.loc); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// MonthlySummaries returns the cached per-period rows for the user.
func (e *Engine) MonthlySummaries(ctx context.Context, user UserID) ([]MonthlySummary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rs, err := e.rows.read(ctx, TableMonthlySummary)
	if err != nil {
		return nil, err
	}
	var out []MonthlySummary
	for _, r := range rs {
		if UserID(r["user_id"]) != user {
			continue
		}
		if s, ok := decodeMonthlySummary(r, e.loc); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func encodeDailySummary(s DailySummary, loc *time.Location) Row {
	return Row{
		"user_id":          string(s.UserID),
		"date":             formatDate(s.Date),
		"clock_in_at":      formatTime(s.ClockIn, loc),
		"clock_out_at":     formatTime(s.ClockOut, loc),
		"break_minutes":    strconv.Itoa(s.BreakMinutes),
		"work_minutes":     strconv.Itoa(s.WorkMinutes),
		"overtime_minutes": strconv.Itoa(s.OvertimeMinutes),
		"incomplete_flag":  formatBool(s.Incomplete),
		"updated_at":       formatTime(s.UpdatedAt, loc),
	}
}

func decodeDailySummary(r Row, loc *time.Location) (DailySummary, bool) {
	d, ok := parseDate(r["date"])
	if !ok {
		return DailySummary{}, false
	}
	return DailySummary{
		UserID:          UserID(r["user_id"]),
		Date:            d,
		ClockIn:         parseTime(r["clock_in_at"], loc),
		ClockOut:        parseTime(r["clock_out_at"], loc),
		BreakMinutes:    parseInt(r["break_minutes"], 0),
		WorkMinutes:     parseInt(r["work_minutes"], 0),
		OvertimeMinutes: parseInt(r["overtime_minutes"], 0),
		Incomplete:      parseBool(r["incomplete_flag"]),
		UpdatedAt:       parseTime(r["updated_at"], loc),
	}, true
}

func encodeMonthlySummary(s MonthlySummary, loc *time.Location) Row {
	return Row{
		"user_id":          string(s.UserID),
		"period_start":     formatDate(s.Period.Start),
		"period_end":       formatDate(s.Period.End),
		"work_minutes":     strconv.Itoa(s.WorkMinutes),
		"overtime_minutes": strconv.Itoa(s.OvertimeMinutes),
		"updated_at":       formatTime(s.UpdatedAt, loc),
	}
}

func decodeMonthlySummary(r Row, loc *time.Location) (MonthlySummary, bool) {
	start, ok1 := parseDate(r["period_start"])
	end, ok2 := parseDate(r["period_end"])
	if !ok1 || !ok2 {
		return MonthlySummary{}, false
	}
	return MonthlySummary{
		UserID:          UserID(r["user_id"]),
		Period:          Period{Start: start, End: end},
		WorkMinutes:     parseInt(r["work_minutes"], 0),
		OvertimeMinutes: parseInt(r["overtime_minutes"], 0),
		UpdatedAt:       parseTime(r["updated_at"], loc),
	}, true
}
