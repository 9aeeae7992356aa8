/*
holiday.go - Public and company holiday calendar cache

PURPOSE:
  The classifier needs to know which dates are holidays. Public holidays come
  from an external HolidaySource (an ICS feed, a static table); company
  holidays come from Settings. Both are merged into the Holidays table, which
  is what the classifier actually reads.

REFRESH RULES:
  - Refresh when forced, when the cache has never been filled, or when the
    last refresh is at least HolidayCacheTTL old.
  - Covers [year-1, year, year+1] around "now".
  - Company holidays override public ones on the same date.
  - The source is called outside the engine lock; concurrent refreshes share
    one call. Only the table swap and timestamp update take the write lock.
  - A failing source is logged and the old cache stays in place. It never
    fails the caller. Non-forced refreshes then wait HolidayRetryBackoff
    before calling the source again, so readers do not each pay for a
    fetch against a feed that is down.

SEE ALSO:
  - holiday/ics.go, holiday/static.go: HolidaySource implementations
  - api/scheduler.go: Periodic refresh
*/
package timeclock

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

type HolidayKind string

const (
	HolidayPublic        HolidayKind = "PUBLIC"
	HolidayCompanyCustom HolidayKind = "COMPANY_CUSTOM"
)

// HolidayCacheTTL is how long a refreshed cache stays fresh.
const HolidayCacheTTL = 24 * time.Hour

// HolidayRetryBackoff is how long non-forced refreshes are skipped after the
// source failed.
const HolidayRetryBackoff = 5 * time.Minute

type Holiday struct {
	Date      Date
	Name      string
	Kind      HolidayKind
	Source    string
	FetchedAt time.Time
}

// HolidaySource supplies public holidays for whole years.
type HolidaySource interface {
	Name() string
	Holidays(ctx context.Context, years []int) ([]Holiday, error)
}

// HolidayCacheStale reports whether a cache last refreshed at updatedAt
// needs refreshing at now.
func HolidayCacheStale(updatedAt, now time.Time) bool {
	if updatedAt.IsZero() {
		return true
	}
	return now.Sub(updatedAt) >= HolidayCacheTTL
}

// MergeHolidays combines public holidays with company holiday dates. Later
// entries for a date replace earlier ones, and company dates are applied
// last. The result is ordered by date.
func MergeHolidays(public []Holiday, company []Date, fetchedAt time.Time) []Holiday {
	byDate := make(map[Date]Holiday, len(public)+len(company))
	for _, h := range public {
		if h.Date.IsZero() {
			continue
		}
		if h.Kind == "" {
			h.Kind = HolidayPublic
		}
		h.FetchedAt = fetchedAt
		byDate[h.Date] = h
	}
	for _, d := range company {
		byDate[d] = Holiday{
			Date:      d,
			Name:      "Company Holiday",
			Kind:      HolidayCompanyCustom,
			Source:    "settings",
			FetchedAt: fetchedAt,
		}
	}
	out := make([]Holiday, 0, len(byDate))
	for _, h := range byDate {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// HolidayMap indexes the holidays falling within p.
func HolidayMap(hs []Holiday, p Period) map[Date]Holiday {
	out := make(map[Date]Holiday)
	for _, h := range hs {
		if p.Contains(h.Date) {
			out[h.Date] = h
		}
	}
	return out
}

// =============================================================================
// REFRESH
// =============================================================================

// Refresh outcomes reported to the Observer.
const (
	RefreshSkipped = "skipped"
	RefreshOK      = "ok"
	RefreshFailed  = "source_error"
)

// RefreshHolidays rebuilds the holiday cache when it is stale or force is
// set. Only storage failures are returned.
func (e *Engine) RefreshHolidays(ctx context.Context, force bool) error {
	settings, err := e.Settings(ctx)
	if err != nil {
		return err
	}
	now := e.now()
	if !force && (!HolidayCacheStale(settings.HolidayCacheUpdatedAt, now) || e.inHolidayBackoff(now)) {
		e.observer.HolidayRefresh(RefreshSkipped)
		return nil
	}
	_, err, _ = e.refresh.Do("holidays", func() (any, error) {
		return nil, e.refreshHolidays(ctx)
	})
	return err
}

func (e *Engine) refreshHolidays(ctx context.Context) error {
	now := e.now()
	year := now.In(e.loc).Year()
	years := []int{year - 1, year, year + 1}

	var public []Holiday
	if e.source != nil {
		fetched, err := e.source.Holidays(ctx, years)
		if err != nil {
			e.logger.Warn("holiday source failed, keeping cached holidays",
				zap.String("source", e.source.Name()),
				zap.Ints("years", years),
				zap.Error(err))
			e.observer.HolidayRefresh(RefreshFailed)
			e.setHolidayFailure(now)
			return nil
		}
		public = fetched
	}
	e.setHolidayFailure(time.Time{})

	e.mu.Lock()
	defer e.mu.Unlock()

	// Settings are re-read so company holidays saved during the fetch are kept.
	settings, err := e.settingsLocked(ctx)
	if err != nil {
		return err
	}
	merged := MergeHolidays(public, settings.CompanyHolidays, now)
	rows := make([]Row, 0, len(merged))
	for _, h := range merged {
		rows = append(rows, encodeHoliday(h, e.loc))
	}
	if err := e.rows.replace(ctx, TableHolidays, rows); err != nil {
		return err
	}
	settings.HolidayCacheUpdatedAt = now
	if err := e.saveSettingsLocked(ctx, settings); err != nil {
		return err
	}

	e.logger.Info("holiday cache refreshed",
		zap.Int("holidays", len(merged)),
		zap.Ints("years", years))
	e.observer.HolidayRefresh(RefreshOK)
	return nil
}

func (e *Engine) inHolidayBackoff(now time.Time) bool {
	e.failMu.Lock()
	defer e.failMu.Unlock()
	return !e.holidayFailedAt.IsZero() && now.Sub(e.holidayFailedAt) < e.holidayBackoff
}

// setHolidayFailure records the last failed fetch. The zero time clears it.
func (e *Engine) setHolidayFailure(at time.Time) {
	e.failMu.Lock()
	defer e.failMu.Unlock()
	e.holidayFailedAt = at
}

// Holidays returns the cached holidays within p.
func (e *Engine) Holidays(ctx context.Context, p Period) ([]Holiday, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	all, err := e.holidaysLocked(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Holiday, 0, len(all))
	for _, h := range all {
		if p.Contains(h.Date) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (e *Engine) holidaysLocked(ctx context.Context) ([]Holiday, error) {
	rs, err := e.rows.read(ctx, TableHolidays)
	if err != nil {
		return nil, err
	}
	out := make([]Holiday, 0, len(rs))
	for _, r := range rs {
		if h, ok := decodeHoliday(r, e.loc); ok {
			out = append(out, h)
		}
	}
	return out, nil
}
