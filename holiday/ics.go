// Package holiday provides timeclock.HolidaySource implementations.
package holiday

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/warp/timeclock-engine/timeclock"
)

// ── ICS holiday feed ────────────────────────────────────────
//
// Reads all-day VEVENTs from an iCalendar feed (for example a public
// holiday calendar export). Each event's DTSTART date becomes one PUBLIC
// holiday named after its SUMMARY. Events outside the requested years are
// dropped.
// ─────────────────────────────────────────────────────────────

const (
	icsMaxFileSize  = 5 * 1024 * 1024
	icsFetchTimeout = 30 * time.Second
)

// ICS fetches holidays from an iCalendar URL. Plain paths and file:// URLs
// are read from disk.
type ICS struct {
	URL    string
	Client *http.Client
}

func NewICS(url string) *ICS {
	return &ICS{URL: url, Client: &http.Client{Timeout: icsFetchTimeout}}
}

func (s *ICS) Name() string { return "ics" }

func (s *ICS) Holidays(ctx context.Context, years []int) ([]timeclock.Holiday, error) {
	body, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseICS(body, years)
}

func (s *ICS) open(ctx context.Context) (io.ReadCloser, error) {
	u := strings.TrimSpace(s.URL)
	if u == "" {
		return nil, fmt.Errorf("holiday: no ICS url configured")
	}
	if strings.HasPrefix(u, "webcal://") {
		u = "https://" + strings.TrimPrefix(u, "webcal://")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		f, err := os.Open(strings.TrimPrefix(u, "file://"))
		if err != nil {
			return nil, fmt.Errorf("holiday: open ICS file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("holiday: build ICS request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = &http.Client{Timeout: icsFetchTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("holiday: fetch ICS: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("holiday: fetch ICS: HTTP %d", resp.StatusCode)
	}
	// Cap the body so a misconfigured URL cannot exhaust memory.
	return struct {
		io.Reader
		io.Closer
	}{
		Reader: io.LimitReader(resp.Body, icsMaxFileSize),
		Closer: resp.Body,
	}, nil
}

// ParseICS extracts holidays dated within years. An empty years slice keeps
// every event.
func ParseICS(r io.Reader, years []int) ([]timeclock.Holiday, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("holiday: parse ICS: %w", err)
	}

	var out []timeclock.Holiday
	for _, evt := range cal.Events() {
		d, ok := eventDate(evt)
		if !ok {
			continue
		}
		if len(years) > 0 && !slices.Contains(years, d.Year) {
			continue
		}
		name := "Holiday"
		if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil && strings.TrimSpace(p.Value) != "" {
			name = strings.TrimSpace(p.Value)
		}
		out = append(out, timeclock.Holiday{
			Date:   d,
			Name:   name,
			Kind:   timeclock.HolidayPublic,
			Source: "ics",
		})
	}
	return out, nil
}

// eventDate reads DTSTART as a civil date. Date-time values keep the
// calendar date they are written with.
func eventDate(evt *ics.VEvent) (timeclock.Date, bool) {
	prop := evt.GetProperty(ics.ComponentPropertyDtStart)
	if prop == nil {
		return timeclock.Date{}, false
	}
	val := strings.TrimSpace(prop.Value)
	for _, layout := range []string{"20060102", "20060102T150405Z", "20060102T150405"} {
		if t, err := time.Parse(layout, val); err == nil {
			return timeclock.DateOf(t), true
		}
	}
	return timeclock.Date{}, false
}
