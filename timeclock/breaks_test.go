package timeclock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warp/timeclock-engine/timeclock"
)

func TestBreakPolicy_Tiered(t *testing.T) {
	p := timeclock.BreakPolicy{
		Kind: timeclock.BreakTiered,
		Tiers: []timeclock.BreakTier{
			{MinWorkMinutes: 480, BreakMinutes: 60},
			{MinWorkMinutes: 360, BreakMinutes: 45},
		},
	}

	assert.Equal(t, 0, p.Minutes(200), "below every threshold")
	assert.Equal(t, 0, p.Minutes(359))
	assert.Equal(t, 45, p.Minutes(360))
	assert.Equal(t, 45, p.Minutes(479))
	assert.Equal(t, 60, p.Minutes(480))
	assert.Equal(t, 60, p.Minutes(900))
}

func TestBreakPolicy_Fixed(t *testing.T) {
	p := timeclock.BreakPolicy{Kind: timeclock.BreakFixed, FixedMinutes: 60}
	assert.Equal(t, 60, p.Minutes(30))
	assert.Equal(t, 60, p.Minutes(600))

	// Unknown kinds behave as fixed.
	p.Kind = "weird"
	assert.Equal(t, 60, p.Minutes(600))
}

func TestBreakPolicy_WorkedMinutes(t *testing.T) {
	d := date(2025, time.March, 3)
	p := timeclock.BreakPolicy{Kind: timeclock.BreakFixed, FixedMinutes: 60}

	worked, brk := p.WorkedMinutes(at(d, "09:00"), at(d, "18:00"))
	assert.Equal(t, 480, worked)
	assert.Equal(t, 60, brk)

	worked, _ = p.WorkedMinutes(at(d, "09:00"), at(d, "09:30"))
	assert.Equal(t, 0, worked, "never negative")

	worked, _ = p.WorkedMinutes(at(d, "18:00"), at(d, "09:00"))
	assert.Equal(t, 0, worked, "OUT before IN is incomplete")
}

func TestRawWorkedMinutes_Floors(t *testing.T) {
	d := date(2025, time.March, 3)
	in := at(d, "09:00")
	assert.Equal(t, 90, timeclock.RawWorkedMinutes(in, in.Add(90*time.Minute+59*time.Second)))
	assert.Equal(t, 0, timeclock.RawWorkedMinutes(in, in.Add(-time.Minute)))
}
