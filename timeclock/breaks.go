package timeclock

import (
	"sort"
	"time"
)

// =============================================================================
// BREAK POLICY
// =============================================================================

type BreakPolicyKind string

const (
	BreakFixed  BreakPolicyKind = "fixed"
	BreakTiered BreakPolicyKind = "tiered"
)

// BreakTier deducts BreakMinutes once raw worked time reaches MinWorkMinutes.
type BreakTier struct {
	MinWorkMinutes int `json:"min_work_minutes"`
	BreakMinutes   int `json:"break_minutes"`
}

// BreakPolicy computes the break deducted from a day's raw worked minutes.
//
// Fixed deducts FixedMinutes unconditionally. Tiered deducts the largest
// BreakMinutes among all tiers whose threshold is met, or nothing when none is:
//
//	tiers [(360,45), (480,60)]: raw 200 -> 0, raw 479 -> 45, raw 480 -> 60
type BreakPolicy struct {
	Kind         BreakPolicyKind
	FixedMinutes int
	Tiers        []BreakTier
}

// Minutes returns the break for raw worked minutes. Never negative.
func (p BreakPolicy) Minutes(raw int) int {
	if p.Kind != BreakTiered {
		return max(0, p.FixedMinutes)
	}
	best := 0
	for _, t := range p.Tiers {
		if raw >= t.MinWorkMinutes && t.BreakMinutes > best {
			best = t.BreakMinutes
		}
	}
	return best
}

// normalize defaults unknown kinds to fixed and orders tiers by threshold.
func (p BreakPolicy) normalize() BreakPolicy {
	if p.Kind != BreakTiered {
		p.Kind = BreakFixed
	}
	p.FixedMinutes = max(0, p.FixedMinutes)
	tiers := make([]BreakTier, 0, len(p.Tiers))
	for _, t := range p.Tiers {
		tiers = append(tiers, BreakTier{
			MinWorkMinutes: max(0, t.MinWorkMinutes),
			BreakMinutes:   max(0, t.BreakMinutes),
		})
	}
	sort.SliceStable(tiers, func(i, j int) bool {
		return tiers[i].MinWorkMinutes < tiers[j].MinWorkMinutes
	})
	p.Tiers = tiers
	return p
}

// RawWorkedMinutes is floor((out - in) in minutes). out before in counts as
// an incomplete day and yields 0.
func RawWorkedMinutes(in, out time.Time) int {
	if out.Before(in) {
		return 0
	}
	return int(out.Sub(in) / time.Minute)
}

// WorkedMinutes is raw worked time less the policy's break, floored at 0.
// The second value is the break actually applied.
func (p BreakPolicy) WorkedMinutes(in, out time.Time) (worked, brk int) {
	raw := RawWorkedMinutes(in, out)
	brk = p.Minutes(raw)
	return max(0, raw-brk), brk
}
