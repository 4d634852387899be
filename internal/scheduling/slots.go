package scheduling

import "time"

// SlotGenerator enumerates candidate start times across the lookahead window.
type SlotGenerator struct {
	Hours         BusinessHours
	Granularity   time.Duration
	LookaheadDays int
}

// NewSlotGenerator applies the standard defaults: 30-minute buckets over a
// 7-day window.
func NewSlotGenerator(hours BusinessHours) *SlotGenerator {
	return &SlotGenerator{
		Hours:         hours,
		Granularity:   30 * time.Minute,
		LookaheadDays: 7,
	}
}

// Generate returns candidate starts from earliest forward, rounded up to the
// granularity, skipping times where a job of durationMinutes cannot complete
// inside the operating window. prefs further restricts candidates; if the
// restriction eliminates every candidate it is ignored rather than leaving
// the caller with nothing.
func (g *SlotGenerator) Generate(earliest time.Time, durationMinutes int, urgency Urgency, prefs TimePreferences) []time.Time {
	granularity := g.Granularity
	if granularity <= 0 {
		granularity = 30 * time.Minute
	}
	days := g.LookaheadDays
	if days <= 0 {
		days = 7
	}

	start := RoundUp(earliest.In(g.Hours.Location), granularity)
	horizon := start.AddDate(0, 0, days)

	var all, preferred []time.Time
	for t := start; t.Before(horizon); t = t.Add(granularity) {
		if !g.Hours.FitsWindow(t, durationMinutes, urgency) {
			continue
		}
		all = append(all, t)
		if prefs.Empty() || prefs.Allows(t) {
			preferred = append(preferred, t)
		}
	}

	if len(preferred) > 0 {
		return preferred
	}
	return all
}

// RoundUp advances t to the next multiple of granularity, leaving aligned
// times unchanged.
func RoundUp(t time.Time, granularity time.Duration) time.Time {
	rounded := t.Truncate(granularity)
	if rounded.Before(t) {
		rounded = rounded.Add(granularity)
	}
	return rounded
}
