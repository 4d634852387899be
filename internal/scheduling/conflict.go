package scheduling

import "time"

// ConflictChecker tests candidate slots against existing bookings.
type ConflictChecker struct{}

// HasConflict reports whether a job starting at start would collide with any
// existing appointment. The candidate occupies
// [start, start+duration+buffer); buffer covers both the completion buffer
// and travel time to the job.
func (ConflictChecker) HasConflict(start time.Time, durationMinutes, bufferMinutes int, existing []ExistingAppointment) bool {
	end := start.Add(time.Duration(durationMinutes+bufferMinutes) * time.Minute)
	for _, appt := range existing {
		if appt.End.Before(appt.Start) || appt.End.Equal(appt.Start) {
			continue
		}
		if start.Before(appt.End) && appt.Start.Before(end) {
			return true
		}
	}
	return false
}

// Filter returns the candidates that survive conflict checking.
func (c ConflictChecker) Filter(candidates []time.Time, durationMinutes, bufferMinutes int, existing []ExistingAppointment) []time.Time {
	kept := make([]time.Time, 0, len(candidates))
	for _, t := range candidates {
		if !c.HasConflict(t, durationMinutes, bufferMinutes, existing) {
			kept = append(kept, t)
		}
	}
	return kept
}
