package scheduling

import "time"

// BusinessHours describes the fixed operating window all non-emergency work
// is scheduled inside. All slot arithmetic happens in Location.
type BusinessHours struct {
	Location  *time.Location
	OpenHour  int
	CloseHour int
}

// NewBusinessHours builds an operating window for tz, falling back to UTC
// when tz cannot be loaded and to the standard 08:00-17:00 window when the
// hours are out of order.
func NewBusinessHours(tz string, openHour, closeHour int) BusinessHours {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	if openHour < 0 || closeHour > 24 || openHour >= closeHour {
		openHour, closeHour = 8, 17
	}
	return BusinessHours{Location: loc, OpenHour: openHour, CloseHour: closeHour}
}

// DefaultBusinessHours returns the standard 08:00-17:00 window for tz.
func DefaultBusinessHours(tz string) BusinessHours {
	return NewBusinessHours(tz, 8, 17)
}

// InWindow reports whether t falls inside the operating window. Emergencies
// are serviced around the clock, every day.
func (h BusinessHours) InWindow(t time.Time, urgency Urgency) bool {
	if urgency == UrgencyEmergency {
		return true
	}
	local := t.In(h.Location)
	wd := local.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return false
	}
	hour := local.Hour()
	return hour >= h.OpenHour && hour < h.CloseHour
}

// FitsWindow reports whether a job of duration minutes starting at t finishes
// inside the operating window.
func (h BusinessHours) FitsWindow(t time.Time, durationMinutes int, urgency Urgency) bool {
	if urgency == UrgencyEmergency {
		return true
	}
	if !h.InWindow(t, urgency) {
		return false
	}
	end := t.In(h.Location).Add(time.Duration(durationMinutes) * time.Minute)
	close := time.Date(end.Year(), end.Month(), end.Day(), h.CloseHour, 0, 0, 0, h.Location)
	// A job crossing midnight has already failed InWindow above.
	return !end.After(close)
}

// NextOpen advances t to the next instant inside the operating window.
// Already-open instants are returned unchanged.
func (h BusinessHours) NextOpen(t time.Time, urgency Urgency) time.Time {
	if urgency == UrgencyEmergency {
		return t
	}
	local := t.In(h.Location)
	for i := 0; i < 14; i++ {
		wd := local.Weekday()
		weekend := wd == time.Saturday || wd == time.Sunday
		open := time.Date(local.Year(), local.Month(), local.Day(), h.OpenHour, 0, 0, 0, h.Location)
		close := time.Date(local.Year(), local.Month(), local.Day(), h.CloseHour, 0, 0, 0, h.Location)
		if !weekend {
			if local.Before(open) {
				return open
			}
			if local.Before(close) {
				return local
			}
		}
		local = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, h.Location).AddDate(0, 0, 1)
		local = time.Date(local.Year(), local.Month(), local.Day(), h.OpenHour, 0, 0, 0, h.Location)
		if wd := local.Weekday(); wd != time.Saturday && wd != time.Sunday {
			return local
		}
	}
	return local
}

// EarliestStart derives the soonest acceptable start for a new job: now plus
// the urgency lead time, clipped forward to the next open slot.
func (h BusinessHours) EarliestStart(now time.Time, urgency Urgency) time.Time {
	now = now.In(h.Location)
	var candidate time.Time
	switch urgency {
	case UrgencyEmergency:
		candidate = now.Add(time.Hour)
	case UrgencyUrgent:
		candidate = now.Add(3 * time.Hour)
	default:
		// Next business day morning.
		day := time.Date(now.Year(), now.Month(), now.Day(), h.OpenHour, 0, 0, 0, h.Location)
		candidate = day.AddDate(0, 0, 1)
	}
	return h.NextOpen(candidate, urgency)
}

// MaxDelay is the longest acceptable wait for each urgency tier, used by the
// slot scorer's priority-fit factor.
func MaxDelay(urgency Urgency) time.Duration {
	switch urgency {
	case UrgencyEmergency:
		return 4 * time.Hour
	case UrgencyUrgent:
		return 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}
