package scheduling

import "time"

// Urgency classifies how quickly a job needs attention. It governs the
// earliest acceptable start time and how estimates are bucketed.
type Urgency string

const (
	UrgencyRoutine   Urgency = "routine"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

// Rank orders urgencies so escalation can be compared. Higher is more urgent.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyEmergency:
		return 2
	case UrgencyUrgent:
		return 1
	default:
		return 0
	}
}

// Coordinates is a WGS84 lat/lng pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// ExistingAppointment is a booking already on the technician calendar.
// Sourced from the calendar collaborator and never mutated here.
type ExistingAppointment struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location"`
}

// AppointmentSlot is a candidate or confirmed appointment interval.
type AppointmentSlot struct {
	Start                    time.Time `json:"start"`
	End                      time.Time `json:"end"`
	EstimatedDurationMinutes int       `json:"estimated_duration_minutes"`
	TravelMinutes            int       `json:"travel_minutes"`
	Score                    float64   `json:"score"`
	Fallback                 bool      `json:"fallback"`
	Rationale                string    `json:"rationale"`
}

// JobEstimate is the predicted service duration for one booking attempt.
// Immutable once produced; a rejected proposal triggers a recompute.
type JobEstimate struct {
	EstimatedMinutes int    `json:"estimated_minutes"`
	MinMinutes       int    `json:"min_minutes"`
	MaxMinutes       int    `json:"max_minutes"`
	ComplexityTag    string `json:"complexity_tag"`
	BufferMinutes    int    `json:"buffer_minutes"`
}

// TimePreferences captures a caller's scheduling preferences extracted from
// natural language ("Mondays or Thursdays after 4pm").
type TimePreferences struct {
	// DaysOfWeek contains the preferred days (0=Sunday ... 6=Saturday).
	DaysOfWeek []int `json:"days_of_week,omitempty"`
	// AfterTime is the earliest acceptable time in 24-hour format, e.g. "16:00".
	AfterTime string `json:"after_time,omitempty"`
	// BeforeTime is the latest acceptable time in 24-hour format, e.g. "12:00".
	BeforeTime string `json:"before_time,omitempty"`
	// RawText is the original natural language input.
	RawText string `json:"raw_text,omitempty"`
}

// Empty reports whether no usable preference was extracted.
func (p TimePreferences) Empty() bool {
	return len(p.DaysOfWeek) == 0 && p.AfterTime == "" && p.BeforeTime == ""
}

// Allows reports whether t satisfies the day and time-of-day constraints.
func (p TimePreferences) Allows(t time.Time) bool {
	if len(p.DaysOfWeek) > 0 {
		ok := false
		for _, d := range p.DaysOfWeek {
			if int(t.Weekday()) == d {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	hhmm := t.Format("15:04")
	if p.AfterTime != "" && hhmm < p.AfterTime {
		return false
	}
	if p.BeforeTime != "" && hhmm > p.BeforeTime {
		return false
	}
	return true
}
