package scheduling

import (
	"testing"
	"time"
)

func testHours() BusinessHours {
	return BusinessHours{Location: time.UTC, OpenHour: 8, CloseHour: 17}
}

// 2026-09-02 is a Wednesday.
func wednesday(hour, min int) time.Time {
	return time.Date(2026, 9, 2, hour, min, 0, 0, time.UTC)
}

func TestInWindow(t *testing.T) {
	h := testHours()

	tests := []struct {
		name    string
		at      time.Time
		urgency Urgency
		want    bool
	}{
		{"mid morning weekday", wednesday(10, 0), UrgencyRoutine, true},
		{"before open", wednesday(7, 59), UrgencyRoutine, false},
		{"at close", wednesday(17, 0), UrgencyRoutine, false},
		{"saturday closed", time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC), UrgencyRoutine, false},
		{"saturday emergency open", time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC), UrgencyEmergency, true},
		{"overnight emergency open", wednesday(2, 0), UrgencyEmergency, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.InWindow(tt.at, tt.urgency); got != tt.want {
				t.Errorf("InWindow(%s, %s) = %v, want %v", tt.at, tt.urgency, got, tt.want)
			}
		})
	}
}

func TestFitsWindow(t *testing.T) {
	h := testHours()

	if !h.FitsWindow(wednesday(16, 0), 60, UrgencyRoutine) {
		t.Error("job ending exactly at close should fit")
	}
	if h.FitsWindow(wednesday(16, 30), 60, UrgencyRoutine) {
		t.Error("job crossing close should not fit")
	}
	if !h.FitsWindow(wednesday(22, 0), 120, UrgencyEmergency) {
		t.Error("emergency work is not window-bound")
	}
}

func TestNextOpen(t *testing.T) {
	h := testHours()

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"already open", wednesday(10, 30), wednesday(10, 30)},
		{"before open same day", wednesday(6, 0), wednesday(8, 0)},
		{"after close rolls to next day", wednesday(18, 0), time.Date(2026, 9, 3, 8, 0, 0, 0, time.UTC)},
		{"friday evening rolls to monday", time.Date(2026, 9, 4, 19, 0, 0, 0, time.UTC), time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)},
		{"saturday rolls to monday", time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC), time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.NextOpen(tt.at, UrgencyRoutine); !got.Equal(tt.want) {
				t.Errorf("NextOpen(%s) = %s, want %s", tt.at, got, tt.want)
			}
		})
	}
}

func TestEarliestStart(t *testing.T) {
	h := testHours()
	now := wednesday(9, 0)

	if got := h.EarliestStart(now, UrgencyEmergency); !got.Equal(wednesday(10, 0)) {
		t.Errorf("emergency earliest = %s, want %s", got, wednesday(10, 0))
	}
	if got := h.EarliestStart(now, UrgencyUrgent); !got.Equal(wednesday(12, 0)) {
		t.Errorf("urgent earliest = %s, want %s", got, wednesday(12, 0))
	}
	wantRoutine := time.Date(2026, 9, 3, 8, 0, 0, 0, time.UTC)
	if got := h.EarliestStart(now, UrgencyRoutine); !got.Equal(wantRoutine) {
		t.Errorf("routine earliest = %s, want %s", got, wantRoutine)
	}
}

func TestEarliestStartOrdering(t *testing.T) {
	h := testHours()
	now := wednesday(9, 0)
	emergency := h.EarliestStart(now, UrgencyEmergency)
	urgent := h.EarliestStart(now, UrgencyUrgent)
	routine := h.EarliestStart(now, UrgencyRoutine)

	if emergency.After(urgent) || urgent.After(routine) {
		t.Errorf("expected emergency ≤ urgent ≤ routine, got %s / %s / %s", emergency, urgent, routine)
	}
}

func TestNewBusinessHours(t *testing.T) {
	h := NewBusinessHours("Australia/Sydney", 7, 19)
	if h.OpenHour != 7 || h.CloseHour != 19 {
		t.Errorf("window = %d-%d, want 7-19", h.OpenHour, h.CloseHour)
	}
	if h.Location.String() != "Australia/Sydney" {
		t.Errorf("location = %v, want Australia/Sydney", h.Location)
	}

	h = NewBusinessHours("not/a/zone", 22, 6)
	if h.OpenHour != 8 || h.CloseHour != 17 {
		t.Errorf("inverted window kept %d-%d, want the 8-17 default", h.OpenHour, h.CloseHour)
	}
	if h.Location != time.UTC {
		t.Errorf("location = %v, want UTC fallback for an unknown zone", h.Location)
	}
}
