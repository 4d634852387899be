package scheduling

import (
	"testing"
	"time"
)

func TestHasConflict(t *testing.T) {
	checker := ConflictChecker{}
	existing := []ExistingAppointment{
		{Start: wednesday(9, 0), End: wednesday(10, 0), Location: "Parramatta"},
		{Start: wednesday(13, 0), End: wednesday(14, 0), Location: "Blacktown"},
	}

	tests := []struct {
		name     string
		start    time.Time
		duration int
		buffer   int
		want     bool
	}{
		{"inside existing", wednesday(9, 30), 60, 0, true},
		{"overlaps start of existing", wednesday(12, 30), 60, 0, true},
		{"buffer pushes into existing", wednesday(12, 0), 30, 45, true},
		{"clear gap between bookings", wednesday(10, 30), 60, 30, false},
		{"immediately after existing", wednesday(10, 0), 60, 30, false},
		{"ends exactly at existing start", wednesday(12, 0), 30, 30, false},
		{"after all bookings", wednesday(15, 0), 60, 30, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.HasConflict(tt.start, tt.duration, tt.buffer, existing); got != tt.want {
				t.Errorf("HasConflict(%s, %dm+%dm) = %v, want %v",
					tt.start.Format("15:04"), tt.duration, tt.buffer, got, tt.want)
			}
		})
	}
}

func TestFilterDropsConflicts(t *testing.T) {
	checker := ConflictChecker{}
	existing := []ExistingAppointment{
		{Start: wednesday(9, 0), End: wednesday(10, 0)},
	}
	candidates := []time.Time{wednesday(8, 0), wednesday(9, 0), wednesday(10, 0), wednesday(11, 0)}

	kept := checker.Filter(candidates, 60, 0, existing)
	if len(kept) != 2 {
		t.Fatalf("expected 2 surviving candidates, got %d: %v", len(kept), kept)
	}
	if !kept[0].Equal(wednesday(10, 0)) || !kept[1].Equal(wednesday(11, 0)) {
		t.Errorf("unexpected survivors: %v", kept)
	}
}

func TestNoOverlapInvariant(t *testing.T) {
	checker := ConflictChecker{}
	existing := []ExistingAppointment{
		{Start: wednesday(9, 0), End: wednesday(10, 0)},
		{Start: wednesday(13, 0), End: wednesday(14, 0)},
	}

	var candidates []time.Time
	for h := 8; h < 17; h++ {
		candidates = append(candidates, wednesday(h, 0), wednesday(h, 30))
	}

	duration, buffer := 60, 15
	for _, start := range checker.Filter(candidates, duration, buffer, existing) {
		end := start.Add(time.Duration(duration+buffer) * time.Minute)
		for _, appt := range existing {
			if start.Before(appt.End) && appt.Start.Before(end) {
				t.Errorf("accepted slot %s overlaps existing %s-%s",
					start.Format("15:04"), appt.Start.Format("15:04"), appt.End.Format("15:04"))
			}
		}
	}
}

func TestZeroLengthAppointmentIgnored(t *testing.T) {
	checker := ConflictChecker{}
	existing := []ExistingAppointment{
		{Start: wednesday(9, 0), End: wednesday(9, 0)},
	}
	if checker.HasConflict(wednesday(9, 0), 60, 0, existing) {
		t.Error("zero-length appointment should not conflict")
	}
}

func TestFilterIgnoresEmergencyWindowButNotConflicts(t *testing.T) {
	checker := ConflictChecker{}
	existing := []ExistingAppointment{
		{Start: wednesday(2, 0), End: wednesday(3, 0)},
	}
	if !checker.HasConflict(wednesday(2, 30), 60, 15, existing) {
		t.Error("overnight emergency slots still respect existing bookings")
	}
}
