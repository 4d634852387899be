package dialog

import (
	"testing"
	"time"
)

func TestCanTransitionDeclaredEdges(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateStart, StateDiagnoseIssue, true},
		{StateStart, StateUrgentBooking, true},
		{StateDiagnoseIssue, StateAskBooking, true},
		{StateAskBooking, StateCollectDetails, true},
		{StateCollectDetails, StateBookAppointment, true},
		{StateBookAppointment, StateConfirmSlot, true},
		{StateConfirmSlot, StateBookAppointment, true},
		{StateConfirmSlot, StateCollectInstructions, true},
		{StateCollectInstructions, StateBookingComplete, true},
		{StateBookingComplete, StateEnded, true},

		{StateStart, StateConfirmSlot, false},
		{StateDiagnoseIssue, StateBookingComplete, false},
		{StateEnded, StateStart, false},
		{StateEnded, StateGeneral, false},
		{StateBookingComplete, StateCollectDetails, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestCanTransitionSelfLoopAlwaysLegal(t *testing.T) {
	for from := range transitions {
		if !CanTransition(from, from) {
			t.Errorf("CanTransition(%s, %s) = false, want self-loop allowed", from, from)
		}
	}
}

func TestEveryStateReachableFromStart(t *testing.T) {
	reached := map[State]bool{StateStart: true}
	frontier := []State{StateStart}
	for len(frontier) > 0 {
		from := frontier[0]
		frontier = frontier[1:]
		for _, to := range transitions[from] {
			if !reached[to] {
				reached[to] = true
				frontier = append(frontier, to)
			}
		}
	}
	for state := range transitions {
		if !reached[state] {
			t.Errorf("state %s is unreachable from start", state)
		}
	}
}

func TestUrgentBookingReachableFromEveryLiveState(t *testing.T) {
	for from := range transitions {
		if from == StateEnded || from == StateUrgentBooking {
			continue
		}
		if !CanTransition(from, StateUrgentBooking) {
			t.Errorf("CanTransition(%s, urgent_booking) = false, emergencies must escalate from any live state", from)
		}
	}
}

func TestSessionTransitionRejectsUndeclaredEdge(t *testing.T) {
	s := NewSession("call-1", "+61400000001", time.Now())
	if err := s.Transition(StateConfirmSlot); err == nil {
		t.Fatal("Transition(start -> confirm_slot) error = nil, want rejection")
	}
	if s.State() != StateStart {
		t.Errorf("state after rejected transition = %s, want start unchanged", s.State())
	}
}

func TestSessionTransitionAppliesDeclaredEdge(t *testing.T) {
	s := NewSession("call-1", "+61400000001", time.Now())
	if err := s.Transition(StateDiagnoseIssue); err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if s.State() != StateDiagnoseIssue {
		t.Errorf("state = %s, want diagnose_issue", s.State())
	}
}
