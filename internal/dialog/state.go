// Package dialog implements the finite-state controller that drives one
// phone intake conversation: issue diagnosis, detail collection, slot
// proposal and confirmation.
package dialog

// State is the dialogue position of a call.
type State string

const (
	StateStart               State = "start"
	StateDiagnoseIssue       State = "diagnose_issue"
	StateAskBooking          State = "ask_booking"
	StateCollectDetails      State = "collect_details"
	StateBookAppointment     State = "book_appointment"
	StateConfirmSlot         State = "confirm_slot"
	StateCollectInstructions State = "collect_special_instructions"
	StateBookingComplete     State = "booking_complete"
	StateUrgentBooking       State = "urgent_booking"
	StateGeneral             State = "general"
	StateEnded               State = "ended"
)

// transitions declares every legal state edge. A session's state can only
// ever hold a value reachable from StateStart through these edges; anything
// else is rejected at the single mutation point in Session.Transition.
var transitions = map[State][]State{
	StateStart:               {StateDiagnoseIssue, StateGeneral, StateUrgentBooking, StateEnded},
	StateDiagnoseIssue:       {StateAskBooking, StateUrgentBooking, StateGeneral, StateEnded},
	StateAskBooking:          {StateCollectDetails, StateUrgentBooking, StateGeneral, StateEnded},
	StateCollectDetails:      {StateBookAppointment, StateUrgentBooking, StateEnded},
	StateBookAppointment:     {StateConfirmSlot, StateUrgentBooking, StateEnded},
	StateConfirmSlot:         {StateBookAppointment, StateCollectInstructions, StateUrgentBooking, StateEnded},
	StateCollectInstructions: {StateBookingComplete, StateUrgentBooking, StateEnded},
	StateBookingComplete:     {StateGeneral, StateUrgentBooking, StateEnded},
	StateUrgentBooking:       {StateCollectDetails, StateBookAppointment, StateConfirmSlot, StateEnded},
	StateGeneral:             {StateDiagnoseIssue, StateAskBooking, StateUrgentBooking, StateEnded},
	StateEnded:               {},
}

// CanTransition reports whether the edge from → to is declared. Staying in
// the same state is always legal.
func CanTransition(from, to State) bool {
	if from == to {
		return true
	}
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
