package dialog

import (
	"fmt"
	"time"

	"github.com/fieldline/intake-ai/internal/scheduling"
)

// Speaker identifies who produced a conversation turn.
type Speaker string

const (
	SpeakerCaller Speaker = "caller"
	SpeakerAgent  Speaker = "agent"
)

// Turn is one utterance in the conversation history.
type Turn struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Customer is the typed record of details collected during a call. Fields
// are set exactly once unless the caller explicitly corrects them.
type Customer struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	Address             string `json:"address"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}

// Complete reports whether enough detail exists to book. Phone is not
// required here because caller ID usually supplies it.
func (c Customer) Complete() bool {
	return c.Name != "" && c.Email != "" && c.Address != ""
}

// Issue is the classified problem plus the caller's own description.
type Issue struct {
	Type        IssueType `json:"type"`
	Description string    `json:"description"`
}

// Call outcomes recorded when a session ends.
const (
	OutcomeBooked    = "booked"
	OutcomeCallback  = "callback"
	OutcomeAbandoned = "abandoned"
	OutcomeInquiry   = "inquiry"
)

// Session holds the dialogue state, collected customer fields and
// scheduling results for one call. It is owned by a single worker while the
// call is active, so its fields need no locking.
type Session struct {
	ID          string    `json:"id"`
	CallerPhone string    `json:"caller_phone"`
	StartedAt   time.Time `json:"started_at"`

	state   State
	History []Turn `json:"history"`

	Issue    *Issue             `json:"issue,omitempty"`
	Urgency  scheduling.Urgency `json:"urgency"`
	Customer Customer           `json:"customer"`

	ScheduledSlot    *scheduling.AppointmentSlot `json:"scheduled_slot,omitempty"`
	BookingReference string                      `json:"booking_reference,omitempty"`
	LastOfferedStart time.Time                   `json:"last_offered_start,omitempty"`
	Preferences      scheduling.TimePreferences  `json:"preferences,omitempty"`

	PendingTermination bool   `json:"pending_termination"`
	TerminationReason  string `json:"termination_reason,omitempty"`
	Outcome            string `json:"outcome,omitempty"`

	// ScreeningAnswers stores diagnosis answers keyed by issue type and
	// question index, e.g. "toilet/1".
	ScreeningAnswers map[string]string `json:"screening_answers,omitempty"`
	QuestionIndex    int               `json:"question_index"`

	fieldRetries map[string]int
	LastActivity time.Time `json:"last_activity"`
}

// NewSession creates a session at the start state. callerPhone may be empty
// when caller ID is withheld; the phone field is then collected like any
// other detail.
func NewSession(id, callerPhone string, now time.Time) *Session {
	return &Session{
		ID:               id,
		CallerPhone:      callerPhone,
		StartedAt:        now,
		state:            StateStart,
		Urgency:          scheduling.UrgencyRoutine,
		Customer:         Customer{Phone: callerPhone},
		ScreeningAnswers: make(map[string]string),
		fieldRetries:     make(map[string]int),
		LastActivity:     now,
	}
}

// State returns the current dialogue state.
func (s *Session) State() State {
	return s.state
}

// Transition moves the session to a new state. This is the only place the
// state field is written; an undeclared edge leaves the state unchanged and
// returns an error for the caller to log.
func (s *Session) Transition(to State) error {
	if !CanTransition(s.state, to) {
		return fmt.Errorf("dialog: illegal transition %s -> %s", s.state, to)
	}
	s.state = to
	return nil
}

// AppendTurn records an utterance in the conversation history.
func (s *Session) AppendTurn(speaker Speaker, text string, at time.Time) {
	s.History = append(s.History, Turn{Speaker: speaker, Text: text, At: at})
	s.LastActivity = at
}

// EscalateUrgency raises the urgency tier. Urgency never silently
// downgrades within a session.
func (s *Session) EscalateUrgency(u scheduling.Urgency) {
	if u.Rank() > s.Urgency.Rank() {
		s.Urgency = u
	}
}

// RecordAnswer stores a screening answer keyed by issue type and question
// index.
func (s *Session) RecordAnswer(issueType IssueType, index int, answer string) {
	s.ScreeningAnswers[fmt.Sprintf("%s/%d", issueType, index)] = answer
}

// SetCustomerField writes a collected detail. A field already holding a
// value is only overwritten when correction is true.
func (s *Session) SetCustomerField(field, value string, correction bool) {
	target := map[string]*string{
		"name":         &s.Customer.Name,
		"email":        &s.Customer.Email,
		"phone":        &s.Customer.Phone,
		"address":      &s.Customer.Address,
		"instructions": &s.Customer.SpecialInstructions,
	}[field]
	if target == nil {
		return
	}
	if *target != "" && !correction {
		return
	}
	*target = value
}

// FieldRetry bumps and returns the rejection count for a detail field.
func (s *Session) FieldRetry(field string) int {
	if s.fieldRetries == nil {
		s.fieldRetries = make(map[string]int)
	}
	s.fieldRetries[field]++
	return s.fieldRetries[field]
}

// ClearSlot drops a rejected proposal, remembering its start so the next
// search rotates past it.
func (s *Session) ClearSlot() {
	if s.ScheduledSlot != nil {
		s.LastOfferedStart = s.ScheduledSlot.Start
	}
	s.ScheduledSlot = nil
}

// Terminate marks the call finished and moves to the ended state.
func (s *Session) Terminate(reason string) {
	s.PendingTermination = true
	s.TerminationReason = reason
	// Ended is reachable from every state.
	_ = s.Transition(StateEnded)
	if s.Outcome == "" {
		s.Outcome = OutcomeAbandoned
	}
}
