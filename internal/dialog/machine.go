package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/intake-ai/internal/scheduling"
	"github.com/fieldline/intake-ai/pkg/logging"
)

// Engine is the scheduling collaborator the machine invokes when a booking
// is requested. Implemented by scheduling.Engine.
type Engine interface {
	FindSlot(ctx context.Context, req scheduling.SlotRequest) *scheduling.AppointmentSlot
	Book(ctx context.Context, slot scheduling.AppointmentSlot, summary, description, location string) (reference string, err error)
}

// Notifier sends booking and follow-up notifications. Fire-and-forget:
// failures are the notifier's problem, never the conversation's.
type Notifier interface {
	BookingConfirmed(ctx context.Context, s *Session)
	CallbackRequested(ctx context.Context, s *Session)
}

// LeadSink persists collected customer data for manual follow-up.
type LeadSink interface {
	RecordLead(ctx context.Context, s *Session) error
}

// Metrics records dialogue activity. Implemented by the observability
// package; all methods must be safe to call concurrently.
type Metrics interface {
	ObserveTurn(state string)
	ObserveOutcome(outcome string)
	ObserveLLMFallback()
}

const maxFieldRetries = 3

// detailFields is the fixed priority order for detail collection. Phone is
// requested last and skipped entirely when caller ID already supplied it.
var detailFields = []string{"name", "email", "address", "phone"}

// Machine is the finite-state controller. It owns no session state itself;
// every operation takes the session explicitly, which is what makes
// concurrent calls safe.
type Machine struct {
	classifier Classifier
	engine     Engine
	notifier   Notifier
	leads      LeadSink
	metrics    Metrics
	location   *time.Location
	logger     *logging.Logger
	now        func() time.Time
}

// MachineOptions tunes optional collaborators; zero values take defaults.
type MachineOptions struct {
	Notifier Notifier
	Leads    LeadSink
	Metrics  Metrics
	Location *time.Location
	Now      func() time.Time
}

// NewMachine wires a dialogue state machine. classifier and engine are
// required.
func NewMachine(classifier Classifier, engine Engine, logger *logging.Logger, opts MachineOptions) *Machine {
	if classifier == nil {
		panic("dialog: classifier cannot be nil")
	}
	if engine == nil {
		panic("dialog: engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Machine{
		classifier: classifier,
		engine:     engine,
		notifier:   opts.Notifier,
		leads:      opts.Leads,
		metrics:    opts.Metrics,
		location:   opts.Location,
		logger:     logger.Component("dialog"),
		now:        opts.Now,
	}
}

// Greeting is the agent's opening line, spoken before any caller input.
func (m *Machine) Greeting() string {
	return "Thanks for calling Fieldline Plumbing. What can we help you with today?"
}

// Handle processes one caller utterance: it appends the utterance to the
// history, decides the next state, and returns the agent's reply. The
// interpretation priority is fixed: termination request, pending yes/no
// confirmation, emergency keywords, the current state's handler, then a
// generic recovery fallback.
func (m *Machine) Handle(ctx context.Context, s *Session, utterance string) string {
	now := m.now()
	s.AppendTurn(SpeakerCaller, utterance, now)

	reply := m.route(ctx, s, strings.TrimSpace(utterance))

	s.AppendTurn(SpeakerAgent, reply, now)
	if m.metrics != nil {
		m.metrics.ObserveTurn(string(s.State()))
	}
	return reply
}

func (m *Machine) route(ctx context.Context, s *Session, utterance string) string {
	if s.State() == StateEnded {
		return "Thanks again for calling Fieldline Plumbing. Goodbye."
	}

	if isTermination(utterance) {
		return m.finishCall(ctx, s, "caller ended call")
	}

	if s.State() == StateConfirmSlot && (isYes(utterance) || isNo(utterance)) {
		return m.handleConfirmSlot(ctx, s, utterance)
	}

	if DetectEmergency(utterance) && s.State() != StateUrgentBooking {
		return m.escalateToEmergency(ctx, s, utterance)
	}

	switch s.State() {
	case StateStart:
		return m.handleStart(ctx, s, utterance)
	case StateDiagnoseIssue:
		return m.handleDiagnose(s, utterance)
	case StateAskBooking:
		return m.handleAskBooking(s, utterance)
	case StateCollectDetails:
		return m.handleCollectDetails(ctx, s, utterance, false)
	case StateBookAppointment:
		return m.handleBookAppointment(ctx, s, utterance)
	case StateConfirmSlot:
		// Neither a yes nor a no; ask again rather than guess.
		return "Sorry, I didn't catch that. " + m.proposeSlot(s)
	case StateCollectInstructions:
		return m.handleCollectInstructions(ctx, s, utterance)
	case StateBookingComplete:
		return m.handleBookingComplete(s, utterance)
	case StateUrgentBooking:
		return m.handleCollectDetails(ctx, s, utterance, true)
	default:
		return m.handleGeneral(ctx, s, utterance)
	}
}

func (m *Machine) handleStart(ctx context.Context, s *Session, utterance string) string {
	if answer, ok := AnswerFAQ(utterance); ok {
		m.transition(s, StateGeneral)
		s.Outcome = OutcomeInquiry
		return answer + " Is there anything else I can help with?"
	}

	if urgency, ok := DetectUrgency(utterance); ok {
		s.EscalateUrgency(urgency)
	}

	issue := m.classify(ctx, s, utterance)
	if issue == IssueOther && !hasProblemLanguage(utterance) {
		m.transition(s, StateGeneral)
		return "I can help with booking a plumber or answering questions about our services. What's going on?"
	}

	s.Issue = &Issue{Type: issue, Description: utterance}
	m.transition(s, StateDiagnoseIssue)
	s.QuestionIndex = 0
	return "Sorry to hear that. " + QuestionsFor(issue)[0]
}

func (m *Machine) handleDiagnose(s *Session, utterance string) string {
	issue := IssueOther
	if s.Issue != nil {
		issue = s.Issue.Type
	}
	questions := QuestionsFor(issue)

	s.RecordAnswer(issue, s.QuestionIndex, utterance)
	s.QuestionIndex++

	if urgency, ok := DetectUrgency(utterance); ok {
		s.EscalateUrgency(urgency)
	}

	if s.QuestionIndex < len(questions) {
		return questions[s.QuestionIndex]
	}

	m.transition(s, StateAskBooking)
	return "Thanks, that gives us a good picture. Would you like me to book a technician to come out?"
}

func (m *Machine) handleAskBooking(s *Session, utterance string) string {
	switch {
	case isYes(utterance):
		m.transition(s, StateCollectDetails)
		return "Great. " + m.promptForField(s, m.nextMissingField(s))
	case isNo(utterance):
		m.transition(s, StateGeneral)
		if s.Outcome == "" {
			s.Outcome = OutcomeInquiry
		}
		return "No problem. Is there anything else I can help with?"
	default:
		return "Just to confirm, would you like me to book a technician? A yes or no is fine."
	}
}

// handleCollectDetails validates one detail field per turn. urgent skips
// the time-preference step and goes straight to a slot proposal once the
// record is complete.
func (m *Machine) handleCollectDetails(ctx context.Context, s *Session, utterance string, urgent bool) string {
	field := m.nextMissingField(s)
	if field != "" {
		value, err := extractField(field, utterance)
		if err != nil {
			if s.FieldRetry(field) >= maxFieldRetries {
				return m.offerCallback(ctx, s)
			}
			return rePrompt(field)
		}
		s.SetCustomerField(field, value, false)
		if next := m.nextMissingField(s); next != "" {
			return confirmField(field, value) + " " + m.promptForField(s, next)
		}
	}

	if urgent {
		m.transition(s, StateBookAppointment)
		return m.findAndPropose(ctx, s, scheduling.TimePreferences{})
	}
	m.transition(s, StateBookAppointment)
	return "Perfect, that's everything I need. Do you have any preferred days or times for the visit?"
}

func (m *Machine) handleBookAppointment(ctx context.Context, s *Session, utterance string) string {
	prefs := scheduling.TimePreferences{}
	if !isNo(utterance) && !strings.Contains(strings.ToLower(utterance), "whenever") {
		prefs = ParseTimePreferences(utterance)
	}
	return m.findAndPropose(ctx, s, prefs)
}

// findAndPropose runs the scheduling engine and moves to confirm_slot with
// the offer. The engine never returns nil, so the caller always hears a
// concrete time.
func (m *Machine) findAndPropose(ctx context.Context, s *Session, prefs scheduling.TimePreferences) string {
	description := ""
	if s.Issue != nil {
		description = s.Issue.Description
	}
	s.Preferences = prefs

	slot := m.engine.FindSlot(ctx, scheduling.SlotRequest{
		Address:          s.Customer.Address,
		IssueDescription: description,
		Urgency:          s.Urgency,
		Preferences:      prefs,
		AvoidStart:       s.LastOfferedStart,
	})
	s.ScheduledSlot = slot

	m.transition(s, StateConfirmSlot)
	return m.proposeSlot(s)
}

func (m *Machine) proposeSlot(s *Session) string {
	slot := s.ScheduledSlot
	if slot == nil {
		return "Let me check the diary again. Do you have any preferred days or times?"
	}
	when := slot.Start.In(m.location).Format("Monday 3:04 PM on January 2")
	if slot.Fallback {
		return fmt.Sprintf("The earliest I can pencil in is %s, and we'll confirm the exact time with you shortly. Does that work for you?", when)
	}
	return fmt.Sprintf("I can have a technician there at %s. Does that time work for you?", when)
}

func (m *Machine) handleConfirmSlot(ctx context.Context, s *Session, utterance string) string {
	if isNo(utterance) {
		s.ClearSlot()
		m.transition(s, StateBookAppointment)
		return "No worries. What other day or time would suit you better?"
	}
	return m.bookConfirmedSlot(ctx, s)
}

// bookConfirmedSlot writes the accepted slot to the calendar. The engine
// retries once internally; if the write still fails the caller is promised
// a confirmation callback and the collected data is recorded for manual
// follow-up.
func (m *Machine) bookConfirmedSlot(ctx context.Context, s *Session) string {
	slot := s.ScheduledSlot
	if slot == nil {
		m.transition(s, StateBookAppointment)
		return "Let me find you a time first. Do you have any preferred days or times?"
	}

	summary := fmt.Sprintf("%s - %s", m.issueLabel(s), s.Customer.Name)
	description := m.jobDescription(s)

	_, err := m.engine.Book(ctx, *slot, summary, description, s.Customer.Address)
	if err != nil {
		m.logger.Error("booking write failed after retry", "error", err, "session_id", s.ID)
		s.Outcome = OutcomeCallback
		m.recordLead(ctx, s)
		if m.notifier != nil {
			m.notifier.CallbackRequested(ctx, s)
		}
		m.transition(s, StateCollectInstructions)
		return "I've got all your details and your preferred time. Our team will call you back shortly to confirm the booking. " +
			"In the meantime, are there any special instructions for the plumber, like gate codes or parking?"
	}

	s.BookingReference = bookingReference(s.Customer.Phone, m.now())
	s.Outcome = OutcomeBooked
	if m.metrics != nil {
		m.metrics.ObserveOutcome(OutcomeBooked)
	}
	m.recordLead(ctx, s)
	if m.notifier != nil {
		m.notifier.BookingConfirmed(ctx, s)
	}

	m.transition(s, StateCollectInstructions)
	when := slot.Start.In(m.location).Format("Monday 3:04 PM")
	return fmt.Sprintf("You're booked for %s. Your reference is %s. "+
		"Are there any special instructions for the plumber, like gate codes or parking?", when, s.BookingReference)
}

func (m *Machine) handleCollectInstructions(ctx context.Context, s *Session, utterance string) string {
	if !isNo(utterance) && strings.TrimSpace(utterance) != "" {
		s.SetCustomerField("instructions", strings.TrimSpace(utterance), false)
		m.recordLead(ctx, s)
	}
	m.transition(s, StateBookingComplete)
	return "All noted. Is there anything else I can help you with today?"
}

func (m *Machine) handleBookingComplete(s *Session, utterance string) string {
	if answer, ok := AnswerFAQ(utterance); ok {
		return answer + " Anything else?"
	}
	if isNo(utterance) {
		// Ended is reachable from booking_complete.
		_ = s.Transition(StateEnded)
		s.PendingTermination = true
		s.TerminationReason = "conversation complete"
		return "Thanks for calling Fieldline Plumbing. We'll see you then. Goodbye!"
	}
	return "Is there anything else I can help you with?"
}

func (m *Machine) handleGeneral(ctx context.Context, s *Session, utterance string) string {
	if answer, ok := AnswerFAQ(utterance); ok {
		if s.Outcome == "" {
			s.Outcome = OutcomeInquiry
		}
		return answer + " Anything else I can help with?"
	}

	if urgency, ok := DetectUrgency(utterance); ok {
		s.EscalateUrgency(urgency)
	}

	issue := m.classify(ctx, s, utterance)
	if issue != IssueOther || hasProblemLanguage(utterance) {
		if s.Issue == nil {
			s.Issue = &Issue{Type: issue, Description: utterance}
		}
		m.transition(s, StateDiagnoseIssue)
		s.QuestionIndex = 0
		return QuestionsFor(issue)[0]
	}

	return "Sorry, I didn't quite catch that. Are you calling about a plumbing problem, or do you have a question about our services?"
}

// escalateToEmergency is the priority-3 path: urgency jumps to emergency
// and the conversation shifts to fast detail collection.
func (m *Machine) escalateToEmergency(ctx context.Context, s *Session, utterance string) string {
	s.EscalateUrgency(scheduling.UrgencyEmergency)
	if s.Issue == nil {
		s.Issue = &Issue{Type: m.classify(ctx, s, utterance), Description: utterance}
	}
	m.transition(s, StateUrgentBooking)

	safety := "First, if you can, turn off the water at the mains. "
	field := m.nextMissingField(s)
	if field == "" {
		m.transition(s, StateBookAppointment)
		return safety + m.findAndPropose(ctx, s, scheduling.TimePreferences{})
	}
	return "That sounds like an emergency, so we'll get someone to you as fast as we can. " +
		safety + m.promptForField(s, field)
}

// finishCall ends the session on a caller request, recording whatever was
// collected.
func (m *Machine) finishCall(ctx context.Context, s *Session, reason string) string {
	if s.Customer.Name != "" || s.Customer.Phone != "" {
		m.recordLead(ctx, s)
	}
	s.Terminate(reason)
	if m.metrics != nil {
		m.metrics.ObserveOutcome(s.Outcome)
	}
	if s.Outcome == OutcomeBooked {
		return "Thanks for calling Fieldline Plumbing. We'll see you at your appointment. Goodbye!"
	}
	return "Thanks for calling Fieldline Plumbing. Goodbye!"
}

func (m *Machine) offerCallback(ctx context.Context, s *Session) string {
	s.Outcome = OutcomeCallback
	m.recordLead(ctx, s)
	if m.notifier != nil {
		m.notifier.CallbackRequested(ctx, s)
	}
	if m.metrics != nil {
		m.metrics.ObserveOutcome(OutcomeCallback)
	}
	s.Terminate("detail collection failed")
	return "I'm having trouble catching that over the phone. One of our team will call you back shortly to sort out the details. Thanks for calling Fieldline Plumbing."
}

func (m *Machine) classify(ctx context.Context, s *Session, utterance string) IssueType {
	issue, err := m.classifier.Classify(ctx, utterance, s.History)
	if err != nil {
		// The composite classifier absorbs collaborator failures; an error
		// here means even the fallback path broke, so default to other.
		m.logger.Warn("classification failed", "error", err)
		return IssueOther
	}
	return issue
}

// transition applies a state change, logging and holding position when the
// edge is undeclared.
func (m *Machine) transition(s *Session, to State) {
	if err := s.Transition(to); err != nil {
		m.logger.Error("rejected state transition", "error", err, "session_id", s.ID)
	}
}

func (m *Machine) recordLead(ctx context.Context, s *Session) {
	if m.leads == nil {
		return
	}
	if err := m.leads.RecordLead(ctx, s); err != nil {
		m.logger.Warn("lead record failed", "error", err, "session_id", s.ID)
	}
}

func (m *Machine) nextMissingField(s *Session) string {
	for _, field := range detailFields {
		switch field {
		case "name":
			if s.Customer.Name == "" {
				return field
			}
		case "email":
			if s.Customer.Email == "" {
				return field
			}
		case "address":
			if s.Customer.Address == "" {
				return field
			}
		case "phone":
			// Usually auto-filled from caller ID.
			if s.Customer.Phone == "" {
				return field
			}
		}
	}
	return ""
}

func (m *Machine) promptForField(s *Session, field string) string {
	switch field {
	case "name":
		return "Could I get your full name, please?"
	case "email":
		return "And what's the best email address for your booking confirmation?"
	case "address":
		return "What's the address where you need the plumber? Please include the suburb and postcode."
	case "phone":
		return "And the best phone number to reach you on?"
	default:
		return "Could you repeat that for me?"
	}
}

func (m *Machine) issueLabel(s *Session) string {
	if s.Issue == nil {
		return "Plumbing job"
	}
	switch s.Issue.Type {
	case IssueToilet:
		return "Toilet repair"
	case IssueTap:
		return "Tap repair"
	case IssueHotWater:
		return "Hot water service"
	case IssueBurstLeak:
		return "Burst pipe / leak"
	case IssueDrain:
		return "Blocked drain"
	default:
		return "Plumbing job"
	}
}

func (m *Machine) jobDescription(s *Session) string {
	var sb strings.Builder
	if s.Issue != nil {
		sb.WriteString("Caller reported: ")
		sb.WriteString(s.Issue.Description)
	}
	sb.WriteString(fmt.Sprintf("\nUrgency: %s", s.Urgency))
	sb.WriteString(fmt.Sprintf("\nContact: %s, %s, %s", s.Customer.Name, s.Customer.Phone, s.Customer.Email))
	if s.Customer.SpecialInstructions != "" {
		sb.WriteString("\nInstructions: " + s.Customer.SpecialInstructions)
	}
	return sb.String()
}

func extractField(field, utterance string) (string, error) {
	switch field {
	case "name":
		return ExtractName(utterance)
	case "email":
		return ExtractEmail(utterance)
	case "address":
		return ExtractAddress(utterance)
	case "phone":
		return ExtractPhone(utterance)
	default:
		return "", fmt.Errorf("dialog: unknown detail field %q", field)
	}
}

func confirmField(field, value string) string {
	switch field {
	case "name":
		return fmt.Sprintf("Thanks, %s.", firstName(value))
	case "email":
		return fmt.Sprintf("Got it, %s.", value)
	case "address":
		return "Thanks, I've got the address."
	case "phone":
		return "Thanks."
	default:
		return "Thanks."
	}
}

func rePrompt(field string) string {
	switch field {
	case "name":
		return "Sorry, I didn't catch your name. Could you say your full name again?"
	case "email":
		return "That email doesn't look quite right. Could you spell it out for me, including the part after the at sign?"
	case "address":
		return "I need the full street address, including the suburb and four-digit postcode. Could you give me that again?"
	case "phone":
		return "Sorry, I didn't get that number. Could you read it out one more time?"
	default:
		return "Could you repeat that for me?"
	}
}

func firstName(full string) string {
	if idx := strings.IndexByte(full, ' '); idx > 0 {
		return full[:idx]
	}
	return full
}

// bookingReference builds the opaque human-readable booking reference:
// FL-<last 4 phone digits>-<yymmddhhmm>-<4 hex>.
func bookingReference(phone string, now time.Time) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	last4 := "0000"
	if len(digits) >= 4 {
		last4 = digits[len(digits)-4:]
	}
	return fmt.Sprintf("FL-%s-%s-%s", last4, now.Format("0601021504"), uuid.NewString()[:4])
}

var terminationPhrases = []string{
	"goodbye", "bye now", "gotta go", "have to go", "that's all", "that is all",
	"nothing else", "no thanks, bye", "hang up", "end the call",
}

func isTermination(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, phrase := range terminationPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return lower == "bye"
}

var yesWords = []string{
	"yes", "yeah", "yep", "sure", "ok", "okay", "sounds good", "that works",
	"perfect", "correct", "please do", "go ahead",
}

func isYes(utterance string) bool {
	lower := strings.ToLower(strings.Trim(utterance, " .,!?"))
	for _, w := range yesWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") {
			return true
		}
	}
	return false
}

var noWords = []string{
	"no", "nope", "nah", "not really", "doesn't work", "does not work",
	"can't do", "another time", "different time",
}

func isNo(utterance string) bool {
	lower := strings.ToLower(strings.Trim(utterance, " .,!?"))
	for _, w := range noWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") {
			return true
		}
	}
	return strings.Contains(lower, "doesn't work") || strings.Contains(lower, "another time")
}

// hasProblemLanguage is a cheap signal that the caller is describing a
// fault even when classification came back other.
func hasProblemLanguage(utterance string) bool {
	lower := strings.ToLower(utterance)
	for _, kw := range []string{"broken", "not working", "problem", "issue", "leak", "blocked", "smell", "noise", "pipe", "water"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
