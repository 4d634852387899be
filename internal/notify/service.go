// Package notify sends booking confirmations and operator alerts. Every
// send is fire-and-forget: a notification failure is logged and dropped,
// never surfaced into the conversation.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/pkg/logging"
)

// EmailSender delivers one email. Implemented by the SendGrid and SES
// senders.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers one text message. Implemented by the telephony client.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Service fans booking events out to email and SMS. It implements
// dialog.Notifier.
type Service struct {
	email         EmailSender
	sms           SMSSender
	operatorEmail string
	operatorPhone string
	timeout       time.Duration
	logger        *logging.Logger
	// async is disabled in tests so sends can be asserted synchronously.
	async bool
}

// ServiceOptions configures the notification fan-out. A nil sender silently
// disables that channel.
type ServiceOptions struct {
	Email         EmailSender
	SMS           SMSSender
	OperatorEmail string
	OperatorPhone string
	Timeout       time.Duration
	Synchronous   bool
}

// NewService wires the notification service.
func NewService(logger *logging.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Service{
		email:         opts.Email,
		sms:           opts.SMS,
		operatorEmail: opts.OperatorEmail,
		operatorPhone: opts.OperatorPhone,
		timeout:       opts.Timeout,
		logger:        logger.Component("notify"),
		async:         !opts.Synchronous,
	}
}

// BookingConfirmed sends the customer their confirmation email and SMS.
func (s *Service) BookingConfirmed(_ context.Context, session *dialog.Session) {
	slot := session.ScheduledSlot
	if slot == nil {
		return
	}
	when := slot.Start.Format("Monday 3:04 PM, 2 January")

	s.dispatch(func(ctx context.Context) {
		if s.email != nil && session.Customer.Email != "" {
			subject := fmt.Sprintf("Fieldline Plumbing booking %s", session.BookingReference)
			body := fmt.Sprintf(
				"Hi %s,\n\nYour plumber is booked for %s at %s.\nBooking reference: %s\n\n"+
					"If anything changes, just call us back.\n\nFieldline Plumbing",
				session.Customer.Name, when, session.Customer.Address, session.BookingReference)
			if err := s.email.Send(ctx, session.Customer.Email, subject, body); err != nil {
				s.logger.Warn("confirmation email failed", "error", err, "session_id", session.ID)
			}
		}
		if s.sms != nil && session.Customer.Phone != "" {
			body := fmt.Sprintf("Fieldline Plumbing: you're booked for %s. Ref %s.", when, session.BookingReference)
			if err := s.sms.SendSMS(ctx, session.Customer.Phone, body); err != nil {
				s.logger.Warn("confirmation sms failed", "error", err, "session_id", session.ID)
			}
		}
	})
}

// CallbackRequested alerts the operator that a caller needs a manual
// follow-up.
func (s *Service) CallbackRequested(_ context.Context, session *dialog.Session) {
	s.dispatch(func(ctx context.Context) {
		issue := "unknown issue"
		if session.Issue != nil {
			issue = session.Issue.Description
		}
		if s.email != nil && s.operatorEmail != "" {
			subject := fmt.Sprintf("Callback needed: %s (%s)", session.Customer.Name, session.Urgency)
			body := fmt.Sprintf(
				"Caller needs a manual follow-up.\n\nName: %s\nPhone: %s\nEmail: %s\nAddress: %s\nIssue: %s\nUrgency: %s\n",
				session.Customer.Name, session.Customer.Phone, session.Customer.Email,
				session.Customer.Address, issue, session.Urgency)
			if err := s.email.Send(ctx, s.operatorEmail, subject, body); err != nil {
				s.logger.Warn("operator callback email failed", "error", err, "session_id", session.ID)
			}
		}
		if s.sms != nil && s.operatorPhone != "" {
			body := fmt.Sprintf("Callback needed: %s on %s (%s).", session.Customer.Name, session.Customer.Phone, session.Urgency)
			if err := s.sms.SendSMS(ctx, s.operatorPhone, body); err != nil {
				s.logger.Warn("operator callback sms failed", "error", err, "session_id", session.ID)
			}
		}
	})
}

// dispatch runs fn detached from the conversational turn with its own
// deadline, so a slow provider cannot stall a reply.
func (s *Service) dispatch(fn func(ctx context.Context)) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		fn(ctx)
	}
	if s.async {
		go run()
		return
	}
	run()
}
