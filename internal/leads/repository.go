package leads

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/pkg/logging"
)

var ErrNotFound = errors.New("leads: lead not found")

// DB is the subset of pgxpool.Pool the repository uses; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists leads. It implements dialog.LeadSink.
type Repository struct {
	db     DB
	logger *logging.Logger
}

// NewRepository wires a lead repository.
func NewRepository(db DB, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger.Component("leads")}
}

const upsertSQL = `
INSERT INTO leads (
	call_id, name, email, phone, address, special_instructions,
	issue_type, issue_description, urgency, outcome, booking_reference, slot_start
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (call_id) DO UPDATE SET
	name = EXCLUDED.name,
	email = EXCLUDED.email,
	phone = EXCLUDED.phone,
	address = EXCLUDED.address,
	special_instructions = EXCLUDED.special_instructions,
	issue_type = EXCLUDED.issue_type,
	issue_description = EXCLUDED.issue_description,
	urgency = EXCLUDED.urgency,
	outcome = EXCLUDED.outcome,
	booking_reference = EXCLUDED.booking_reference,
	slot_start = EXCLUDED.slot_start,
	updated_at = now()`

// Upsert inserts or refreshes a lead keyed by call id. A call's lead is
// written several times as the conversation collects more detail; the last
// write wins.
func (r *Repository) Upsert(ctx context.Context, lead Lead) error {
	if lead.CallID == "" {
		return fmt.Errorf("leads: call id is required")
	}
	_, err := r.db.Exec(ctx, upsertSQL,
		lead.CallID, lead.Name, lead.Email, lead.Phone, lead.Address,
		lead.SpecialInstructions, lead.IssueType, lead.IssueDescription,
		lead.Urgency, lead.Outcome, lead.BookingReference, lead.SlotStart,
	)
	if err != nil {
		return fmt.Errorf("leads: upsert: %w", err)
	}
	return nil
}

const listPendingSQL = `
SELECT call_id, name, email, phone, address, special_instructions,
	issue_type, issue_description, urgency, outcome, booking_reference,
	slot_start, contacted, created_at, updated_at
FROM leads
WHERE outcome = 'callback' AND contacted = false
ORDER BY created_at`

// ListPendingCallbacks returns leads still waiting for a manual follow-up
// call, oldest first.
func (r *Repository) ListPendingCallbacks(ctx context.Context) ([]Lead, error) {
	rows, err := r.db.Query(ctx, listPendingSQL)
	if err != nil {
		return nil, fmt.Errorf("leads: list pending: %w", err)
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		err := rows.Scan(
			&l.CallID, &l.Name, &l.Email, &l.Phone, &l.Address,
			&l.SpecialInstructions, &l.IssueType, &l.IssueDescription,
			&l.Urgency, &l.Outcome, &l.BookingReference,
			&l.SlotStart, &l.Contacted, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("leads: scan lead: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leads: iterate leads: %w", err)
	}
	return out, nil
}

// MarkContacted records that the office has called the lead back.
func (r *Repository) MarkContacted(ctx context.Context, callID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE leads SET contacted = true, updated_at = now() WHERE call_id = $1`, callID)
	if err != nil {
		return fmt.Errorf("leads: mark contacted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordLead satisfies dialog.LeadSink by mapping the session onto the
// ledger row.
func (r *Repository) RecordLead(ctx context.Context, s *dialog.Session) error {
	lead := Lead{
		CallID:              s.ID,
		Name:                s.Customer.Name,
		Email:               s.Customer.Email,
		Phone:               s.Customer.Phone,
		Address:             s.Customer.Address,
		SpecialInstructions: s.Customer.SpecialInstructions,
		Urgency:             string(s.Urgency),
		Outcome:             s.Outcome,
		BookingReference:    s.BookingReference,
	}
	if s.Issue != nil {
		lead.IssueType = string(s.Issue.Type)
		lead.IssueDescription = s.Issue.Description
	}
	if s.ScheduledSlot != nil {
		start := s.ScheduledSlot.Start
		lead.SlotStart = &start
	}
	return r.Upsert(ctx, lead)
}
