package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/internal/scheduling"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool() error = %v", err)
	}
	t.Cleanup(mock.Close)
	return NewRepository(mock, nil), mock
}

func TestUpsertInsertsLead(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO leads").
		WithArgs("call-1", "John Smith", "john@example.com", "+61412345678",
			"42 Wattle Street, Blacktown NSW 2148", "", "toilet", "toilet won't flush",
			"urgent", "callback", "", (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), Lead{
		CallID:           "call-1",
		Name:             "John Smith",
		Email:            "john@example.com",
		Phone:            "+61412345678",
		Address:          "42 Wattle Street, Blacktown NSW 2148",
		IssueType:        "toilet",
		IssueDescription: "toilet won't flush",
		Urgency:          "urgent",
		Outcome:          "callback",
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertRequiresCallID(t *testing.T) {
	repo, _ := newMockRepo(t)
	if err := repo.Upsert(context.Background(), Lead{}); err == nil {
		t.Error("Upsert() error = nil, want call-id validation error")
	}
}

func TestUpsertWrapsDBError(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("INSERT INTO leads").
		WillReturnError(errors.New("connection refused"))

	if err := repo.Upsert(context.Background(), Lead{CallID: "call-1"}); err == nil {
		t.Error("Upsert() error = nil, want wrapped db error")
	}
}

func TestListPendingCallbacks(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows([]string{
		"call_id", "name", "email", "phone", "address", "special_instructions",
		"issue_type", "issue_description", "urgency", "outcome", "booking_reference",
		"slot_start", "contacted", "created_at", "updated_at",
	}).AddRow(
		"call-1", "John Smith", "john@example.com", "+61412345678", "42 Wattle St 2148", "",
		"drain", "blocked drain", "routine", "callback", "",
		(*time.Time)(nil), false, created, created,
	)
	mock.ExpectQuery("SELECT (.+) FROM leads").WillReturnRows(rows)

	leads, err := repo.ListPendingCallbacks(context.Background())
	if err != nil {
		t.Fatalf("ListPendingCallbacks() error = %v", err)
	}
	if len(leads) != 1 {
		t.Fatalf("got %d leads, want 1", len(leads))
	}
	if leads[0].CallID != "call-1" || leads[0].Outcome != "callback" {
		t.Errorf("lead = %+v", leads[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkContacted(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE leads SET contacted").
		WithArgs("call-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.MarkContacted(context.Background(), "call-1"); err != nil {
		t.Fatalf("MarkContacted() error = %v", err)
	}
}

func TestMarkContactedUnknownLead(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE leads SET contacted").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.MarkContacted(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkContacted() error = %v, want ErrNotFound", err)
	}
}

func TestRecordLeadMapsSession(t *testing.T) {
	repo, mock := newMockRepo(t)

	s := dialog.NewSession("call-9", "+61412345678", time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC))
	s.Customer = dialog.Customer{
		Name:    "Jane Doe",
		Email:   "jane@example.com",
		Phone:   "+61412345678",
		Address: "7 Ferndale Rd Normanhurst 2076",
	}
	s.Issue = &dialog.Issue{Type: dialog.IssueHotWater, Description: "no hot water"}
	s.Urgency = scheduling.UrgencyUrgent
	s.Outcome = dialog.OutcomeCallback
	slotStart := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	s.ScheduledSlot = &scheduling.AppointmentSlot{Start: slotStart}

	mock.ExpectExec("INSERT INTO leads").
		WithArgs("call-9", "Jane Doe", "jane@example.com", "+61412345678",
			"7 Ferndale Rd Normanhurst 2076", "", "hot_water", "no hot water",
			"urgent", "callback", "", &slotStart).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.RecordLead(context.Background(), s); err != nil {
		t.Fatalf("RecordLead() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
