package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fieldline/intake-ai/internal/dialog"
	"github.com/fieldline/intake-ai/internal/scheduling"
	"github.com/fieldline/intake-ai/pkg/logging"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// CallRecord is the durable JSON document written per finished call.
type CallRecord struct {
	CallID      string                      `json:"call_id"`
	CallerPhone string                      `json:"caller_phone"`
	StartedAt   time.Time                   `json:"started_at"`
	EndedAt     time.Time                   `json:"ended_at"`
	Outcome     string                      `json:"outcome"`
	Urgency     scheduling.Urgency          `json:"urgency"`
	Issue       *dialog.Issue               `json:"issue,omitempty"`
	Customer    dialog.Customer             `json:"customer"`
	Slot        *scheduling.AppointmentSlot `json:"slot,omitempty"`
	BookingRef  string                      `json:"booking_reference,omitempty"`
	Transcript  []dialog.Turn               `json:"transcript"`
}

// S3Store archives finished call records to S3. It implements
// dialog.Archiver.
type S3Store struct {
	client s3API
	bucket string
	logger *logging.Logger
	now    func() time.Time
}

// NewS3Store wraps an S3 client and target bucket.
func NewS3Store(client s3API, bucket string, logger *logging.Logger) (*S3Store, error) {
	if client == nil {
		return nil, fmt.Errorf("archive: s3 client is required")
	}
	if bucket == "" {
		return nil, fmt.Errorf("archive: bucket name is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{
		client: client,
		bucket: bucket,
		logger: logger.Component("archive"),
		now:    time.Now,
	}, nil
}

// ArchiveCall writes the session's call record. Keys are date-partitioned
// so records can be listed by day.
func (s *S3Store) ArchiveCall(ctx context.Context, session *dialog.Session) error {
	ended := s.now()
	record := CallRecord{
		CallID:      session.ID,
		CallerPhone: session.CallerPhone,
		StartedAt:   session.StartedAt,
		EndedAt:     ended,
		Outcome:     session.Outcome,
		Urgency:     session.Urgency,
		Issue:       session.Issue,
		Customer:    session.Customer,
		Slot:        session.ScheduledSlot,
		BookingRef:  session.BookingReference,
		Transcript:  session.History,
	}

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("archive: marshal call record: %w", err)
	}

	key := callRecordKey(session.ID, ended)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("archive: put call record: %w", err)
	}

	s.logger.Info("call archived", "call_id", session.ID, "key", key, "outcome", session.Outcome)
	return nil
}

func callRecordKey(callID string, ended time.Time) string {
	return fmt.Sprintf("calls/%s/%s.json", ended.UTC().Format("2006/01/02"), callID)
}
