package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fieldline/intake-ai/internal/dialog"
)

type fakeS3 struct {
	puts []s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.body = body
	f.puts = append(f.puts, *params)
	return &s3.PutObjectOutput{}, nil
}

func TestArchiveCallWritesDatedRecord(t *testing.T) {
	client := &fakeS3{}
	store, err := NewS3Store(client, "fieldline-calls", nil)
	if err != nil {
		t.Fatalf("NewS3Store() error = %v", err)
	}
	store.now = func() time.Time { return time.Date(2026, 9, 1, 17, 30, 0, 0, time.UTC) }

	session := dialog.NewSession("call-1", "+61412345678", time.Date(2026, 9, 1, 17, 0, 0, 0, time.UTC))
	session.Outcome = dialog.OutcomeBooked
	session.BookingReference = "FL-5678-2609011700-ab12"
	session.AppendTurn(dialog.SpeakerCaller, "my toilet is blocked", session.StartedAt)

	if err := store.ArchiveCall(context.Background(), session); err != nil {
		t.Fatalf("ArchiveCall() error = %v", err)
	}
	if len(client.puts) != 1 {
		t.Fatalf("PutObject called %d times, want 1", len(client.puts))
	}

	put := client.puts[0]
	if aws.ToString(put.Bucket) != "fieldline-calls" {
		t.Errorf("bucket = %q", aws.ToString(put.Bucket))
	}
	if got, want := aws.ToString(put.Key), "calls/2026/09/01/call-1.json"; got != want {
		t.Errorf("key = %q, want %q", got, want)
	}

	var record CallRecord
	if err := json.Unmarshal(client.body, &record); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if record.Outcome != dialog.OutcomeBooked {
		t.Errorf("Outcome = %q, want booked", record.Outcome)
	}
	if len(record.Transcript) != 1 {
		t.Errorf("Transcript = %d turns, want 1", len(record.Transcript))
	}
	if record.BookingRef != "FL-5678-2609011700-ab12" {
		t.Errorf("BookingRef = %q", record.BookingRef)
	}
}

func TestArchiveCallPropagatesPutError(t *testing.T) {
	store, _ := NewS3Store(&fakeS3{err: errors.New("bucket gone")}, "fieldline-calls", nil)
	session := dialog.NewSession("call-2", "", time.Now())
	if err := store.ArchiveCall(context.Background(), session); err == nil {
		t.Error("ArchiveCall() error = nil, want put failure")
	}
}

func TestNewS3StoreValidation(t *testing.T) {
	if _, err := NewS3Store(nil, "bucket", nil); err == nil {
		t.Error("NewS3Store(nil client) error = nil, want error")
	}
	if _, err := NewS3Store(&fakeS3{}, "", nil); err == nil {
		t.Error("NewS3Store(empty bucket) error = nil, want error")
	}
}
