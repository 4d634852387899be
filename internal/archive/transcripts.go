// Package archive persists conversation data outside the process: a live
// per-call transcript in Redis while the call runs, and a JSON call record
// in S3 once it ends.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fieldline/intake-ai/internal/dialog"
)

// TranscriptStore mirrors conversation turns into Redis so a call in
// progress can be inspected from the admin API. Entries expire on their own;
// the store is a live view, not the archive of record.
type TranscriptStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTranscriptStore wraps a Redis client. ttl bounds how long a transcript
// outlives its last turn.
func NewTranscriptStore(rdb *redis.Client, ttl time.Duration) *TranscriptStore {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &TranscriptStore{rdb: rdb, ttl: ttl}
}

func transcriptKey(callID string) string {
	return "transcript:" + callID
}

// AppendTurn adds one turn to the live transcript.
func (s *TranscriptStore) AppendTurn(ctx context.Context, callID string, turn dialog.Turn) error {
	payload, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("archive: marshal turn: %w", err)
	}

	key := transcriptKey(callID)
	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("archive: append turn: %w", err)
	}
	return nil
}

// Transcript returns the turns recorded so far for a call.
func (s *TranscriptStore) Transcript(ctx context.Context, callID string) ([]dialog.Turn, error) {
	raw, err := s.rdb.LRange(ctx, transcriptKey(callID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("archive: read transcript: %w", err)
	}

	turns := make([]dialog.Turn, 0, len(raw))
	for _, item := range raw {
		var turn dialog.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("archive: decode turn: %w", err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

// Delete removes a call's live transcript, normally after archival.
func (s *TranscriptStore) Delete(ctx context.Context, callID string) error {
	if err := s.rdb.Del(ctx, transcriptKey(callID)).Err(); err != nil {
		return fmt.Errorf("archive: delete transcript: %w", err)
	}
	return nil
}
