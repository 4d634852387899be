package telephony

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"testing"
	"time"
)

func signPayload(secret, ts string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	v := NewWebhookVerifier("topsecret", time.Hour)
	v.now = func() time.Time { return now }

	payload := []byte(`{"data":{"event_type":"call.answered"}}`)
	ts := strconv.FormatInt(now.Unix(), 10)

	if err := v.Verify(ts, signPayload("topsecret", ts, payload), payload); err != nil {
		t.Fatalf("Verify() = %v, want nil", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	v := NewWebhookVerifier("topsecret", time.Hour)
	v.now = func() time.Time { return now }

	payload := []byte(`{"data":{}}`)
	ts := strconv.FormatInt(now.Unix(), 10)
	sig := signPayload("topsecret", ts, payload)

	if err := v.Verify(ts, sig, []byte(`{"data":{"x":1}}`)); err == nil {
		t.Fatal("Verify() accepted a tampered payload")
	}
}

func TestVerifyRejectsStaleTimestamp(t *testing.T) {
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	v := NewWebhookVerifier("topsecret", 5*time.Minute)
	v.now = func() time.Time { return now }

	payload := []byte(`{}`)
	ts := strconv.FormatInt(now.Add(-time.Hour).Unix(), 10)

	if err := v.Verify(ts, signPayload("topsecret", ts, payload), payload); err == nil {
		t.Fatal("Verify() accepted a stale timestamp")
	}
}

func TestVerifyRequiresSecret(t *testing.T) {
	v := NewWebhookVerifier("", 0)
	if err := v.Verify("1", "ab", []byte(`{}`)); err == nil {
		t.Fatal("Verify() worked without a secret")
	}
}
