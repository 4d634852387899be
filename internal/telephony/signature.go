package telephony

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WebhookVerifier validates HMAC-signed Telnyx webhook payloads.
type WebhookVerifier struct {
	secret  string
	maxSkew time.Duration

	now func() time.Time
}

// NewWebhookVerifier builds a verifier. maxSkew bounds how stale a signed
// timestamp may be; zero means five minutes.
func NewWebhookVerifier(secret string, maxSkew time.Duration) *WebhookVerifier {
	if maxSkew <= 0 {
		maxSkew = 5 * time.Minute
	}
	return &WebhookVerifier{secret: secret, maxSkew: maxSkew, now: time.Now}
}

// Verify checks the signature headers against the raw payload.
func (v *WebhookVerifier) Verify(timestamp, signature string, payload []byte) error {
	if v.secret == "" {
		return errors.New("telephony: webhook secret not configured")
	}
	ts := strings.TrimSpace(timestamp)
	if ts == "" {
		return errors.New("telephony: missing signature timestamp")
	}
	sec, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return fmt.Errorf("telephony: invalid signature timestamp: %w", err)
	}
	sentAt := time.Unix(sec, 0)
	if diff := v.now().Sub(sentAt); diff > v.maxSkew || diff < -v.maxSkew {
		return fmt.Errorf("telephony: signature timestamp skew %s exceeds limit", diff)
	}
	unsigned := ts + "." + string(payload)
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(unsigned))
	expected := hex.EncodeToString(mac.Sum(nil))
	actual := strings.ToLower(strings.TrimSpace(signature))
	if actual == "" {
		return errors.New("telephony: missing signature header")
	}
	if !hmac.Equal([]byte(expected), []byte(actual)) {
		return errors.New("telephony: signature mismatch")
	}
	return nil
}
