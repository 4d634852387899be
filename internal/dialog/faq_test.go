package dialog

import (
	"strings"
	"testing"
)

func TestAnswerFAQ(t *testing.T) {
	tests := []struct {
		text     string
		wantHit  bool
		contains string
	}{
		{"how much is a call out?", true, "$120"},
		{"do you cover Penrith?", true, "Sydney"},
		{"are your plumbers licensed?", true, "licensed"},
		{"what are your opening hours?", true, "8am to 5pm"},
		{"can I pay by credit card?", true, "card"},
		{"my toilet is blocked", false, ""},
		{"", false, ""},
	}
	for _, tt := range tests {
		answer, ok := AnswerFAQ(tt.text)
		if ok != tt.wantHit {
			t.Errorf("AnswerFAQ(%q) hit = %v, want %v", tt.text, ok, tt.wantHit)
			continue
		}
		if tt.wantHit && !strings.Contains(answer, tt.contains) {
			t.Errorf("AnswerFAQ(%q) = %q, want it to mention %q", tt.text, answer, tt.contains)
		}
	}
}
