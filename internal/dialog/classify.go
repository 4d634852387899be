package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/intake-ai/internal/llm"
	"github.com/fieldline/intake-ai/internal/scheduling"
	"github.com/fieldline/intake-ai/pkg/logging"
)

// IssueType is the closed plumbing taxonomy callers' descriptions map onto.
type IssueType string

const (
	IssueToilet    IssueType = "toilet"
	IssueTap       IssueType = "tap"
	IssueHotWater  IssueType = "hot_water"
	IssueBurstLeak IssueType = "burst_leak"
	IssueDrain     IssueType = "drain"
	IssueOther     IssueType = "other"
)

var issueTypes = map[IssueType]bool{
	IssueToilet:    true,
	IssueTap:       true,
	IssueHotWater:  true,
	IssueBurstLeak: true,
	IssueDrain:     true,
	IssueOther:     true,
}

// Classifier maps free text onto the issue taxonomy. Two interchangeable
// strategies implement it: keyword rules and an LLM, selected by
// availability.
type Classifier interface {
	Classify(ctx context.Context, text string, history []Turn) (IssueType, error)
}

// issueKeywords is matched top to bottom; the first hit wins. Burst and leak
// come first because "leaking toilet" should book the longer stabilization
// visit.
var issueKeywords = []struct {
	issue    IssueType
	keywords []string
}{
	{IssueBurstLeak, []string{"burst", "flooding", "flooded", "gushing", "leak", "leaking"}},
	{IssueHotWater, []string{"hot water", "no hot", "water heater", "hws", "cold shower"}},
	{IssueDrain, []string{"drain", "blocked", "blockage", "sewer", "gurgling", "overflow"}},
	{IssueToilet, []string{"toilet", "cistern", "flush", "loo"}},
	{IssueTap, []string{"tap", "faucet", "mixer", "dripping", "sink", "spout"}},
}

// KeywordClassifier is the rule-based strategy. It never fails.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string, _ []Turn) (IssueType, error) {
	lower := strings.ToLower(text)
	for _, entry := range issueKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.issue, nil
			}
		}
	}
	return IssueOther, nil
}

const classifySystemPrompt = `You classify plumbing problems for a service dispatcher.
Reply with exactly one word from this list and nothing else:
toilet, tap, hot_water, burst_leak, drain, other`

// LLMClassifier is the AI-backed strategy.
type LLMClassifier struct {
	client llm.Client
	model  string
}

// NewLLMClassifier creates the AI-backed classification strategy.
func NewLLMClassifier(client llm.Client, model string) *LLMClassifier {
	if client == nil {
		panic("dialog: llm client cannot be nil")
	}
	return &LLMClassifier{client: client, model: model}
}

func (c *LLMClassifier) Classify(ctx context.Context, text string, history []Turn) (IssueType, error) {
	messages := make([]llm.Message, 0, len(history)+1)
	for _, turn := range history {
		role := llm.RoleUser
		if turn.Speaker == SpeakerAgent {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: turn.Text})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	resp, err := c.client.Complete(ctx, llm.Request{
		Model:       c.model,
		System:      []string{classifySystemPrompt},
		Messages:    messages,
		MaxTokens:   8,
		Temperature: 0,
	})
	if err != nil {
		return IssueOther, fmt.Errorf("dialog: classification failed: %w", err)
	}

	label := IssueType(strings.ToLower(strings.TrimSpace(resp.Text)))
	if !issueTypes[label] {
		return IssueOther, fmt.Errorf("dialog: classifier returned unknown label %q", resp.Text)
	}
	return label, nil
}

// CompositeClassifier tries the AI strategy within a timeout and drops to
// keyword rules on any failure, so classification itself never errors out
// of a conversational turn.
type CompositeClassifier struct {
	primary    Classifier
	fallback   KeywordClassifier
	timeout    time.Duration
	logger     *logging.Logger
	onFallback func()
}

// NewCompositeClassifier wires the availability-selected classifier.
// primary may be nil, leaving only the keyword rules. onFallback, when
// non-nil, is invoked each time the primary is bypassed or fails.
func NewCompositeClassifier(primary Classifier, timeout time.Duration, logger *logging.Logger, onFallback func()) *CompositeClassifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CompositeClassifier{
		primary:    primary,
		timeout:    timeout,
		logger:     logger.Component("classifier"),
		onFallback: onFallback,
	}
}

func (c *CompositeClassifier) Classify(ctx context.Context, text string, history []Turn) (IssueType, error) {
	if c.primary != nil {
		classifyCtx, cancel := context.WithTimeout(ctx, c.timeout)
		label, err := c.primary.Classify(classifyCtx, text, history)
		cancel()
		if err == nil {
			return label, nil
		}
		c.logger.Warn("primary classifier failed, using keyword rules", "error", err)
	}
	if c.onFallback != nil {
		c.onFallback()
	}
	return c.fallback.Classify(ctx, text, history)
}

// emergencyKeywords signal situations that jump straight to urgent booking.
var emergencyKeywords = []string{
	"emergency", "burst", "flooding", "flooded", "gushing",
	"water everywhere", "sewage", "can't turn off", "cannot turn off",
}

// DetectEmergency reports whether the utterance signals an emergency.
func DetectEmergency(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DetectUrgency infers an urgency tier from the caller's words. The second
// return is false when the text carries no urgency signal.
func DetectUrgency(text string) (scheduling.Urgency, bool) {
	lower := strings.ToLower(text)
	if DetectEmergency(lower) {
		return scheduling.UrgencyEmergency, true
	}
	for _, kw := range []string{"urgent", "asap", "as soon as", "today", "right away", "straight away"} {
		if strings.Contains(lower, kw) {
			return scheduling.UrgencyUrgent, true
		}
	}
	for _, kw := range []string{"no rush", "whenever", "not urgent", "next week"} {
		if strings.Contains(lower, kw) {
			return scheduling.UrgencyRoutine, true
		}
	}
	return scheduling.UrgencyRoutine, false
}
