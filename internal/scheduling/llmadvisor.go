package scheduling

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fieldline/intake-ai/internal/llm"
	"github.com/fieldline/intake-ai/pkg/logging"
)

const durationAdvisorSystemPrompt = `You estimate how long a plumbing job will take.
Given the caller's description of the problem, respond with ONLY a JSON object:
{"estimated_minutes": <int>, "min_minutes": <int>, "max_minutes": <int>, "complexity": "<toilet|tap|hot_water|burst_leak|drain|general>"}
Base your estimate on typical residential plumbing work. Do not include any other text.`

// LLMDurationAdvisor asks a language model to size a job from the caller's
// own words. It implements DurationAdvisor.
type LLMDurationAdvisor struct {
	client llm.Client
	model  string
	logger *logging.Logger
}

// NewLLMDurationAdvisor creates an advisor backed by the given completion
// client.
func NewLLMDurationAdvisor(client llm.Client, model string, logger *logging.Logger) *LLMDurationAdvisor {
	if client == nil {
		panic("scheduling: llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMDurationAdvisor{
		client: client,
		model:  model,
		logger: logger.Component("duration_advisor"),
	}
}

type durationAdvice struct {
	EstimatedMinutes int    `json:"estimated_minutes"`
	MinMinutes       int    `json:"min_minutes"`
	MaxMinutes       int    `json:"max_minutes"`
	Complexity       string `json:"complexity"`
}

// AdviseDuration predicts the service duration for the described job.
func (a *LLMDurationAdvisor) AdviseDuration(ctx context.Context, description string, urgency Urgency) (JobEstimate, error) {
	if strings.TrimSpace(description) == "" {
		return JobEstimate{}, fmt.Errorf("scheduling: empty job description")
	}

	resp, err := a.client.Complete(ctx, llm.Request{
		Model:  a.model,
		System: []string{durationAdvisorSystemPrompt},
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf("Urgency: %s\nProblem: %s", urgency, description)},
		},
		MaxTokens:   128,
		Temperature: 0,
	})
	if err != nil {
		return JobEstimate{}, fmt.Errorf("scheduling: duration advice failed: %w", err)
	}

	advice, err := parseDurationAdvice(resp.Text)
	if err != nil {
		a.logger.Warn("unparseable duration advice", "error", err, "text", resp.Text)
		return JobEstimate{}, err
	}

	return JobEstimate{
		EstimatedMinutes: advice.EstimatedMinutes,
		MinMinutes:       advice.MinMinutes,
		MaxMinutes:       advice.MaxMinutes,
		ComplexityTag:    advice.Complexity,
	}, nil
}

// parseDurationAdvice extracts the first JSON object from the model output.
// Models occasionally wrap the payload in prose or code fences.
func parseDurationAdvice(text string) (durationAdvice, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return durationAdvice{}, fmt.Errorf("scheduling: no JSON object in advice %q", text)
	}

	var advice durationAdvice
	if err := json.Unmarshal([]byte(text[start:end+1]), &advice); err != nil {
		return durationAdvice{}, fmt.Errorf("scheduling: decode duration advice: %w", err)
	}
	if advice.EstimatedMinutes <= 0 {
		return durationAdvice{}, fmt.Errorf("scheduling: non-positive estimate %d", advice.EstimatedMinutes)
	}
	return advice, nil
}
