package scheduling

import (
	"context"
	"strings"
	"time"

	"github.com/fieldline/intake-ai/pkg/logging"
)

// DurationAdvisor is the AI-classification collaborator contract: given an
// issue description and urgency, predict how long the job will take.
type DurationAdvisor interface {
	AdviseDuration(ctx context.Context, description string, urgency Urgency) (JobEstimate, error)
}

// durationRule is one cell of the keyword rule table.
type durationRule struct {
	keywords   []string
	minMinutes int
	maxMinutes int
	tag        string
}

// durationRules is matched top to bottom; the first keyword hit wins.
var durationRules = []durationRule{
	{keywords: []string{"burst", "flooding", "gushing", "leak"}, minMinutes: 60, maxMinutes: 120, tag: "burst_leak"},
	{keywords: []string{"hot water", "no hot", "water heater", "hws"}, minMinutes: 90, maxMinutes: 180, tag: "hot_water"},
	{keywords: []string{"drain", "blocked pipe", "sewer", "gurgling"}, minMinutes: 60, maxMinutes: 120, tag: "drain"},
	{keywords: []string{"toilet", "cistern", "flush"}, minMinutes: 45, maxMinutes: 90, tag: "toilet"},
	{keywords: []string{"tap", "faucet", "mixer", "dripping", "sink"}, minMinutes: 30, maxMinutes: 60, tag: "tap"},
}

var defaultDurationRule = durationRule{minMinutes: 60, maxMinutes: 90, tag: "general"}

// JobDurationEstimator produces a JobEstimate for a booking attempt. The AI
// collaborator is consulted first; any failure or timeout drops to the
// keyword rule table so the caller always gets an estimate.
type JobDurationEstimator struct {
	advisor DurationAdvisor
	timeout time.Duration
	logger  *logging.Logger
}

// NewJobDurationEstimator creates an estimator. advisor may be nil, in which
// case only the rule table is used.
func NewJobDurationEstimator(advisor DurationAdvisor, timeout time.Duration, logger *logging.Logger) *JobDurationEstimator {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &JobDurationEstimator{
		advisor: advisor,
		timeout: timeout,
		logger:  logger.Component("job_estimate"),
	}
}

// Estimate predicts service duration plus completion buffer for a job.
func (e *JobDurationEstimator) Estimate(ctx context.Context, description string, urgency Urgency) JobEstimate {
	if e.advisor != nil {
		adviseCtx, cancel := context.WithTimeout(ctx, e.timeout)
		defer cancel()
		est, err := e.advisor.AdviseDuration(adviseCtx, description, urgency)
		if err == nil && est.EstimatedMinutes > 0 {
			if est.BufferMinutes <= 0 {
				est.BufferMinutes = bufferFor(urgency)
			}
			return clampEstimate(est)
		}
		if err != nil {
			e.logger.Warn("duration advisor failed, using rule table",
				"error", err, "urgency", string(urgency))
		}
	}
	return RuleTableEstimate(description, urgency)
}

// RuleTableEstimate is the deterministic keyword/urgency fallback.
// Emergency keywords force the shortest bucket: the technician stabilizes the
// problem first and schedules follow-up work separately.
func RuleTableEstimate(description string, urgency Urgency) JobEstimate {
	rule := matchRule(description)

	est := JobEstimate{
		MinMinutes:    rule.minMinutes,
		MaxMinutes:    rule.maxMinutes,
		ComplexityTag: rule.tag,
		BufferMinutes: bufferFor(urgency),
	}
	switch urgency {
	case UrgencyEmergency:
		est.EstimatedMinutes = rule.minMinutes
	case UrgencyUrgent:
		est.EstimatedMinutes = (rule.minMinutes + rule.maxMinutes) / 2
	default:
		est.EstimatedMinutes = (rule.minMinutes + rule.maxMinutes) / 2
	}
	return est
}

func matchRule(description string) durationRule {
	desc := strings.ToLower(description)
	for _, rule := range durationRules {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				return rule
			}
		}
	}
	return defaultDurationRule
}

// bufferFor returns the completion buffer per urgency tier. Emergencies carry
// the smallest buffer so they can be slotted in soonest.
func bufferFor(urgency Urgency) int {
	switch urgency {
	case UrgencyEmergency:
		return 15
	case UrgencyUrgent:
		return 20
	default:
		return 30
	}
}

func clampEstimate(est JobEstimate) JobEstimate {
	if est.MinMinutes <= 0 {
		est.MinMinutes = est.EstimatedMinutes
	}
	if est.MaxMinutes < est.EstimatedMinutes {
		est.MaxMinutes = est.EstimatedMinutes
	}
	if est.EstimatedMinutes < est.MinMinutes {
		est.EstimatedMinutes = est.MinMinutes
	}
	if est.ComplexityTag == "" {
		est.ComplexityTag = defaultDurationRule.tag
	}
	return est
}
