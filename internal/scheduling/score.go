package scheduling

import (
	"fmt"
	"strings"
	"time"
)

// ScoreWeights controls how candidate factors combine. Weights must sum to 1.
type ScoreWeights struct {
	Travel      float64
	Clustering  float64
	PriorityFit float64
	Efficiency  float64
}

// DefaultScoreWeights is the production weighting: travel efficiency
// dominates, then same-day clustering, then priority fit.
var DefaultScoreWeights = ScoreWeights{
	Travel:      0.40,
	Clustering:  0.30,
	PriorityFit: 0.20,
	Efficiency:  0.10,
}

// Candidate is one scored slot option.
type Candidate struct {
	Start         time.Time
	TravelMinutes int
	// NearbySameDay counts existing appointments on the candidate's day
	// within the clustering radius.
	NearbySameDay int
}

// travelCeilingMinutes is where the travel factor bottoms out; anything
// beyond an hour of driving scores zero on that axis.
const travelCeilingMinutes = 60.0

// SlotScorer ranks conflict-free candidates.
type SlotScorer struct {
	Weights ScoreWeights
	Hours   BusinessHours
}

// NewSlotScorer returns a scorer with the default weights.
func NewSlotScorer(hours BusinessHours) *SlotScorer {
	return &SlotScorer{Weights: DefaultScoreWeights, Hours: hours}
}

// Score combines travel proximity, same-day clustering, priority-timing fit,
// and time-of-day efficiency into a single [0,1] value. Each factor is
// monotonic: shorter travel, more clustering, and an earlier start relative
// to the urgency deadline never lower the score.
func (s *SlotScorer) Score(c Candidate, earliest time.Time, urgency Urgency) float64 {
	w := s.Weights
	if w.Travel+w.Clustering+w.PriorityFit+w.Efficiency == 0 {
		w = DefaultScoreWeights
	}

	travel := 1.0 - clamp01(float64(c.TravelMinutes)/travelCeilingMinutes)

	clustering := 0.0
	switch {
	case c.NearbySameDay >= 2:
		clustering = 1.0
	case c.NearbySameDay == 1:
		clustering = 0.7
	}

	delay := c.Start.Sub(earliest)
	if delay < 0 {
		delay = 0
	}
	priorityFit := 1.0 - clamp01(float64(delay)/float64(MaxDelay(urgency)))

	return w.Travel*travel +
		w.Clustering*clustering +
		w.PriorityFit*priorityFit +
		w.Efficiency*s.efficiency(c.Start)
}

// efficiency gives a mild preference for weekday work and morning starts,
// which leave room for the rest of the day's run.
func (s *SlotScorer) efficiency(start time.Time) float64 {
	local := start.In(s.Hours.Location)
	score := 0.0
	if wd := local.Weekday(); wd != time.Saturday && wd != time.Sunday {
		score += 0.5
	}
	if hour := local.Hour(); hour >= s.Hours.OpenHour && hour < 12 {
		score += 0.5
	} else if hour >= 12 && hour < 15 {
		score += 0.25
	}
	return score
}

// Rationale renders a short human-readable explanation for why a slot won.
func (s *SlotScorer) Rationale(c Candidate, earliest time.Time, urgency Urgency) string {
	var parts []string

	switch {
	case c.TravelMinutes == 0:
		parts = append(parts, "technician already in the area")
	case c.TravelMinutes <= 15:
		parts = append(parts, fmt.Sprintf("only %d min travel from the previous job", c.TravelMinutes))
	default:
		parts = append(parts, fmt.Sprintf("%d min travel from the previous job", c.TravelMinutes))
	}

	if c.NearbySameDay > 0 {
		parts = append(parts, fmt.Sprintf("groups with %d nearby booking(s) that day", c.NearbySameDay))
	}

	wait := c.Start.Sub(earliest)
	if wait <= 0 {
		parts = append(parts, "earliest available for this priority")
	} else if wait <= MaxDelay(urgency)/2 {
		parts = append(parts, "well inside the response window for this priority")
	}

	return strings.Join(parts, "; ")
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
