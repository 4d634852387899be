package scheduling

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fieldline/intake-ai/pkg/logging"
)

// Calendar is the external calendar collaborator contract. Both operations
// are fallible; the engine degrades to fallback slots when they fail.
type Calendar interface {
	ListAppointments(ctx context.Context, from, to time.Time) ([]ExistingAppointment, error)
	CreateAppointment(ctx context.Context, slot AppointmentSlot, summary, description, location string) (reference string, err error)
}

// clusterRadiusMinutes is how close (in travel time) an existing same-day
// booking must be to count toward the clustering bonus.
const clusterRadiusMinutes = 20

// SlotRequest describes one booking attempt.
type SlotRequest struct {
	Address          string
	IssueDescription string
	Urgency          Urgency
	// Existing appointments to schedule around. When nil the engine fetches
	// them from the calendar collaborator.
	Existing []ExistingAppointment
	// Preferences narrows candidates to the caller's preferred days/times.
	Preferences TimePreferences
	// AvoidStart is the previously offered slot start, if any. When only a
	// fallback slot can be synthesized, the engine rotates past it instead
	// of repeating the same offer.
	AvoidStart time.Time
}

// Engine picks a conflict-free appointment slot that minimizes technician
// travel while respecting urgency and business hours.
type Engine struct {
	estimator *JobDurationEstimator
	travel    *TravelEstimator
	generator *SlotGenerator
	checker   ConflictChecker
	scorer    *SlotScorer
	calendar  Calendar
	hours     BusinessHours

	depotAddress    string
	calendarTimeout time.Duration
	observeSearch   func(time.Duration)
	logger          *logging.Logger
	now             func() time.Time
}

// EngineOptions tunes the engine; zero values take defaults.
type EngineOptions struct {
	DepotAddress    string
	CalendarTimeout time.Duration
	// SlotSearchObserver, when set, receives the wall-clock duration of
	// every FindSlot call (metrics).
	SlotSearchObserver func(time.Duration)
	Now                func() time.Time
}

// NewEngine wires a scheduling engine. calendar may be nil (tests, degraded
// mode); FindSlot then schedules against an empty diary and Book returns
// ErrNoCalendar.
func NewEngine(
	estimator *JobDurationEstimator,
	travel *TravelEstimator,
	generator *SlotGenerator,
	scorer *SlotScorer,
	calendar Calendar,
	hours BusinessHours,
	opts EngineOptions,
	logger *logging.Logger,
) *Engine {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.CalendarTimeout <= 0 {
		opts.CalendarTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		estimator:       estimator,
		travel:          travel,
		generator:       generator,
		checker:         ConflictChecker{},
		scorer:          scorer,
		calendar:        calendar,
		hours:           hours,
		depotAddress:    opts.DepotAddress,
		calendarTimeout: opts.CalendarTimeout,
		observeSearch:   opts.SlotSearchObserver,
		logger:          logger.Component("scheduling"),
		now:             opts.Now,
	}
}

// Estimate exposes the job duration estimate used for a request.
func (e *Engine) Estimate(ctx context.Context, description string, urgency Urgency) JobEstimate {
	return e.estimator.Estimate(ctx, description, urgency)
}

// ErrNoCalendar reports a Book attempt on an engine wired without a
// calendar collaborator.
var ErrNoCalendar = errors.New("scheduling: no calendar configured")

// Book writes slot to the calendar collaborator, retrying once. The caller
// handles the offline follow-up path when both attempts fail; a nil
// calendar routes straight there.
func (e *Engine) Book(ctx context.Context, slot AppointmentSlot, summary, description, location string) (string, error) {
	if e.calendar == nil {
		return "", ErrNoCalendar
	}
	bookCtx, cancel := context.WithTimeout(ctx, e.calendarTimeout)
	defer cancel()
	ref, err := e.calendar.CreateAppointment(bookCtx, slot, summary, description, location)
	if err == nil {
		return ref, nil
	}
	e.logger.Warn("calendar create failed, retrying once", "error", err)

	retryCtx, cancel2 := context.WithTimeout(ctx, e.calendarTimeout)
	defer cancel2()
	return e.calendar.CreateAppointment(retryCtx, slot, summary, description, location)
}

// FindSlot returns the best available slot for the request. It never returns
// nil: when no candidate survives, a fallback slot at the earliest acceptable
// start is synthesized so the caller always has an offer.
func (e *Engine) FindSlot(ctx context.Context, req SlotRequest) *AppointmentSlot {
	if e.observeSearch != nil {
		defer func(start time.Time) {
			e.observeSearch(time.Since(start))
		}(time.Now())
	}

	est := e.estimator.Estimate(ctx, req.IssueDescription, req.Urgency)
	earliest := e.hours.EarliestStart(e.now(), req.Urgency)

	existing := req.Existing
	diaryKnown := existing != nil
	if !diaryKnown {
		existing, diaryKnown = e.listExisting(ctx, earliest)
	}

	origin := e.lastKnownJobLocation(existing, earliest)
	travelMinutes := e.travel.Estimate(ctx, origin, req.Address)

	// Without diary data conflicts cannot be verified, so only a fallback
	// offer is safe.
	if !diaryKnown {
		return e.fallbackSlot(earliest, est, travelMinutes, req.Urgency, req.AvoidStart)
	}

	candidates := e.generator.Generate(earliest, est.EstimatedMinutes, req.Urgency, req.Preferences)
	available := e.checker.Filter(candidates, est.EstimatedMinutes, est.BufferMinutes+travelMinutes, existing)

	if len(available) == 0 {
		return e.fallbackSlot(earliest, est, travelMinutes, req.Urgency, req.AvoidStart)
	}

	nearbyByDay := e.nearbySameDay(ctx, req.Address, existing)

	type scored struct {
		candidate Candidate
		score     float64
	}
	ranked := make([]scored, 0, len(available))
	for _, start := range available {
		c := Candidate{
			Start:         start,
			TravelMinutes: travelMinutes,
			NearbySameDay: nearbyByDay[dayKey(start.In(e.hours.Location))],
		}
		ranked = append(ranked, scored{candidate: c, score: e.scorer.Score(c, earliest, req.Urgency)})
	}

	// Ties break toward the earliest start.
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].candidate.Start.Before(ranked[j].candidate.Start)
	})

	best := ranked[0]
	slot := &AppointmentSlot{
		Start:                    best.candidate.Start,
		End:                      best.candidate.Start.Add(time.Duration(est.EstimatedMinutes) * time.Minute),
		EstimatedDurationMinutes: est.EstimatedMinutes,
		TravelMinutes:            travelMinutes,
		Score:                    best.score,
		Rationale:                e.scorer.Rationale(best.candidate, earliest, req.Urgency),
	}
	e.logger.Info("slot selected",
		"start", slot.Start,
		"score", slot.Score,
		"travel_minutes", travelMinutes,
		"candidates", len(available),
	)
	return slot
}

func (e *Engine) listExisting(ctx context.Context, earliest time.Time) ([]ExistingAppointment, bool) {
	if e.calendar == nil {
		return nil, false
	}
	days := e.generator.LookaheadDays
	if days <= 0 {
		days = 7
	}
	listCtx, cancel := context.WithTimeout(ctx, e.calendarTimeout)
	defer cancel()
	existing, err := e.calendar.ListAppointments(listCtx, e.now(), earliest.AddDate(0, 0, days+1))
	if err != nil {
		e.logger.Warn("calendar list failed, only a fallback offer is possible", "error", err)
		return nil, false
	}
	if existing == nil {
		existing = []ExistingAppointment{}
	}
	return existing, true
}

// lastKnownJobLocation is where the technician is expected to be before the
// candidate window opens: the existing appointment ending last before
// earliest, or the depot when the diary is clear.
func (e *Engine) lastKnownJobLocation(existing []ExistingAppointment, earliest time.Time) string {
	location := e.depotAddress
	var latest time.Time
	for _, appt := range existing {
		if appt.Location == "" {
			continue
		}
		if appt.End.After(earliest) {
			continue
		}
		if appt.End.After(latest) {
			latest = appt.End
			location = appt.Location
		}
	}
	return location
}

// nearbySameDay counts, per local day, the existing appointments within the
// clustering radius of the new job's address.
func (e *Engine) nearbySameDay(ctx context.Context, address string, existing []ExistingAppointment) map[string]int {
	counts := make(map[string]int)
	for _, appt := range existing {
		if appt.Location == "" {
			continue
		}
		if e.travel.Estimate(ctx, address, appt.Location) > clusterRadiusMinutes {
			continue
		}
		counts[dayKey(appt.Start.In(e.hours.Location))]++
	}
	return counts
}

// fallbackSlot synthesizes a single offer when no generated candidate
// survived, so the caller is never left without one. The last offered start
// is rotated past instead of repeated.
func (e *Engine) fallbackSlot(earliest time.Time, est JobEstimate, travelMinutes int, urgency Urgency, avoid time.Time) *AppointmentSlot {
	start := RoundUp(earliest.In(e.hours.Location), 30*time.Minute)
	start = e.hours.NextOpen(start, urgency)
	if !avoid.IsZero() && start.Equal(avoid) {
		start = e.hours.NextOpen(start.Add(30*time.Minute), urgency)
	}
	e.logger.Info("no candidate survived, offering fallback slot", "start", start)
	return &AppointmentSlot{
		Start:                    start,
		End:                      start.Add(time.Duration(est.EstimatedMinutes) * time.Minute),
		EstimatedDurationMinutes: est.EstimatedMinutes,
		TravelMinutes:            travelMinutes,
		Fallback:                 true,
		Rationale:                "first available time pending diary confirmation",
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
