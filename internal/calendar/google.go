// Package calendar provides the technician diary collaborators behind the
// scheduling.Calendar contract: Google Calendar in production, an in-memory
// diary for development and tests.
package calendar

import (
	"context"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/fieldline/intake-ai/internal/scheduling"
	"github.com/fieldline/intake-ai/pkg/logging"
)

// GoogleCalendar reads and writes the technician diary through the Google
// Calendar API.
type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
	logger     *logging.Logger
}

// NewGoogleCalendar builds a client from service-account credentials JSON.
func NewGoogleCalendar(ctx context.Context, credentialsJSON []byte, calendarID string, logger *logging.Logger) (*GoogleCalendar, error) {
	if len(credentialsJSON) == 0 {
		return nil, fmt.Errorf("calendar: google credentials are required")
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar: calendar id is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc, err := gcal.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google calendar service: %w", err)
	}

	return &GoogleCalendar{
		svc:        svc,
		calendarID: calendarID,
		logger:     logger.Component("google_calendar"),
	}, nil
}

// ListAppointments returns the diary entries between from and to.
func (c *GoogleCalendar) ListAppointments(ctx context.Context, from, to time.Time) ([]scheduling.ExistingAppointment, error) {
	events, err := c.svc.Events.List(c.calendarID).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}

	appointments := make([]scheduling.ExistingAppointment, 0, len(events.Items))
	for _, item := range events.Items {
		appt, ok := eventToAppointment(item)
		if !ok {
			continue
		}
		appointments = append(appointments, appt)
	}
	return appointments, nil
}

// CreateAppointment writes a booked slot to the diary and returns the event
// id.
func (c *GoogleCalendar) CreateAppointment(ctx context.Context, slot scheduling.AppointmentSlot, summary, description, location string) (string, error) {
	event := &gcal.Event{
		Summary:     summary,
		Description: description,
		Location:    location,
		Start:       &gcal.EventDateTime{DateTime: slot.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: slot.End.Format(time.RFC3339)},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}

	c.logger.Info("appointment created", "event_id", created.Id, "start", slot.Start)
	return created.Id, nil
}

// eventToAppointment converts an API event, skipping all-day entries (which
// carry a date but no timestamp) and anything unparsable.
func eventToAppointment(item *gcal.Event) (scheduling.ExistingAppointment, bool) {
	if item == nil || item.Start == nil || item.End == nil {
		return scheduling.ExistingAppointment{}, false
	}
	if item.Start.DateTime == "" || item.End.DateTime == "" {
		return scheduling.ExistingAppointment{}, false
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return scheduling.ExistingAppointment{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return scheduling.ExistingAppointment{}, false
	}

	return scheduling.ExistingAppointment{
		Start:    start,
		End:      end,
		Location: item.Location,
	}, true
}
