package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldline/intake-ai/internal/scheduling"
)

// MemoryCalendar is an in-process diary for development and tests.
type MemoryCalendar struct {
	mu    sync.Mutex
	appts []scheduling.ExistingAppointment
}

// NewMemoryCalendar creates an empty diary, optionally pre-seeded.
func NewMemoryCalendar(seed ...scheduling.ExistingAppointment) *MemoryCalendar {
	return &MemoryCalendar{appts: append([]scheduling.ExistingAppointment{}, seed...)}
}

func (c *MemoryCalendar) ListAppointments(_ context.Context, from, to time.Time) ([]scheduling.ExistingAppointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]scheduling.ExistingAppointment, 0, len(c.appts))
	for _, appt := range c.appts {
		if appt.End.Before(from) || appt.Start.After(to) {
			continue
		}
		out = append(out, appt)
	}
	return out, nil
}

func (c *MemoryCalendar) CreateAppointment(_ context.Context, slot scheduling.AppointmentSlot, _, _, location string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appts = append(c.appts, scheduling.ExistingAppointment{
		Start:    slot.Start,
		End:      slot.End,
		Location: location,
	})
	return "mem-" + uuid.NewString()[:8], nil
}

// Len reports the number of stored appointments.
func (c *MemoryCalendar) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.appts)
}
