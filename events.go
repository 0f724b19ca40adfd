package calkit

import (
	"context"
	"fmt"
	"time"

	"github.com/guilherme-santos/calkit/internal"
)

type NewEvent struct {
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
	Span     Span
	IsAllDay bool
	// Calendar defaults to the application calendar.
	Calendar *Calendar
}

func (m *Manager) Calendars(ctx context.Context) ([]*Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cals, err := m.backend.Calendars(ctx)
	if err != nil {
		return nil, internal.WrapExternal("listing calendars", err)
	}
	return cals, nil
}

// ApplicationCalendar returns the calendar named after the application,
// creating it the first time it's needed.
func (m *Manager) ApplicationCalendar(ctx context.Context) (*Calendar, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.applicationCalendar(ctx)
}

func (m *Manager) applicationCalendar(ctx context.Context) (*Calendar, error) {
	if m.appName == "" {
		return nil, ErrUnableToAccessCalendar
	}

	cals, err := m.backend.Calendars(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnableToAccessCalendar, internal.WrapExternal("listing calendars", err))
	}
	for _, c := range cals {
		if c.Title == m.appName && !c.ReadOnly {
			return c, nil
		}
	}

	m.logf(nil, "creating calendar %q", m.appName)
	cal, err := m.backend.SaveCalendar(ctx, &Calendar{
		Title: m.appName,
		Color: DefaultCalendarColor,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnableToAccessCalendar, internal.WrapExternal("creating calendar", err))
	}
	return cal, nil
}

func (m *Manager) CreateEvent(ctx context.Context, req NewEvent) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cal := req.Calendar
	if cal == nil {
		var err error
		cal, err = m.applicationCalendar(ctx)
		if err != nil {
			return nil, err
		}
	}

	m.logf(cal, "creating event: %q on %s", req.Title, formatDateTime(req.StartsAt))
	event, err := m.backend.SaveEvent(ctx, &Event{
		CalendarID: cal.ID,
		Title:      req.Title,
		StartsAt:   req.StartsAt,
		EndsAt:     req.EndsAt,
		IsAllDay:   req.IsAllDay,
	}, req.Span)
	if err != nil {
		return nil, internal.WrapExternal("creating event", err)
	}
	return event, nil
}

func (m *Manager) DeleteEvent(ctx context.Context, id string, span Span) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	event, err := m.backend.Event(ctx, id)
	if err != nil {
		return internal.WrapExternal("looking up event", err)
	}
	if event == nil {
		return fmt.Errorf("%w: %s not found", ErrInvalidEvent, id)
	}

	m.logf(nil, "deleting event %s: %q on %s", event.ID, event.Title, formatDateTime(event.StartsAt))
	if err := m.backend.RemoveEvent(ctx, event, span); err != nil {
		return internal.WrapExternal("deleting event", err)
	}
	return nil
}
