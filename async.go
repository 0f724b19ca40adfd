package calkit

import (
	"context"
	"time"
)

// The Func variants run the matching call on their own goroutine and report
// through done, which is called exactly once.

func (m *Manager) RequestAuthorizationFunc(ctx context.Context, done func(AuthorizationStatus, error)) {
	go func() {
		done(m.RequestAuthorization(ctx))
	}()
}

func (m *Manager) FetchEventsFunc(ctx context.Context, start, end time.Time, calendarIDs []string, done func([]*Event, error)) {
	go func() {
		done(m.FetchEvents(ctx, start, end, calendarIDs...))
	}()
}

func (m *Manager) FetchEventsForTodayFunc(ctx context.Context, calendarIDs []string, done func([]*Event, error)) {
	go func() {
		done(m.FetchEventsForToday(ctx, calendarIDs...))
	}()
}

func (m *Manager) CreateEventFunc(ctx context.Context, req NewEvent, done func(*Event, error)) {
	go func() {
		done(m.CreateEvent(ctx, req))
	}()
}

func (m *Manager) DeleteEventFunc(ctx context.Context, id string, span Span, done func(error)) {
	go func() {
		done(m.DeleteEvent(ctx, id, span))
	}()
}
