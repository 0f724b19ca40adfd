package calkit

import (
	"context"
	"time"

	"github.com/guilherme-santos/calkit/internal"
)

// FetchEvents returns the events overlapping [start, end] on the calendars
// with the given ids, or on every visible calendar when none is given. The
// result is deduplicated by event id and published before returning.
//
// Concurrent fetches aren't ordered against each other: the last one to
// finish is the one left published.
func (m *Manager) FetchEvents(ctx context.Context, start, end time.Time, calendarIDs ...string) ([]*Event, error) {
	if err := m.authorize(ctx); err != nil {
		return nil, err
	}

	events, err := m.queryEvents(ctx, start, end, calendarIDs)
	if err != nil {
		return nil, err
	}
	events = dedupEvents(events)

	if err := m.published.Publish(events); err != nil {
		return nil, err
	}
	m.logf(nil, "%d event(s) between %s and %s", len(events), formatDateTime(start), formatDateTime(end))
	return events, nil
}

func (m *Manager) FetchEventsForToday(ctx context.Context, calendarIDs ...string) ([]*Event, error) {
	return m.FetchEventsForDate(ctx, m.now(), calendarIDs...)
}

func (m *Manager) FetchEventsForDate(ctx context.Context, date time.Time, calendarIDs ...string) ([]*Event, error) {
	return m.FetchEvents(ctx, internal.StartOfDay(date, m.loc), internal.EndOfDay(date, m.loc), calendarIDs...)
}

// FetchEventsUntilEndOfDay fetches from start up to the end of start's day.
func (m *Manager) FetchEventsUntilEndOfDay(ctx context.Context, start time.Time, calendarIDs ...string) ([]*Event, error) {
	return m.FetchEvents(ctx, start, internal.EndOfDay(start, m.loc), calendarIDs...)
}

func (m *Manager) queryEvents(ctx context.Context, start, end time.Time, calendarIDs []string) ([]*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cals, err := m.backend.Calendars(ctx)
	if err != nil {
		return nil, internal.WrapExternal("listing calendars", err)
	}
	pred := internal.Predicate{
		Start:       start,
		End:         end,
		CalendarIDs: filterCalendars(cals, calendarIDs),
	}
	// Filtering everything out leaves nothing to ask the store for.
	if len(pred.CalendarIDs) == 0 {
		return []*Event{}, nil
	}

	events, err := m.backend.Events(ctx, pred)
	if err != nil {
		return nil, internal.WrapExternal("fetching events", err)
	}
	return events, nil
}

func filterCalendars(cals []*Calendar, ids []string) []string {
	var keep map[string]bool
	if len(ids) > 0 {
		keep = make(map[string]bool, len(ids))
		for _, id := range ids {
			keep[id] = true
		}
	}

	res := make([]string, 0, len(cals))
	for _, c := range cals {
		if keep == nil || keep[c.ID] {
			res = append(res, c.ID)
		}
	}
	return res
}

// dedupEvents keeps the first event seen for every id, in order. Stores
// return the same id more than once for recurring events.
func dedupEvents(events []*Event) []*Event {
	seen := make(map[string]bool, len(events))
	res := make([]*Event, 0, len(events))
	for _, e := range events {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		res = append(res, e)
	}
	return res
}

func formatDateTime(d time.Time) string {
	return d.In(time.Local).Format("02 Jan 06 15:04")
}
