package google

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/calkit/internal"
)

func newCalendar(entry *calendar.CalendarListEntry) *internal.Calendar {
	return &internal.Calendar{
		ID:       entry.Id,
		Title:    entry.Summary,
		Color:    entry.BackgroundColor,
		Source:   Platform,
		ReadOnly: entry.AccessRole == "reader" || entry.AccessRole == "freeBusyReader",
	}
}

func newEvent(calID string, event *calendar.Event) *internal.Event {
	e := &internal.Event{
		ID:         event.Id,
		CalendarID: calID,
		SeriesID:   event.RecurringEventId,
		Title:      event.Summary,
	}
	if event.Start != nil {
		e.StartsAt, e.IsAllDay = parseEventDateTime(event.Start)
	}
	if event.End != nil {
		e.EndsAt, _ = parseEventDateTime(event.End)
	}
	return e
}

// parseEventDateTime reports whether the value is a whole day.
func parseEventDateTime(dt *calendar.EventDateTime) (time.Time, bool) {
	if dt.DateTime != "" {
		t, _ := time.Parse(time.RFC3339, dt.DateTime)
		return t, false
	}
	loc := time.Local
	if dt.TimeZone != "" {
		if l, err := time.LoadLocation(dt.TimeZone); err == nil {
			loc = l
		}
	}
	t, _ := time.ParseInLocation(internal.DateFormat, dt.Date, loc)
	return t, true
}

func newGoogleEvent(event *internal.Event) *calendar.Event {
	gevent := &calendar.Event{
		Summary: event.Title,
		Reminders: &calendar.EventReminders{
			UseDefault: true,
		},
	}
	if event.IsAllDay {
		loc := event.StartsAt.Location()
		start := internal.StartOfDay(event.StartsAt, loc)
		// the end date is exclusive
		end := internal.StartOfDay(event.EndsAt, loc)
		if event.EndsAt.After(end) {
			end = end.AddDate(0, 0, 1)
		}
		if !end.After(start) {
			end = start.AddDate(0, 0, 1)
		}
		gevent.Start = &calendar.EventDateTime{Date: start.Format(internal.DateFormat)}
		gevent.End = &calendar.EventDateTime{Date: end.Format(internal.DateFormat)}
		return gevent
	}
	gevent.Start = &calendar.EventDateTime{
		DateTime: event.StartsAt.Format(time.RFC3339),
	}
	gevent.End = &calendar.EventDateTime{
		DateTime: event.EndsAt.Format(time.RFC3339),
	}
	return gevent
}
