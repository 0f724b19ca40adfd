package google

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/guilherme-santos/calkit/internal"
)

func (c *Client) Calendars(ctx context.Context) ([]*internal.Calendar, error) {
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return nil, err
	}

	var cals []*internal.Calendar
	err = svc.CalendarList.List().Context(ctx).Pages(ctx, func(list *calendar.CalendarList) error {
		for _, entry := range list.Items {
			cals = append(cals, newCalendar(entry))
		}
		return nil
	})
	if err != nil {
		c.logf(nil, "unable to get list of calendars: %v", err)
		return nil, err
	}
	return cals, nil
}

// Events expands recurring events into their occurrences and returns them
// ordered by start time within each calendar.
func (c *Client) Events(ctx context.Context, pred internal.Predicate) ([]*internal.Event, error) {
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return nil, err
	}

	events := []*internal.Event{}
	for _, calID := range pred.CalendarIDs {
		cal := &internal.Calendar{ID: calID}
		c.logf(cal, "checking for events")

		call := svc.Events.
			List(calID).
			Context(ctx).
			ShowDeleted(false).
			SingleEvents(true).
			OrderBy("startTime").
			TimeMin(pred.Start.Format(time.RFC3339)).
			TimeMax(pred.End.Format(time.RFC3339))

		err := call.Pages(ctx, func(list *calendar.Events) error {
			for _, item := range list.Items {
				if item.Status == "cancelled" {
					continue
				}
				events = append(events, newEvent(calID, item))
			}
			return nil
		})
		if err != nil {
			c.logf(cal, "unable to get list of events: %v", err)
			return nil, err
		}
	}
	return events, nil
}

// Event looks the id up on every calendar of the account.
func (c *Client) Event(ctx context.Context, id string) (*internal.Event, error) {
	cals, err := c.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return nil, err
	}

	for _, cal := range cals {
		gevent, err := svc.Events.Get(cal.ID, id).Context(ctx).Do()
		if notFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if gevent.Status == "cancelled" {
			continue
		}
		return newEvent(cal.ID, gevent), nil
	}
	return nil, nil
}

func (c *Client) SaveEvent(ctx context.Context, event *internal.Event, span internal.Span) (*internal.Event, error) {
	cal := &internal.Calendar{ID: event.CalendarID}
	msg := fmt.Sprintf("saving event: %q on %s... ", event.Title, event.StartsAt)
	defer func() {
		c.logf(cal, "%s", msg)
	}()

	svc, err := c.calendarSvc(ctx)
	if err != nil {
		msg += "❌"
		return nil, err
	}

	var gevent *calendar.Event
	switch {
	case event.ID == "":
		gevent, err = svc.Events.Insert(event.CalendarID, newGoogleEvent(event)).Context(ctx).Do()
	case span == internal.SpanFutureEvents && event.SeriesID != "":
		gevent, err = svc.Events.Patch(event.CalendarID, event.SeriesID, &calendar.Event{Summary: event.Title}).Context(ctx).Do()
	default:
		gevent, err = svc.Events.Update(event.CalendarID, event.ID, newGoogleEvent(event)).Context(ctx).Do()
	}
	if err != nil {
		msg += "❌"
		return nil, err
	}
	msg += "✅"
	return newEvent(event.CalendarID, gevent), nil
}

// RemoveEvent deletes the event. With SpanFutureEvents on an occurrence the
// whole series is deleted, the API has no way to cut it at an occurrence.
func (c *Client) RemoveEvent(ctx context.Context, event *internal.Event, span internal.Span) error {
	cal := &internal.Calendar{ID: event.CalendarID}
	id := event.ID
	if span == internal.SpanFutureEvents && event.SeriesID != "" {
		id = event.SeriesID
	}

	msg := fmt.Sprintf("deleting event %s... ", id)
	defer func() {
		c.logf(cal, "%s", msg)
	}()

	svc, err := c.calendarSvc(ctx)
	if err != nil {
		msg += "❌"
		return err
	}
	err = svc.Events.Delete(event.CalendarID, id).Context(ctx).Do()
	if err != nil && !alreadyDeleted(err) {
		msg += "❌"
		return err
	}
	msg += "✅"
	return nil
}

func (c *Client) SaveCalendar(ctx context.Context, cal *internal.Calendar) (*internal.Calendar, error) {
	svc, err := c.calendarSvc(ctx)
	if err != nil {
		return nil, err
	}

	gcal, err := svc.Calendars.Insert(&calendar.Calendar{Summary: cal.Title}).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	saved := &internal.Calendar{
		ID:     gcal.Id,
		Title:  gcal.Summary,
		Source: Platform,
	}
	c.logf(saved, "calendar created")

	if cal.Color == "" {
		return saved, nil
	}
	entry, err := svc.CalendarList.Patch(gcal.Id, &calendar.CalendarListEntry{
		BackgroundColor: cal.Color,
		ForegroundColor: "#000000",
	}).ColorRgbFormat(true).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	saved.Color = entry.BackgroundColor
	return saved, nil
}
