package sqlite

import (
	"time"

	"github.com/guilherme-santos/calkit/internal"
)

type Calendar struct {
	ID       string
	Title    string
	Color    string
	Source   string
	ReadOnly bool `db:"read_only"`
}

func (c Calendar) Convert() *internal.Calendar {
	return &internal.Calendar{
		ID:       c.ID,
		Title:    c.Title,
		Color:    c.Color,
		Source:   c.Source,
		ReadOnly: c.ReadOnly,
	}
}

// Event keeps times as unix nanoseconds so range comparisons don't depend
// on how a timezone was formatted.
type Event struct {
	ID         string
	CalendarID string `db:"calendar_id"`
	SeriesID   string `db:"series_id"`
	Title      string
	StartsAt   int64 `db:"starts_at"`
	EndsAt     int64 `db:"ends_at"`
	AllDay     bool  `db:"all_day"`
}

func newEvent(e *internal.Event) Event {
	return Event{
		ID:         e.ID,
		CalendarID: e.CalendarID,
		SeriesID:   e.SeriesID,
		Title:      e.Title,
		StartsAt:   e.StartsAt.UnixNano(),
		EndsAt:     e.EndsAt.UnixNano(),
		AllDay:     e.IsAllDay,
	}
}

func (e Event) Convert() *internal.Event {
	return &internal.Event{
		ID:         e.ID,
		CalendarID: e.CalendarID,
		SeriesID:   e.SeriesID,
		Title:      e.Title,
		StartsAt:   time.Unix(0, e.StartsAt),
		EndsAt:     time.Unix(0, e.EndsAt),
		IsAllDay:   e.AllDay,
	}
}
