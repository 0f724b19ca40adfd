package internal

import "time"

type Event struct {
	ID         string
	CalendarID string
	// SeriesID links the occurrences of a recurring event, it's empty for
	// single events.
	SeriesID string
	Title    string
	StartsAt time.Time
	EndsAt   time.Time
	IsAllDay bool
}

// Span tells the store whether a mutation applies to a single occurrence or
// to it and all the following occurrences of a recurring event.
type Span int

const (
	SpanThisEvent Span = iota
	SpanFutureEvents
)

func (s Span) String() string {
	switch s {
	case SpanThisEvent:
		return "thisEvent"
	case SpanFutureEvents:
		return "futureEvents"
	}
	return "unknown"
}

// Predicate selects events overlapping [Start, End] on the given calendars.
type Predicate struct {
	Start       time.Time
	End         time.Time
	CalendarIDs []string
}
