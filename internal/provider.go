package internal

import (
	"context"
)

// Mux resolves a backend by the name it's configured with.
type Mux interface {
	Get(name string) (Backend, error)
}

// Backend pairs a calendar store with the permission model guarding it.
type Backend struct {
	Name string
	Store
	Authorizer
}

type Store interface {
	Calendars(context.Context) ([]*Calendar, error)
	Events(context.Context, Predicate) ([]*Event, error)
	// Event returns nil without error when id doesn't exist.
	Event(_ context.Context, id string) (*Event, error)
	SaveEvent(context.Context, *Event, Span) (*Event, error)
	RemoveEvent(context.Context, *Event, Span) error
	SaveCalendar(context.Context, *Calendar) (*Calendar, error)
}

// Authorizer is the store's permission gate. RequestAccess may prompt the
// user, but only while the status is NotDetermined; otherwise it must call
// back right away with the decision already taken. The callback is expected
// to be called once, callers still guard against more.
type Authorizer interface {
	Status(context.Context) AuthorizationStatus
	RequestAccess(_ context.Context, done func(granted bool, err error))
}
