package calkit

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/guilherme-santos/calkit/internal"
)

type fakeStore struct {
	mu        sync.Mutex
	calendars []*Calendar
	events    []*Event
	// extra is appended to every query result, used to simulate a store
	// returning the same event twice.
	extra []*Event

	eventsErr  error
	saveCalErr error
	lastPred   internal.Predicate
	removed    []string
	savedCals  int
}

func (s *fakeStore) Calendars(context.Context) ([]*Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Calendar(nil), s.calendars...), nil
}

func (s *fakeStore) Events(_ context.Context, pred internal.Predicate) ([]*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastPred = pred
	if s.eventsErr != nil {
		return nil, s.eventsErr
	}
	cals := make(map[string]bool)
	for _, id := range pred.CalendarIDs {
		cals[id] = true
	}
	var res []*Event
	for _, e := range append(append([]*Event(nil), s.events...), s.extra...) {
		if !cals[e.CalendarID] {
			continue
		}
		if e.StartsAt.After(pred.End) || e.EndsAt.Before(pred.Start) {
			continue
		}
		res = append(res, e)
	}
	return res, nil
}

func (s *fakeStore) Event(_ context.Context, id string) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) SaveEvent(_ context.Context, e *Event, _ Span) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := *e
	saved.ID = fmt.Sprintf("event-%d", len(s.events)+1)
	s.events = append(s.events, &saved)
	return &saved, nil
}

func (s *fakeStore) RemoveEvent(_ context.Context, e *Event, _ Span) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ev := range s.events {
		if ev.ID == e.ID {
			s.events = append(s.events[:i], s.events[i+1:]...)
			s.removed = append(s.removed, e.ID)
			return nil
		}
	}
	return errors.New("not found")
}

func (s *fakeStore) SaveCalendar(_ context.Context, c *Calendar) (*Calendar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveCalErr != nil {
		return nil, s.saveCalErr
	}
	s.savedCals++
	saved := *c
	saved.ID = fmt.Sprintf("cal-%d", len(s.calendars)+1)
	s.calendars = append(s.calendars, &saved)
	return &saved, nil
}

type fakeAuthorizer struct {
	mu      sync.Mutex
	status  AuthorizationStatus
	grant   bool
	err     error
	prompts int
	// twice calls the callback a second time with the opposite answer.
	twice bool
	// hold blocks the prompt until it's closed.
	hold chan struct{}
}

func (a *fakeAuthorizer) Status(context.Context) AuthorizationStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

func (a *fakeAuthorizer) RequestAccess(_ context.Context, done func(bool, error)) {
	a.mu.Lock()
	if a.status != internal.NotDetermined {
		granted := a.status == internal.Authorized
		a.mu.Unlock()
		done(granted, nil)
		return
	}
	a.prompts++
	a.mu.Unlock()

	go func() {
		if a.hold != nil {
			<-a.hold
		}
		a.mu.Lock()
		if a.err == nil {
			if a.grant {
				a.status = internal.Authorized
			} else {
				a.status = internal.Denied
			}
		}
		grant, err, twice := a.grant, a.err, a.twice
		a.mu.Unlock()

		done(grant, err)
		if twice {
			done(!grant, err)
		}
	}()
}

func (a *fakeAuthorizer) promptCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prompts
}
