package calkit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/guilherme-santos/calkit/internal"
)

var day = time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return day.Add(time.Duration(hour) * time.Hour)
}

func newTestStore() *fakeStore {
	return &fakeStore{
		calendars: []*Calendar{
			{ID: "A", Title: "Work"},
			{ID: "B", Title: "Home"},
		},
		events: []*Event{
			{ID: "1", CalendarID: "A", Title: "E1", StartsAt: at(10), EndsAt: at(11)},
			{ID: "2", CalendarID: "B", Title: "E2", StartsAt: at(12), EndsAt: at(13)},
		},
	}
}

func newTestManager(store *fakeStore, auth *fakeAuthorizer) *Manager {
	m := New(Options{
		AppName:  "calkit",
		Backend:  Backend{Name: "fake", Store: store, Authorizer: auth},
		Location: time.UTC,
		Output:   io.Discard,
		Now:      func() time.Time { return at(9) },
	})
	return m
}

func eventIDs(events []*Event) string {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return fmt.Sprint(ids)
}

func TestFetchEventsAllCalendars(t *testing.T) {
	m := newTestManager(newTestStore(), &fakeAuthorizer{status: Authorized})
	defer m.Close()

	events, err := m.FetchEvents(context.Background(), at(0), at(23))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := eventIDs(events); got != "[1 2]" {
		t.Fatalf("expected [1 2], got %s", got)
	}
	if got := eventIDs(m.Published().Snapshot()); got != "[1 2]" {
		t.Fatalf("expected published [1 2], got %s", got)
	}
}

func TestFetchEventsFilterCalendar(t *testing.T) {
	store := newTestStore()
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	events, err := m.FetchEvents(context.Background(), at(0), at(23), "B")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := eventIDs(events); got != "[2]" {
		t.Fatalf("expected [2], got %s", got)
	}
	if got := fmt.Sprint(store.lastPred.CalendarIDs); got != "[B]" {
		t.Fatalf("expected predicate restricted to [B], got %s", got)
	}

	// unknown ids filter everything out
	events, err = m.FetchEvents(context.Background(), at(0), at(23), "Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 0 {
		t.Fatalf("expected no events, got %s", eventIDs(events))
	}
}

func TestFetchEventsDedup(t *testing.T) {
	store := newTestStore()
	store.extra = []*Event{
		{ID: "1", CalendarID: "A", Title: "E1 again", StartsAt: at(14), EndsAt: at(15)},
		{ID: "3", CalendarID: "B", Title: "E3", StartsAt: at(16), EndsAt: at(17)},
		{ID: "2", CalendarID: "B", Title: "E2 again", StartsAt: at(18), EndsAt: at(19)},
	}
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	events, err := m.FetchEvents(context.Background(), at(0), at(23))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := eventIDs(events); got != "[1 2 3]" {
		t.Fatalf("expected [1 2 3], got %s", got)
	}
	if events[0].Title != "E1" {
		t.Fatalf("expected first occurrence to be kept, got %q", events[0].Title)
	}
}

func TestFetchEventsNotAuthorized(t *testing.T) {
	tests := []struct {
		name string
		auth *fakeAuthorizer
		want AuthorizationStatus
	}{
		{"denied", &fakeAuthorizer{status: Denied}, Denied},
		{"restricted", &fakeAuthorizer{status: Restricted}, Restricted},
		{"declined prompt", &fakeAuthorizer{status: NotDetermined, grant: false}, Denied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(newTestStore(), tt.auth)
			defer m.Close()

			previous := []*Event{{ID: "old"}}
			m.Published().Publish(previous)

			_, err := m.FetchEvents(context.Background(), at(0), at(23))
			var authErr *AuthorizationError
			if !errors.As(err, &authErr) {
				t.Fatalf("expected AuthorizationError, got %v", err)
			}
			if authErr.Status != tt.want {
				t.Fatalf("expected status %s, got %s", tt.want, authErr.Status)
			}
			if got := eventIDs(m.Published().Snapshot()); got != "[old]" {
				t.Fatalf("published list changed: %s", got)
			}
		})
	}
}

func TestFetchEventsPromptsOnce(t *testing.T) {
	auth := &fakeAuthorizer{status: NotDetermined, grant: true, hold: make(chan struct{})}
	m := newTestManager(newTestStore(), auth)
	defer m.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.FetchEvents(context.Background(), at(0), at(23))
			errs <- err
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(auth.hold)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := auth.promptCount(); n != 1 {
		t.Fatalf("expected a single prompt, got %d", n)
	}

	// status is now determined, no more prompts
	if _, err := m.FetchEvents(context.Background(), at(0), at(23)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := auth.promptCount(); n != 1 {
		t.Fatalf("expected a single prompt, got %d", n)
	}
}

func TestFetchEventsStoreError(t *testing.T) {
	store := newTestStore()
	storeErr := errors.New("store is offline")
	store.eventsErr = storeErr
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	m.Published().Publish([]*Event{{ID: "old"}})

	_, err := m.FetchEvents(context.Background(), at(0), at(23))
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	var extErr *ExternalError
	if !errors.As(err, &extErr) {
		t.Fatalf("expected ExternalError, got %T", err)
	}
	if got := eventIDs(m.Published().Snapshot()); got != "[old]" {
		t.Fatalf("published list changed: %s", got)
	}
}

func TestFetchEventsForToday(t *testing.T) {
	store := newTestStore()
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	today, err := m.FetchEventsForToday(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	todayPred := store.lastPred

	forDate, err := m.FetchEventsForDate(context.Background(), at(9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eventIDs(today) != eventIDs(forDate) {
		t.Fatalf("today %s != for date %s", eventIDs(today), eventIDs(forDate))
	}
	if !todayPred.Start.Equal(day) || !todayPred.End.Equal(day.AddDate(0, 0, 1).Add(-time.Nanosecond)) {
		t.Fatalf("unexpected range %s - %s", todayPred.Start, todayPred.End)
	}
}

func TestFetchEventsUntilEndOfDay(t *testing.T) {
	store := newTestStore()
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	events, err := m.FetchEventsUntilEndOfDay(context.Background(), at(12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := eventIDs(events); got != "[2]" {
		t.Fatalf("expected [2], got %s", got)
	}
	if !store.lastPred.Start.Equal(at(12)) {
		t.Fatalf("unexpected start %s", store.lastPred.Start)
	}
	if want := internal.EndOfDay(at(12), time.UTC); !store.lastPred.End.Equal(want) {
		t.Fatalf("expected end %s, got %s", want, store.lastPred.End)
	}
}

func TestPublishLastWriterWins(t *testing.T) {
	store := newTestStore()
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	ch, cancel := m.Published().Subscribe()
	defer cancel()
	<-ch // empty initial list

	if _, err := m.FetchEvents(context.Background(), at(0), at(23)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.FetchEvents(context.Background(), at(0), at(23), "B"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := eventIDs(m.Published().Snapshot()); got != "[2]" {
		t.Fatalf("expected [2], got %s", got)
	}
	select {
	case events := <-ch:
		if got := eventIDs(events); got != "[2]" {
			t.Fatalf("expected subscriber to see [2], got %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber not notified")
	}
}

func TestRequestAuthorization(t *testing.T) {
	t.Run("granted", func(t *testing.T) {
		m := newTestManager(newTestStore(), &fakeAuthorizer{status: NotDetermined, grant: true})
		defer m.Close()

		status, err := m.RequestAuthorization(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status != Authorized {
			t.Fatalf("expected authorized, got %s", status)
		}
	})
	t.Run("declined", func(t *testing.T) {
		m := newTestManager(newTestStore(), &fakeAuthorizer{status: NotDetermined})
		defer m.Close()

		_, err := m.RequestAuthorization(context.Background())
		if !errors.Is(err, ErrUnableToAccessCalendar) {
			t.Fatalf("expected ErrUnableToAccessCalendar, got %v", err)
		}
	})
	t.Run("platform error", func(t *testing.T) {
		platformErr := errors.New("boom")
		m := newTestManager(newTestStore(), &fakeAuthorizer{status: NotDetermined, err: platformErr})
		defer m.Close()

		_, err := m.RequestAuthorization(context.Background())
		if !errors.Is(err, platformErr) {
			t.Fatalf("expected platform error, got %v", err)
		}
	})
	t.Run("double callback", func(t *testing.T) {
		m := newTestManager(newTestStore(), &fakeAuthorizer{status: NotDetermined, grant: true, twice: true})
		defer m.Close()

		status, err := m.RequestAuthorization(context.Background())
		if err != nil || status != Authorized {
			t.Fatalf("expected first answer to win, got %s, %v", status, err)
		}
	})
	t.Run("context canceled", func(t *testing.T) {
		auth := &fakeAuthorizer{status: NotDetermined, grant: true, hold: make(chan struct{})}
		defer close(auth.hold)
		m := newTestManager(newTestStore(), auth)
		defer m.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := m.RequestAuthorization(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	})
}

func TestCreateEventUsesApplicationCalendar(t *testing.T) {
	store := newTestStore()
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	for i := 0; i < 3; i++ {
		event, err := m.CreateEvent(context.Background(), NewEvent{
			Title:    "Standup",
			StartsAt: at(9),
			EndsAt:   at(10),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.CalendarID != "cal-3" {
			t.Fatalf("expected event on application calendar, got %q", event.CalendarID)
		}
	}
	if store.savedCals != 1 {
		t.Fatalf("expected application calendar to be created once, got %d", store.savedCals)
	}
	cal, err := m.ApplicationCalendar(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cal.Title != "calkit" || cal.Color != DefaultCalendarColor {
		t.Fatalf("unexpected application calendar %+v", cal)
	}
}

func TestCreateEventExplicitCalendar(t *testing.T) {
	store := newTestStore()
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	event, err := m.CreateEvent(context.Background(), NewEvent{
		Title:    "Dentist",
		StartsAt: at(15),
		EndsAt:   at(16),
		Calendar: store.calendars[1],
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.CalendarID != "B" {
		t.Fatalf("expected calendar B, got %q", event.CalendarID)
	}
	if store.savedCals != 0 {
		t.Fatal("application calendar shouldn't be created")
	}
}

func TestCreateEventWithoutAppName(t *testing.T) {
	m := New(Options{
		Backend: Backend{Store: newTestStore(), Authorizer: &fakeAuthorizer{status: Authorized}},
		Output:  io.Discard,
	})
	defer m.Close()

	_, err := m.CreateEvent(context.Background(), NewEvent{Title: "x", StartsAt: at(1), EndsAt: at(2)})
	if !errors.Is(err, ErrUnableToAccessCalendar) {
		t.Fatalf("expected ErrUnableToAccessCalendar, got %v", err)
	}
}

func TestApplicationCalendarCreationFails(t *testing.T) {
	store := newTestStore()
	saveErr := errors.New("read only account")
	store.saveCalErr = saveErr
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	_, err := m.ApplicationCalendar(context.Background())
	if !errors.Is(err, ErrUnableToAccessCalendar) || !errors.Is(err, saveErr) {
		t.Fatalf("expected both ErrUnableToAccessCalendar and cause, got %v", err)
	}
}

func TestDeleteEvent(t *testing.T) {
	store := newTestStore()
	m := newTestManager(store, &fakeAuthorizer{status: Authorized})
	defer m.Close()

	if err := m.DeleteEvent(context.Background(), "1", SpanThisEvent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := fmt.Sprint(store.removed); got != "[1]" {
		t.Fatalf("expected [1] removed, got %s", got)
	}

	err := m.DeleteEvent(context.Background(), "404", SpanThisEvent)
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
	if len(store.events) != 1 || len(store.removed) != 1 {
		t.Fatal("store was mutated by a failed delete")
	}
}

type callResult[T any] struct {
	v   T
	err error
}

// callOnce waits for the single result sent on ch and fails if a second
// one shows up.
func callOnce[T any](t *testing.T, ch chan T) T {
	t.Helper()
	var res T
	select {
	case res = <-ch:
	case <-time.After(time.Second):
		t.Fatal("callback not called")
	}
	time.Sleep(20 * time.Millisecond)
	if len(ch) != 0 {
		t.Fatal("callback called more than once")
	}
	return res
}

func TestFuncVariantsCallBackOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("request authorization", func(t *testing.T) {
		auth := &fakeAuthorizer{status: NotDetermined, grant: true, twice: true}
		m := newTestManager(newTestStore(), auth)
		defer m.Close()

		ch := make(chan callResult[AuthorizationStatus], 2)
		m.RequestAuthorizationFunc(ctx, func(status AuthorizationStatus, err error) {
			ch <- callResult[AuthorizationStatus]{status, err}
		})
		res := callOnce(t, ch)
		if res.err != nil || res.v != Authorized {
			t.Fatalf("expected authorized, got %s, %v", res.v, res.err)
		}
	})

	t.Run("fetch events", func(t *testing.T) {
		m := newTestManager(newTestStore(), &fakeAuthorizer{status: Authorized})
		defer m.Close()

		ch := make(chan callResult[[]*Event], 2)
		m.FetchEventsFunc(ctx, at(0), at(23), nil, func(events []*Event, err error) {
			ch <- callResult[[]*Event]{events, err}
		})
		res := callOnce(t, ch)
		if res.err != nil || eventIDs(res.v) != "[1 2]" {
			t.Fatalf("expected [1 2], got %s, %v", eventIDs(res.v), res.err)
		}
	})

	t.Run("fetch events for today", func(t *testing.T) {
		store := newTestStore()
		m := newTestManager(store, &fakeAuthorizer{status: Authorized})
		defer m.Close()

		ch := make(chan callResult[[]*Event], 2)
		m.FetchEventsForTodayFunc(ctx, []string{"B"}, func(events []*Event, err error) {
			ch <- callResult[[]*Event]{events, err}
		})
		res := callOnce(t, ch)
		if res.err != nil || eventIDs(res.v) != "[2]" {
			t.Fatalf("expected [2], got %s, %v", eventIDs(res.v), res.err)
		}
		if !store.lastPred.Start.Equal(at(0)) {
			t.Fatalf("expected the range to start at midnight, got %s", store.lastPred.Start)
		}
	})

	t.Run("create event", func(t *testing.T) {
		m := newTestManager(newTestStore(), &fakeAuthorizer{status: Authorized})
		defer m.Close()

		ch := make(chan callResult[*Event], 2)
		m.CreateEventFunc(ctx, NewEvent{Title: "Standup", StartsAt: at(9), EndsAt: at(10)}, func(event *Event, err error) {
			ch <- callResult[*Event]{event, err}
		})
		res := callOnce(t, ch)
		if res.err != nil || res.v == nil || res.v.Title != "Standup" || res.v.CalendarID != "cal-3" {
			t.Fatalf("unexpected result %+v, %v", res.v, res.err)
		}
	})

	t.Run("delete event", func(t *testing.T) {
		m := newTestManager(newTestStore(), &fakeAuthorizer{status: Authorized})
		defer m.Close()

		ch := make(chan error, 2)
		m.DeleteEventFunc(ctx, "missing", SpanThisEvent, func(err error) {
			ch <- err
		})
		if err := callOnce(t, ch); !errors.Is(err, ErrInvalidEvent) {
			t.Fatalf("expected ErrInvalidEvent, got %v", err)
		}
	})
}

func TestFetchEventsAfterClose(t *testing.T) {
	m := newTestManager(newTestStore(), &fakeAuthorizer{status: Authorized})
	m.Close()

	events, err := m.FetchEvents(context.Background(), at(0), at(23))
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if events != nil {
		t.Fatalf("expected no events, got %s", eventIDs(events))
	}
}
