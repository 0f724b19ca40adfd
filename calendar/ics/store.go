// Package ics exposes ICS subscriptions, local files or http(s) feeds, as a
// read only calendar store.
package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/guilherme-santos/calkit/internal"
)

var ErrReadOnly = errors.New("ics: calendars are read only")

// maxOccurrences caps the expansion of a single recurring event.
const maxOccurrences = 5000

type Source struct {
	ID   string
	Name string
	// URL is a http(s) address or a file path.
	URL string
}

type Store struct {
	sources []Source
	loc     *time.Location
	client  *http.Client

	mu     sync.Mutex
	feeds  map[string][]vevent
	loaded bool
}

func NewStore(sources []Source, loc *time.Location) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{
		sources: sources,
		loc:     loc,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Refresh reads every source again.
func (s *Store) Refresh(ctx context.Context) error {
	feeds := make(map[string][]vevent, len(s.sources))
	for _, src := range s.sources {
		events, err := s.load(ctx, src)
		if err != nil {
			return fmt.Errorf("ics: loading %s: %w", src.ID, err)
		}
		feeds[src.ID] = events
	}

	s.mu.Lock()
	s.feeds = feeds
	s.loaded = true
	s.mu.Unlock()
	return nil
}

func (s *Store) load(ctx context.Context, src Source) ([]vevent, error) {
	var r io.ReadCloser
	if strings.HasPrefix(src.URL, "http://") || strings.HasPrefix(src.URL, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s", resp.Status)
		}
		r = resp.Body
	} else {
		f, err := os.Open(src.URL)
		if err != nil {
			return nil, err
		}
		r = f
	}
	defer r.Close()

	return parseFeed(r, s.loc)
}

func (s *Store) snapshot(ctx context.Context) (map[string][]vevent, error) {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feeds, nil
}

func (s *Store) Calendars(context.Context) ([]*internal.Calendar, error) {
	cals := make([]*internal.Calendar, len(s.sources))
	for i, src := range s.sources {
		cals[i] = &internal.Calendar{
			ID:       src.ID,
			Title:    src.Name,
			Source:   "ics",
			ReadOnly: true,
		}
	}
	return cals, nil
}

// Events returns every occurrence overlapping the predicate's range. All
// occurrences of a recurring event share the event's UID.
func (s *Store) Events(ctx context.Context, pred internal.Predicate) ([]*internal.Event, error) {
	feeds, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	events := []*internal.Event{}
	for _, calID := range pred.CalendarIDs {
		for _, ev := range feeds[calID] {
			if ev.Canceled {
				continue
			}
			occurrences, err := expand(ev, pred.Start, pred.End)
			if err != nil {
				return nil, fmt.Errorf("ics: expanding %s: %w", ev.UID, err)
			}
			for _, start := range occurrences {
				events = append(events, &internal.Event{
					ID:         ev.UID,
					CalendarID: calID,
					SeriesID:   seriesID(ev),
					Title:      ev.Title,
					StartsAt:   start,
					EndsAt:     start.Add(ev.End.Sub(ev.Start)),
					IsAllDay:   ev.AllDay,
				})
			}
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartsAt.Before(events[j].StartsAt)
	})
	return events, nil
}

func seriesID(ev vevent) string {
	if ev.RRule == "" {
		return ""
	}
	return ev.UID
}

// expand returns the start of every occurrence of ev overlapping [from, to].
func expand(ev vevent, from, to time.Time) ([]time.Time, error) {
	duration := ev.End.Sub(ev.Start)
	overlaps := func(start time.Time) bool {
		return !start.After(to) && !start.Add(duration).Before(from)
	}

	if ev.RRule == "" {
		if overlaps(ev.Start) {
			return []time.Time{ev.Start}, nil
		}
		return nil, nil
	}

	rule, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, err
	}
	rule.DTStart(ev.Start)

	var res []time.Time
	for _, start := range rule.Between(from.Add(-duration), to, true) {
		if excluded(start, ev.ExDates) || !overlaps(start) {
			continue
		}
		res = append(res, start)
		if len(res) >= maxOccurrences {
			break
		}
	}
	return res, nil
}

func excluded(t time.Time, exdates []time.Time) bool {
	for _, ex := range exdates {
		if ex.Equal(t) {
			return true
		}
	}
	return false
}

func (s *Store) Event(ctx context.Context, id string) (*internal.Event, error) {
	feeds, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for _, src := range s.sources {
		for _, ev := range feeds[src.ID] {
			if ev.UID == id && !ev.Canceled {
				return &internal.Event{
					ID:         ev.UID,
					CalendarID: src.ID,
					SeriesID:   seriesID(ev),
					Title:      ev.Title,
					StartsAt:   ev.Start,
					EndsAt:     ev.End,
					IsAllDay:   ev.AllDay,
				}, nil
			}
		}
	}
	return nil, nil
}

func (s *Store) SaveEvent(context.Context, *internal.Event, internal.Span) (*internal.Event, error) {
	return nil, ErrReadOnly
}

func (s *Store) RemoveEvent(context.Context, *internal.Event, internal.Span) error {
	return ErrReadOnly
}

func (s *Store) SaveCalendar(context.Context, *internal.Calendar) (*internal.Calendar, error) {
	return nil, ErrReadOnly
}
