// Package syncer keeps the published events in sync with the calendar store
// by fetching them again on a cron schedule.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/guilherme-santos/calkit/internal"
)

var ErrSyncing = errors.New("an error occurred while syncing, check the logs")

// Fetcher is satisfied by the calkit manager, which publishes every
// successful fetch.
type Fetcher interface {
	FetchEvents(_ context.Context, start, end time.Time, calendarIDs ...string) ([]*internal.Event, error)
}

// Reloader is a source read ahead of time that must be read again before
// fetching, e.g. an ics subscription.
type Reloader interface {
	Refresh(context.Context) error
}

type Syncer struct {
	output  io.Writer
	fetcher Fetcher
	loc     *time.Location
	now     func() time.Time

	Reloaders []Reloader
	// Days is the size of the window, starting today.
	Days        int
	CalendarIDs []string
}

func New(output io.Writer, fetcher Fetcher, loc *time.Location) *Syncer {
	if output == nil {
		output = os.Stdout
	}
	if loc == nil {
		loc = time.Local
	}
	return &Syncer{
		output:  output,
		fetcher: fetcher,
		loc:     loc,
		now:     time.Now,
		Days:    1,
	}
}

// Sync reloads the sources and fetches the window once. A source failing to
// reload doesn't stop the fetch, but Sync reports ErrSyncing.
func (s *Syncer) Sync(ctx context.Context) error {
	var foundErr bool
	for _, r := range s.Reloaders {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.Refresh(ctx); err != nil {
			logf(s.output, "Unable to reload source: %v", err)
			foundErr = true
		}
	}

	start, end := s.window()
	logf(s.output, "Syncing events from %s to %s...", formatDateTime(start), formatDateTime(end))

	events, err := s.fetcher.FetchEvents(ctx, start, end, s.CalendarIDs...)
	if err != nil {
		logf(s.output, "Unable to fetch events: %v", err)
		return err
	}
	if foundErr {
		logf(s.output, "Sync complete with error!")
		return ErrSyncing
	}
	logf(s.output, "Sync complete! %d event(s)", len(events))
	return nil
}

func (s *Syncer) window() (time.Time, time.Time) {
	days := s.Days
	if days <= 0 {
		days = 1
	}
	start := internal.StartOfDay(s.now(), s.loc)
	return start, internal.EndOfDay(start.AddDate(0, 0, days-1), s.loc)
}

// Run syncs once and then on every tick of schedule until ctx is done. Only the
// first sync failing for something else than a source is returned, later
// failures are logged.
func (s *Syncer) Run(ctx context.Context, schedule string) error {
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	_, err := c.AddFunc(schedule, func() {
		_ = s.Sync(ctx)
	})
	if err != nil {
		return fmt.Errorf("syncer: invalid schedule %q: %w", schedule, err)
	}

	if err := s.Sync(ctx); err != nil && !errors.Is(err, ErrSyncing) {
		return err
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

func formatDateTime(d time.Time) string {
	return d.In(time.Local).Format("02 Jan 06 15:04")
}

func logf(w io.Writer, format string, a ...any) {
	internal.Logf(w, "syncer:", nil, format, a...)
}
