package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/guilherme-santos/calkit"
	"github.com/guilherme-santos/calkit/internal"
	"github.com/guilherme-santos/calkit/internal/config"
)

var CreateCommand = _createCommand{
	Name:        "create",
	Description: "Create an event, on the application calendar by default",
}

type _createCommand struct {
	Name        string
	Description string
}

func (s _createCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var (
		title      string
		calID      string
		allDay     bool
		start, end = internal.NewDate(loc), internal.NewDate(loc)
		duration   time.Duration
	)

	fs := newFlagSet(s.Name)
	fs.StringVar(&title, "title", "", "title of the event")
	fs.StringVar(&calID, "calendar-id", "", "calendar to create the event on, the application calendar when empty")
	fs.Var(&start, "start", "when the event starts (e.g. 2022-08-12T09:30)")
	fs.Var(&end, "end", "when the event ends")
	fs.DurationVar(&duration, "duration", time.Hour, "duration of the event when -end isn't given")
	fs.BoolVar(&allDay, "all-day", false, "the event takes the whole day of -start")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if title == "" || start.IsZero() {
		fs.Usage()
		return errors.New("-title and -start are required")
	}

	req := calkit.NewEvent{
		Title:    title,
		StartsAt: start.Time,
		EndsAt:   end.Time,
		IsAllDay: allDay,
	}
	switch {
	case allDay:
		req.StartsAt = internal.StartOfDay(start.Time, loc)
		req.EndsAt = internal.EndOfDay(start.Time, loc)
	case end.IsZero():
		req.EndsAt = start.Add(duration)
	case end.Before(start.Time):
		return errors.New("-end must not be before -start")
	}

	app, err := newApp(cfg, verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := ensureAccess(ctx, app.manager); err != nil {
		return err
	}

	if calID != "" {
		cals, err := app.manager.Calendars(ctx)
		if err != nil {
			return err
		}
		for _, c := range cals {
			if c.ID == calID {
				req.Calendar = c
			}
		}
		if req.Calendar == nil {
			return fmt.Errorf("calendar %q not found", calID)
		}
	}

	event, err := app.manager.CreateEvent(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(flag.CommandLine.Output(), "Event %s created on %s\n", event.ID, event.CalendarID)
	return nil
}
