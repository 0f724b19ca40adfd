package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"github.com/guilherme-santos/calkit"
	"github.com/guilherme-santos/calkit/internal"
	"github.com/guilherme-santos/calkit/internal/config"
)

var EventsCommand = _eventsCommand{
	Name:        "events",
	Description: "List the events of a date range",
}

type _eventsCommand struct {
	Name        string
	Description string
}

func (s _eventsCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	var (
		from, to      = internal.NewDate(loc), internal.NewDate(loc)
		date          = internal.NewDate(loc)
		today         bool
		untilEndOfDay bool
		calIDs        Strings
	)

	fs := newFlagSet(s.Name)
	fs.Var(&from, "from", "start of the range (e.g. 2022-08-12 or 2022-08-12T09:30)")
	fs.Var(&to, "to", "end of the range")
	fs.Var(&date, "date", "events of the whole day")
	fs.BoolVar(&today, "today", false, "events of the whole day today")
	fs.BoolVar(&untilEndOfDay, "until-end-of-day", false, "events from -from, or now, to the end of that day")
	fs.Var(&calIDs, "calendar-id", "calendar-id to list events from, all when not given")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cfg, verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	m := app.manager

	var events []*calkit.Event
	switch {
	case today:
		events, err = m.FetchEventsForToday(ctx, calIDs...)
	case !date.IsZero():
		events, err = m.FetchEventsForDate(ctx, date.Time, calIDs...)
	case untilEndOfDay:
		start := time.Now()
		if !from.IsZero() {
			start = from.Time
		}
		events, err = m.FetchEventsUntilEndOfDay(ctx, start, calIDs...)
	case !from.IsZero() && !to.IsZero():
		if to.Before(from.Time) {
			return errors.New("-to must not be before -from")
		}
		events, err = m.FetchEvents(ctx, from.Time, to.Time, calIDs...)
	default:
		fs.Usage()
		return errors.New("a range is required: -today, -date, -until-end-of-day or -from and -to")
	}
	if err != nil {
		return err
	}

	printEvents(flag.CommandLine.Output(), events, app.loc)
	return nil
}
