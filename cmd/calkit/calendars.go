package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/guilherme-santos/calkit"
	"github.com/guilherme-santos/calkit/internal/config"
)

var CalendarsCommand = _calendarsCommand{
	Name:        "calendars",
	Description: "List the calendars",
}

type _calendarsCommand struct {
	Name        string
	Description string
}

func (s _calendarsCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	var appCalendar bool

	fs := newFlagSet(s.Name)
	fs.BoolVar(&appCalendar, "app", false, "only show the application calendar, creating it when missing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cfg, verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := ensureAccess(ctx, app.manager); err != nil {
		return err
	}

	var cals []*calkit.Calendar
	if appCalendar {
		cal, err := app.manager.ApplicationCalendar(ctx)
		if err != nil {
			return err
		}
		cals = append(cals, cal)
	} else {
		cals, err = app.manager.Calendars(ctx)
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(flag.CommandLine.Output(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCOLOR\tSOURCE\tACCESS")
	for _, c := range cals {
		access := "read/write"
		if c.ReadOnly {
			access = "read only"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Title, c.Color, c.Source, access)
	}
	return w.Flush()
}
