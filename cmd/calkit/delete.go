package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/guilherme-santos/calkit"
	"github.com/guilherme-santos/calkit/internal/config"
)

var DeleteCommand = _deleteCommand{
	Name:        "delete",
	Description: "Delete an event",
}

type _deleteCommand struct {
	Name        string
	Description string
}

func (s _deleteCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	var (
		id     string
		future bool
	)

	fs := newFlagSet(s.Name)
	fs.StringVar(&id, "id", "", "id of the event")
	fs.BoolVar(&future, "future", false, "also delete the following occurrences of a recurring event")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id == "" {
		fs.Usage()
		return errors.New("-id is required")
	}

	span := calkit.SpanThisEvent
	if future {
		span = calkit.SpanFutureEvents
	}

	app, err := newApp(cfg, verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := ensureAccess(ctx, app.manager); err != nil {
		return err
	}
	if err := app.manager.DeleteEvent(ctx, id, span); err != nil {
		return err
	}
	fmt.Fprintf(flag.CommandLine.Output(), "Event %s deleted (%s)\n", id, span)
	return nil
}
