package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/guilherme-santos/calkit"
	"github.com/guilherme-santos/calkit/internal"
	"github.com/guilherme-santos/calkit/internal/config"
)

var AuthorizeCommand = _authorizeCommand{
	Name:        "authorize",
	Description: "Give access to the calendars",
}

type _authorizeCommand struct {
	Name        string
	Description string
}

func (s _authorizeCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	var reset bool

	fs := newFlagSet(s.Name)
	fs.BoolVar(&reset, "reset", false, "forget the previous answer and ask again (sqlite backend)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cfg, verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	w := flag.CommandLine.Output()

	if reset {
		if cfg.Backend != config.BackendSQLite {
			return fmt.Errorf("reset is only supported by the %s backend", config.BackendSQLite)
		}
		if err := app.storage.SetStatus(ctx, internal.NotDetermined); err != nil {
			return fmt.Errorf("resetting access: %v", err)
		}
	}

	status, err := app.manager.RequestAuthorization(ctx)
	if errors.Is(err, calkit.ErrUnableToAccessCalendar) {
		fmt.Fprintf(w, "Calendar access refused (%s)\n", status)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Calendar access: %s\n", status)
	return nil
}

// ensureAccess asks for access before commands that aren't gated by the
// manager itself.
func ensureAccess(ctx context.Context, m *calkit.Manager) error {
	status, err := m.RequestAuthorization(ctx)
	if err != nil {
		return err
	}
	if status != calkit.Authorized {
		return &calkit.AuthorizationError{Status: status}
	}
	return nil
}
