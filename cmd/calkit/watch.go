package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/guilherme-santos/calkit/internal"
	"github.com/guilherme-santos/calkit/internal/config"
	"github.com/guilherme-santos/calkit/internal/publish"
	"github.com/guilherme-santos/calkit/internal/syncer"
)

var WatchCommand = _watchCommand{
	Name:        "watch",
	Description: "Keep fetching the upcoming events and print every update",
}

type _watchCommand struct {
	Name        string
	Description string
}

func (s _watchCommand) Run(ctx context.Context, cfg *config.Config, verbose bool, args []string) error {
	var calIDs Strings

	fs := newFlagSet(s.Name)
	fs.StringVar(&cfg.RefreshCron, "refresh", cfg.RefreshCron, "cron schedule of the refresh")
	fs.IntVar(&cfg.HorizonDays, "days", cfg.HorizonDays, "number of days to watch, starting today")
	fs.Var(&calIDs, "calendar-id", "calendar-id to watch, all when not given")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := newApp(cfg, verbose)
	if err != nil {
		return err
	}
	defer app.Close()

	w := flag.CommandLine.Output()

	updates, cancel := subscribeUpdates(app.manager.Published())
	defer cancel()
	go func() {
		for events := range updates {
			fmt.Fprintf(w, "\n%s: %d event(s)\n", time.Now().In(app.loc).Format("15:04:05"), len(events))
			printEvents(w, events, app.loc)
		}
	}()

	syncer := syncer.New(w, app.manager, app.loc)
	syncer.Days = cfg.HorizonDays
	syncer.CalendarIDs = calIDs
	if cfg.Backend == config.BackendICS {
		syncer.Reloaders = append(syncer.Reloaders, app.ics)
	}
	return syncer.Run(ctx, cfg.RefreshCron)
}

// subscribeUpdates leaves out the list held when subscribing, so only the
// results of fetches made from now on are received.
func subscribeUpdates(p *publish.Events) (<-chan []*internal.Event, func()) {
	updates, cancel := p.Subscribe()
	<-updates
	return updates, cancel
}
