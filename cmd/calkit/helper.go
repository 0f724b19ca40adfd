package main

import (
	"bufio"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/guilherme-santos/calkit"
	"github.com/guilherme-santos/calkit/calendar"
	"github.com/guilherme-santos/calkit/calendar/google"
	"github.com/guilherme-santos/calkit/calendar/ics"
	"github.com/guilherme-santos/calkit/internal"
	"github.com/guilherme-santos/calkit/internal/config"
	"github.com/guilherme-santos/calkit/internal/sqlite"
)

type Strings []string

func (i *Strings) String() string {
	return strings.Join(*i, ", ")
}

func (i *Strings) Set(value string) error {
	*i = append(*i, value)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		w := flag.CommandLine.Output()
		fmt.Fprintf(w, "Usage of %s %s:\n", os.Args[0], fs.Name())
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Options:\n")
		fs.PrintDefaults()
	}
	return fs
}

// app is what every command works with, built from the configuration.
type app struct {
	manager *calkit.Manager
	storage *sqlite.Storage
	ics     *ics.Store
	loc     *time.Location
	db      *sql.DB
}

func newApp(cfg *config.Config, verbose bool) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(sqlite.DriverName, cfg.Database)
	if err != nil {
		return nil, err
	}
	storage := sqlite.NewStorage(db)
	storage.Prompter = stdinPrompter(os.Stdin, flag.CommandLine.Output())

	a := &app{
		storage: storage,
		ics:     ics.NewStore(icsSources(cfg), loc),
		loc:     loc,
		db:      db,
	}

	mux, err := newMux(cfg, a, verbose)
	if err != nil {
		db.Close()
		return nil, err
	}
	backend, err := mux.Get(cfg.Backend)
	if err != nil {
		db.Close()
		return nil, err
	}

	a.manager = calkit.New(calkit.Options{
		AppName:  cfg.AppName,
		Backend:  backend,
		Location: loc,
		Output:   flag.CommandLine.Output(),
		Verbose:  verbose,
	})
	return a, nil
}

func (a *app) Close() {
	a.manager.Close()
	a.db.Close()
}

func newMux(cfg *config.Config, a *app, verbose bool) (internal.Mux, error) {
	mux := calendar.NewMux()
	mux.Register(config.BackendSQLite, a.storage, a.storage)
	mux.Register(config.BackendICS, a.ics, calendar.AlwaysAuthorized{})

	// google needs its credentials file, only required when it's used
	if cfg.Backend == config.BackendGoogle {
		credJSON, err := os.ReadFile(cfg.Google.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading google credentials: %v", err)
		}
		googleCal, err := google.NewClient(credJSON, a.storage, cfg.Google.Account)
		if err != nil {
			return nil, fmt.Errorf("creating google client: %v", err)
		}
		googleCal.Verbose = verbose
		googleCal.Output = flag.CommandLine.Output()
		googleCal.Addr = cfg.Google.Addr
		mux.Register(config.BackendGoogle, googleCal, googleCal)
	}
	return mux, nil
}

func icsSources(cfg *config.Config) []ics.Source {
	sources := make([]ics.Source, len(cfg.ICS))
	for i, src := range cfg.ICS {
		sources[i] = ics.Source{ID: src.ID, Name: src.Name, URL: src.URL}
	}
	return sources
}

// stdinPrompter asks on the terminal before giving access to the local
// calendars.
func stdinPrompter(r io.Reader, w io.Writer) sqlite.Prompter {
	return func(ctx context.Context) (bool, error) {
		fmt.Fprint(w, "Allow calkit to access your calendars? [y/N]: ")

		answer := make(chan string, 1)
		errCh := make(chan error, 1)
		go func() {
			line, err := bufio.NewReader(r).ReadString('\n')
			if err != nil && line == "" {
				errCh <- err
				return
			}
			answer <- strings.TrimSpace(line)
		}()

		select {
		case a := <-answer:
			return strings.EqualFold(a, "y") || strings.EqualFold(a, "yes"), nil
		case err := <-errCh:
			return false, fmt.Errorf("reading answer: %w", err)
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

func printEvents(w io.Writer, events []*calkit.Event, loc *time.Location) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found")
		return
	}
	for _, e := range events {
		when := e.StartsAt.In(loc).Format("Mon 02 Jan 15:04") + " - " + e.EndsAt.In(loc).Format("15:04")
		if e.IsAllDay {
			when = e.StartsAt.In(loc).Format("Mon 02 Jan") + " (all day)"
		}
		fmt.Fprintf(w, "%-30s %-40q %s/%s\n", when, e.Title, e.CalendarID, e.ID)
	}
}
