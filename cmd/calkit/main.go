package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/guilherme-santos/calkit/internal/config"
)

type command struct {
	Name        string
	Description string
	Run         func(_ context.Context, _ *config.Config, verbose bool, args []string) error
}

var commands = []command{
	{AuthorizeCommand.Name, AuthorizeCommand.Description, AuthorizeCommand.Run},
	{CalendarsCommand.Name, CalendarsCommand.Description, CalendarsCommand.Run},
	{EventsCommand.Name, EventsCommand.Description, EventsCommand.Run},
	{CreateCommand.Name, CreateCommand.Description, CreateCommand.Run},
	{DeleteCommand.Name, DeleteCommand.Description, DeleteCommand.Run},
	{WatchCommand.Name, WatchCommand.Description, WatchCommand.Run},
}

var (
	configFile string
	verbose    bool
)

func init() {
	flag.StringVar(&configFile, "config", "calkit.yaml", "configuration file, created with defaults when missing")
	flag.BoolVar(&verbose, "verbose", false, "log what is being done")
	flag.Usage = usage
}

func usage() {
	w := flag.CommandLine.Output()
	fmt.Fprintf(w, "Usage of %s [options] <command> [command options]:\n", os.Args[0])
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		<-ch
		cancel()
	}()

	cfg, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Unable to load configuration:", err)
		os.Exit(1)
	}

	name := flag.Arg(0)
	for _, cmd := range commands {
		if cmd.Name != name {
			continue
		}
		if err := cmd.Run(ctx, cfg, verbose, flag.Args()[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", cmd.Name, err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", name)
	flag.Usage()
	os.Exit(2)
}
