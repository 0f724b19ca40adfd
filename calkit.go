// Package calkit is a small convenience layer over a calendar store: it
// requests calendar access, creates and deletes events and fetches events
// for a date range, publishing the last result to an observable list.
package calkit

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/guilherme-santos/calkit/internal"
	"github.com/guilherme-santos/calkit/internal/publish"
)

type (
	AuthorizationStatus = internal.AuthorizationStatus
	AuthorizationError  = internal.AuthorizationError
	ExternalError       = internal.ExternalError
	Backend             = internal.Backend
	Calendar            = internal.Calendar
	Event               = internal.Event
	Span                = internal.Span
	Store               = internal.Store
	Authorizer          = internal.Authorizer
)

const (
	NotDetermined = internal.NotDetermined
	Denied        = internal.Denied
	Restricted    = internal.Restricted
	Authorized    = internal.Authorized
	Unknown       = internal.Unknown

	SpanThisEvent    = internal.SpanThisEvent
	SpanFutureEvents = internal.SpanFutureEvents
)

var (
	ErrUnableToAccessCalendar = internal.ErrUnableToAccessCalendar
	ErrInvalidEvent           = internal.ErrInvalidEvent
	// ErrClosed is returned by fetches once the manager is closed.
	ErrClosed                 = publish.ErrClosed
)

// DefaultCalendarColor is used when the application calendar gets created.
const DefaultCalendarColor = "#FF9500"

type Options struct {
	// AppName names the calendar created for the application's own events.
	AppName string
	Backend Backend
	// Location defines day boundaries, time.Local when nil.
	Location *time.Location

	Output  io.Writer
	Verbose bool

	// Now is used by the "today" helpers, time.Now when nil.
	Now func() time.Time
}

// Manager owns the calendar store. It's meant to be created once per
// process and shared; it's safe for concurrent use.
type Manager struct {
	appName  string
	backend  Backend
	loc      *time.Location
	now      func() time.Time
	output   io.Writer
	verbose  bool
	accessMu sync.Mutex

	// mu serializes store access.
	mu sync.Mutex

	published *publish.Events
}

func New(opts Options) *Manager {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	m := &Manager{
		appName:   opts.AppName,
		backend:   opts.Backend,
		loc:       opts.Location,
		now:       opts.Now,
		output:    opts.Output,
		verbose:   opts.Verbose,
		published: publish.NewEvents(),
	}
	if m.appName == "" {
		internal.Logf(m.output, "calkit:", nil, "application name is not configured, events can only be created on an explicit calendar")
	}
	return m
}

// Published is the observable list holding the result of the last
// successful fetch.
func (m *Manager) Published() *publish.Events {
	return m.published
}

func (m *Manager) Close() {
	m.published.Close()
}

func (m *Manager) logf(cal *Calendar, format string, a ...any) {
	if m.verbose {
		internal.Logf(m.output, "calkit:", cal, format, a...)
	}
}
