package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/guilherme-santos/calkit/internal"
)

const DriverName = "sqlite3"

// Storage is a calendar store kept in a local sqlite database. It also
// stores the credentials of remote backends.
type Storage struct {
	db *sqlx.DB

	// Prompter is asked for calendar access while it isn't decided yet.
	Prompter Prompter
}

func NewStorage(db *sql.DB) *Storage {
	s := &Storage{
		db: sqlx.NewDb(db, DriverName),
	}
	err := s.RunMigrations()
	if err != nil {
		panic(fmt.Sprintf("sqlite: running migrations: %v", err))
	}
	return s
}

func (s Storage) AddAccount(ctx context.Context, account *internal.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, auth) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET auth=?;
	`, account.ID(), account.Auth, account.Auth)
	return err
}

// Account returns nil when there's no account with the given id.
func (s Storage) Account(ctx context.Context, platform, name string) (*internal.Account, error) {
	acc := &internal.Account{
		Platform: platform,
		Name:     name,
	}
	err := s.db.GetContext(ctx, &acc.Auth, `
		SELECT auth FROM accounts WHERE id = ?
	`, acc.ID())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s Storage) Calendars(ctx context.Context) ([]*internal.Calendar, error) {
	var cals []Calendar

	err := s.db.SelectContext(ctx, &cals, `
		SELECT id, title, color, source, read_only
		FROM calendars
		ORDER BY title, id
	`)
	if err != nil {
		return nil, err
	}

	res := make([]*internal.Calendar, len(cals))
	for i, c := range cals {
		res[i] = c.Convert()
	}
	return res, nil
}

func (s Storage) SaveCalendar(ctx context.Context, cal *internal.Calendar) (*internal.Calendar, error) {
	saved := *cal
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	if saved.Source == "" {
		saved.Source = "local"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendars (id, title, color, source, read_only)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE
			SET title = ?, color = ?;
	`, saved.ID, saved.Title, saved.Color, saved.Source, saved.ReadOnly, saved.Title, saved.Color)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// Events returns the events overlapping the predicate's range, ordered by
// start time.
func (s Storage) Events(ctx context.Context, pred internal.Predicate) ([]*internal.Event, error) {
	if len(pred.CalendarIDs) == 0 {
		return []*internal.Event{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, calendar_id, series_id, title, starts_at, ends_at, all_day
		FROM events
		WHERE calendar_id IN (?)
			AND starts_at <= ?
			AND ends_at >= ?
		ORDER BY starts_at, id
	`, pred.CalendarIDs, pred.End.UnixNano(), pred.Start.UnixNano())
	if err != nil {
		return nil, err
	}

	var events []Event
	err = s.db.SelectContext(ctx, &events, s.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}

	res := make([]*internal.Event, len(events))
	for i, e := range events {
		res[i] = e.Convert()
	}
	return res, nil
}

func (s Storage) Event(ctx context.Context, id string) (*internal.Event, error) {
	var e Event
	err := s.db.GetContext(ctx, &e, `
		SELECT id, calendar_id, series_id, title, starts_at, ends_at, all_day
		FROM events
		WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e.Convert(), nil
}

// SaveEvent inserts or updates the event. The span only matters for updates
// of recurring events, where SpanFutureEvents moves the title to every later
// occurrence as well.
func (s Storage) SaveEvent(ctx context.Context, event *internal.Event, span internal.Span) (*internal.Event, error) {
	saved := *event
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	e := newEvent(&saved)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var readOnly bool
	err = tx.GetContext(ctx, &readOnly, `SELECT read_only FROM calendars WHERE id = ?`, e.CalendarID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("calendar %s not found", e.CalendarID)
	}
	if err != nil {
		return nil, err
	}
	if readOnly {
		return nil, fmt.Errorf("calendar %s is read only", e.CalendarID)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO events (id, calendar_id, series_id, title, starts_at, ends_at, all_day)
		VALUES (:id, :calendar_id, :series_id, :title, :starts_at, :ends_at, :all_day)
		ON CONFLICT(id) DO UPDATE
			SET calendar_id = :calendar_id, title = :title, starts_at = :starts_at,
				ends_at = :ends_at, all_day = :all_day;
	`, e)
	if err != nil {
		return nil, err
	}

	if span == internal.SpanFutureEvents && e.SeriesID != "" {
		_, err = tx.ExecContext(ctx, `
			UPDATE events SET title = ?
			WHERE series_id = ? AND starts_at > ?
		`, e.Title, e.SeriesID, e.StartsAt)
		if err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &saved, nil
}

// RemoveEvent deletes the event, and with SpanFutureEvents every later
// occurrence of its series too.
func (s Storage) RemoveEvent(ctx context.Context, event *internal.Event, span internal.Span) error {
	if span == internal.SpanFutureEvents && event.SeriesID != "" {
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM events WHERE series_id = ? AND starts_at >= ?
		`, event.SeriesID, event.StartsAt.UnixNano())
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM events WHERE id = ?
	`, event.ID)
	return err
}
