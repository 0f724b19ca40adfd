package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/guilherme-santos/calkit/internal"
)

const calendarScope = "calendar"

// Prompter asks the user whether the application may access the calendars.
type Prompter func(context.Context) (granted bool, err error)

func (s Storage) Status(ctx context.Context) internal.AuthorizationStatus {
	var status string
	err := s.db.GetContext(ctx, &status, `
		SELECT status FROM authorizations WHERE scope = ?
	`, calendarScope)
	if errors.Is(err, sql.ErrNoRows) {
		return internal.NotDetermined
	}
	if err != nil {
		return internal.Unknown
	}
	return internal.ParseAuthorizationStatus(status)
}

// RequestAccess prompts only while the status is not determined, the answer
// is stored and returned from then on.
func (s Storage) RequestAccess(ctx context.Context, done func(bool, error)) {
	switch status := s.Status(ctx); status {
	case internal.NotDetermined:
	case internal.Unknown:
		done(false, errors.New("sqlite: unable to read authorization status"))
		return
	default:
		done(status == internal.Authorized, nil)
		return
	}

	if s.Prompter == nil {
		done(false, errors.New("sqlite: no prompter configured"))
		return
	}

	go func() {
		granted, err := s.Prompter(ctx)
		if err != nil {
			done(false, err)
			return
		}
		status := internal.Denied
		if granted {
			status = internal.Authorized
		}
		if err := s.SetStatus(ctx, status); err != nil {
			done(false, err)
			return
		}
		done(granted, nil)
	}()
}

func (s Storage) SetStatus(ctx context.Context, status internal.AuthorizationStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authorizations (scope, status) VALUES (?, ?)
		ON CONFLICT(scope) DO UPDATE SET status = ?;
	`, calendarScope, status.String(), status.String())
	return err
}
