package internal

import (
	"errors"
	"fmt"
)

var (
	ErrUnableToAccessCalendar = errors.New("unable to access calendar")
	ErrInvalidEvent           = errors.New("invalid event")
)

type AuthorizationError struct {
	Status AuthorizationStatus
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("calendar access not authorized: %s", e.Status)
}

// ExternalError wraps a failure coming from the calendar store. The cause is
// left untouched so callers can inspect it with errors.Is and errors.As.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func WrapExternal(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ExternalError{Op: op, Err: err}
}
