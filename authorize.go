package calkit

import (
	"context"
	"sync"

	"github.com/guilherme-santos/calkit/internal"
)

// RequestAuthorization asks the store for calendar access, which may prompt
// the user the first time, and returns the resulting status.
func (m *Manager) RequestAuthorization(ctx context.Context) (AuthorizationStatus, error) {
	m.accessMu.Lock()
	defer m.accessMu.Unlock()

	granted, err := requestAccess(ctx, m.backend.Authorizer)
	if err != nil {
		return internal.Unknown, internal.WrapExternal("requesting calendar access", err)
	}
	if !granted {
		return m.backend.Status(ctx), ErrUnableToAccessCalendar
	}
	return m.backend.Status(ctx), nil
}

// authorize gates every fetch. Access is requested only while the status is
// undetermined and concurrent callers share that single request.
func (m *Manager) authorize(ctx context.Context) error {
	status := m.backend.Status(ctx)
	if status == internal.NotDetermined {
		m.accessMu.Lock()
		status = m.backend.Status(ctx)
		if status == internal.NotDetermined {
			m.logf(nil, "requesting calendar access")
			if _, err := requestAccess(ctx, m.backend.Authorizer); err != nil {
				m.accessMu.Unlock()
				return internal.WrapExternal("requesting calendar access", err)
			}
			status = m.backend.Status(ctx)
		}
		m.accessMu.Unlock()
	}
	if status != internal.Authorized {
		return &AuthorizationError{Status: status}
	}
	return nil
}

// requestAccess turns the callback based RequestAccess into a blocking call.
// Only the first callback counts, later ones are dropped.
func requestAccess(ctx context.Context, a Authorizer) (bool, error) {
	type result struct {
		granted bool
		err     error
	}

	var once sync.Once
	resCh := make(chan result, 1)
	a.RequestAccess(ctx, func(granted bool, err error) {
		once.Do(func() {
			resCh <- result{granted: granted, err: err}
		})
	})

	select {
	case res := <-resCh:
		return res.granted && res.err == nil, res.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
