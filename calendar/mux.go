package calendar

import (
	"fmt"
	"sort"
	"sync"

	"github.com/guilherme-santos/calkit/internal"
)

var _ internal.Mux = (*Mux)(nil)

type Mux struct {
	mu       sync.Mutex
	backends map[string]internal.Backend
}

func NewMux() *Mux {
	return &Mux{
		backends: make(map[string]internal.Backend),
	}
}

func (m *Mux) Get(name string) (internal.Backend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	backend, ok := m.backends[name]
	if !ok {
		return internal.Backend{}, fmt.Errorf("calendar backend %q is not implemented", name)
	}
	return backend, nil
}

func (m *Mux) Register(name string, store internal.Store, auth internal.Authorizer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.backends[name] = internal.Backend{
		Name:       name,
		Store:      store,
		Authorizer: auth,
	}
}

func (m *Mux) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.backends))
	for name := range m.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
