// Package publish holds the observable list of the last fetched events.
//
// The list is confined to a single owner goroutine: writers dispatch their
// update to it and wait until it's applied, readers get copies. Subscribers
// only ever see whole lists, never a partial write.
package publish

import (
	"errors"
	"sync"

	"github.com/guilherme-santos/calkit/internal"
)

var ErrClosed = errors.New("publish: events list is closed")

type Events struct {
	dispatch chan func()
	done     chan struct{}
	once     sync.Once

	// mu guards reads from outside the owner goroutine, only the owner
	// writes.
	mu     sync.RWMutex
	events []*internal.Event

	nextID int
	subs   map[int]chan []*internal.Event
}

func NewEvents() *Events {
	p := &Events{
		dispatch: make(chan func()),
		done:     make(chan struct{}),
		subs:     make(map[int]chan []*internal.Event),
	}
	go p.run()
	return p
}

func (p *Events) run() {
	for {
		select {
		case fn := <-p.dispatch:
			fn()
		case <-p.done:
			return
		}
	}
}

// do runs fn on the owner goroutine and waits for it. It reports false if
// the list was closed.
func (p *Events) do(fn func()) bool {
	applied := make(chan struct{})
	select {
	case p.dispatch <- func() {
		fn()
		close(applied)
	}:
	case <-p.done:
		return false
	}
	<-applied
	return true
}

// Publish replaces the list, last writer wins. It returns once every
// subscriber has been offered the new value, or ErrClosed when the list
// doesn't accept updates anymore.
func (p *Events) Publish(events []*internal.Event) error {
	list := clone(events)
	ok := p.do(func() {
		p.mu.Lock()
		p.events = list
		p.mu.Unlock()

		for _, ch := range p.subs {
			offer(ch, clone(list))
		}
	})
	if !ok {
		return ErrClosed
	}
	return nil
}

func (p *Events) Snapshot() []*internal.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return clone(p.events)
}

// Subscribe returns a channel receiving the current list and every later
// one. A slow reader only misses intermediate values, the latest is kept.
func (p *Events) Subscribe() (<-chan []*internal.Event, func()) {
	ch := make(chan []*internal.Event, 1)
	var id int
	ok := p.do(func() {
		id = p.nextID
		p.nextID++
		p.subs[id] = ch

		p.mu.RLock()
		current := clone(p.events)
		p.mu.RUnlock()
		offer(ch, current)
	})
	if !ok {
		close(ch)
		return ch, func() {}
	}

	var cancelOnce sync.Once
	cancel := func() {
		cancelOnce.Do(func() {
			p.do(func() {
				if _, ok := p.subs[id]; ok {
					delete(p.subs, id)
					close(ch)
				}
			})
		})
	}
	return ch, cancel
}

// Close stops the owner goroutine and closes every subscription.
func (p *Events) Close() {
	p.once.Do(func() {
		p.do(func() {
			for id, ch := range p.subs {
				delete(p.subs, id)
				close(ch)
			}
		})
		close(p.done)
	})
}

func offer(ch chan []*internal.Event, events []*internal.Event) {
	for {
		select {
		case ch <- events:
			return
		default:
		}
		// drop the stale value nobody read yet
		select {
		case <-ch:
		default:
		}
	}
}

func clone(events []*internal.Event) []*internal.Event {
	if events == nil {
		return nil
	}
	res := make([]*internal.Event, len(events))
	copy(res, events)
	return res
}
