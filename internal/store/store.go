package store

import (
	"fmt"
	"sync"

	"github.com/kickpool/kickpool-go/internal/platform/logging"
)

// Store owns the state tree. Dispatch is the only mutation path;
// readers get value snapshots. Subscribers observe every transition
// in dispatch order.
type Store struct {
	mu     sync.RWMutex
	state  State
	subs   map[int]func(State)
	nextID int
	logger *logging.Logger
}

func New(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{
		subs:   make(map[int]func(State)),
		logger: logger,
	}
}

// State returns a snapshot of the current tree. Slices inside it are
// shared with the store but are replaced, never mutated, by the
// reducer, so reading them without further locking is safe.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies one action through the reducer and notifies
// subscribers with the resulting state.
func (s *Store) Dispatch(a Action) {
	if a == nil {
		return
	}

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state
	listeners := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("action dispatched", "action", fmt.Sprintf("%T", a))
	for _, fn := range listeners {
		fn(next)
	}
}

// Subscribe registers a listener for state transitions and returns
// its unsubscribe func.
func (s *Store) Subscribe(fn func(State)) func() {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
