package authstate

import (
	"context"
	"sync"
)

// State is the process-wide authentication state.
type State int

const (
	// NoSession means no credentials have been obtained yet, or they have
	// been invalidated.
	NoSession State = iota
	// Authenticated means a credential refresh has succeeded.
	Authenticated
)

// String returns "none" or "authenticated".
func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "none"
	}
}

// Holder owns the current State and broadcasts transitions.
//
// Observers only see transitions that happen after they subscribe; the
// current value is never replayed. Every transition is delivered in order,
// including repeated identical states.
type Holder struct {
	mu          sync.Mutex
	state       State
	subscribers map[*subscriber]struct{}
}

// NewHolder returns a Holder in the NoSession state.
func NewHolder() *Holder {
	return &Holder{
		state:       NoSession,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Current returns the current state.
func (h *Holder) Current() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Set stores state and notifies every observer. It never blocks on slow
// observers.
func (h *Holder) Set(state State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.state = state
	for sub := range h.subscribers {
		sub.push(state)
	}
}

// Observe returns a channel of future transitions. The channel is closed
// once ctx is done.
func (h *Holder) Observe(ctx context.Context) <-chan State {
	sub := &subscriber{
		out:    make(chan State),
		notify: make(chan struct{}, 1),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	go func() {
		defer close(sub.out)
		defer func() {
			h.mu.Lock()
			delete(h.subscribers, sub)
			h.mu.Unlock()
		}()
		sub.run(ctx)
	}()

	return sub.out
}

// subscriber buffers transitions so Set never waits on a reader.
type subscriber struct {
	mu      sync.Mutex
	pending []State
	notify  chan struct{}
	out     chan State
}

func (s *subscriber) push(state State) {
	s.mu.Lock()
	s.pending = append(s.pending, state)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber) next() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return 0, false
	}
	state := s.pending[0]
	s.pending = s.pending[1:]
	return state, true
}

func (s *subscriber) run(ctx context.Context) {
	for {
		state, ok := s.next()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case s.out <- state:
		case <-ctx.Done():
			return
		}
	}
}
