package notifier

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog/log"

	"MoveSentinel/internal/model"
)

// Listener receives movement events from the Sink.
type Listener interface {
	Name() string
	Emit(ctx context.Context, evt *model.MovementEvent) error
}

// ListenerFunc adapts a function to the Listener interface.
func ListenerFunc(name string, fn func(ctx context.Context, evt *model.MovementEvent) error) Listener {
	return &funcListener{name: name, fn: fn}
}

type funcListener struct {
	name string
	fn   func(ctx context.Context, evt *model.MovementEvent) error
}

func (l *funcListener) Name() string { return l.name }

func (l *funcListener) Emit(ctx context.Context, evt *model.MovementEvent) error {
	return l.fn(ctx, evt)
}

// ConsoleListener prints movement messages, one per line.
type ConsoleListener struct {
	Out io.Writer
	mu  sync.Mutex
}

func NewConsoleListener(out io.Writer) *ConsoleListener { return &ConsoleListener{Out: out} }

func (c *ConsoleListener) Name() string { return "console" }

func (c *ConsoleListener) Emit(_ context.Context, evt *model.MovementEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.Out, evt.Message)
	return err
}

// Sink is the process-lifetime log of movement events. It doubles as the
// dedup index and guarantees each logged event reaches its listeners once.
type Sink struct {
	mu        sync.Mutex
	events    []*model.MovementEvent
	keys      map[int64]struct{}
	listeners []Listener
}

// NewSink creates a Sink that emits to the given listeners.
func NewSink(listeners ...Listener) *Sink {
	return &Sink{
		keys:      make(map[int64]struct{}),
		listeners: listeners,
	}
}

// AddListener registers another listener for subsequent emissions.
func (s *Sink) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Update logs evt and emits every not yet dispatched event. It reports
// false when a movement with the same key was already logged, in which case
// evt is dropped. Safe for concurrent use.
func (s *Sink) Update(ctx context.Context, evt *model.MovementEvent) bool {
	s.mu.Lock()
	if _, dup := s.keys[evt.Key()]; dup {
		s.mu.Unlock()
		return false
	}
	s.events = append(s.events, evt)
	s.keys[evt.Key()] = struct{}{}

	var pending []*model.MovementEvent
	for _, e := range s.events {
		if !e.Dispatched {
			e.Dispatched = true
			pending = append(pending, e)
		}
	}
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	// flags are already set, so emitting outside the lock cannot repeat an event
	for _, e := range pending {
		for _, l := range listeners {
			if err := l.Emit(ctx, e); err != nil {
				log.Error().Err(err).Str("listener", l.Name()).Str("event", e.ID).Msg("emit movement")
			}
		}
	}
	return true
}

// Seen returns the dedup keys of every logged movement.
func (s *Sink) Seen() map[int64]struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[int64]struct{}, len(s.keys))
	for k := range s.keys {
		seen[k] = struct{}{}
	}
	return seen
}

// Events returns a snapshot of the log in insertion order.
func (s *Sink) Events() []model.MovementEvent {
	return s.Recent(0)
}

// Recent returns up to n of the most recent events, oldest first.
// n <= 0 returns the whole log.
func (s *Sink) Recent(n int) []model.MovementEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if n > 0 && len(s.events) > n {
		start = len(s.events) - n
	}
	out := make([]model.MovementEvent, 0, len(s.events)-start)
	for _, e := range s.events[start:] {
		out = append(out, *e)
	}
	return out
}

// Len returns the number of logged events.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
