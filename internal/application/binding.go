package application

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/bnema/atlas-crm-cli/internal/domain"
	"github.com/bnema/atlas-crm-cli/internal/ports"
)

type Loader[T any] func(ctx context.Context) (T, error)

// EventFilter reports whether an event invalidates a binding's data.
type EventFilter func(domain.PushEvent) bool

type BindingState[T any] struct {
	Loading  bool
	Value    T
	Err      error
	LoadedAt time.Time
	Loads    int
}

type bindingConfig struct {
	clock  ports.Clock
	logger *log.Logger
}

type BindingOption func(*bindingConfig)

func WithBindingClock(clock ports.Clock) BindingOption {
	return func(c *bindingConfig) { c.clock = clock }
}

func WithBindingLogger(logger *log.Logger) BindingOption {
	return func(c *bindingConfig) { c.logger = logger }
}

// Binding keeps one screen's data fresh: it loads once, then reloads the
// whole collection whenever a matching push event arrives. Event payloads
// are only used for filtering, never merged into the data.
type Binding[T any] struct {
	name   string
	load   Loader[T]
	filter EventFilter
	clock  ports.Clock
	logger *log.Logger

	mu         sync.Mutex
	state      BindingState[T]
	generation uint64
	listeners  []func(BindingState[T])
}

func NewBinding[T any](name string, load Loader[T], filter EventFilter, opts ...BindingOption) *Binding[T] {
	cfg := bindingConfig{clock: ports.SystemClock{}, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Binding[T]{
		name:   name,
		load:   load,
		filter: filter,
		clock:  cfg.clock,
		logger: cfg.logger,
		state:  BindingState[T]{Loading: true},
	}
}

func (b *Binding[T]) Name() string {
	return b.name
}

func (b *Binding[T]) State() BindingState[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// OnChange registers fn to receive every state transition.
func (b *Binding[T]) OnChange(fn func(BindingState[T])) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Refresh runs the loader. A result is dropped if another Refresh started
// after this one. Load errors are kept in the state next to the last good value.
func (b *Binding[T]) Refresh(ctx context.Context) error {
	b.mu.Lock()
	b.generation++
	gen := b.generation
	b.state.Loading = true
	b.mu.Unlock()
	b.notify()

	value, err := b.load(ctx)

	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		b.logger.Printf("binding %s: discarding stale load", b.name)
		return err
	}
	b.state.Loading = false
	b.state.Loads++
	b.state.Err = err
	if err == nil {
		b.state.Value = value
		b.state.LoadedAt = b.clock.Now()
	}
	b.mu.Unlock()
	b.notify()

	if err != nil {
		b.logger.Printf("binding %s: load failed: %v", b.name, err)
	}
	return err
}

// Run subscribes to push events, performs the initial load and then reloads
// on every matching event until ctx is done or the subscription closes.
func (b *Binding[T]) Run(ctx context.Context, events ports.EventSubscriber) error {
	ch, cancel := events.Subscribe()
	defer cancel()

	_ = b.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			if b.filter == nil || !b.filter(event) {
				continue
			}
			b.logger.Printf("binding %s: %s invalidated data", b.name, event.Name)
			_ = b.Refresh(ctx)
		}
	}
}

func (b *Binding[T]) notify() {
	b.mu.Lock()
	state := b.state
	listeners := append([]func(BindingState[T]){}, b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

func EventIs(name domain.EventName) EventFilter {
	return func(event domain.PushEvent) bool {
		return event.Name == name
	}
}

// MessageForLead matches message:new events whose payload names leadID.
func MessageForLead(leadID domain.LeadID) EventFilter {
	return func(event domain.PushEvent) bool {
		if event.Name != domain.EventMessageNew {
			return false
		}
		id, ok := event.LeadID()
		return ok && id == leadID
	}
}

func AnyOf(filters ...EventFilter) EventFilter {
	return func(event domain.PushEvent) bool {
		for _, f := range filters {
			if f(event) {
				return true
			}
		}
		return false
	}
}
