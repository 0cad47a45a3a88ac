package events

import (
	"context"
	"fmt"
	"slices"
	"sync"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// Handler receives a broadcast. The payload is shared between all handlers of
// one broadcast, so pointer payloads may be rewritten in place.
type Handler func(ctx context.Context, name string, payload any) (any, error)

// Result is one handler's return value within a Receipt.
type Result struct {
	ID    string
	Value any
}

// Receipt records what every handler of a broadcast returned, in call order.
type Receipt struct {
	Event   string
	Results []Result
}

// Value returns the result recorded for handler id.
func (r Receipt) Value(id string) (any, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res.Value, true
		}
	}
	return nil, false
}

// Bus is a named, synchronous publish/subscribe hub used to hook plugins
// into the build. Handlers run on the caller's goroutine in the order they
// were bound.
type Bus struct {
	mu    sync.Mutex
	subs  map[string][]binding
	fired map[string]bool
}

type binding struct {
	id string
	fn Handler
}

func NewBus() *Bus {
	return &Bus{
		subs:  make(map[string][]binding),
		fired: make(map[string]bool),
	}
}

// Bind subscribes fn to name under id. Binding the same (name, id) twice
// keeps the first handler and returns false.
func (b *Bus) Bind(name, id string, fn Handler) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slices.ContainsFunc(b.subs[name], func(s binding) bool { return s.id == id }) {
		return false
	}
	b.subs[name] = append(b.subs[name], binding{id: id, fn: fn})
	return true
}

// Unbind removes the handler bound under (name, id).
func (b *Bus) Unbind(name, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	i := slices.IndexFunc(subs, func(s binding) bool { return s.id == id })
	if i < 0 {
		return false
	}
	b.subs[name] = slices.Delete(subs, i, i+1)
	return true
}

// Broadcast calls every handler bound to name. The first handler error stops
// the broadcast and is returned wrapped with the event and handler id.
func (b *Bus) Broadcast(ctx context.Context, name string, payload any) (Receipt, error) {
	b.mu.Lock()
	b.fired[name] = true
	subs := slices.Clone(b.subs[name])
	b.mu.Unlock()

	receipt := Receipt{Event: name, Results: make([]Result, 0, len(subs))}
	for _, s := range subs {
		v, err := s.fn(ctx, name, payload)
		if err != nil {
			return receipt, ferrors.WrapError(err, ferrors.CategoryPlugin, "event handler failed").
				WithContext("event", name).
				WithContext("handler", s.id).
				Build()
		}
		receipt.Results = append(receipt.Results, Result{ID: s.id, Value: v})
	}
	return receipt, nil
}

// Once broadcasts name unless it has already been broadcast since the bus
// was created or last Reset. The bool reports whether handlers ran.
func (b *Bus) Once(ctx context.Context, name string, payload any) (Receipt, bool, error) {
	b.mu.Lock()
	if b.fired[name] {
		b.mu.Unlock()
		return Receipt{Event: name}, false, nil
	}
	b.mu.Unlock()

	r, err := b.Broadcast(ctx, name, payload)
	return r, true, err
}

// Fired reports whether name has been broadcast.
func (b *Bus) Fired(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fired[name]
}

// Count returns the number of handlers bound to name.
func (b *Bus) Count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[name])
}

// Reset drops every binding and forgets which events have fired.
func (b *Bus) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[string][]binding)
	b.fired = make(map[string]bool)
}

// On binds a handler that only accepts payloads of type T. A broadcast
// carrying any other payload type fails with an internal error.
func On[T any](b *Bus, name, id string, fn func(ctx context.Context, payload T) error) bool {
	return b.Bind(name, id, func(ctx context.Context, event string, payload any) (any, error) {
		v, ok := payload.(T)
		if !ok {
			return nil, ferrors.InternalError("event payload type mismatch").
				WithContext("event", event).
				WithContext("expected", fmt.Sprintf("%T", *new(T))).
				WithContext("actual", fmt.Sprintf("%T", payload)).
				Build()
		}
		return nil, fn(ctx, v)
	})
}
