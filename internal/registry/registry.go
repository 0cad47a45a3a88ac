// Package registry keeps named items ordered by priority.
//
// Iteration order is by descending priority; entries with equal priority
// keep their registration order. New entries may be placed at a literal
// priority, at either end, or relative to entries already present.
package registry

import (
	"slices"
	"sync"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// sentinelStep is the distance _begin and _end keep from the current extremes.
const sentinelStep = 5

type entry[T any] struct {
	name     string
	item     T
	priority float64
	seq      uint64
}

// Registry is an ordered set of named items.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries []entry[T]
	seq     uint64
	version uint64
}

func New[T any]() *Registry[T] { return &Registry[T]{} }

// Register adds item under name. An existing entry with the same name is
// replaced and the placement is resolved without it.
func (r *Registry[T]) Register(name string, item T, at Placement) (float64, error) {
	if name == "" {
		return 0, ferrors.NewError(ferrors.CategoryValidation, "registry entry needs a name").Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.remove(name)
	prio := r.resolve(at)
	r.seq++
	r.version++
	r.entries = append(r.entries, entry[T]{name: name, item: item, priority: prio, seq: r.seq})
	slices.SortStableFunc(r.entries, func(a, b entry[T]) int {
		switch {
		case a.priority > b.priority:
			return -1
		case a.priority < b.priority:
			return 1
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return prio, nil
}

// Deregister removes name and reports whether it was present.
func (r *Registry[T]) Deregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.remove(name) {
		r.version++
		return true
	}
	return false
}

func (r *Registry[T]) remove(name string) bool {
	i := r.index(name)
	if i < 0 {
		return false
	}
	r.entries = slices.Delete(r.entries, i, i+1)
	return true
}

func (r *Registry[T]) index(name string) int {
	return slices.IndexFunc(r.entries, func(e entry[T]) bool { return e.name == name })
}

func (r *Registry[T]) resolve(at Placement) float64 {
	switch at.kind {
	case kindLiteral:
		return at.value
	case kindBegin:
		if len(r.entries) == 0 {
			return 0
		}
		return r.entries[0].priority + sentinelStep
	case kindEnd:
		if len(r.entries) == 0 {
			return 0
		}
		return r.entries[len(r.entries)-1].priority - sentinelStep
	}

	// Anchored: "before" targets give a floor, "after" targets a ceiling.
	var floor, ceil float64
	hasFloor, hasCeil := false, false
	for _, n := range at.before {
		if i := r.index(n); i >= 0 {
			p := r.entries[i].priority
			if !hasFloor || p > floor {
				floor = p
			}
			hasFloor = true
		}
	}
	for _, n := range at.after {
		if i := r.index(n); i >= 0 {
			p := r.entries[i].priority
			if !hasCeil || p < ceil {
				ceil = p
			}
			hasCeil = true
		}
	}

	switch {
	case hasFloor && hasCeil:
		return (floor + ceil) / 2
	case hasFloor:
		if above, ok := r.neighbour(floor, true); ok {
			return (floor + above) / 2
		}
		return floor + sentinelStep
	case hasCeil:
		if below, ok := r.neighbour(ceil, false); ok {
			return (ceil + below) / 2
		}
		return ceil - sentinelStep
	}
	return r.resolve(End)
}

// neighbour finds the closest priority strictly above (or below) p.
func (r *Registry[T]) neighbour(p float64, above bool) (float64, bool) {
	var best float64
	found := false
	for _, e := range r.entries {
		if above && e.priority > p && (!found || e.priority < best) {
			best, found = e.priority, true
		}
		if !above && e.priority < p && (!found || e.priority > best) {
			best, found = e.priority, true
		}
	}
	return best, found
}

// Get returns the item registered under name.
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(name); i >= 0 {
		return r.entries[i].item, true
	}
	var zero T
	return zero, false
}

func (r *Registry[T]) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Priority returns the resolved priority of name.
func (r *Registry[T]) Priority(name string) (float64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.index(name); i >= 0 {
		return r.entries[i].priority, true
	}
	return 0, false
}

// Items returns the items in iteration order.
func (r *Registry[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.item
	}
	return out
}

// Names returns the entry names in iteration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Version changes whenever an entry is added or removed. Callers caching
// something derived from the registry compare it to detect staleness.
func (r *Registry[T]) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}
