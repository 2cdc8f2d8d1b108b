package actor

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrCapacityExceeded is returned when adding an actor would exceed the registry capacity.
	ErrCapacityExceeded = errors.New("actor: capacity exceeded")
	// ErrDuplicateID is returned when adding an actor whose ID is already registered.
	ErrDuplicateID = errors.New("actor: duplicate id")
)

// Registry holds the live actors of a level in spawn order, up to a fixed capacity.
// Iteration order is stable: removing an actor keeps the relative order of the others.
type Registry struct {
	mu sync.RWMutex

	capacity int
	nextID   uint64
	order    []Actor
	byID     map[uint64]Actor
}

// NewRegistry creates an empty registry.
//
// Parameters:
//   - capacity: the maximum number of live actors, must be positive
//
// Returns:
//   - *Registry: the registry
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		panic(fmt.Sprintf("actor: registry capacity must be positive, got %d", capacity))
	}
	return &Registry{
		capacity: capacity,
		nextID:   1,
		order:    make([]Actor, 0, capacity),
		byID:     make(map[uint64]Actor, capacity),
	}
}

// Spawn creates an actor with the given options and adds it.
//
// Parameters:
//   - options: functional options for the new actor
//
// Returns:
//   - Actor: the registered actor
//   - error: ErrCapacityExceeded if the registry is full
func (r *Registry) Spawn(options ...ActorBuilderOption) (Actor, error) {
	a := NewActor(options...)
	if err := r.Add(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Add registers an existing actor, assigning it the next free ID when it has none.
// A full registry refuses the actor instead of evicting another one.
//
// Parameters:
//   - a: the actor to register
//
// Returns:
//   - error: ErrCapacityExceeded if the registry is full, ErrDuplicateID if the ID is taken
func (r *Registry) Add(a Actor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.order) >= r.capacity {
		return fmt.Errorf("%w: %d live actors", ErrCapacityExceeded, r.capacity)
	}
	id := a.ID()
	if id == 0 {
		for r.byID[r.nextID] != nil {
			r.nextID++
		}
		id = r.nextID
		r.nextID++
		a.SetID(id)
	} else if r.byID[id] != nil {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	r.byID[id] = a
	r.order = append(r.order, a)
	return nil
}

// Remove unregisters the actor with the given ID.
//
// Returns:
//   - bool: true if the actor was registered
func (r *Registry) Remove(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, a := range r.order {
		if a.ID() == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the live actor with the given ID, or nil.
func (r *Registry) Get(id uint64) Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id]
}

// Live returns a copy of the live actors in iteration order.
func (r *Registry) Live() []Actor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Actor, len(r.order))
	copy(out, r.order)
	return out
}

// Count returns the number of live actors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Capacity returns the maximum number of live actors.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Clear removes every actor. IDs are not reused afterwards.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = r.order[:0]
	clear(r.byID)
}
