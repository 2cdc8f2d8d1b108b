// Package actor holds the walking and falling characters of a level, the registry that bounds how
// many of them exist, and the per-tick movement rules.
package actor

import (
	"sync"

	"github.com/all-the-way-home/home/common"
)

type actor struct {
	mu sync.RWMutex

	id       uint64
	position common.Vec2
	speed    float32
	state    State
	epoch    uint64
}

// Actor is a character moving through the terrain under gravity.
// Positions are world coordinates with y pointing up.
//
// State changes are restricted: Land is the only way out of StateFalling and is driven by the
// collision system, Fall is the only way out of StateWalking and is driven by a SupportProbe.
type Actor interface {
	// ID returns the actor's identifier. Zero means the actor has not been registered.
	//
	// Returns:
	//   - uint64: the actor ID
	ID() uint64

	// SetID sets the actor's identifier. Called by the Registry on spawn.
	//
	// Parameters:
	//   - id: the ID to assign
	SetID(id uint64)

	// Position returns the actor's world position.
	//
	// Returns:
	//   - common.Vec2: the world position
	Position() common.Vec2

	// SetPosition moves the actor.
	//
	// Parameters:
	//   - p: the new world position
	SetPosition(p common.Vec2)

	// Speed returns the signed horizontal displacement per tick while walking.
	//
	// Returns:
	//   - float32: the walking speed, negative walks left
	Speed() float32

	// SetSpeed sets the walking speed.
	//
	// Parameters:
	//   - speed: the signed horizontal displacement per tick
	SetSpeed(speed float32)

	// State returns the actor's gravity state.
	//
	// Returns:
	//   - State: StateFalling or StateWalking
	State() State

	// Epoch counts the state transitions of the actor. A measurement taken at one epoch is stale
	// once the epoch moves on.
	//
	// Returns:
	//   - uint64: the number of Land and Fall transitions so far
	Epoch() uint64

	// Land moves a falling actor to StateWalking.
	//
	// Returns:
	//   - bool: true if the actor was falling and is now walking
	Land() bool

	// Fall moves a walking actor to StateFalling.
	//
	// Returns:
	//   - bool: true if the actor was walking and is now falling
	Fall() bool
}

var _ Actor = &actor{}

// NewActor creates a falling actor at the world origin configured with the given options.
//
// Parameters:
//   - options: functional options to configure the actor
//
// Returns:
//   - Actor: the newly created actor
func NewActor(options ...ActorBuilderOption) Actor {
	a := &actor{state: StateFalling}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *actor) ID() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.id
}

func (a *actor) SetID(id uint64) {
	a.mu.Lock()
	a.id = id
	a.mu.Unlock()
}

func (a *actor) Position() common.Vec2 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.position
}

func (a *actor) SetPosition(p common.Vec2) {
	a.mu.Lock()
	a.position = p
	a.mu.Unlock()
}

func (a *actor) Speed() float32 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.speed
}

func (a *actor) SetSpeed(speed float32) {
	a.mu.Lock()
	a.speed = speed
	a.mu.Unlock()
}

func (a *actor) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *actor) Epoch() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.epoch
}

func (a *actor) Land() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateFalling {
		return false
	}
	a.state = StateWalking
	a.epoch++
	return true
}

func (a *actor) Fall() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != StateWalking {
		return false
	}
	a.state = StateFalling
	a.epoch++
	return true
}
