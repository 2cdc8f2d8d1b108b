package actor

import "github.com/all-the-way-home/home/common"

// ActorBuilderOption is a functional option for configuring an Actor during construction.
type ActorBuilderOption func(*actor)

// WithPosition sets the starting world position.
//
// Parameters:
//   - p: the world position
//
// Returns:
//   - ActorBuilderOption: functional option to set the position
func WithPosition(p common.Vec2) ActorBuilderOption {
	return func(a *actor) {
		a.position = p
	}
}

// WithSpeed sets the walking speed in world units per tick.
//
// Parameters:
//   - speed: the signed horizontal displacement per tick
//
// Returns:
//   - ActorBuilderOption: functional option to set the speed
func WithSpeed(speed float32) ActorBuilderOption {
	return func(a *actor) {
		a.speed = speed
	}
}

// WithState sets the starting gravity state. Actors start falling by default.
//
// Parameters:
//   - s: the initial state
//
// Returns:
//   - ActorBuilderOption: functional option to set the state
func WithState(s State) ActorBuilderOption {
	return func(a *actor) {
		a.state = s
	}
}

// WithID presets the actor ID. The Registry only assigns an ID to actors without one.
//
// Parameters:
//   - id: the actor ID
//
// Returns:
//   - ActorBuilderOption: functional option to set the ID
func WithID(id uint64) ActorBuilderOption {
	return func(a *actor) {
		a.id = id
	}
}
