package actor

// State is the gravity state of an actor.
type State int

const (
	// StateFalling moves the actor down every tick until the collision system lands it.
	StateFalling State = iota
	// StateWalking moves the actor horizontally by its speed every tick.
	StateWalking
)

func (s State) String() string {
	switch s {
	case StateFalling:
		return "falling"
	case StateWalking:
		return "walking"
	default:
		return "unknown"
	}
}
