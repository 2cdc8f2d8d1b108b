package actor

import "github.com/all-the-way-home/home/common"

// DefaultFallSpeed is the downward displacement per tick of a falling actor.
const DefaultFallSpeed float32 = 0.5

// SupportProbe decides whether a walking actor still stands on something.
type SupportProbe interface {
	// Supported reports whether the actor has ground under it.
	//
	// Parameters:
	//   - a: the walking actor to test
	//
	// Returns:
	//   - bool: false makes the actor fall
	Supported(a Actor) bool
}

// SupportProbeFunc adapts a function to the SupportProbe interface.
type SupportProbeFunc func(a Actor) bool

func (f SupportProbeFunc) Supported(a Actor) bool {
	return f(a)
}

// DropUnsupported moves every walking actor the probe reports unsupported to StateFalling.
// A nil probe never drops anyone.
//
// Parameters:
//   - probe: the support test
//   - actors: the actors to test
//
// Returns:
//   - int: the number of actors that started falling
func DropUnsupported(probe SupportProbe, actors []Actor) int {
	if probe == nil {
		return 0
	}
	dropped := 0
	for _, a := range actors {
		if a.State() == StateWalking && !probe.Supported(a) && a.Fall() {
			dropped++
		}
	}
	return dropped
}

// Motion applies the per-tick displacement of the gravity states.
type Motion struct {
	// FallSpeed is the downward displacement per tick. Zero selects DefaultFallSpeed.
	FallSpeed float32

	// Blocked reports whether a walking actor may not step to next. A blocked actor turns around
	// instead of moving. Nil never blocks.
	Blocked func(a Actor, next common.Vec2) bool
}

// Step moves one actor by one tick. Falling actors move straight down, walking actors move by
// their speed. Step never changes the actor's state.
//
// Parameters:
//   - a: the actor to move
func (m Motion) Step(a Actor) {
	p := a.Position()
	switch a.State() {
	case StateFalling:
		a.SetPosition(common.Vec2{X: p.X, Y: p.Y - common.Coalesce(m.FallSpeed, DefaultFallSpeed)})
	case StateWalking:
		next := common.Vec2{X: p.X + a.Speed(), Y: p.Y}
		if m.Blocked != nil && m.Blocked(a, next) {
			a.SetSpeed(-a.Speed())
			return
		}
		a.SetPosition(next)
	}
}
