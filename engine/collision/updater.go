package collision

import "github.com/all-the-way-home/home/engine/actor"

// Updater applies collision results to the actors of a registry.
type Updater struct {
	registry *actor.Registry
}

// NewUpdater creates an updater for the given registry.
func NewUpdater(registry *actor.Registry) *Updater {
	if registry == nil {
		panic("collision: updater requires a registry")
	}
	return &Updater{registry: registry}
}

// Apply lands every actor whose slot reported terrain. A slot only lands the actor recorded in it
// when the positions were built, only if that actor was falling then, is still live and has not
// changed state since. Positions and speeds are never touched.
//
// Parameters:
//   - res: the result to apply
//
// Returns:
//   - int: the number of actors that landed
func (u *Updater) Apply(res Result) int {
	landed := 0
	for i, flag := range res.Flags {
		if i >= len(res.Slots) {
			break
		}
		rec := res.Slots[i]
		if flag != 1 || rec.ActorID == 0 || !rec.Falling {
			continue
		}
		if a := u.registry.Get(rec.ActorID); a != nil && a.Epoch() == rec.Epoch && a.Land() {
			landed++
		}
	}
	return landed
}
