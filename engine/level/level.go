// Package level runs one playable level: the deformable terrain, its actors and the collision
// system that lands them. The engine ticks the level from its simulation goroutine and renders it
// from its render goroutine.
package level

import (
	"errors"
	"fmt"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/collision"
	"github.com/all-the-way-home/home/engine/logging"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/terrain"
)

// ErrTerrainSize is returned by Load when the terrain image does not match the configured size.
var ErrTerrainSize = errors.New("level: terrain image size mismatch")

// Spawn describes an actor to create.
type Spawn struct {
	// Position is the world position.
	Position common.Vec2
	// Speed is the walking speed in world units per tick.
	Speed float32
}

// Level owns the terrain targets, the actors and the collision system of one level.
//
// Tick and RenderFrame may run concurrently on different goroutines. Load and Unload exclude both.
type Level struct {
	mu sync.RWMutex

	renderer  renderer.Renderer
	cfg       collision.Config
	transform common.Transform2D
	registry  *actor.Registry
	motion    actor.Motion
	obstacles []Obstacle

	// probe decides Walking to Falling; nil uses the terrain probe of the loaded level
	probe       actor.SupportProbe
	brush       *terrain.Brush
	brushRadius float32
	present     bool

	collision *collision.System
	presenter *Presenter

	loaded  bool
	targets *terrain.TargetPair
	pass    *terrain.Pass
	ground  *TerrainSupportProbe
}

// NewLevel creates an unloaded level and its collision system. Until Load, frames skip the
// collision dispatch and actors keep falling.
//
// Parameters:
//   - r: the renderer shared with the engine
//   - options: functional options for the level
//
// Returns:
//   - *Level: the level
//   - error: wrapping collision.ErrInvalidConfig, or a renderer error
func NewLevel(r renderer.Renderer, options ...LevelBuilderOption) (*Level, error) {
	if r == nil {
		panic("level: renderer is required")
	}
	l := &Level{
		renderer:  r,
		cfg:       collision.DefaultConfig(),
		transform: common.IdentityTransform2D(),
	}
	for _, opt := range options {
		opt(l)
	}
	if err := l.cfg.Validate(); err != nil {
		return nil, err
	}

	l.registry = actor.NewRegistry(l.cfg.Capacity)
	l.brush = terrain.NewBrush(l.brushRadius)
	l.motion.Blocked = l.blocked

	sys, err := collision.NewSystem(r, l.registry, l.cfg)
	if err != nil {
		return nil, err
	}
	l.collision = sys

	if l.present {
		if l.presenter, err = NewPresenter(r, l.cfg); err != nil {
			sys.Release()
			return nil, err
		}
	}
	return l, nil
}

// Load allocates the terrain targets from img and spawns the initial actors, replacing a level
// that is already loaded. The image size and the actor count are checked before anything is
// released or allocated.
//
// Parameters:
//   - img: the level image, sized TerrainWidth x TerrainHeight
//   - spawns: the initial actors
//
// Returns:
//   - error: wrapping collision.ErrCapacityExceeded or ErrTerrainSize, or a renderer error
func (l *Level) Load(img common.TextureStagingData, spawns ...Spawn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if img.Width != l.cfg.TerrainWidth || img.Height != l.cfg.TerrainHeight {
		return fmt.Errorf("%w: got %dx%d, want %dx%d", ErrTerrainSize,
			img.Width, img.Height, l.cfg.TerrainWidth, l.cfg.TerrainHeight)
	}
	// a reload clears the current actors, a first load keeps actors spawned before it
	pending := len(spawns)
	if !l.loaded {
		pending += l.registry.Count()
	}
	if err := l.cfg.CheckActorCount(pending); err != nil {
		return err
	}
	if l.loaded {
		l.unloadLocked()
	}

	if l.collision == nil {
		sys, err := collision.NewSystem(l.renderer, l.registry, l.cfg)
		if err != nil {
			return err
		}
		l.collision = sys
	}
	targets, err := terrain.NewTargetPair(l.renderer, img.Width, img.Height)
	if err != nil {
		return err
	}
	pass, err := terrain.NewPass(l.renderer, img, l.brush)
	if err != nil {
		targets.Release()
		return err
	}
	l.targets, l.pass = targets, pass
	l.ground = NewTerrainSupportProbe(img, l.ToTerrainPixel, l.cfg.PresenceThreshold)

	for _, s := range spawns {
		if _, err := l.registry.Spawn(actor.WithPosition(s.Position), actor.WithSpeed(s.Speed)); err != nil {
			l.unloadLocked()
			return err
		}
	}
	l.loaded = true
	logging.Logger().Info("level loaded", "terrain", fmt.Sprintf("%dx%d", img.Width, img.Height),
		"actors", l.registry.Count(), "capacity", l.cfg.Capacity)
	return nil
}

// Unload removes every actor and releases the targets, the snapshot and the collision buffers
// together. Later frames degrade until the next Load.
func (l *Level) Unload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unloadLocked()
}

func (l *Level) unloadLocked() {
	if l.collision != nil {
		l.collision.Release()
		l.collision = nil
	}
	if l.pass != nil {
		l.pass.Release()
		l.pass = nil
	}
	if l.targets != nil {
		l.targets.Release()
		l.targets = nil
	}
	l.ground = nil
	l.registry.Clear()
	if l.loaded {
		logging.Logger().Info("level unloaded")
	}
	l.loaded = false
}

// Loaded reports whether a terrain is loaded.
func (l *Level) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// Spawn adds an actor at a world position. It starts falling.
//
// Parameters:
//   - position: the world position
//   - speed: the walking speed in world units per tick
//
// Returns:
//   - actor.Actor: the new actor
//   - error: wrapping collision.ErrCapacityExceeded when every slot is taken
func (l *Level) Spawn(position common.Vec2, speed float32) (actor.Actor, error) {
	return l.registry.Spawn(actor.WithPosition(position), actor.WithSpeed(speed))
}

// Tick advances the simulation by one step: walking actors without support start falling, the
// latest collision result lands falling actors, every actor moves, and the new positions are
// published for the next dispatch. It never waits for the GPU.
//
// Parameters:
//   - dt: the elapsed time in seconds, unused by the fixed-step movement
//
// Returns:
//   - error: wrapping collision.ErrCapacityExceeded if the registry outgrew the slots
func (l *Level) Tick(dt float32) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.ground != nil && l.brush.Digging() {
		l.ground.Erase(l.brush.Params(true))
	}

	live := l.registry.Live()
	actor.DropUnsupported(l.supportProbe(), live)
	if l.collision != nil {
		l.collision.Apply()
	}
	for _, a := range live {
		l.motion.Step(a)
	}
	if l.collision == nil {
		return nil
	}
	_, err := l.collision.Publish(l.ToTerrainPixel)
	return err
}

// RenderFrame runs one render frame: deliver finished readbacks, refresh the snapshot and
// dispatch collision against the previous terrain frame, draw this frame's terrain, present, and
// swap the targets.
//
// Returns:
//   - error: a renderer error; frames without terrain are skipped without error
func (l *Level) RenderFrame() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	l.renderer.Poll()
	if l.collision == nil {
		return nil
	}

	if err := l.renderer.BeginComputeFrame(); err != nil {
		return err
	}
	var stable terrain.StableTarget
	if l.targets != nil {
		stable = l.targets
	}
	_, err := l.collision.Encode(stable)
	l.renderer.EndComputeFrame()
	if err != nil {
		return err
	}
	if err := l.collision.Readback(); err != nil {
		return err
	}

	if !l.loaded {
		return nil
	}
	if err := l.pass.Draw(l.targets); err != nil {
		return err
	}
	if l.presenter != nil {
		if err := l.presenter.Draw(l.targets.Active(), l.collision.PositionsBuffer()); err != nil {
			logging.Logger().Debug("present failed", "err", err)
		}
	}
	l.targets.Swap()
	return nil
}

// Dig moves the dig brush to a world position. While digging is true every frame erases the
// terrain under the brush.
//
// Parameters:
//   - world: the brush center in world space
//   - digging: whether the brush erases
func (l *Level) Dig(world common.Vec2, digging bool) {
	l.brush.Update(l.ToTerrainPixel(world), digging)
}

// ToTerrainPixel maps a world position to terrain pixel coordinates.
func (l *Level) ToTerrainPixel(world common.Vec2) common.Vec2 {
	return l.cfg.TerrainPixel(l.transform.ApplyInverse(world))
}

// ScreenToWorld maps a window pixel, origin at the top-left corner, to a world position.
func (l *Level) ScreenToWorld(screen common.Vec2) common.Vec2 {
	texel := screen.Add(common.Vec2{X: l.cfg.ViewportWidth / 2, Y: l.cfg.ViewportHeight / 2})
	return l.transform.Apply(l.cfg.LocalPosition(texel))
}

// Transform returns the placement of the terrain in world space.
func (l *Level) Transform() common.Transform2D {
	return l.transform
}

// Config returns the collision tunables.
func (l *Level) Config() collision.Config {
	return l.cfg
}

// Registry returns the level's actors.
func (l *Level) Registry() *actor.Registry {
	return l.registry
}

// CollisionStats returns the collision counters, zero while the level has no collision system.
func (l *Level) CollisionStats() collision.Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.collision == nil {
		return collision.Stats{}
	}
	return l.collision.Stats()
}

// Resize reconfigures the presentation surface after the window changed size.
func (l *Level) Resize(width, height int) {
	l.renderer.Resize(width, height)
}

// Release unloads the level and frees the presenter.
func (l *Level) Release() {
	l.Unload()
	if l.presenter != nil {
		l.presenter.Release()
	}
}

func (l *Level) supportProbe() actor.SupportProbe {
	if l.probe != nil {
		return l.probe
	}
	if l.ground != nil {
		return l.ground
	}
	return nil
}

func (l *Level) blocked(_ actor.Actor, next common.Vec2) bool {
	for _, o := range l.obstacles {
		if o.Contains(next) {
			return true
		}
	}
	return false
}
