package collision

import (
	"fmt"
	"sync/atomic"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/terrain"
)

// Stats counts collision work since the system was created.
type Stats struct {
	Dispatches uint64
	Skipped    uint64
	Results    uint64
	Landed     uint64
}

// System ties the collision stages together. The simulation side calls Apply and Publish once
// per tick; the render side calls Encode inside the frame's compute pass and Readback after it.
type System struct {
	cfg      Config
	registry *actor.Registry

	positions *PositionBuffer
	snapshot  *terrain.Snapshot
	compute   *Compute
	register  *ResultRegister
	updater   *Updater

	landed atomic.Uint64
}

// NewSystem validates cfg and allocates the collision resources for the actors of registry.
//
// Parameters:
//   - r: the renderer to dispatch with
//   - registry: the actors to track, its capacity may not exceed cfg.Capacity
//   - cfg: the tunables
//
// Returns:
//   - *System: the collision system
//   - error: wrapping ErrInvalidConfig or ErrCapacityExceeded, or a renderer error
func NewSystem(r renderer.Renderer, registry *actor.Registry, cfg Config) (*System, error) {
	if r == nil || registry == nil {
		panic("collision: system requires a renderer and a registry")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.CheckActorCount(registry.Capacity()); err != nil {
		return nil, err
	}

	register := &ResultRegister{}
	compute, err := NewCompute(r, cfg, register)
	if err != nil {
		return nil, err
	}
	return &System{
		cfg:       cfg,
		registry:  registry,
		positions: NewPositionBuffer(cfg.Capacity),
		snapshot:  terrain.NewSnapshot(r),
		compute:   compute,
		register:  register,
		updater:   NewUpdater(registry),
	}, nil
}

// Apply takes the latest available result, if any, and lands the actors it reports.
// It never blocks on the GPU.
//
// Returns:
//   - int: the number of actors that landed
func (s *System) Apply() int {
	res, ok := s.register.Take()
	if !ok {
		return 0
	}
	n := s.updater.Apply(res)
	s.landed.Add(uint64(n))
	return n
}

// Publish builds the positions of the registry's live actors and publishes them for the next
// dispatch.
//
// Parameters:
//   - toPixel: maps a world position to terrain pixel coordinates
//
// Returns:
//   - *PositionFrame: the published frame
//   - error: wrapping ErrCapacityExceeded
func (s *System) Publish(toPixel func(common.Vec2) common.Vec2) (*PositionFrame, error) {
	return s.positions.Build(s.registry.Live(), toPixel)
}

// Encode refreshes the snapshot from stable and records the collision dispatch. It must run
// between Renderer.BeginComputeFrame and Renderer.EndComputeFrame. Without a stable target the
// frame is skipped.
//
// Parameters:
//   - stable: the terrain to test against, may be nil before a level is loaded
//
// Returns:
//   - bool: true if a dispatch was recorded
//   - error: a snapshot or renderer error
func (s *System) Encode(stable terrain.StableTarget) (bool, error) {
	refreshed, err := s.snapshot.Refresh(stable)
	if err != nil {
		return false, fmt.Errorf("collision: %w", err)
	}
	snapshot := s.snapshot
	if !refreshed {
		snapshot = nil
	}
	return s.compute.Dispatch(s.positions.Latest(), snapshot)
}

// Readback starts reading the results recorded by Encode. It must run after
// Renderer.EndComputeFrame.
func (s *System) Readback() error {
	return s.compute.Readback()
}

// Config returns the tunables.
func (s *System) Config() Config {
	return s.cfg
}

// Positions returns the position builder. The presenter reads its latest frame.
func (s *System) Positions() *PositionBuffer {
	return s.positions
}

// PositionsBuffer returns the GPU buffer holding the last uploaded positions, or nil after Release.
func (s *System) PositionsBuffer() resource.Buffer {
	s.compute.mu.Lock()
	defer s.compute.mu.Unlock()
	return s.compute.positions
}

// Snapshot returns the terrain snapshot.
func (s *System) Snapshot() *terrain.Snapshot {
	return s.snapshot
}

// Register returns the latest-result register.
func (s *System) Register() *ResultRegister {
	return s.register
}

// Stats returns the collision counters.
func (s *System) Stats() Stats {
	return Stats{
		Dispatches: s.compute.dispatches.Load(),
		Skipped:    s.compute.skipped.Load(),
		Results:    s.register.Stored(),
		Landed:     s.landed.Load(),
	}
}

// Release frees the snapshot and the buffers together and drops any pending result.
func (s *System) Release() {
	s.compute.Release()
	s.snapshot.Release()
	s.positions.Reset()
	s.register.Clear()
}
