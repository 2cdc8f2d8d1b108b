// Package collision detects, per actor, whether the terrain pixel under the actor holds terrain.
// Positions are uploaded once per tick, a compute kernel tests every actor slot against a
// snapshot of the terrain, and the results are read back asynchronously to land falling actors.
package collision

import (
	"errors"
	"fmt"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
)

const (
	// DefaultCapacity is the default number of actor slots.
	DefaultCapacity = 100
	// DefaultTerrainWidth is the default terrain width in pixels.
	DefaultTerrainWidth = 2560
	// DefaultTerrainHeight is the default terrain height in pixels.
	DefaultTerrainHeight = 1440
	// DefaultViewportWidth is the default viewport width in world units.
	DefaultViewportWidth = 1280
	// DefaultViewportHeight is the default viewport height in world units.
	DefaultViewportHeight = 720

	// MaxCapacity is the largest capacity a single dispatch dimension can cover.
	MaxCapacity = 65535
)

var (
	// ErrCapacityExceeded is returned when more actors are submitted than there are slots.
	ErrCapacityExceeded = actor.ErrCapacityExceeded
	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("collision: invalid config")
)

// Config holds the tunables of the collision system.
type Config struct {
	// Capacity is the number of actor slots, and the number of workgroups dispatched per frame.
	Capacity int
	// TerrainWidth and TerrainHeight are the terrain size in pixels.
	TerrainWidth, TerrainHeight uint32
	// PresenceThreshold is the alpha value a pixel must exceed to count as terrain.
	PresenceThreshold uint8
	// ViewportWidth and ViewportHeight offset level-local coordinates into the terrain image.
	ViewportWidth, ViewportHeight float32
}

// ConfigOption is a functional option for NewConfig.
type ConfigOption func(*Config)

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		Capacity:       DefaultCapacity,
		TerrainWidth:   DefaultTerrainWidth,
		TerrainHeight:  DefaultTerrainHeight,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
	}
}

// NewConfig returns DefaultConfig with the options applied. The result is not validated.
func NewConfig(options ...ConfigOption) Config {
	c := DefaultConfig()
	for _, opt := range options {
		opt(&c)
	}
	return c
}

// WithCapacity sets the number of actor slots.
func WithCapacity(capacity int) ConfigOption {
	return func(c *Config) {
		c.Capacity = capacity
	}
}

// WithTerrainSize sets the terrain size in pixels.
func WithTerrainSize(width, height uint32) ConfigOption {
	return func(c *Config) {
		c.TerrainWidth, c.TerrainHeight = width, height
	}
}

// WithPresenceThreshold sets the alpha value a pixel must exceed to count as terrain.
func WithPresenceThreshold(threshold uint8) ConfigOption {
	return func(c *Config) {
		c.PresenceThreshold = threshold
	}
}

// WithViewport sets the viewport size used to offset positions into the terrain image.
func WithViewport(width, height float32) ConfigOption {
	return func(c *Config) {
		c.ViewportWidth, c.ViewportHeight = width, height
	}
}

// Validate checks the tunables.
//
// Returns:
//   - error: wrapping ErrInvalidConfig, or nil
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0 || c.Capacity > MaxCapacity:
		return fmt.Errorf("%w: capacity %d outside [1, %d]", ErrInvalidConfig, c.Capacity, MaxCapacity)
	case c.TerrainWidth == 0 || c.TerrainHeight == 0:
		return fmt.Errorf("%w: terrain size %dx%d", ErrInvalidConfig, c.TerrainWidth, c.TerrainHeight)
	case !(c.ViewportWidth > 0) || !(c.ViewportHeight > 0):
		return fmt.Errorf("%w: viewport size %vx%v", ErrInvalidConfig, c.ViewportWidth, c.ViewportHeight)
	}
	return nil
}

// CheckActorCount fails when n actors do not fit the configured slots.
//
// Parameters:
//   - n: the number of actors that must be tracked at once
//
// Returns:
//   - error: wrapping ErrCapacityExceeded, or nil
func (c Config) CheckActorCount(n int) error {
	if n > c.Capacity {
		return fmt.Errorf("%w: %d actors for %d slots", ErrCapacityExceeded, n, c.Capacity)
	}
	return nil
}

// TerrainPixel maps a level-local position (y up, origin at the terrain center) to terrain
// pixel coordinates (y down, origin at the top-left corner).
//
// Parameters:
//   - local: the level-local position
//
// Returns:
//   - common.Vec2: the terrain pixel position
func (c Config) TerrainPixel(local common.Vec2) common.Vec2 {
	return common.Vec2{X: local.X + c.ViewportWidth, Y: c.ViewportHeight - local.Y}
}

// LocalPosition is the inverse of TerrainPixel.
func (c Config) LocalPosition(pixel common.Vec2) common.Vec2 {
	return common.Vec2{X: pixel.X - c.ViewportWidth, Y: c.ViewportHeight - pixel.Y}
}

// ResultsSize returns the byte size of the results buffer.
func (c Config) ResultsSize() uint64 {
	return uint64(c.Capacity) * 4
}

// PositionsSize returns the byte size of the positions buffer.
func (c Config) PositionsSize() uint64 {
	return uint64(c.Capacity) * SlotSize
}
