package level

import (
	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/collision"
)

// LevelBuilderOption is a functional option for configuring a Level during construction.
type LevelBuilderOption func(*Level)

// WithConfig sets the collision tunables. Defaults to collision.DefaultConfig().
//
// Parameters:
//   - cfg: the tunables
//
// Returns:
//   - LevelBuilderOption: functional option to set the tunables
func WithConfig(cfg collision.Config) LevelBuilderOption {
	return func(l *Level) {
		l.cfg = cfg
	}
}

// WithTransform sets the placement of the terrain in world space. Defaults to the identity.
//
// Parameters:
//   - t: the level transform
//
// Returns:
//   - LevelBuilderOption: functional option to set the transform
func WithTransform(t common.Transform2D) LevelBuilderOption {
	return func(l *Level) {
		l.transform = t
	}
}

// WithSupportProbe replaces the terrain probe that decides when walking actors fall.
//
// Parameters:
//   - probe: the support test
//
// Returns:
//   - LevelBuilderOption: functional option to set the probe
func WithSupportProbe(probe actor.SupportProbe) LevelBuilderOption {
	return func(l *Level) {
		l.probe = probe
	}
}

// WithObstacles adds rectangles walking actors turn around at.
//
// Parameters:
//   - obstacles: world rectangles
//
// Returns:
//   - LevelBuilderOption: functional option to add obstacles
func WithObstacles(obstacles ...Obstacle) LevelBuilderOption {
	return func(l *Level) {
		l.obstacles = append(l.obstacles, obstacles...)
	}
}

// WithFallSpeed sets the downward displacement per tick of falling actors.
//
// Parameters:
//   - speed: world units per tick
//
// Returns:
//   - LevelBuilderOption: functional option to set the fall speed
func WithFallSpeed(speed float32) LevelBuilderOption {
	return func(l *Level) {
		l.motion.FallSpeed = speed
	}
}

// WithBrushRadius sets the dig radius in terrain pixels.
//
// Parameters:
//   - radius: the brush radius
//
// Returns:
//   - LevelBuilderOption: functional option to set the brush radius
func WithBrushRadius(radius float32) LevelBuilderOption {
	return func(l *Level) {
		l.brushRadius = radius
	}
}

// WithPresenter enables drawing to the renderer's surface every frame.
//
// Returns:
//   - LevelBuilderOption: functional option to enable presenting
func WithPresenter() LevelBuilderOption {
	return func(l *Level) {
		l.present = true
	}
}
