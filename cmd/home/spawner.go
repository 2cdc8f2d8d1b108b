package main

import (
	"errors"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/logging"
)

// spawnTarget is the part of a level the spawner drives.
type spawnTarget interface {
	Spawn(position common.Vec2, speed float32) (actor.Actor, error)
	Loaded() bool
}

// spawner adds one actor every interval ticks until max actors have been spawned.
type spawner struct {
	mu sync.Mutex

	target   spawnTarget
	at       common.Vec2
	speed    float32
	interval int
	max      int

	paused  bool
	elapsed int
	spawned int
}

func newSpawner(target spawnTarget, at common.Vec2, speed float32, interval, max int) *spawner {
	return &spawner{
		target:   target,
		at:       at,
		speed:    speed,
		interval: max1(interval),
		max:      max,
	}
}

func max1(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// Tick advances the spawn clock by one engine tick and spawns when the interval has elapsed.
// It returns true when an actor was added.
func (s *spawner) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.paused || s.spawned >= s.max || !s.target.Loaded() {
		return false
	}
	s.elapsed++
	if s.elapsed < s.interval {
		return false
	}
	s.elapsed = 0
	a, err := s.target.Spawn(s.at, s.speed)
	if err != nil {
		if errors.Is(err, actor.ErrCapacityExceeded) {
			s.max = s.spawned
		}
		logging.Logger().Warn("spawn failed", "err", err)
		return false
	}
	s.spawned++
	logging.Logger().Debug("actor spawned", "id", a.ID(), "spawned", s.spawned)
	return true
}

// TogglePause stops or resumes spawning and reports whether spawning is now paused.
func (s *spawner) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused = !s.paused
	return s.paused
}

// Reset restarts the count after the level was reloaded.
func (s *spawner) Reset(max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elapsed, s.spawned, s.max = 0, 0, max
}

func (s *spawner) Spawned() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spawned
}
