package main

import (
	"errors"
	"testing"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/collision"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
		// capacityErr requires the error to wrap collision.ErrCapacityExceeded
		capacityErr bool
		check       func(t *testing.T, o options)
	}{
		{
			name: "defaults",
			check: func(t *testing.T, o options) {
				cfg := o.config()
				if err := cfg.Validate(); err != nil {
					t.Fatal(err)
				}
				if cfg.Capacity != 100 || cfg.TerrainWidth != 2560 || cfg.TerrainHeight != 1440 {
					t.Errorf("config = %+v", cfg)
				}
				if cfg.ViewportWidth != 1280 || cfg.ViewportHeight != 720 || cfg.PresenceThreshold != 0 {
					t.Errorf("config = %+v", cfg)
				}
			},
		},
		{
			name: "tunables",
			args: []string{"-headless", "-backend", "software", "-capacity", "8", "-threshold", "127", "-terrain-width", "200", "-terrain-height", "100"},
			check: func(t *testing.T, o options) {
				cfg := o.config()
				if !o.headless || cfg.Capacity != 8 || cfg.PresenceThreshold != 127 || cfg.ViewportWidth != 100 || cfg.ViewportHeight != 50 {
					t.Errorf("options = %+v, config = %+v", o, cfg)
				}
			},
		},
		{
			name: "max actors defaults to capacity",
			args: []string{"-capacity", "8"},
			check: func(t *testing.T, o options) {
				if got := o.actorLimit(); got != 8 {
					t.Errorf("actorLimit() = %d, want 8", got)
				}
			},
		},
		{
			name: "max actors within capacity",
			args: []string{"-capacity", "100", "-max-actors", "100"},
			check: func(t *testing.T, o options) {
				if got := o.actorLimit(); got != 100 {
					t.Errorf("actorLimit() = %d, want 100", got)
				}
			},
		},
		{name: "max actors past capacity", args: []string{"-capacity", "100", "-max-actors", "101"}, wantErr: true, capacityErr: true},
		{name: "negative max actors", args: []string{"-max-actors", "-1"}, wantErr: true},
		{name: "unknown backend", args: []string{"-backend", "vulkan"}, wantErr: true},
		{name: "threshold too large", args: []string{"-threshold", "256"}, wantErr: true},
		{name: "software needs headless", args: []string{"-backend", "software"}, wantErr: true},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := parseFlags(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseFlags(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if tt.capacityErr && !errors.Is(err, collision.ErrCapacityExceeded) {
				t.Errorf("parseFlags(%v) error = %v, want ErrCapacityExceeded", tt.args, err)
			}
			if tt.check != nil {
				tt.check(t, o)
			}
		})
	}
}

type fakeTarget struct {
	loaded bool
	limit  int
	spawns []common.Vec2
}

func (f *fakeTarget) Loaded() bool { return f.loaded }

func (f *fakeTarget) Spawn(position common.Vec2, speed float32) (actor.Actor, error) {
	if len(f.spawns) >= f.limit {
		return nil, actor.ErrCapacityExceeded
	}
	f.spawns = append(f.spawns, position)
	return actor.NewActor(actor.WithPosition(position), actor.WithSpeed(speed)), nil
}

func TestSpawnerInterval(t *testing.T) {
	target := &fakeTarget{loaded: true, limit: 10}
	s := newSpawner(target, common.Vec2{X: 1, Y: 2}, 1, 3, 2)

	var spawnedAt []int
	for i := 1; i <= 12; i++ {
		if s.Tick() {
			spawnedAt = append(spawnedAt, i)
		}
	}
	if len(spawnedAt) != 2 || spawnedAt[0] != 3 || spawnedAt[1] != 6 {
		t.Errorf("spawned at ticks %v, want [3 6]", spawnedAt)
	}
	if s.Spawned() != 2 || target.spawns[0] != (common.Vec2{X: 1, Y: 2}) {
		t.Errorf("spawned %d at %v", s.Spawned(), target.spawns)
	}

	s.Reset(3)
	if !s.TogglePause() {
		t.Fatal("TogglePause did not pause")
	}
	for range 6 {
		if s.Tick() {
			t.Fatal("paused spawner spawned")
		}
	}
	s.TogglePause()
	for range 3 {
		s.Tick()
	}
	if s.Spawned() != 1 {
		t.Errorf("spawned %d after reset, want 1", s.Spawned())
	}
}

func TestSpawnerStopsWhenFullOrUnloaded(t *testing.T) {
	target := &fakeTarget{loaded: false, limit: 1}
	s := newSpawner(target, common.Vec2{}, 1, 1, 5)
	if s.Tick() {
		t.Fatal("spawned into an unloaded level")
	}
	target.loaded = true
	if !s.Tick() {
		t.Fatal("first spawn failed")
	}
	if s.Tick() {
		t.Fatal("spawned past capacity")
	}
	if s.max != 1 {
		t.Errorf("max = %d after a capacity error, want 1", s.max)
	}
	if _, err := target.Spawn(common.Vec2{}, 0); !errors.Is(err, actor.ErrCapacityExceeded) {
		t.Errorf("fake target error = %v", err)
	}
}

func TestGenerateTerrain(t *testing.T) {
	img := generateTerrain(400, 200)
	if img.Width != 400 || img.Height != 200 || len(img.Pixels) != 400*200*4 {
		t.Fatalf("terrain %dx%d with %d bytes", img.Width, img.Height, len(img.Pixels))
	}
	for x := 0; x < 400; x += 37 {
		if img.Alpha(x, 0) != 0 {
			t.Errorf("column %d is solid at the top", x)
		}
		if img.Alpha(x, 199) != 255 {
			t.Errorf("column %d is open at the bottom", x)
		}
		solid := false
		for y := 0; y < 200; y++ {
			if img.Alpha(x, y) != 0 {
				solid = true
			} else if solid {
				t.Errorf("column %d has a hole at row %d", x, y)
				break
			}
		}
	}
}
