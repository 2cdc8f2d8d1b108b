package level

import (
	"errors"
	"testing"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/collision"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/terrain"
)

const tick = float32(1) / 60

var opaque = [4]byte{110, 80, 50, 255}

func newTestRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, renderer.WithWorkers(4))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Release)
	return r
}

// smallConfig is a 64x32 terrain seen through a 32x16 viewport: the world origin is pixel (32, 16).
func smallConfig(capacity int) collision.Config {
	return collision.NewConfig(
		collision.WithCapacity(capacity),
		collision.WithTerrainSize(64, 32),
		collision.WithViewport(32, 16),
	)
}

// groundImage is a small terrain whose lower half is solid.
func groundImage() common.TextureStagingData {
	img := common.NewBlankTextureStagingData(64, 32)
	img.FillRect(0, 16, 64, 32, opaque)
	return img
}

func newTestLevel(t *testing.T, r renderer.Renderer, options ...LevelBuilderOption) *Level {
	t.Helper()
	l, err := NewLevel(r, options...)
	if err != nil {
		t.Fatalf("NewLevel: %v", err)
	}
	t.Cleanup(l.Release)
	return l
}

func mustTick(t *testing.T, l *Level) {
	t.Helper()
	if err := l.Tick(tick); err != nil {
		t.Fatalf("Tick: %v", err)
	}
}

func mustRender(t *testing.T, l *Level, frames int) {
	t.Helper()
	for range frames {
		if err := l.RenderFrame(); err != nil {
			t.Fatalf("RenderFrame: %v", err)
		}
	}
}

func TestScenarioOpaquePixelLandsActor(t *testing.T) {
	r := newTestRenderer(t)
	l := newTestLevel(t, r)

	cfg := l.Config()
	img := common.NewBlankTextureStagingData(cfg.TerrainWidth, cfg.TerrainHeight)
	img.FillRect(640, 360, 641, 361, opaque)
	if err := l.Load(img); err != nil {
		t.Fatalf("Load: %v", err)
	}

	world := common.Vec2{X: -640, Y: 360}
	if px := l.ToTerrainPixel(world); px != (common.Vec2{X: 640, Y: 360}) {
		t.Fatalf("ToTerrainPixel(%v) = %v, want (640, 360)", world, px)
	}
	a, err := l.Spawn(world, 0)
	if err != nil {
		t.Fatal(err)
	}

	// the first fall step keeps the actor inside pixel row 360
	mustTick(t, l)
	// frame 1 seeds the targets, frame 2 measures the seeded terrain, frame 3 delivers it
	mustRender(t, l, 3)

	res, ok := l.collision.Register().Peek()
	if !ok {
		t.Fatal("no collision result after three frames")
	}
	if res.Flags[0] != 1 {
		t.Fatalf("slot 0 flag = %d, want 1", res.Flags[0])
	}
	for i, f := range res.Flags[1:] {
		if f != 0 {
			t.Errorf("unused slot %d flag = %d", i+1, f)
		}
	}

	mustTick(t, l)
	if a.State() != actor.StateWalking {
		t.Fatalf("state = %v, want walking", a.State())
	}
	for range 3 {
		mustTick(t, l)
		mustRender(t, l, 1)
	}
	if a.State() != actor.StateWalking {
		t.Errorf("state = %v after more ticks, want walking", a.State())
	}
}

func TestDegradedBeforeLoad(t *testing.T) {
	r := newTestRenderer(t)
	l := newTestLevel(t, r, WithConfig(smallConfig(4)))

	a, err := l.Spawn(common.Vec2{}, 1)
	if err != nil {
		t.Fatal(err)
	}
	for range 2 {
		mustTick(t, l)
		mustRender(t, l, 1)
	}
	if l.Loaded() {
		t.Fatal("level reports loaded")
	}
	if a.State() != actor.StateFalling || a.Position() != (common.Vec2{Y: -1}) {
		t.Errorf("actor = %v at %v, want falling at (0, -1)", a.State(), a.Position())
	}
	if st := l.CollisionStats(); st.Skipped != 2 || st.Dispatches != 0 || st.Results != 0 {
		t.Errorf("CollisionStats() = %+v, want two skipped frames", st)
	}
}

func TestLoadCapacity(t *testing.T) {
	r := newTestRenderer(t)
	l := newTestLevel(t, r, WithConfig(smallConfig(2)))

	spawns := []Spawn{{Position: common.Vec2{X: -4}}, {Position: common.Vec2{X: 4}}, {}}
	if err := l.Load(groundImage(), spawns...); !errors.Is(err, collision.ErrCapacityExceeded) {
		t.Fatalf("Load with capacity+1 actors = %v, want ErrCapacityExceeded", err)
	}
	if l.Loaded() || l.Registry().Count() != 0 {
		t.Fatal("refused load left state behind")
	}
	if err := l.Load(groundImage(), spawns[:2]...); err != nil {
		t.Fatalf("Load at capacity: %v", err)
	}
	if _, err := l.Spawn(common.Vec2{}, 0); !errors.Is(err, collision.ErrCapacityExceeded) {
		t.Errorf("Spawn past capacity = %v, want ErrCapacityExceeded", err)
	}

	if err := l.Load(common.NewBlankTextureStagingData(8, 8)); !errors.Is(err, ErrTerrainSize) {
		t.Errorf("Load with wrong size = %v, want ErrTerrainSize", err)
	}
	if _, err := NewLevel(r, WithConfig(smallConfig(0))); !errors.Is(err, collision.ErrInvalidConfig) {
		t.Errorf("NewLevel with zero capacity = %v, want ErrInvalidConfig", err)
	}
}

func TestDigDropsWalkingActor(t *testing.T) {
	r := newTestRenderer(t)
	l := newTestLevel(t, r, WithConfig(smallConfig(4)), WithBrushRadius(6))
	if err := l.Load(groundImage()); err != nil {
		t.Fatal(err)
	}
	// pixel (32, 20), four rows into the ground
	a, err := l.Spawn(common.Vec2{Y: -4}, 0)
	if err != nil {
		t.Fatal(err)
	}

	mustTick(t, l)
	mustRender(t, l, 3)
	mustTick(t, l)
	if a.State() != actor.StateWalking {
		t.Fatalf("state = %v before digging, want walking", a.State())
	}
	mustTick(t, l)
	if a.State() != actor.StateWalking {
		t.Fatal("supported actor started falling")
	}

	// the hole spans pixel rows 14 to 25 in the actor's column, row 26 is solid again
	l.Dig(common.Vec2{Y: -4}, true)
	mustTick(t, l)
	if a.State() != actor.StateFalling {
		t.Fatalf("state = %v after digging under the actor, want falling", a.State())
	}
	mustRender(t, l, 1)
	l.Dig(common.Vec2{Y: -4}, false)

	row := func() float32 { return l.ToTerrainPixel(a.Position()).Y }
	for range 60 {
		mustRender(t, l, 1)
		mustTick(t, l)
		if a.State() == actor.StateWalking && row() >= 26 {
			break
		}
	}
	if a.State() != actor.StateWalking {
		t.Fatalf("actor never landed, at pixel row %v", row())
	}
	if r := row(); r < 26 || r >= 32 {
		t.Errorf("actor landed at pixel row %v, want the bottom of the hole", r)
	}
}

func TestWalkingActorsTurnAtObstacles(t *testing.T) {
	r := newTestRenderer(t)
	wall := Obstacle{Min: common.Vec2{X: 3, Y: -10}, Max: common.Vec2{X: 5, Y: 10}}
	l := newTestLevel(t, r, WithConfig(smallConfig(4)), WithObstacles(wall))

	a := actor.NewActor(actor.WithState(actor.StateWalking), actor.WithSpeed(1))
	if err := l.Registry().Add(a); err != nil {
		t.Fatal(err)
	}
	want := []float32{1, 2, 2, 1, 0}
	for i, x := range want {
		mustTick(t, l)
		if a.Position().X != x {
			t.Fatalf("tick %d: x = %v, want %v", i+1, a.Position().X, x)
		}
	}
	if a.Speed() != -1 {
		t.Errorf("speed = %v, want -1", a.Speed())
	}
}

func TestUnloadReleasesTogether(t *testing.T) {
	r := newTestRenderer(t)
	l := newTestLevel(t, r, WithConfig(smallConfig(4)))
	if err := l.Load(groundImage(), Spawn{Position: common.Vec2{Y: 8}}); err != nil {
		t.Fatal(err)
	}
	mustTick(t, l)
	mustRender(t, l, 2)

	l.Unload()
	if l.Loaded() || l.Registry().Count() != 0 {
		t.Fatal("Unload left the level loaded")
	}
	if st := l.CollisionStats(); st != (collision.Stats{}) {
		t.Errorf("CollisionStats() after Unload = %+v", st)
	}
	mustTick(t, l)
	mustRender(t, l, 1)

	if err := l.Load(groundImage()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	mustTick(t, l)
	mustRender(t, l, 1)
	if st := l.CollisionStats(); st.Dispatches != 1 {
		t.Errorf("dispatches after reload = %d, want 1", st.Dispatches)
	}
}

func TestScreenToWorld(t *testing.T) {
	r := newTestRenderer(t)
	l := newTestLevel(t, r)

	tests := []struct {
		screen common.Vec2
		world  common.Vec2
	}{
		{common.Vec2{X: 0, Y: 0}, common.Vec2{X: -640, Y: 360}},
		{common.Vec2{X: 640, Y: 360}, common.Vec2{X: 0, Y: 0}},
		{common.Vec2{X: 1280, Y: 720}, common.Vec2{X: 640, Y: -360}},
	}
	for _, tt := range tests {
		if got := l.ScreenToWorld(tt.screen); got != tt.world {
			t.Errorf("ScreenToWorld(%v) = %v, want %v", tt.screen, got, tt.world)
		}
	}
}

func TestTerrainSupportProbe(t *testing.T) {
	cfg := smallConfig(1)
	probe := NewTerrainSupportProbe(groundImage(), cfg.TerrainPixel, 0)

	tests := []struct {
		name string
		pos  common.Vec2
		want bool
	}{
		{"inside ground", common.Vec2{Y: -4}, true},
		{"standing on the surface row", common.Vec2{Y: 0.5}, true},
		{"one row above the surface", common.Vec2{Y: 2}, false},
		{"in the air", common.Vec2{Y: 10}, false},
		{"outside the terrain", common.Vec2{X: 100, Y: -4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := actor.NewActor(actor.WithPosition(tt.pos))
			if got := probe.Supported(a); got != tt.want {
				t.Errorf("Supported(%v) = %v, want %v", tt.pos, got, tt.want)
			}
		})
	}

	probe.Erase(terrain.BrushParams{Center: cfg.TerrainPixel(common.Vec2{Y: -4}), Radius: 3})
	if probe.Supported(actor.NewActor(actor.WithPosition(common.Vec2{Y: -4}))) {
		t.Error("erased pixel still supports the actor")
	}
}
