// Command home runs a level of walking actors on a diggable terrain. Actors fall until the collision
// compute pass finds terrain under them, then walk until the ground is dug away.
//
// Usage:
//
//	home [-headless] [-terrain level.png] [-capacity 100] [-threshold 0] ...
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine"
	"github.com/all-the-way-home/home/engine/collision"
	"github.com/all-the-way-home/home/engine/level"
	"github.com/all-the-way-home/home/engine/logging"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/window"
)

// GLFW must own the main thread.
func init() {
	runtime.LockOSThread()
}

type options struct {
	headless        bool
	backend         string
	fallbackAdapter bool
	vsync           bool
	workers         int

	terrain       string
	terrainWidth  uint
	terrainHeight uint
	capacity      int
	threshold     uint

	tickRate   float64
	frameLimit float64
	frames     int64

	spawnInterval int
	maxActors     int
	walkSpeed     float64
	fallSpeed     float64
	brushRadius   float64

	profile  bool
	logLevel string
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("home", flag.ContinueOnError)
	fs.BoolVar(&o.headless, "headless", false, "run without a window")
	fs.StringVar(&o.backend, "backend", "wgpu", "renderer backend: wgpu or software")
	fs.BoolVar(&o.fallbackAdapter, "fallback-adapter", false, "force the CPU fallback WebGPU adapter")
	fs.BoolVar(&o.vsync, "vsync", true, "wait for vertical blank when presenting")
	fs.IntVar(&o.workers, "workers", 0, "software backend worker goroutines (0 = NumCPU-1)")

	fs.StringVar(&o.terrain, "terrain", "", "level PNG or JPEG, scaled to the terrain size (default: generated hills)")
	fs.UintVar(&o.terrainWidth, "terrain-width", collision.DefaultTerrainWidth, "terrain width in pixels")
	fs.UintVar(&o.terrainHeight, "terrain-height", collision.DefaultTerrainHeight, "terrain height in pixels")
	fs.IntVar(&o.capacity, "capacity", collision.DefaultCapacity, "maximum live actors, one collision slot each")
	fs.UintVar(&o.threshold, "threshold", 0, "alpha (0-255) above which a terrain pixel is solid")

	fs.Float64Var(&o.tickRate, "tick-rate", 60, "simulation ticks per second")
	fs.Float64Var(&o.frameLimit, "frame-limit", 0, "render frames per second cap (0 = uncapped)")
	fs.Int64Var(&o.frames, "frames", 0, "stop after this many render frames (0 = run until closed)")

	fs.IntVar(&o.spawnInterval, "spawn-interval", 60, "ticks between spawned actors")
	fs.IntVar(&o.maxActors, "max-actors", 0, "actors to spawn before the spawner stops, at most -capacity (0 = capacity)")
	fs.Float64Var(&o.walkSpeed, "walk-speed", 1, "walking speed in world units per tick")
	fs.Float64Var(&o.fallSpeed, "fall-speed", 0.5, "falling speed in world units per tick")
	fs.Float64Var(&o.brushRadius, "brush-radius", 24, "dig brush radius in terrain pixels")

	fs.BoolVar(&o.profile, "profile", false, "log frame rate, memory and collision counters every second")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.backend != "wgpu" && o.backend != "software" {
		return o, fmt.Errorf("unknown backend %q", o.backend)
	}
	if o.threshold > 255 {
		return o, fmt.Errorf("threshold %d outside [0, 255]", o.threshold)
	}
	if !o.headless && o.backend == "software" {
		return o, fmt.Errorf("the software backend has no surface, use -headless")
	}
	if o.maxActors < 0 {
		return o, fmt.Errorf("negative max-actors %d", o.maxActors)
	}
	if err := o.config().CheckActorCount(o.actorLimit()); err != nil {
		return o, fmt.Errorf("max-actors: %w", err)
	}
	return o, nil
}

// actorLimit is the number of actors the spawner may create.
func (o options) actorLimit() int {
	return common.Coalesce(o.maxActors, o.capacity)
}

func (o options) config() collision.Config {
	return collision.NewConfig(
		collision.WithCapacity(o.capacity),
		collision.WithTerrainSize(uint32(o.terrainWidth), uint32(o.terrainHeight)),
		collision.WithPresenceThreshold(uint8(o.threshold)),
		collision.WithViewport(float32(o.terrainWidth)/2, float32(o.terrainHeight)/2),
	)
}

// spawnPoint is near the top-left corner of the view, inset by a tenth of the viewport.
func spawnPoint(cfg collision.Config) common.Vec2 {
	return common.Vec2{X: -cfg.ViewportWidth * 0.4, Y: cfg.ViewportHeight * 0.4}
}

func newLogger(level string, out *os.File) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: l})), nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "home:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	o, err := parseFlags(args)
	if err != nil {
		return err
	}
	logger, err := newLogger(o.logLevel, os.Stderr)
	if err != nil {
		return err
	}
	engine.SetLogger(logger)

	cfg := o.config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Window ──────────────────────────────────────────────────────────
	var win window.Window
	if !o.headless {
		if win, err = window.NewWindow(
			window.WithTitle("All The Way Home"),
			window.WithWidth(int(cfg.ViewportWidth)),
			window.WithHeight(int(cfg.ViewportHeight)),
		); err != nil {
			return err
		}
	}

	// ── Renderer ────────────────────────────────────────────────────────
	presentMode := renderer.PresentModeUncapped
	if o.vsync {
		presentMode = renderer.PresentModeVSync
	}
	rendererOptions := []renderer.RendererBuilderOption{
		renderer.WithWorkers(o.workers),
		renderer.WithForceFallbackAdapter(o.fallbackAdapter),
		renderer.WithPresentMode(presentMode),
	}
	if win != nil {
		rendererOptions = append(rendererOptions, renderer.WithSurface(win.SurfaceDescriptor(), win.Width(), win.Height()))
	}
	backend := renderer.BackendTypeWGPU
	if o.backend == "software" {
		backend = renderer.BackendTypeSoftware
	}
	r, err := renderer.NewRenderer(backend, rendererOptions...)
	if err != nil && o.headless && backend == renderer.BackendTypeWGPU {
		logging.Logger().Warn("no WebGPU adapter, falling back to the software backend", "err", err)
		r, err = renderer.NewRenderer(renderer.BackendTypeSoftware, rendererOptions...)
	}
	if err != nil {
		return err
	}
	defer r.Release()

	// ── Level ───────────────────────────────────────────────────────────
	levelOptions := []level.LevelBuilderOption{
		level.WithConfig(cfg),
		level.WithFallSpeed(float32(o.fallSpeed)),
		level.WithBrushRadius(float32(o.brushRadius)),
	}
	if win != nil {
		levelOptions = append(levelOptions, level.WithPresenter())
	}
	lvl, err := level.NewLevel(r, levelOptions...)
	if err != nil {
		return err
	}
	defer lvl.Release()

	img, err := loadTerrain(o.terrain, cfg)
	if err != nil {
		return err
	}
	if err := lvl.Load(img); err != nil {
		return err
	}

	maxActors := o.actorLimit()
	spawns := newSpawner(lvl, spawnPoint(cfg), float32(o.walkSpeed), o.spawnInterval, maxActors)

	// ── Engine ──────────────────────────────────────────────────────────
	engineOptions := []engine.EngineBuilderOption{
		engine.WithTickRate(o.tickRate),
		engine.WithRenderFrameLimit(o.frameLimit),
		engine.WithProfiling(o.profile),
		engine.WithLevel(0, lvl),
	}
	if win != nil {
		engineOptions = append(engineOptions, engine.WithWindow(win))
	}
	eng := engine.NewEngine(engineOptions...)
	eng.SetTickCallback(func(float32) { spawns.Tick() })

	var frames atomic.Int64
	eng.SetRenderCallback(func(float32) {
		if o.frames > 0 && frames.Add(1) >= o.frames {
			eng.Quit()
		}
	})

	if win != nil {
		bindInput(ctx, win, eng, lvl, spawns, img, maxActors, o.profile)
	} else {
		go func() {
			<-ctx.Done()
			eng.Quit()
		}()
	}

	logging.Logger().Info("running", "backend", r.BackendType().String(), "headless", o.headless,
		"capacity", cfg.Capacity, "threshold", cfg.PresenceThreshold)
	eng.Run()

	stats := lvl.CollisionStats()
	logging.Logger().Info("stopped", "spawned", spawns.Spawned(), "dispatches", stats.Dispatches,
		"skipped", stats.Skipped, "results", stats.Results, "landed", stats.Landed)
	return nil
}

func loadTerrain(path string, cfg collision.Config) (common.TextureStagingData, error) {
	if path == "" {
		return generateTerrain(cfg.TerrainWidth, cfg.TerrainHeight), nil
	}
	return common.LoadTerrainImage(path, cfg.TerrainWidth, cfg.TerrainHeight)
}

// bindInput wires the window: the left mouse button digs under the cursor, S spawns an actor at the
// cursor, space pauses the spawner, R reloads the level and P toggles the profiler.
func bindInput(ctx context.Context, win window.Window, eng engine.Engine, lvl *level.Level, spawns *spawner, img common.TextureStagingData, maxActors int, profile bool) {
	var digging, profiling atomic.Bool
	profiling.Store(profile)
	var cursor atomic.Pointer[common.Vec2]
	cursor.Store(&common.Vec2{})

	toWorld := func(x, y int32) common.Vec2 {
		return lvl.ScreenToWorld(common.Vec2{X: float32(x), Y: float32(y)})
	}

	win.SetLeftMouseDownCallback(func(x, y int32) {
		digging.Store(true)
		lvl.Dig(toWorld(x, y), true)
	})
	win.SetLeftMouseUpCallback(func(x, y int32) {
		digging.Store(false)
		lvl.Dig(toWorld(x, y), false)
	})
	win.SetMouseMoveCallback(func(x, y int32) {
		p := toWorld(x, y)
		cursor.Store(&p)
		lvl.Dig(p, digging.Load())
	})

	win.SetKeyDownCallback(func(keyCode uint32) {
		switch keyCode {
		case common.KeyS:
			if _, err := lvl.Spawn(*cursor.Load(), spawns.speed); err != nil {
				logging.Logger().Warn("spawn failed", "err", err)
			}
		case common.KeySpace:
			logging.Logger().Info("spawner", "paused", spawns.TogglePause())
		case common.KeyR:
			if err := lvl.Load(img); err != nil {
				logging.Logger().Warn("reload failed", "err", err)
				return
			}
			spawns.Reset(maxActors)
		case common.KeyP:
			if profiling.CompareAndSwap(false, true) {
				eng.EnableProfiler()
			} else {
				profiling.Store(false)
				eng.DisableProfiler()
			}
		}
	})

	win.SetUpdateCallback(func() {
		if ctx.Err() != nil {
			_ = win.Close()
		}
	})
}
