// Package engine drives levels from two goroutines: a fixed-rate simulation tick and a free-running
// (or frame-limited) render loop. An optional window supplies input and the presentation surface.
package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/all-the-way-home/home/engine/level"
	"github.com/all-the-way-home/home/engine/logging"
	"github.com/all-the-way-home/home/engine/profiler"
	"github.com/all-the-way-home/home/engine/window"
)

// engine implements the Engine interface.
// Coordinates engine, render, and window threads.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window window.Window

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32)

	levelsMu sync.RWMutex
	levels   map[int]*level.Level

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the engine.
// It orchestrates the engine loop, render loop, and window management.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance, nil when running headless
	Window() window.Window

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// Every level is ticked at this rate, followed by the tick callback.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick after the levels have ticked.
	// Use this for spawning, input processing, and other game logic.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called each render frame after the levels have rendered.
	//
	// Parameters:
	//   - callback: function to call each render frame, receiving the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// AddLevel registers a level at the given key.
	// Levels are ticked and rendered in ascending key order.
	//
	// Parameters:
	//   - key: the ordering key (lower runs first)
	//   - l: the Level to register
	AddLevel(key int, l *level.Level)

	// RemoveLevel removes the level at the given key. The level is not released.
	//
	// Parameters:
	//   - key: the key of the level to remove
	RemoveLevel(key int)

	// Level retrieves the level registered at the given key.
	// Returns nil if no level exists at that key.
	//
	// Parameters:
	//   - key: the key of the level to retrieve
	//
	// Returns:
	//   - *level.Level: the level at the key, or nil if not found
	Level(key int) *level.Level

	// Levels returns a copy of all registered levels by key.
	//
	// Returns:
	//   - map[int]*level.Level: a copy of the levels map
	Levels() map[int]*level.Level

	// Run starts the engine and render goroutines and blocks until the window closes or Quit is called.
	// Without a window only Quit stops it.
	Run()

	// Quit signals all engine goroutines to stop and shuts down the engine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// SetLogger installs the structured logger used by the engine and every sub-package.
// Passing nil silences logging, which is the default.
//
// Parameters:
//   - l: the logger to install
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// NewEngine creates a new Engine instance with the provided options.
// Initializes message channels and profiler with sensible defaults.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (profiling, tick rate, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		levels:          make(map[int]*level.Level),
		engineTickRate:  time.Second / 60,
	}
	e.profiler = profiler.NewProfiler(profiler.WithStats(e.collisionStats))

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			for _, l := range e.sortedLevels() {
				l.Resize(width, height)
			}
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Run() {
	e.running.Store(true)
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running.Store(false)
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handle launches the engine and render goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleRender()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Ticks every level, then fires the tick callback, at the configured tick rate and listens for
// dynamic rate changes via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()
	defer e.recoverLoop("engine")

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			for _, l := range e.sortedLevels() {
				if err := l.Tick(dt); err != nil {
					logging.Logger().Warn("level tick failed", "err", err)
				}
			}
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Renders every level in ascending key order: readback delivery, collision dispatch, terrain pass,
// presentation and target swap all happen inside Level.RenderFrame.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer e.recoverLoop("render")

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
			now := time.Now()
			dt := float32(now.Sub(lastRender).Seconds())
			lastRender = now

			for _, l := range e.sortedLevels() {
				if err := l.RenderFrame(); err != nil {
					logging.Logger().Warn("level render failed", "err", err)
				}
			}

			if e.renderCallback != nil {
				e.renderCallback(dt)
			}

			if e.profilingEnabled.Load() && e.profiler != nil {
				e.profiler.Tick()
			}

			// Frame rate limiting
			if e.renderFrameLimit > 0 {
				elapsed := time.Since(lastRender)
				if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
					time.Sleep(remaining)
				}
			}
		}
	}
}

// recoverLoop stops the engine instead of crashing the process when a loop goroutine panics.
func (e *engine) recoverLoop(loop string) {
	if r := recover(); r != nil {
		logging.Logger().Warn("goroutine recovered from panic", "loop", loop, "panic", fmt.Sprint(r))
		e.signalQuit()
	}
}

// sortedLevels returns the registered levels in ascending key order.
func (e *engine) sortedLevels() []*level.Level {
	e.levelsMu.RLock()
	defer e.levelsMu.RUnlock()

	keys := make([]int, 0, len(e.levels))
	for k := range e.levels {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make([]*level.Level, 0, len(keys))
	for _, k := range keys {
		out = append(out, e.levels[k])
	}
	return out
}

// collisionStats sums the collision counters of every level for the profiler report.
func (e *engine) collisionStats() []slog.Attr {
	var dispatches, skipped, results, landed uint64
	for _, l := range e.sortedLevels() {
		s := l.CollisionStats()
		dispatches += s.Dispatches
		skipped += s.Skipped
		results += s.Results
		landed += s.Landed
	}
	return []slog.Attr{
		slog.Uint64("dispatches", dispatches),
		slog.Uint64("skipped", skipped),
		slog.Uint64("results", results),
		slog.Uint64("landed", landed),
	}
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}
	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function called each render frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) AddLevel(key int, l *level.Level) {
	e.levelsMu.Lock()
	defer e.levelsMu.Unlock()
	e.levels[key] = l
}

func (e *engine) RemoveLevel(key int) {
	e.levelsMu.Lock()
	defer e.levelsMu.Unlock()
	delete(e.levels, key)
}

func (e *engine) Level(key int) *level.Level {
	e.levelsMu.RLock()
	defer e.levelsMu.RUnlock()
	return e.levels[key]
}

func (e *engine) Levels() map[int]*level.Level {
	e.levelsMu.RLock()
	defer e.levelsMu.RUnlock()
	cp := make(map[int]*level.Level, len(e.levels))
	for k, v := range e.levels {
		cp[k] = v
	}
	return cp
}
