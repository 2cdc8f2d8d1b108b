package collision

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/all-the-way-home/home/engine/logging"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/renderer/shader"
	"github.com/all-the-way-home/home/engine/terrain"
)

// PipelineKey is the renderer key of the collision compute pipeline.
const PipelineKey = "collision"

const (
	bindingPositions = 0
	bindingTerrain   = 1
	bindingResults   = 2
)

// ErrStaleSnapshot is returned when a dispatch would bind a snapshot version that was already bound.
var ErrStaleSnapshot = errors.New("collision: snapshot version did not advance")

//go:embed assets/collision.wgsl
var collisionSource string

// Compute owns the GPU side of collision detection: the positions, results and staging buffers,
// and the bind group joining them with the terrain snapshot.
type Compute struct {
	mu sync.Mutex

	renderer renderer.Renderer
	cfg      Config
	register *ResultRegister
	provider bind_group_provider.BindGroupProvider

	positions resource.Buffer
	results   resource.Buffer
	staging   resource.Buffer

	// lastVersion is the snapshot version bound by the last dispatch
	lastVersion uint64

	// copied is the frame whose results were copied to staging this frame and await a read
	copied        *PositionFrame
	copiedVersion uint64
	readPending   atomic.Bool

	dispatches atomic.Uint64
	skipped    atomic.Uint64
}

// NewComputePipeline builds the collision compute pipeline for cfg, with the presence threshold
// compiled into the shader and the software kernel attached.
func NewComputePipeline(cfg Config) (pipeline.Pipeline, error) {
	cs, err := shader.NewShader(PipelineKey, shader.ShaderTypeCompute, collisionSource,
		shader.WithStruct(SlotStructKey, SlotStruct()),
		shader.WithConstant("presence_threshold", strconv.Itoa(int(cfg.PresenceThreshold))+"u"),
	)
	if err != nil {
		return nil, fmt.Errorf("collision: shader: %w", err)
	}
	return pipeline.NewPipeline(PipelineKey, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs),
		pipeline.WithComputeKernel(Kernel(cfg.PresenceThreshold)),
	), nil
}

// NewCompute registers the collision pipeline and allocates its buffers.
//
// Parameters:
//   - r: the renderer to dispatch with
//   - cfg: validated tunables
//   - register: receives every completed readback
//
// Returns:
//   - *Compute: the compute stage
//   - error: if the pipeline or a buffer cannot be created
func NewCompute(r renderer.Renderer, cfg Config, register *ResultRegister) (*Compute, error) {
	if r == nil || register == nil {
		panic("collision: compute requires a renderer and a result register")
	}
	if r.Pipeline(PipelineKey) == nil {
		p, err := NewComputePipeline(cfg)
		if err != nil {
			return nil, err
		}
		if err := r.RegisterPipelines(p); err != nil {
			return nil, err
		}
	}

	c := &Compute{renderer: r, cfg: cfg, register: register}
	var err error
	if c.positions, err = r.CreateBuffer(resource.BufferDescriptor{
		Label: "Actor Positions",
		Size:  cfg.PositionsSize(),
		Usage: resource.BufferUsageStorage | resource.BufferUsageCopyDst,
	}); err != nil {
		return nil, fmt.Errorf("collision: create positions buffer: %w", err)
	}
	if c.results, err = r.CreateBuffer(resource.BufferDescriptor{
		Label: "Collision Results",
		Size:  cfg.ResultsSize(),
		Usage: resource.BufferUsageStorage | resource.BufferUsageCopySrc,
	}); err != nil {
		c.Release()
		return nil, fmt.Errorf("collision: create results buffer: %w", err)
	}
	if c.staging, err = r.CreateBuffer(resource.BufferDescriptor{
		Label: "Collision Readback",
		Size:  cfg.ResultsSize(),
		Usage: resource.BufferUsageMapRead | resource.BufferUsageCopyDst,
	}); err != nil {
		c.Release()
		return nil, fmt.Errorf("collision: create staging buffer: %w", err)
	}

	c.provider = bind_group_provider.NewBindGroupProvider("Collision",
		bind_group_provider.WithBuffer(bindingPositions, c.positions),
		bind_group_provider.WithBuffer(bindingResults, c.results),
	)
	return c, nil
}

// Dispatch records the collision work of one frame: upload the positions, rebuild the bind group
// over the current snapshot, dispatch one workgroup per slot and, unless a read is still in
// flight, copy the results to the staging buffer. It must run inside a compute frame, after the
// snapshot refresh of the same frame.
//
// A missing frame or snapshot skips the frame's work without error; the previous result stays
// the latest one.
//
// Parameters:
//   - frame: the positions to test, may be nil
//   - snapshot: the refreshed terrain snapshot, may be nil
//
// Returns:
//   - bool: true if the dispatch was recorded
//   - error: ErrStaleSnapshot if the snapshot was not refreshed since the last dispatch, or a renderer error
func (c *Compute) Dispatch(frame *PositionFrame, snapshot *terrain.Snapshot) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var terrainTex resource.Texture
	if snapshot != nil {
		terrainTex = snapshot.Texture()
	}
	if frame == nil || terrainTex == nil || c.provider == nil {
		c.skipped.Add(1)
		logging.Logger().Debug("collision dispatch skipped",
			"positions", frame != nil, "snapshot", terrainTex != nil)
		return false, nil
	}

	version := snapshot.Version()
	if version <= c.lastVersion {
		return false, fmt.Errorf("%w: bound %d, have %d", ErrStaleSnapshot, c.lastVersion, version)
	}

	c.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: c.provider,
		Binding:  bindingPositions,
		Data:     frame.Data,
	}})
	c.provider.SetTexture(bindingTerrain, terrainTex)
	if err := c.renderer.InitBindGroup(PipelineKey, c.provider); err != nil {
		if errors.Is(err, renderer.ErrMissingBinding) {
			c.skipped.Add(1)
			logging.Logger().Debug("collision dispatch skipped", "err", err)
			return false, nil
		}
		return false, err
	}
	if err := c.renderer.DispatchCompute(PipelineKey, c.provider, [3]uint32{uint32(c.cfg.Capacity), 1, 1}); err != nil {
		return false, err
	}
	c.lastVersion = version
	c.dispatches.Add(1)

	if c.readPending.Load() {
		logging.Logger().Debug("collision readback pending, results not copied", "tick", frame.Tick)
		return true, nil
	}
	if err := c.renderer.CopyBufferToBuffer(c.results, c.staging, c.cfg.ResultsSize()); err != nil {
		return true, err
	}
	c.copied, c.copiedVersion = frame, version
	return true, nil
}

// Readback starts the asynchronous read of the results copied by this frame's dispatch. It must
// run after Renderer.EndComputeFrame. The read completes during a later Renderer.Poll and stores
// the decoded flags in the result register.
//
// Returns:
//   - error: if the read cannot be started
func (c *Compute) Readback() error {
	c.mu.Lock()
	frame, version := c.copied, c.copiedVersion
	c.copied = nil
	c.mu.Unlock()
	if frame == nil {
		return nil
	}

	c.readPending.Store(true)
	err := c.renderer.ReadBuffer(c.staging, c.cfg.ResultsSize(), func(data []byte, err error) {
		defer c.readPending.Store(false)
		if err != nil {
			logging.Logger().Warn("collision readback failed", "tick", frame.Tick, "err", err)
			return
		}
		flags := make([]uint32, len(data)/4)
		for i := range flags {
			flags[i] = binary.LittleEndian.Uint32(data[i*4:])
		}
		c.register.Store(Result{
			Flags:           flags,
			Slots:           frame.Slots,
			Tick:            frame.Tick,
			SnapshotVersion: version,
		})
		logging.Logger().Debug("collision readback", "tick", frame.Tick, "snapshot", version, "flags", flags[:frame.Live])
	})
	if err != nil {
		c.readPending.Store(false)
		return fmt.Errorf("collision: readback: %w", err)
	}
	return nil
}

// ReadPending reports whether a readback is in flight.
func (c *Compute) ReadPending() bool {
	return c.readPending.Load()
}

// Release frees the buffers and the bind group. Later dispatches are skipped.
func (c *Compute) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.provider != nil {
		c.provider.Release()
		c.provider = nil
	}
	for _, buf := range []resource.Buffer{c.positions, c.results, c.staging} {
		if buf != nil {
			buf.Release()
		}
	}
	c.positions, c.results, c.staging = nil, nil, nil
	c.copied = nil
}
