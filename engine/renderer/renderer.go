package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/logging"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	surfaceWidth         int
	surfaceHeight        int
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	workers              int
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify GPU work into a streamlined and idiomatic flow.
// The Renderer manages a cache of pipelines keyed by name and hands out backend-neutral texture and
// buffer handles. The Renderer delegates to a backend which allows for multiple API implementations
// to exist: WebGPU for real hardware and a host backend that runs each pipeline's kernels.
type Renderer interface {
	// BackendType reports which backend the renderer was created with.
	//
	// Returns:
	//   - RendererBackendType: the backend in use
	BackendType() RendererBackendType

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the pipeline cache.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines by creating the corresponding backend
	// pipeline objects (render or compute), then caching them by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required after changing
	// this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// CreateTexture allocates a 2D texture.
	//
	// Parameters:
	//   - desc: the texture size, format and usage
	//
	// Returns:
	//   - resource.Texture: the texture handle
	//   - error: an error if the backend cannot create the texture
	CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error)

	// WriteTexture uploads tightly packed RGBA8 pixels covering the whole texture.
	//
	// Parameters:
	//   - tex: a texture created with TextureUsageCopyDst
	//   - data: pixels whose dimensions match the texture
	//
	// Returns:
	//   - error: an error if the sizes differ or the texture cannot be written
	WriteTexture(tex resource.Texture, data common.TextureStagingData) error

	// CreateBuffer allocates a linear buffer.
	//
	// Parameters:
	//   - desc: the buffer size and usage
	//
	// Returns:
	//   - resource.Buffer: the buffer handle
	//   - error: an error if the backend cannot create the buffer
	CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error)

	// WriteBuffers writes all staged buffer writes to the queue.
	// Each BufferWrite targets the buffer on a BindGroupProvider at a given binding and offset.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// InitBindGroup builds a fresh bind group for group 0 of the keyed pipeline from the resources
	// currently set on the provider and stores it on the provider, releasing the previous one.
	// Every binding the pipeline's shaders declare must have a resource.
	//
	// Parameters:
	//   - pipelineKey: the registered pipeline whose layout the bind group follows
	//   - provider: the BindGroupProvider holding the resources and receiving the bind group
	//
	// Returns:
	//   - error: ErrUnknownPipeline, ErrMissingBinding, or a backend error
	InitBindGroup(pipelineKey string, provider bind_group_provider.BindGroupProvider) error

	// BeginComputeFrame opens a command recording for batching copies and compute dispatches
	// within a frame into one submission. Must be paired with EndComputeFrame.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// CopyTextureToTexture records a full-size copy between two textures of equal size and copy
	// compatible formats in the current compute frame.
	//
	// Parameters:
	//   - src: a texture created with TextureUsageCopySrc
	//   - dst: a texture created with TextureUsageCopyDst
	//
	// Returns:
	//   - error: an error if no compute frame is open or the textures are incompatible
	CopyTextureToTexture(src, dst resource.Texture) error

	// DispatchCompute looks up the cached compute Pipeline by key and records a compute pass
	// within the current compute frame started by BeginComputeFrame.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached compute Pipeline to use
	//   - provider: the BindGroupProvider whose BindGroup will be set on the compute pass
	//   - workGroupCount: the number of workgroups to dispatch in the x, y, and z dimensions
	//
	// Returns:
	//   - error: ErrUnknownPipeline if the key is not registered
	DispatchCompute(pipelineKey string, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// CopyBufferToBuffer records a copy of the first size bytes of src into dst in the current compute frame.
	//
	// Parameters:
	//   - src: a buffer created with BufferUsageCopySrc
	//   - dst: a buffer created with BufferUsageCopyDst
	//   - size: the number of bytes to copy, a multiple of 4
	//
	// Returns:
	//   - error: an error if no compute frame is open or the buffers are too small
	CopyBufferToBuffer(src, dst resource.Buffer, size uint64) error

	// EndComputeFrame finishes the compute recording and submits it.
	EndComputeFrame()

	// ReadBuffer requests an asynchronous read of a mappable buffer. The callback runs from a later
	// Poll once the data is available, never from inside ReadBuffer.
	//
	// Parameters:
	//   - buf: a buffer created with BufferUsageMapRead
	//   - size: the number of bytes to read
	//   - callback: receives a copy of the bytes, or the error that prevented the read
	//
	// Returns:
	//   - error: an error if the read cannot be requested
	ReadBuffer(buf resource.Buffer, size uint64, callback func([]byte, error)) error

	// Poll advances the backend without blocking and runs the callbacks of completed reads.
	Poll()

	// RenderPass draws a fullscreen triangle with the keyed render pipeline into an offscreen texture
	// and submits it immediately.
	//
	// Parameters:
	//   - pipelineKey: the registered render pipeline
	//   - provider: the BindGroupProvider whose BindGroup is bound at group 0
	//   - target: a texture created with TextureUsageRenderAttachment in the pipeline's target format
	//
	// Returns:
	//   - error: an error if the pipeline is unknown or the pass cannot be recorded
	RenderPass(pipelineKey string, provider bind_group_provider.BindGroupProvider, target resource.Texture) error

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	// Must be paired with EndFrame after all DrawCall invocations within a single frame.
	//
	// Returns:
	//   - error: ErrNoSurface without a surface, or an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawCall encodes a non-indexed draw within the current surface render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached surface render Pipeline to use
	//   - provider: the BindGroupProvider whose BindGroup is bound at group 0
	//   - vertexCount: the number of vertices per instance
	//   - instanceCount: the number of instances to draw
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32) error

	// EndFrame ends the current render pass and submits the command buffer.
	// Does not present the surface, call Present() after EndFrame to display the frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// Release frees every pipeline and the backend device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type.
//
// Parameters:
//   - backendType: the type of backend to use
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
//   - error: an error if the backend could not acquire a device
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
		workers:       max(runtime.NumCPU()-1, 1),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.workers)
	case BackendTypeWGPU:
		b, err := newWGPURendererBackend(r.surfaceDescriptor, r.forceFallbackAdapter)
		if err != nil {
			return nil, err
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("renderer: unknown backend type %d", backendType)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}
	if r.surfaceDescriptor != nil {
		r.backend.ConfigureSurface(r.surfaceWidth, r.surfaceHeight)
	}
	logging.Logger().Info("renderer created", "backend", backendType.String(), "surface", r.surfaceDescriptor != nil)
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := r.backend.RegisterComputePipeline(p); err != nil {
				return fmt.Errorf("register compute pipeline %q: %w", key, err)
			}
		case pipeline.PipelineTypeRender:
			if err := r.backend.RegisterRenderPipeline(p); err != nil {
				return fmt.Errorf("register render pipeline %q: %w", key, err)
			}
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) lookup(key string) (pipeline.Pipeline, error) {
	r.mu.Lock()
	p, exists := r.pipelineCache[key]
	r.mu.Unlock()
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPipeline, key)
	}
	return p, nil
}

func (r *renderer) CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error) {
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("renderer: texture %q has zero size %dx%d", desc.Label, desc.Width, desc.Height)
	}
	return r.backend.CreateTexture(desc)
}

func (r *renderer) WriteTexture(tex resource.Texture, data common.TextureStagingData) error {
	if data.Width != tex.Width() || data.Height != tex.Height() {
		return fmt.Errorf("renderer: staging data %dx%d does not match texture %q %dx%d",
			data.Width, data.Height, tex.Label(), tex.Width(), tex.Height())
	}
	if uint32(len(data.Pixels)) != data.Width*data.Height*4 {
		return fmt.Errorf("renderer: staging data for %q has %d bytes, want %d", tex.Label(), len(data.Pixels), data.Width*data.Height*4)
	}
	return r.backend.WriteTexture(tex, data)
}

func (r *renderer) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("renderer: buffer %q has zero size", desc.Label)
	}
	return r.backend.CreateBuffer(desc)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) InitBindGroup(pipelineKey string, provider bind_group_provider.BindGroupProvider) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	if missing := provider.Missing(pipeline.Bindings(p.BindGroupLayouts(), 0)...); len(missing) > 0 {
		return fmt.Errorf("%w: pipeline %q bindings %v on %q", ErrMissingBinding, pipelineKey, missing, provider.Label())
	}
	bg, err := r.backend.CreateBindGroup(p, provider)
	if err != nil {
		return fmt.Errorf("create bind group %q: %w", provider.Label(), err)
	}
	provider.SetBindGroup(bg)
	return nil
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) CopyTextureToTexture(src, dst resource.Texture) error {
	if src.Width() != dst.Width() || src.Height() != dst.Height() {
		return fmt.Errorf("renderer: copy %q (%dx%d) to %q (%dx%d): size mismatch",
			src.Label(), src.Width(), src.Height(), dst.Label(), dst.Width(), dst.Height())
	}
	if !src.Format().CopyCompatible(dst.Format()) {
		return fmt.Errorf("renderer: copy %q to %q: formats %s and %s are not copy compatible",
			src.Label(), dst.Label(), src.Format(), dst.Format())
	}
	if !src.Usage().Has(resource.TextureUsageCopySrc) || !dst.Usage().Has(resource.TextureUsageCopyDst) {
		return fmt.Errorf("renderer: copy %q to %q: missing copy usage", src.Label(), dst.Label())
	}
	return r.backend.CopyTextureToTexture(src, dst)
}

func (r *renderer) DispatchCompute(pipelineKey string, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	if provider.BindGroup() == nil {
		return fmt.Errorf("%w: %q has no bind group", ErrMissingBinding, provider.Label())
	}
	r.backend.DispatchCompute(p, provider, workGroupCount)
	return nil
}

func (r *renderer) CopyBufferToBuffer(src, dst resource.Buffer, size uint64) error {
	if size > src.Size() || size > dst.Size() {
		return fmt.Errorf("renderer: copy %d bytes from %q (%d) to %q (%d): out of range",
			size, src.Label(), src.Size(), dst.Label(), dst.Size())
	}
	if size%4 != 0 {
		return fmt.Errorf("renderer: copy size %d is not a multiple of 4", size)
	}
	return r.backend.CopyBufferToBuffer(src, dst, size)
}

func (r *renderer) EndComputeFrame() {
	r.backend.EndComputeFrame()
}

func (r *renderer) ReadBuffer(buf resource.Buffer, size uint64, callback func([]byte, error)) error {
	if !buf.Usage().Has(resource.BufferUsageMapRead) {
		return fmt.Errorf("renderer: buffer %q is not mappable", buf.Label())
	}
	if size > buf.Size() {
		return fmt.Errorf("renderer: read %d bytes from %q (%d): out of range", size, buf.Label(), buf.Size())
	}
	return r.backend.ReadBuffer(buf, size, callback)
}

func (r *renderer) Poll() {
	r.backend.Poll()
}

func (r *renderer) RenderPass(pipelineKey string, provider bind_group_provider.BindGroupProvider, target resource.Texture) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	if p.Type() != pipeline.PipelineTypeRender || p.SurfaceTarget() {
		return fmt.Errorf("renderer: pipeline %q cannot draw offscreen", pipelineKey)
	}
	if target.Format() != p.TargetFormat() || !target.Usage().Has(resource.TextureUsageRenderAttachment) {
		return fmt.Errorf("renderer: target %q (%s) is not a %s render attachment", target.Label(), target.Format(), p.TargetFormat())
	}
	if provider.BindGroup() == nil {
		return fmt.Errorf("%w: %q has no bind group", ErrMissingBinding, provider.Label())
	}
	return r.backend.RenderPass(p, provider, target)
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, provider bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32) error {
	p, err := r.lookup(pipelineKey)
	if err != nil {
		return err
	}
	r.backend.DrawCall(p, provider, vertexCount, instanceCount)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.mu.Lock()
	for _, p := range r.pipelineCache {
		p.Release()
	}
	r.pipelineCache = make(map[string]pipeline.Pipeline)
	r.mu.Unlock()
	r.backend.Release()
}
