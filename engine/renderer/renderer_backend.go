package renderer

import (
	"errors"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
)

// RendererBackendType identifies the backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the host backend, which executes the kernels attached to each
	// pipeline instead of WGSL. It has no presentation surface.
	BackendTypeSoftware
)

func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeWGPU:
		return "wgpu"
	case BackendTypeSoftware:
		return "software"
	default:
		return "unknown"
	}
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

var (
	// ErrNoSurface is returned by BeginFrame when the backend has no presentation surface.
	ErrNoSurface = errors.New("renderer: no presentation surface")

	// ErrMissingBinding is returned when a bind group is requested while a binding declared by the
	// pipeline's shaders has no resource on the provider.
	ErrMissingBinding = errors.New("renderer: binding has no resource")

	// ErrUnknownPipeline is returned when a pipeline key is not registered.
	ErrUnknownPipeline = errors.New("renderer: pipeline not registered")

	// ErrNoComputeFrame is returned when a copy is recorded outside BeginComputeFrame/EndComputeFrame.
	ErrNoComputeFrame = errors.New("renderer: no compute frame in progress")

	// ErrForeignResource is returned when a resource created by another backend is passed in.
	ErrForeignResource = errors.New("renderer: resource belongs to another backend")
)

// RendererBackend is the interface each backend implementation satisfies. The Renderer resolves
// pipeline keys and validates providers; backends only ever see resolved pipelines.
type RendererBackend interface {
	ConfigureSurface(width, height int)
	SetPresentMode(mode PresentMode)

	RegisterComputePipeline(p pipeline.Pipeline) error
	RegisterRenderPipeline(p pipeline.Pipeline) error

	CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error)
	WriteTexture(tex resource.Texture, data common.TextureStagingData) error
	CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error)
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	CreateBindGroup(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) (resource.BindGroup, error)

	BeginComputeFrame() error
	CopyTextureToTexture(src, dst resource.Texture) error
	DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32)
	CopyBufferToBuffer(src, dst resource.Buffer, size uint64) error
	EndComputeFrame()

	ReadBuffer(buf resource.Buffer, size uint64, callback func([]byte, error)) error
	Poll()

	RenderPass(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, target resource.Texture) error

	BeginFrame() error
	DrawCall(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, vertexCount, instanceCount uint32)
	EndFrame()
	Present()

	Release()
}
