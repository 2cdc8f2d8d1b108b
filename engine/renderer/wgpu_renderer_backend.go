package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/logging"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuTexture struct {
	desc resource.TextureDescriptor
	tex  *wgpu.Texture
	view *wgpu.TextureView
}

func (t *wgpuTexture) Label() string                  { return t.desc.Label }
func (t *wgpuTexture) Width() uint32                  { return t.desc.Width }
func (t *wgpuTexture) Height() uint32                 { return t.desc.Height }
func (t *wgpuTexture) Format() resource.TextureFormat { return t.desc.Format }
func (t *wgpuTexture) Usage() resource.TextureUsage   { return t.desc.Usage }

func (t *wgpuTexture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

type wgpuBuffer struct {
	desc resource.BufferDescriptor
	buf  *wgpu.Buffer
}

func (b *wgpuBuffer) Label() string               { return b.desc.Label }
func (b *wgpuBuffer) Size() uint64                { return b.desc.Size }
func (b *wgpuBuffer) Usage() resource.BufferUsage { return b.desc.Usage }

func (b *wgpuBuffer) Release() {
	if b.buf != nil {
		b.buf.Release()
		b.buf = nil
	}
}

type wgpuBindGroup struct {
	label string
	bg    *wgpu.BindGroup
}

func (g *wgpuBindGroup) Label() string { return g.label }

func (g *wgpuBindGroup) Release() {
	if g.bg != nil {
		g.bg.Release()
		g.bg = nil
	}
}

type mappedRead struct {
	buf      *wgpuBuffer
	size     uint64
	callback func([]byte, error)
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode // defaults to PresentModeImmediate (Uncapped)

	// Frame state for the surface render pass
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// Compute frame state for batching copies and dispatches into a single GPU submission
	computeFrameEncoder *wgpu.CommandEncoder

	// group 0 layouts keyed by pipeline key, shared by every bind group built for the pipeline
	layouts map[string]*wgpu.BindGroupLayout

	// reads waiting for their map callback, completed during Poll
	reads []*mappedRead
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

func newWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, forceFallbackAdapter bool) (*wgpuRendererBackendImpl, error) {
	runtime.LockOSThread()
	w := &wgpuRendererBackendImpl{
		mu:          &sync.Mutex{},
		instance:    wgpu.CreateInstance(nil),
		presentMode: wgpu.PresentModeImmediate,
		layouts:     make(map[string]*wgpu.BindGroupLayout),
	}
	if surfaceDescriptor != nil {
		w.surface = w.instance.CreateSurface(surfaceDescriptor)
	}

	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: forceFallbackAdapter,
		CompatibleSurface:    w.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	return w, nil
}

func toWGPUTextureFormat(f resource.TextureFormat) wgpu.TextureFormat {
	if f == resource.TextureFormatRGBA8UnormSrgb {
		return wgpu.TextureFormatRGBA8UnormSrgb
	}
	return wgpu.TextureFormatRGBA8Unorm
}

func toWGPUTextureUsage(u resource.TextureUsage) wgpu.TextureUsage {
	var out wgpu.TextureUsage
	for flag, mapped := range map[resource.TextureUsage]wgpu.TextureUsage{
		resource.TextureUsageCopySrc:          wgpu.TextureUsageCopySrc,
		resource.TextureUsageCopyDst:          wgpu.TextureUsageCopyDst,
		resource.TextureUsageTextureBinding:   wgpu.TextureUsageTextureBinding,
		resource.TextureUsageStorageBinding:   wgpu.TextureUsageStorageBinding,
		resource.TextureUsageRenderAttachment: wgpu.TextureUsageRenderAttachment,
	} {
		if u.Has(flag) {
			out |= mapped
		}
	}
	return out
}

func toWGPUBufferUsage(u resource.BufferUsage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	for flag, mapped := range map[resource.BufferUsage]wgpu.BufferUsage{
		resource.BufferUsageMapRead: wgpu.BufferUsageMapRead,
		resource.BufferUsageCopySrc: wgpu.BufferUsageCopySrc,
		resource.BufferUsageCopyDst: wgpu.BufferUsageCopyDst,
		resource.BufferUsageStorage: wgpu.BufferUsageStorage,
		resource.BufferUsageUniform: wgpu.BufferUsageUniform,
	} {
		if u.Has(flag) {
			out |= mapped
		}
	}
	return out
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || width <= 0 || height <= 0 {
		return
	}

	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = &capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	// View is set per-frame to the swapchain view in BeginFrame.
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.1, A: 1.0,
				},
			},
		},
	}
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

// createLayouts creates the bind group layouts for every group the pipeline declares and caches
// group 0 for bind group creation.
func (b *wgpuRendererBackendImpl) createLayouts(p pipeline.Pipeline) (*wgpu.PipelineLayout, error) {
	descriptors := p.BindGroupLayouts()
	maxGroup := -1
	for g := range descriptors {
		maxGroup = max(maxGroup, g)
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range descriptors {
		desc.Label = fmt.Sprintf("%s group %d", p.PipelineKey(), g)
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("failed to create bind group layout for group %d: %w", g, err)
		}
		bindGroupLayouts[g] = layout
	}
	if maxGroup >= 0 && bindGroupLayouts[0] != nil {
		b.mu.Lock()
		b.layouts[p.PipelineKey()] = bindGroupLayouts[0]
		b.mu.Unlock()
	}

	return b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            p.PipelineKey(),
		BindGroupLayouts: bindGroupLayouts,
	})
}

func (b *wgpuRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)
	if vertexShader == nil || fragmentShader == nil {
		return errors.New("both vertex and fragment shaders must be set to create a render pipeline")
	}

	targetFormat := toWGPUTextureFormat(p.TargetFormat())
	if p.SurfaceTarget() {
		if b.surfaceFormat == nil {
			return ErrNoSurface
		}
		targetFormat = *b.surfaceFormat
	}

	vs, err := b.device.CreateShaderModule(vertexShader.Module())
	if err != nil {
		return err
	}
	defer vs.Release()
	fs, err := b.device.CreateShaderModule(fragmentShader.Module())
	if err != nil {
		return err
	}
	defer fs.Release()

	pipelineLayout, err := b.createLayouts(p)
	if err != nil {
		return err
	}

	target := wgpu.ColorTargetState{
		Format:    targetFormat,
		WriteMask: p.WriteMask(),
	}
	if p.BlendEnabled() {
		target.Blend = p.BlendState()
	}

	created, err := b.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  p.PipelineKey() + " Render Pipeline",
		Layout: pipelineLayout,
		Vertex: wgpu.VertexState{
			Module:     vs,
			EntryPoint: vertexShader.EntryPoint(),
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs,
			EntryPoint: fragmentShader.EntryPoint(),
			Targets:    []wgpu.ColorTargetState{target},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.Topology(),
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	p.SetRenderPipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	computeShader := p.Shader(shader.ShaderTypeCompute)
	if computeShader == nil {
		return errors.New("compute shader must be set to create a compute pipeline")
	}

	s, err := b.device.CreateShaderModule(computeShader.Module())
	if err != nil {
		return err
	}
	defer s.Release()

	layout, err := b.createLayouts(p)
	if err != nil {
		return err
	}

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  p.PipelineKey() + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     s,
			EntryPoint: computeShader.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}

	p.SetComputePipeline(created)
	return nil
}

func (b *wgpuRendererBackendImpl) CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tex, err := b.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     toWGPUTextureUsage(desc.Usage),
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        toWGPUTextureFormat(desc.Format),
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, err
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, err
	}
	return &wgpuTexture{desc: desc, tex: tex, view: view}, nil
}

func (b *wgpuRendererBackendImpl) WriteTexture(tex resource.Texture, data common.TextureStagingData) error {
	t, ok := tex.(*wgpuTexture)
	if !ok {
		return ErrForeignResource
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  t.tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		data.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  data.Width * 4,
			RowsPerImage: data.Height,
		},
		&wgpu.Extent3D{
			Width:              data.Width,
			Height:             data.Height,
			DepthOrArrayLayers: 1,
		},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             desc.Size,
		Usage:            toWGPUBufferUsage(desc.Usage),
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{desc: desc, buf: buf}, nil
}

func (b *wgpuRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf, ok := w.Provider.Buffer(w.Binding).(*wgpuBuffer)
		if !ok {
			continue
		}
		b.queue.WriteBuffer(buf.buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) CreateBindGroup(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) (resource.BindGroup, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	layout := b.layouts[p.PipelineKey()]
	if layout == nil {
		return nil, fmt.Errorf("pipeline %q has no group 0 layout", p.PipelineKey())
	}

	descriptor := p.BindGroupLayouts()[0]
	entries := make([]wgpu.BindGroupEntry, 0, len(descriptor.Entries))
	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)
		if buf := provider.Buffer(binding); buf != nil {
			wb, ok := buf.(*wgpuBuffer)
			if !ok {
				return nil, ErrForeignResource
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  wb.buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			})
			continue
		}
		if tex := provider.Texture(binding); tex != nil {
			wt, ok := tex.(*wgpuTexture)
			if !ok {
				return nil, ErrForeignResource
			}
			entries = append(entries, wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: wt.view,
			})
			continue
		}
		return nil, fmt.Errorf("%w: binding %d", ErrMissingBinding, binding)
	}

	label := provider.Label() + " Bind Group"
	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{label: label, bg: bindGroup}, nil
}

func (b *wgpuRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.computeFrameEncoder = encoder
	return nil
}

func (b *wgpuRendererBackendImpl) CopyTextureToTexture(src, dst resource.Texture) error {
	s, ok1 := src.(*wgpuTexture)
	d, ok2 := dst.(*wgpuTexture)
	if !ok1 || !ok2 {
		return ErrForeignResource
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return ErrNoComputeFrame
	}
	b.computeFrameEncoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: s.tex, Aspect: wgpu.TextureAspectAll},
		&wgpu.ImageCopyTexture{Texture: d.tex, Aspect: wgpu.TextureAspectAll},
		&wgpu.Extent3D{Width: s.desc.Width, Height: s.desc.Height, DepthOrArrayLayers: 1},
	)
	return nil
}

func (b *wgpuRendererBackendImpl) DispatchCompute(
	p pipeline.Pipeline,
	provider bind_group_provider.BindGroupProvider,
	workGroupCount [3]uint32,
) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}

	computePipeline, ok := p.Pipeline().(*wgpu.ComputePipeline)
	bindGroup, bgOK := provider.BindGroup().(*wgpuBindGroup)
	if !ok || computePipeline == nil || !bgOK {
		return
	}

	pass := b.computeFrameEncoder.BeginComputePass(nil)
	pass.SetPipeline(computePipeline)
	pass.SetBindGroup(0, bindGroup.bg, nil)
	pass.DispatchWorkgroups(workGroupCount[0], workGroupCount[1], workGroupCount[2])
	pass.End()
}

func (b *wgpuRendererBackendImpl) CopyBufferToBuffer(src, dst resource.Buffer, size uint64) error {
	s, ok1 := src.(*wgpuBuffer)
	d, ok2 := dst.(*wgpuBuffer)
	if !ok1 || !ok2 {
		return ErrForeignResource
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return ErrNoComputeFrame
	}
	b.computeFrameEncoder.CopyBufferToBuffer(s.buf, 0, d.buf, 0, size)
	return nil
}

func (b *wgpuRendererBackendImpl) EndComputeFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.computeFrameEncoder == nil {
		return
	}

	commandBuffer, err := b.computeFrameEncoder.Finish(nil)
	if err != nil {
		logging.Logger().Warn("compute frame finish failed", "error", err)
		b.computeFrameEncoder.Release()
		b.computeFrameEncoder = nil
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.computeFrameEncoder.Release()
	b.computeFrameEncoder = nil
}

func (b *wgpuRendererBackendImpl) ReadBuffer(buf resource.Buffer, size uint64, callback func([]byte, error)) error {
	wb, ok := buf.(*wgpuBuffer)
	if !ok {
		return ErrForeignResource
	}
	read := &mappedRead{buf: wb, size: size, callback: callback}

	b.mu.Lock()
	b.reads = append(b.reads, read)
	b.mu.Unlock()

	// the map callback only fires from inside device.Poll
	err := wb.buf.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		b.completeRead(read, status)
	})
	if err != nil {
		b.dropRead(read)
		return fmt.Errorf("map %q: %w", wb.Label(), err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) completeRead(read *mappedRead, status wgpu.BufferMapAsyncStatus) {
	b.dropRead(read)
	if status != wgpu.BufferMapAsyncStatusSuccess {
		read.callback(nil, fmt.Errorf("map %q failed with status %v", read.buf.Label(), status))
		return
	}
	data := make([]byte, read.size)
	copy(data, read.buf.buf.GetMappedRange(0, uint(read.size)))
	read.buf.buf.Unmap()
	read.callback(data, nil)
}

func (b *wgpuRendererBackendImpl) dropRead(read *mappedRead) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, r := range b.reads {
		if r == read {
			b.reads = append(b.reads[:i], b.reads[i+1:]...)
			return
		}
	}
}

func (b *wgpuRendererBackendImpl) Poll() {
	b.device.Poll(false, nil)
}

func (b *wgpuRendererBackendImpl) RenderPass(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, target resource.Texture) error {
	t, ok := target.(*wgpuTexture)
	if !ok {
		return ErrForeignResource
	}
	renderPipeline, ok := p.Pipeline().(*wgpu.RenderPipeline)
	if !ok || renderPipeline == nil {
		return fmt.Errorf("pipeline %q is not registered as a render pipeline", p.PipelineKey())
	}
	bindGroup, ok := provider.BindGroup().(*wgpuBindGroup)
	if !ok {
		return ErrForeignResource
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	defer encoder.Release()

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: p.PipelineKey() + " Pass",
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    t.view,
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
			},
		},
	})
	pass.SetPipeline(renderPipeline)
	pass.SetBindGroup(0, bindGroup.bg, nil)
	pass.Draw(3, 1, 0, 0)
	pass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.surface == nil || b.renderPassDescriptor == nil {
		return ErrNoSurface
	}
	// a surface texture still held means the previous frame was never presented
	if b.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	b.renderPassDescriptor.ColorAttachments[0].View = view
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view

	return nil
}

func (b *wgpuRendererBackendImpl) DrawCall(
	p pipeline.Pipeline,
	provider bind_group_provider.BindGroupProvider,
	vertexCount, instanceCount uint32,
) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	renderPipeline, ok := p.Pipeline().(*wgpu.RenderPipeline)
	if !ok || renderPipeline == nil {
		return
	}
	b.framePass.SetPipeline(renderPipeline)
	if bg, ok := provider.BindGroup().(*wgpuBindGroup); ok {
		b.framePass.SetBindGroup(0, bg.bg, nil)
	}
	b.framePass.Draw(vertexCount, instanceCount, 0, 0)
}

func (b *wgpuRendererBackendImpl) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return
	}
	b.framePass.End()

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameView.Release()
		b.frameSurface.Release()
		b.frameEncoder = nil
		b.framePass = nil
		b.frameSurface = nil
		b.frameView = nil
		return
	}

	b.queue.Submit(commandBuffer)

	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
	b.framePass = nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}

	b.surface.Present()

	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	b.frameSurface.Release()
	b.frameSurface = nil
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for key, layout := range b.layouts {
		layout.Release()
		delete(b.layouts, key)
	}
	if b.surface != nil {
		b.surface.Release()
		b.surface = nil
	}
	b.queue = nil
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
