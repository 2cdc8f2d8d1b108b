package renderer

import (
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
)

type softwareTexture struct {
	desc resource.TextureDescriptor
	pix  []byte
}

func (t *softwareTexture) Label() string                  { return t.desc.Label }
func (t *softwareTexture) Width() uint32                  { return t.desc.Width }
func (t *softwareTexture) Height() uint32                 { return t.desc.Height }
func (t *softwareTexture) Format() resource.TextureFormat { return t.desc.Format }
func (t *softwareTexture) Usage() resource.TextureUsage   { return t.desc.Usage }
func (t *softwareTexture) Release()                       {}

type softwareBuffer struct {
	desc resource.BufferDescriptor
	data []byte
}

func (b *softwareBuffer) Label() string               { return b.desc.Label }
func (b *softwareBuffer) Size() uint64                { return b.desc.Size }
func (b *softwareBuffer) Usage() resource.BufferUsage { return b.desc.Usage }
func (b *softwareBuffer) Release()                    {}

// softwareBindGroup captures the resources a provider held when the bind group was built.
// Later changes to the provider are not visible until the bind group is rebuilt.
type softwareBindGroup struct {
	label    string
	buffers  map[int]*softwareBuffer
	textures map[int]*softwareTexture
}

func (g *softwareBindGroup) Label() string { return g.label }
func (g *softwareBindGroup) Release()      {}

func (g *softwareBindGroup) Buffer(binding int) []byte {
	if b, ok := g.buffers[binding]; ok {
		return b.data
	}
	return nil
}

func (g *softwareBindGroup) Texture(binding int) ([]byte, uint32, uint32) {
	if t, ok := g.textures[binding]; ok {
		return t.pix, t.desc.Width, t.desc.Height
	}
	return nil, 0, 0
}

var _ pipeline.KernelIO = &softwareBindGroup{}

type pendingRead struct {
	data     []byte
	callback func([]byte, error)
}

type softwareRendererBackendImpl struct {
	mu *sync.Mutex

	pool    worker.DynamicWorkerPool
	workers int
	taskID  int

	// computeOps holds the commands recorded since BeginComputeFrame; nil when no frame is open
	computeOps []func()
	frameOpen  bool

	reads []pendingRead
}

var _ RendererBackend = &softwareRendererBackendImpl{}

func newSoftwareRendererBackend(workers int) *softwareRendererBackendImpl {
	return &softwareRendererBackendImpl{
		mu:      &sync.Mutex{},
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		workers: workers,
	}
}

func (b *softwareRendererBackendImpl) ConfigureSurface(int, int) {}

func (b *softwareRendererBackendImpl) SetPresentMode(PresentMode) {}

func (b *softwareRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	if p.ComputeKernel() == nil {
		return fmt.Errorf("pipeline %q has no compute kernel for the software backend", p.PipelineKey())
	}
	return nil
}

func (b *softwareRendererBackendImpl) RegisterRenderPipeline(p pipeline.Pipeline) error {
	// surface pipelines are accepted and never drawn, the backend has no surface
	if p.FragmentKernel() == nil && !p.SurfaceTarget() {
		return fmt.Errorf("pipeline %q has no fragment kernel for the software backend", p.PipelineKey())
	}
	return nil
}

func (b *softwareRendererBackendImpl) CreateTexture(desc resource.TextureDescriptor) (resource.Texture, error) {
	return &softwareTexture{
		desc: desc,
		pix:  make([]byte, int(desc.Width)*int(desc.Height)*4),
	}, nil
}

func (b *softwareRendererBackendImpl) WriteTexture(tex resource.Texture, data common.TextureStagingData) error {
	t, ok := tex.(*softwareTexture)
	if !ok {
		return ErrForeignResource
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	copy(t.pix, data.Pixels)
	return nil
}

func (b *softwareRendererBackendImpl) CreateBuffer(desc resource.BufferDescriptor) (resource.Buffer, error) {
	return &softwareBuffer{desc: desc, data: make([]byte, desc.Size)}, nil
}

func (b *softwareRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range writes {
		buf, ok := w.Provider.Buffer(w.Binding).(*softwareBuffer)
		if !ok || w.Offset >= uint64(len(buf.data)) {
			continue
		}
		copy(buf.data[w.Offset:], w.Data)
	}
}

func (b *softwareRendererBackendImpl) CreateBindGroup(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider) (resource.BindGroup, error) {
	bg := &softwareBindGroup{
		label:    provider.Label() + " Bind Group",
		buffers:  make(map[int]*softwareBuffer),
		textures: make(map[int]*softwareTexture),
	}
	for _, binding := range pipeline.Bindings(p.BindGroupLayouts(), 0) {
		if buf := provider.Buffer(binding); buf != nil {
			sb, ok := buf.(*softwareBuffer)
			if !ok {
				return nil, ErrForeignResource
			}
			bg.buffers[binding] = sb
			continue
		}
		if tex := provider.Texture(binding); tex != nil {
			st, ok := tex.(*softwareTexture)
			if !ok {
				return nil, ErrForeignResource
			}
			bg.textures[binding] = st
		}
	}
	return bg, nil
}

func (b *softwareRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.computeOps = b.computeOps[:0]
	b.frameOpen = true
	return nil
}

func (b *softwareRendererBackendImpl) record(op func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.frameOpen {
		return ErrNoComputeFrame
	}
	b.computeOps = append(b.computeOps, op)
	return nil
}

func (b *softwareRendererBackendImpl) CopyTextureToTexture(src, dst resource.Texture) error {
	s, ok1 := src.(*softwareTexture)
	d, ok2 := dst.(*softwareTexture)
	if !ok1 || !ok2 {
		return ErrForeignResource
	}
	return b.record(func() {
		copy(d.pix, s.pix)
	})
}

func (b *softwareRendererBackendImpl) DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	bg, ok := provider.BindGroup().(*softwareBindGroup)
	kernel := p.ComputeKernel()
	if !ok || kernel == nil {
		return
	}
	// the error only reports a missing frame, matching a dispatch dropped by a closed encoder
	_ = b.record(func() {
		b.runCompute(kernel, bg, workGroupCount)
	})
}

func (b *softwareRendererBackendImpl) CopyBufferToBuffer(src, dst resource.Buffer, size uint64) error {
	s, ok1 := src.(*softwareBuffer)
	d, ok2 := dst.(*softwareBuffer)
	if !ok1 || !ok2 {
		return ErrForeignResource
	}
	return b.record(func() {
		copy(d.data[:size], s.data[:size])
	})
}

func (b *softwareRendererBackendImpl) EndComputeFrame() {
	b.mu.Lock()
	ops := b.computeOps
	b.computeOps = nil
	b.frameOpen = false
	b.mu.Unlock()

	for _, op := range ops {
		op()
	}
}

func (b *softwareRendererBackendImpl) ReadBuffer(buf resource.Buffer, size uint64, callback func([]byte, error)) error {
	sb, ok := buf.(*softwareBuffer)
	if !ok {
		return ErrForeignResource
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data := make([]byte, size)
	copy(data, sb.data[:size])
	b.reads = append(b.reads, pendingRead{data: data, callback: callback})
	return nil
}

func (b *softwareRendererBackendImpl) Poll() {
	b.mu.Lock()
	reads := b.reads
	b.reads = nil
	b.mu.Unlock()

	for _, r := range reads {
		r.callback(r.data, nil)
	}
}

func (b *softwareRendererBackendImpl) RenderPass(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, target resource.Texture) error {
	t, ok := target.(*softwareTexture)
	if !ok {
		return ErrForeignResource
	}
	bg, ok := provider.BindGroup().(*softwareBindGroup)
	if !ok {
		return ErrForeignResource
	}
	for binding, tex := range bg.textures {
		if tex == t {
			return fmt.Errorf("render target %q is also bound at binding %d", t.Label(), binding)
		}
	}
	b.runFragment(p.FragmentKernel(), bg, t)
	return nil
}

func (b *softwareRendererBackendImpl) BeginFrame() error {
	return ErrNoSurface
}

func (b *softwareRendererBackendImpl) DrawCall(pipeline.Pipeline, bind_group_provider.BindGroupProvider, uint32, uint32) {
}

func (b *softwareRendererBackendImpl) EndFrame() {}

func (b *softwareRendererBackendImpl) Present() {}

func (b *softwareRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reads = nil
	b.computeOps = nil
}

// parallel splits [0, n) into one contiguous range per worker, runs fn on each range through the
// pool and waits for all of them. A WaitGroup is the per-call barrier since the pool itself only
// drains when workers idle out.
func (b *softwareRendererBackendImpl) parallel(n uint32, fn func(lo, hi uint32)) {
	if n == 0 {
		return
	}
	chunks := min(uint32(b.workers), n)
	step := (n + chunks - 1) / chunks

	var wg sync.WaitGroup
	for lo := uint32(0); lo < n; lo += step {
		hi := min(lo+step, n)
		wg.Add(1)
		b.mu.Lock()
		id := b.taskID
		b.taskID++
		b.mu.Unlock()
		b.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				fn(lo, hi)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func (b *softwareRendererBackendImpl) runCompute(kernel pipeline.ComputeKernel, io pipeline.KernelIO, count [3]uint32) {
	for z := uint32(0); z < count[2]; z++ {
		for y := uint32(0); y < count[1]; y++ {
			b.parallel(count[0], func(lo, hi uint32) {
				for x := lo; x < hi; x++ {
					kernel([3]uint32{x, y, z}, io)
				}
			})
		}
	}
}

func (b *softwareRendererBackendImpl) runFragment(kernel pipeline.FragmentKernel, io pipeline.KernelIO, target *softwareTexture) {
	w := target.desc.Width
	b.parallel(target.desc.Height, func(lo, hi uint32) {
		for y := lo; y < hi; y++ {
			row := target.pix[int(y)*int(w)*4:]
			for x := uint32(0); x < w; x++ {
				px := kernel(x, y, io)
				copy(row[int(x)*4:int(x)*4+4], px[:])
			}
		}
	})
}
