package terrain

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/renderer/shader"
)

// PipelineKey is the renderer key of the terrain pass pipeline.
const PipelineKey = "terrain"

const (
	bindingLevelImage = 0
	bindingPrevious   = 1
	bindingBrush      = 2
)

//go:embed assets/terrain.wgsl
var terrainSource string

// Pass draws one frame of terrain into the active target of a TargetPair. The first frame draws
// the level image, every later frame copies the stable target and applies the brush.
type Pass struct {
	mu sync.Mutex

	renderer renderer.Renderer
	brush    *Brush
	provider bind_group_provider.BindGroupProvider

	levelImage  resource.Texture
	brushBuffer resource.Buffer

	seeded bool
}

// NewPass uploads the level image, allocates the brush uniform and registers the terrain pipeline
// on the renderer if it is not registered yet.
//
// Parameters:
//   - r: the renderer to draw with
//   - level: the level image, sized like the render targets
//   - brush: the dig brush read every frame
//
// Returns:
//   - *Pass: the pass, unseeded
//   - error: if the pipeline or the resources cannot be created
func NewPass(r renderer.Renderer, level common.TextureStagingData, brush *Brush) (*Pass, error) {
	if r == nil || brush == nil {
		panic("terrain: pass requires a renderer and a brush")
	}
	if r.Pipeline(PipelineKey) == nil {
		p, err := NewPassPipeline()
		if err != nil {
			return nil, err
		}
		if err := r.RegisterPipelines(p); err != nil {
			return nil, err
		}
	}

	levelImage, err := r.CreateTexture(resource.TextureDescriptor{
		Label:  "Level Image",
		Width:  level.Width,
		Height: level.Height,
		Format: TargetFormat,
		Usage:  resource.TextureUsageTextureBinding | resource.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("terrain: create level image: %w", err)
	}
	if err := r.WriteTexture(levelImage, level); err != nil {
		levelImage.Release()
		return nil, fmt.Errorf("terrain: upload level image: %w", err)
	}
	brushBuffer, err := r.CreateBuffer(resource.BufferDescriptor{
		Label: "Brush Params",
		Size:  BrushParamsSize,
		Usage: resource.BufferUsageUniform | resource.BufferUsageCopyDst,
	})
	if err != nil {
		levelImage.Release()
		return nil, fmt.Errorf("terrain: create brush buffer: %w", err)
	}

	return &Pass{
		renderer:    r,
		brush:       brush,
		levelImage:  levelImage,
		brushBuffer: brushBuffer,
		provider: bind_group_provider.NewBindGroupProvider("Terrain Pass",
			bind_group_provider.WithTexture(bindingLevelImage, levelImage),
			bind_group_provider.WithBuffer(bindingBrush, brushBuffer),
		),
	}, nil
}

// NewPassPipeline builds the terrain render pipeline with its software fragment kernel.
func NewPassPipeline() (pipeline.Pipeline, error) {
	opts := []shader.ShaderBuilderOption{
		shader.WithStruct("brush_params", shader.StructSource{Source: brushParamsStruct, Type: "BrushParams"}),
	}
	vs, err := shader.NewShader("terrain.vs", shader.ShaderTypeVertex, terrainSource, opts...)
	if err != nil {
		return nil, fmt.Errorf("terrain: vertex shader: %w", err)
	}
	fs, err := shader.NewShader("terrain.fs", shader.ShaderTypeFragment, terrainSource, opts...)
	if err != nil {
		return nil, fmt.Errorf("terrain: fragment shader: %w", err)
	}
	return pipeline.NewPipeline(PipelineKey, pipeline.PipelineTypeRender,
		pipeline.WithVertexShader(vs),
		pipeline.WithFragmentShader(fs),
		pipeline.WithFragmentKernel(passKernel),
		pipeline.WithTargetFormat(TargetFormat),
	), nil
}

// Draw renders one terrain frame into targets.Active(), reading targets.Stable() as the previous
// frame. The bind group is rebuilt because the stable target alternates between frames.
//
// Parameters:
//   - targets: the target pair to draw into
//
// Returns:
//   - error: if the bind group cannot be built or the render pass fails
func (p *Pass) Draw(targets *TargetPair) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	active, stable := targets.Active(), targets.Stable()
	if active == nil || stable == nil {
		return fmt.Errorf("%w: terrain targets released", renderer.ErrMissingBinding)
	}

	params := p.brush.Params(p.seeded)
	p.provider.SetTexture(bindingPrevious, stable)
	p.renderer.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: p.provider,
		Binding:  bindingBrush,
		Data:     params.Marshal(),
	}})
	if err := p.renderer.InitBindGroup(PipelineKey, p.provider); err != nil {
		return fmt.Errorf("terrain: bind: %w", err)
	}
	if err := p.renderer.RenderPass(PipelineKey, p.provider, active); err != nil {
		return fmt.Errorf("terrain: draw: %w", err)
	}
	p.seeded = true
	return nil
}

// Seeded reports whether the level image has been drawn into the targets.
func (p *Pass) Seeded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seeded
}

// Release frees the level image, the brush uniform and the bind group.
func (p *Pass) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provider.Release()
	p.levelImage.Release()
	p.brushBuffer.Release()
}

// passKernel is the software rendition of fs_main.
func passKernel(x, y uint32, io pipeline.KernelIO) [4]byte {
	params := UnmarshalBrushParams(io.Buffer(bindingBrush))
	source := bindingLevelImage
	if params.Flags&BrushFlagSeeded != 0 {
		source = bindingPrevious
	}
	if params.Flags&BrushFlagDigging != 0 && params.Covers(float32(x)+0.5, float32(y)+0.5) {
		return [4]byte{}
	}

	pix, w, h := io.Texture(source)
	if x >= w || y >= h {
		return [4]byte{}
	}
	i := (int(y)*int(w) + int(x)) * 4
	return [4]byte{pix[i], pix[i+1], pix[i+2], pix[i+3]}
}
