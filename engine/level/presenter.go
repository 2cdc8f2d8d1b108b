package level

import (
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/all-the-way-home/home/engine/collision"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/renderer/shader"
)

// PresentPipelineKey is the renderer key of the surface pipeline.
const PresentPipelineKey = "present"

const markerRadius float32 = 3

//go:embed assets/present.wgsl
var presentSource string

// Presenter draws the terrain and the actor markers to the window surface.
type Presenter struct {
	renderer renderer.Renderer
	provider bind_group_provider.BindGroupProvider
}

// NewPresenter registers the surface pipeline for the viewport described by cfg.
//
// Parameters:
//   - r: the renderer owning the surface
//   - cfg: the collision tunables, whose viewport places the visible terrain region
//
// Returns:
//   - *Presenter: the presenter
//   - error: if the pipeline cannot be built
func NewPresenter(r renderer.Renderer, cfg collision.Config) (*Presenter, error) {
	if r.Pipeline(PresentPipelineKey) == nil {
		opts := []shader.ShaderBuilderOption{
			shader.WithStruct(collision.SlotStructKey, collision.SlotStruct()),
			shader.WithConstant("view_origin_x", wgslFloat(cfg.ViewportWidth/2)),
			shader.WithConstant("view_origin_y", wgslFloat(cfg.ViewportHeight/2)),
			shader.WithConstant("marker_radius", wgslFloat(markerRadius)),
		}
		vs, err := shader.NewShader("present.vs", shader.ShaderTypeVertex, presentSource, opts...)
		if err != nil {
			return nil, fmt.Errorf("level: present vertex shader: %w", err)
		}
		fs, err := shader.NewShader("present.fs", shader.ShaderTypeFragment, presentSource, opts...)
		if err != nil {
			return nil, fmt.Errorf("level: present fragment shader: %w", err)
		}
		if err := r.RegisterPipelines(pipeline.NewPipeline(PresentPipelineKey, pipeline.PipelineTypeRender,
			pipeline.WithVertexShader(vs),
			pipeline.WithFragmentShader(fs),
			pipeline.WithSurfaceTarget(),
		)); err != nil {
			return nil, err
		}
	}
	return &Presenter{
		renderer: r,
		provider: bind_group_provider.NewBindGroupProvider("Present"),
	}, nil
}

// Draw presents one frame. Without a surface, as in headless runs, it does nothing.
//
// Parameters:
//   - terrainTex: the terrain frame to show
//   - positions: the actor positions buffer
//
// Returns:
//   - error: if the bind group or the draw call fails
func (p *Presenter) Draw(terrainTex resource.Texture, positions resource.Buffer) error {
	if terrainTex == nil || positions == nil {
		return nil
	}
	if err := p.renderer.BeginFrame(); err != nil {
		if errors.Is(err, renderer.ErrNoSurface) {
			return nil
		}
		return err
	}
	defer func() {
		p.renderer.EndFrame()
		p.renderer.Present()
	}()

	p.provider.SetTexture(0, terrainTex)
	p.provider.SetBuffer(1, positions)
	if err := p.renderer.InitBindGroup(PresentPipelineKey, p.provider); err != nil {
		return fmt.Errorf("level: present: %w", err)
	}
	return p.renderer.DrawCall(PresentPipelineKey, p.provider, 3, 1)
}

// Release frees the bind group.
func (p *Presenter) Release() {
	p.provider.Release()
}

// wgslFloat formats v as a WGSL float literal.
func wgslFloat(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
