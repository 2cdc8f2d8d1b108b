package pipeline

import (
	"reflect"
	"testing"

	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

const blitSource = `@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var<uniform> tint: vec4<f32>;

@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    let p = vec2<f32>(f32((i << 1u) & 2u), f32(i & 2u));
    return vec4<f32>(p * 2.0 - 1.0, textureLoad(src, vec2<i32>(0, 0), 0).x, 1.0);
}

@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    return textureLoad(src, vec2<i32>(pos.xy), 0) * tint;
}
`

func TestRenderPipelineMergesStageLayouts(t *testing.T) {
	vs, err := shader.NewShader("blit.vs", shader.ShaderTypeVertex, blitSource)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := shader.NewShader("blit.fs", shader.ShaderTypeFragment, blitSource)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPipeline("blit", PipelineTypeRender, WithVertexShader(vs), WithFragmentShader(fs))
	layouts := p.BindGroupLayouts()

	if got := Bindings(layouts, 0); !reflect.DeepEqual(got, []int{0, 1}) {
		t.Fatalf("Bindings = %v, want [0 1]", got)
	}
	src := layouts[0].Entries[0]
	if src.Visibility != wgpu.ShaderStageVertex|wgpu.ShaderStageFragment {
		t.Errorf("src visibility = %v, want vertex|fragment", src.Visibility)
	}
	if p.TargetFormat() != resource.TextureFormatRGBA8UnormSrgb || p.SurfaceTarget() {
		t.Errorf("defaults: format %v surface %v", p.TargetFormat(), p.SurfaceTarget())
	}
	if p.Pipeline().(*wgpu.RenderPipeline) != nil {
		t.Error("Pipeline() should be nil before a backend registers it")
	}
}

func TestPipelineOptions(t *testing.T) {
	called := false
	p := NewPipeline("k", PipelineTypeCompute,
		WithComputeKernel(func([3]uint32, KernelIO) { called = true }),
		WithTargetFormat(resource.TextureFormatRGBA8Unorm),
		WithSurfaceTarget(),
	)
	if p.ComputeKernel() == nil || p.FragmentKernel() != nil {
		t.Fatal("kernel options not applied")
	}
	p.ComputeKernel()([3]uint32{}, nil)
	if !called {
		t.Error("ComputeKernel did not run the attached function")
	}
	if p.BindGroupLayouts() != nil {
		t.Error("compute pipeline without shader should report no layouts")
	}
	if !p.SurfaceTarget() || p.TargetFormat() != resource.TextureFormatRGBA8Unorm {
		t.Error("target options not applied")
	}
	if Bindings(nil, 0) != nil {
		t.Error("Bindings on an undeclared group should be nil")
	}
}
