package shader

import (
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const testSlotStruct = `struct ActorSlot {
    position: vec2<f32>,
    id: f32,
    valid: f32,
}`

const testComputeSource = `//@home:include actor_slot
//@home:group 0 0 read positions array<actor_slot>
@group(0) @binding(1) var terrain: texture_storage_2d<rgba8unorm, read>;
@group(0) @binding(2) var<storage, read_write> results: array<u32>;
//@home:const presence_threshold u32

@compute @workgroup_size(1)
fn main(@builtin(workgroup_id) wid: vec3<u32>) {
    results[wid.x] = presence_threshold;
}
`

func testShaderOptions() []ShaderBuilderOption {
	return []ShaderBuilderOption{
		WithStruct("actor_slot", StructSource{Source: testSlotStruct, Type: "ActorSlot"}),
		WithConstant("presence_threshold", "0u"),
	}
}

func TestNewShaderCompute(t *testing.T) {
	s, err := NewShader("collision", ShaderTypeCompute, testComputeSource, testShaderOptions()...)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}

	if s.EntryPoint() != "main" {
		t.Errorf("EntryPoint() = %q, want main", s.EntryPoint())
	}
	if s.WorkgroupSize() != [3]uint32{1, 1, 1} {
		t.Errorf("WorkgroupSize() = %v", s.WorkgroupSize())
	}
	for _, want := range []string{
		"struct ActorSlot",
		"@group(0) @binding(0) var<storage, read> positions: array<ActorSlot>;",
		"const presence_threshold: u32 = 0u;",
	} {
		if !strings.Contains(s.Source(), want) {
			t.Errorf("processed source missing %q", want)
		}
	}

	layout := s.BindGroupLayoutDescriptor(0)
	if len(layout.Entries) != 3 {
		t.Fatalf("group 0 has %d entries, want 3", len(layout.Entries))
	}
	positions, terrain, results := layout.Entries[0], layout.Entries[1], layout.Entries[2]
	if positions.Buffer.Type != wgpu.BufferBindingTypeReadOnlyStorage || positions.Buffer.MinBindingSize != 16 {
		t.Errorf("positions entry = %+v, want read-only storage with 16 byte stride", positions.Buffer)
	}
	if terrain.StorageTexture.Format != wgpu.TextureFormatRGBA8Unorm || terrain.StorageTexture.Access != wgpu.StorageTextureAccessReadOnly {
		t.Errorf("terrain entry = %+v, want read-only rgba8unorm storage texture", terrain.StorageTexture)
	}
	if results.Buffer.Type != wgpu.BufferBindingTypeStorage || results.Buffer.MinBindingSize != 4 {
		t.Errorf("results entry = %+v, want read_write storage of u32", results.Buffer)
	}
	if positions.Visibility != wgpu.ShaderStageCompute {
		t.Errorf("positions visibility = %v, want compute", positions.Visibility)
	}

	if b, ok := s.BindGroupFromVarName(0, "results"); !ok || b != 2 {
		t.Errorf("BindGroupFromVarName(results) = %d, %v", b, ok)
	}
	if s.BindGroupVarName(0, 1) != "terrain" {
		t.Errorf("BindGroupVarName(0, 1) = %q", s.BindGroupVarName(0, 1))
	}
	if len(s.Declarations()) != 1 || s.Declarations()[0].ElementKey() != "actor_slot" {
		t.Errorf("Declarations() = %+v", s.Declarations())
	}
}

func TestNewShaderErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		opts   []ShaderBuilderOption
		want   string
	}{
		{
			name:   "missing constant",
			source: testComputeSource,
			opts:   []ShaderBuilderOption{WithStruct("actor_slot", StructSource{Source: testSlotStruct, Type: "ActorSlot"})},
			want:   "no value supplied",
		},
		{
			name:   "unknown struct",
			source: "//@home:include missing\n@compute @workgroup_size(1) fn main() {}",
			want:   "unknown struct type",
		},
		{
			name:   "no entry point",
			source: "const x: u32 = 1u;",
			want:   "no @compute entry point",
		},
		{
			name:   "empty",
			source: "",
			want:   "empty source",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShader("bad", ShaderTypeCompute, tt.source, tt.opts...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("NewShader error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestRenderStagesShareSource(t *testing.T) {
	src := `@group(0) @binding(0) var level: texture_2d<f32>;

@vertex
fn vs_main(@builtin(vertex_index) i: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}

@fragment
fn fs_main(@builtin(position) pos: vec4<f32>) -> @location(0) vec4<f32> {
    return textureLoad(level, vec2<i32>(pos.xy), 0);
}
`
	vs, err := NewShader("terrain.vs", ShaderTypeVertex, src)
	if err != nil {
		t.Fatal(err)
	}
	fs, err := NewShader("terrain.fs", ShaderTypeFragment, src)
	if err != nil {
		t.Fatal(err)
	}
	if vs.EntryPoint() != "vs_main" || fs.EntryPoint() != "fs_main" {
		t.Errorf("entry points = %q, %q", vs.EntryPoint(), fs.EntryPoint())
	}
	if vs.WorkgroupSize() != [3]uint32{} {
		t.Errorf("vertex WorkgroupSize() = %v, want zero", vs.WorkgroupSize())
	}
	entry := fs.BindGroupLayoutDescriptor(0).Entries[0]
	if entry.Texture.SampleType != wgpu.TextureSampleTypeUnfilterableFloat || entry.Texture.ViewDimension != wgpu.TextureViewDimension2D {
		t.Errorf("level entry = %+v", entry.Texture)
	}
}

func TestStripComments(t *testing.T) {
	src := "a /* b /* nested */ c */ d // tail\ne"
	if got := strings.Fields(stripComments(src)); strings.Join(got, " ") != "a d e" {
		t.Errorf("stripComments = %q", got)
	}
}
