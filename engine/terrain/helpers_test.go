package terrain

import (
	"testing"

	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/bind_group_provider"
	"github.com/all-the-way-home/home/engine/renderer/pipeline"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/renderer/shader"
)

// dumpSource packs every texel of src into one u32 of out. The software backend does not check
// texture binding types, so the same pipeline reads targets and snapshots.
const dumpSource = `@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var<storage, read_write> out: array<u32>;

@compute @workgroup_size(1)
fn main(@builtin(workgroup_id) wid: vec3<u32>) {
    let dims = textureDimensions(src);
    let c = textureLoad(src, vec2<u32>(wid.x % dims.x, wid.x / dims.x), 0);
    out[wid.x] = pack4x8unorm(c);
}
`

func dumpKernel(wg [3]uint32, io pipeline.KernelIO) {
	pix, _, _ := io.Texture(0)
	out := io.Buffer(1)
	i := int(wg[0]) * 4
	copy(out[i:i+4], pix[i:i+4])
}

func newTestRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, renderer.WithWorkers(2))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Release)

	cs, err := shader.NewShader("dump", shader.ShaderTypeCompute, dumpSource)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterPipelines(pipeline.NewPipeline("dump", pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(cs), pipeline.WithComputeKernel(dumpKernel))); err != nil {
		t.Fatal(err)
	}
	return r
}

// readTexture returns the RGBA bytes of tex as the GPU holds them after all recorded work.
func readTexture(t *testing.T, r renderer.Renderer, tex resource.Texture) []byte {
	t.Helper()
	n := uint64(tex.Width()) * uint64(tex.Height())
	out, err := r.CreateBuffer(resource.BufferDescriptor{Label: "dump out", Size: n * 4,
		Usage: resource.BufferUsageStorage | resource.BufferUsageCopySrc})
	if err != nil {
		t.Fatal(err)
	}
	staging, err := r.CreateBuffer(resource.BufferDescriptor{Label: "dump staging", Size: n * 4,
		Usage: resource.BufferUsageMapRead | resource.BufferUsageCopyDst})
	if err != nil {
		t.Fatal(err)
	}
	provider := bind_group_provider.NewBindGroupProvider("dump",
		bind_group_provider.WithTexture(0, tex), bind_group_provider.WithBuffer(1, out))
	if err := r.InitBindGroup("dump", provider); err != nil {
		t.Fatal(err)
	}
	if err := r.BeginComputeFrame(); err != nil {
		t.Fatal(err)
	}
	if err := r.DispatchCompute("dump", provider, [3]uint32{uint32(n), 1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := r.CopyBufferToBuffer(out, staging, n*4); err != nil {
		t.Fatal(err)
	}
	r.EndComputeFrame()

	var got []byte
	if err := r.ReadBuffer(staging, n*4, func(b []byte, err error) {
		if err != nil {
			t.Errorf("read: %v", err)
		}
		got = b
	}); err != nil {
		t.Fatal(err)
	}
	r.Poll()
	return got
}

func alphaAt(pix []byte, width, x, y int) byte {
	return pix[(y*width+x)*4+3]
}
