package collision

import (
	"testing"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/resource"
	"github.com/all-the-way-home/home/engine/terrain"
)

var opaque = [4]byte{120, 80, 40, 255}

type stableTexture struct {
	tex resource.Texture
}

func (s stableTexture) Stable() resource.Texture { return s.tex }

func pixelSpace(p common.Vec2) common.Vec2 { return p }

func newTestRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware, renderer.WithWorkers(2))
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	t.Cleanup(r.Release)
	return r
}

// newTerrain uploads img as a stand-in for the stable render target.
func newTerrain(t *testing.T, r renderer.Renderer, img common.TextureStagingData) terrain.StableTarget {
	t.Helper()
	tex, err := r.CreateTexture(resource.TextureDescriptor{
		Label: "stable", Width: img.Width, Height: img.Height, Format: terrain.TargetFormat,
		Usage: resource.TextureUsageCopySrc | resource.TextureUsageCopyDst | resource.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.WriteTexture(tex, img); err != nil {
		t.Fatal(err)
	}
	return stableTexture{tex}
}

// squareTerrain is a 32x32 terrain with a 10x10 opaque square at the origin.
func squareTerrain() common.TextureStagingData {
	img := common.NewBlankTextureStagingData(32, 32)
	img.FillRect(0, 0, 10, 10, opaque)
	return img
}

func newTestSystem(t *testing.T, r renderer.Renderer, capacity int) (*System, *actor.Registry) {
	t.Helper()
	registry := actor.NewRegistry(capacity)
	sys, err := NewSystem(r, registry, NewConfig(WithCapacity(capacity), WithTerrainSize(32, 32)))
	if err != nil {
		t.Fatalf("NewSystem: %v", err)
	}
	t.Cleanup(sys.Release)
	return sys, registry
}

// runFrame runs the render side of one frame: refresh, dispatch, submit, read back and poll.
func runFrame(t *testing.T, r renderer.Renderer, sys *System, stable terrain.StableTarget) bool {
	t.Helper()
	if err := r.BeginComputeFrame(); err != nil {
		t.Fatal(err)
	}
	dispatched, err := sys.Encode(stable)
	r.EndComputeFrame()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := sys.Readback(); err != nil {
		t.Fatalf("Readback: %v", err)
	}
	r.Poll()
	return dispatched
}

func spawnAt(t *testing.T, registry *actor.Registry, x, y float32) actor.Actor {
	t.Helper()
	a, err := registry.Spawn(actor.WithPosition(common.Vec2{X: x, Y: y}))
	if err != nil {
		t.Fatal(err)
	}
	return a
}
