package terrain

import (
	"bytes"
	"testing"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/resource"
)

type fixedStable struct {
	tex resource.Texture
}

func (f fixedStable) Stable() resource.Texture { return f.tex }

func refresh(t *testing.T, r renderer.Renderer, s *Snapshot, stable StableTarget) bool {
	t.Helper()
	if err := r.BeginComputeFrame(); err != nil {
		t.Fatal(err)
	}
	ok, err := s.Refresh(stable)
	r.EndComputeFrame()
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return ok
}

func TestSnapshotRefreshIdempotent(t *testing.T) {
	r := newTestRenderer(t)
	pair, err := NewTargetPair(r, 8, 6)
	if err != nil {
		t.Fatal(err)
	}
	img := common.NewBlankTextureStagingData(8, 6)
	img.FillRect(2, 1, 5, 4, [4]byte{200, 100, 50, 255})
	if err := r.WriteTexture(pair.Stable(), img); err != nil {
		t.Fatal(err)
	}

	s := NewSnapshot(r)
	if s.Texture() != nil || s.Version() != 0 {
		t.Fatal("new snapshot should be empty at version 0")
	}

	if !refresh(t, r, s, pair) {
		t.Fatal("first refresh reported no copy")
	}
	tex := s.Texture()
	if tex.Format() != SnapshotFormat || !tex.Usage().Has(resource.TextureUsageStorageBinding) {
		t.Errorf("snapshot = %s usage %b, want storage-bindable %s", tex.Format(), tex.Usage(), SnapshotFormat)
	}
	first := readTexture(t, r, tex)
	if !bytes.Equal(first, img.Pixels) {
		t.Fatal("snapshot does not match the stable target")
	}

	if !refresh(t, r, s, pair) {
		t.Fatal("second refresh reported no copy")
	}
	if s.Texture() != tex {
		t.Error("refresh at the same size reallocated the snapshot")
	}
	if second := readTexture(t, r, s.Texture()); !bytes.Equal(first, second) {
		t.Error("refreshing an unchanged target changed the snapshot")
	}
	if s.Version() != 2 {
		t.Errorf("Version() = %d, want 2", s.Version())
	}
}

func TestSnapshotRefreshWithoutTarget(t *testing.T) {
	r := newTestRenderer(t)
	s := NewSnapshot(r)

	var pair *TargetPair
	tests := []struct {
		name   string
		stable StableTarget
	}{
		{"nil interface", nil},
		{"nil pair", pair},
		{"no texture", fixedStable{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if refresh(t, r, s, tt.stable) {
				t.Error("refresh without a stable target reported a copy")
			}
		})
	}
	if s.Version() != 0 || s.Texture() != nil {
		t.Errorf("snapshot advanced to version %d without a target", s.Version())
	}
}

func TestSnapshotReallocatesOnResize(t *testing.T) {
	r := newTestRenderer(t)
	s := NewSnapshot(r)

	for _, size := range [][2]uint32{{4, 4}, {6, 2}} {
		src, err := r.CreateTexture(resource.TextureDescriptor{
			Label: "src", Width: size[0], Height: size[1], Format: TargetFormat,
			Usage: resource.TextureUsageCopySrc | resource.TextureUsageTextureBinding,
		})
		if err != nil {
			t.Fatal(err)
		}
		if !refresh(t, r, s, fixedStable{src}) {
			t.Fatal("refresh reported no copy")
		}
		if got := s.Texture(); got.Width() != size[0] || got.Height() != size[1] {
			t.Errorf("snapshot is %dx%d, want %dx%d", got.Width(), got.Height(), size[0], size[1])
		}
	}
}

func TestSnapshotRefreshOutsideComputeFrame(t *testing.T) {
	r := newTestRenderer(t)
	pair, err := NewTargetPair(r, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	s := NewSnapshot(r)
	if _, err := s.Refresh(pair); err == nil {
		t.Fatal("refresh outside a compute frame should fail")
	}
	if s.Version() != 0 {
		t.Errorf("failed refresh advanced the version to %d", s.Version())
	}
}
