package terrain

import (
	"fmt"
	"sync"

	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/resource"
)

// SnapshotFormat is the format of the snapshot image. It stores the same bytes as the sRGB
// targets without any color transform so the kernel reads raw alpha.
const SnapshotFormat = resource.TextureFormatRGBA8Unorm

// Snapshot is the collision system's private copy of the stable terrain target. It is refreshed
// once per frame and carries a version that increases with every refresh.
type Snapshot struct {
	mu       sync.Mutex
	renderer renderer.Renderer
	texture  resource.Texture
	version  uint64
}

// NewSnapshot creates an empty snapshot. The snapshot image is allocated on the first refresh.
//
// Parameters:
//   - r: the renderer that allocates the snapshot image and records the copy
//
// Returns:
//   - *Snapshot: the snapshot at version 0
func NewSnapshot(r renderer.Renderer) *Snapshot {
	if r == nil {
		panic("terrain: snapshot requires a renderer")
	}
	return &Snapshot{renderer: r}
}

// Refresh records a copy of the stable target into the snapshot image. It must be called between
// Renderer.BeginComputeFrame and Renderer.EndComputeFrame so the copy lands before the collision
// dispatch of the same frame. The snapshot image is (re)allocated when the stable target's size
// changes. When there is no stable target yet the refresh does nothing and reports false.
//
// Parameters:
//   - stable: the source of the stable target, may be nil
//
// Returns:
//   - bool: true if a copy was recorded and the version advanced
//   - error: if the snapshot image cannot be allocated or the copy cannot be recorded
func (s *Snapshot) Refresh(stable StableTarget) (bool, error) {
	if stable == nil {
		return false, nil
	}
	src := stable.Stable()
	if src == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.texture == nil || s.texture.Width() != src.Width() || s.texture.Height() != src.Height() {
		if s.texture != nil {
			s.texture.Release()
			s.texture = nil
		}
		tex, err := s.renderer.CreateTexture(resource.TextureDescriptor{
			Label:  "Terrain Snapshot",
			Width:  src.Width(),
			Height: src.Height(),
			Format: SnapshotFormat,
			Usage:  resource.TextureUsageStorageBinding | resource.TextureUsageCopyDst | resource.TextureUsageCopySrc,
		})
		if err != nil {
			return false, fmt.Errorf("terrain: allocate snapshot: %w", err)
		}
		s.texture = tex
	}

	if err := s.renderer.CopyTextureToTexture(src, s.texture); err != nil {
		return false, fmt.Errorf("terrain: refresh snapshot: %w", err)
	}
	s.version++
	return true, nil
}

// Texture returns the snapshot image, or nil before the first successful refresh.
func (s *Snapshot) Texture() resource.Texture {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.texture
}

// Version returns the number of successful refreshes.
func (s *Snapshot) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Release frees the snapshot image. The version is kept so a later refresh still advances it.
func (s *Snapshot) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
}
