// Package terrain owns the deformable terrain images: the double-buffered render targets the
// terrain pass draws into, the snapshot the collision kernel samples, and the dig brush.
package terrain

import (
	"fmt"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/renderer"
	"github.com/all-the-way-home/home/engine/renderer/resource"
)

// TargetFormat is the pixel format of both render targets.
const TargetFormat = resource.TextureFormatRGBA8UnormSrgb

// StableTarget exposes the terrain image that is not being rendered into this frame.
// It is the only view of the target pair handed to readers such as the snapshot.
type StableTarget interface {
	// Stable returns the target that holds the last completed frame of terrain.
	//
	// Returns:
	//   - resource.Texture: the stable target, or nil if no targets exist yet
	Stable() resource.Texture
}

// Swapper exchanges the stable and active roles of a target pair.
type Swapper interface {
	// Swap makes the target rendered this frame the stable target for the next frame.
	// It is called once per frame after the render pass for that frame has been submitted.
	Swap()
}

// TargetPair holds two identically sized terrain render targets. One is the active target the
// terrain pass writes this frame, the other is the stable target holding the previous frame.
type TargetPair struct {
	mu      sync.RWMutex
	targets [2]resource.Texture
	active  int
}

var (
	_ StableTarget = &TargetPair{}
	_ Swapper      = &TargetPair{}
)

// NewTargetPair creates both render targets at the given size and clears them to the same blank,
// fully transparent image.
//
// Parameters:
//   - r: the renderer that allocates the textures
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - *TargetPair: the target pair with target 0 active
//   - error: if either texture cannot be created or cleared
func NewTargetPair(r renderer.Renderer, width, height uint32) (*TargetPair, error) {
	blank := common.NewBlankTextureStagingData(width, height)
	p := &TargetPair{}
	for i := range p.targets {
		tex, err := r.CreateTexture(resource.TextureDescriptor{
			Label:  fmt.Sprintf("Terrain Target %d", i),
			Width:  width,
			Height: height,
			Format: TargetFormat,
			Usage: resource.TextureUsageRenderAttachment | resource.TextureUsageTextureBinding |
				resource.TextureUsageCopySrc | resource.TextureUsageCopyDst,
		})
		if err != nil {
			p.Release()
			return nil, fmt.Errorf("terrain: create target %d: %w", i, err)
		}
		p.targets[i] = tex
		if err := r.WriteTexture(tex, blank); err != nil {
			p.Release()
			return nil, fmt.Errorf("terrain: clear target %d: %w", i, err)
		}
	}
	return p, nil
}

// Stable returns the target that is not being rendered into. A nil pair has no stable target.
func (p *TargetPair) Stable() resource.Texture {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.targets[1-p.active]
}

// Active returns the target the terrain pass renders into this frame.
func (p *TargetPair) Active() resource.Texture {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.targets[p.active]
}

// Swap makes the target rendered this frame the stable target for the next frame. The level calls
// it once per frame after the render pass for that frame has been submitted.
func (p *TargetPair) Swap() {
	p.mu.Lock()
	p.active = 1 - p.active
	p.mu.Unlock()
}

// Release releases both targets. The pair has no stable or active target afterwards.
func (p *TargetPair) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, tex := range p.targets {
		if tex != nil {
			tex.Release()
			p.targets[i] = nil
		}
	}
}
