package level

import (
	"math"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
	"github.com/all-the-way-home/home/engine/terrain"
)

// TerrainSupportProbe tests walking actors against a CPU copy of the terrain. An actor is
// supported while the pixel it stands in or the pixel right below it holds terrain.
// The copy follows the dig brush so ledges opened by digging drop actors.
type TerrainSupportProbe struct {
	mu        sync.RWMutex
	terrain   common.TextureStagingData
	toPixel   func(common.Vec2) common.Vec2
	threshold uint8
}

var _ actor.SupportProbe = &TerrainSupportProbe{}

// NewTerrainSupportProbe creates a probe over a private copy of img.
//
// Parameters:
//   - img: the terrain pixels
//   - toPixel: maps a world position to terrain pixel coordinates
//   - threshold: the alpha value a pixel must exceed to count as terrain
//
// Returns:
//   - *TerrainSupportProbe: the probe
func NewTerrainSupportProbe(img common.TextureStagingData, toPixel func(common.Vec2) common.Vec2, threshold uint8) *TerrainSupportProbe {
	return &TerrainSupportProbe{
		terrain:   img.Clone(),
		toPixel:   toPixel,
		threshold: threshold,
	}
}

func (p *TerrainSupportProbe) Supported(a actor.Actor) bool {
	px := p.toPixel(a.Position())
	x, y := math.Floor(float64(px.X)), math.Floor(float64(px.Y))
	if math.IsNaN(x) || math.IsNaN(y) {
		return false
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.terrain.Alpha(int(x), int(y)) > p.threshold || p.terrain.Alpha(int(x), int(y)+1) > p.threshold
}

// Erase applies the brush to the CPU copy.
func (p *TerrainSupportProbe) Erase(params terrain.BrushParams) {
	p.mu.Lock()
	terrain.Erase(p.terrain, params)
	p.mu.Unlock()
}
