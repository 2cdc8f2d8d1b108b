package terrain

import (
	"encoding/binary"
	"sync"

	"github.com/all-the-way-home/home/common"
)

const (
	// BrushFlagDigging marks a frame in which the brush erases terrain.
	BrushFlagDigging uint32 = 1 << 0
	// BrushFlagSeeded marks a frame whose previous target already holds terrain. Until then the
	// pass draws the level image.
	BrushFlagSeeded uint32 = 1 << 1

	// BrushParamsSize is the byte size of BrushParams in the uniform buffer.
	BrushParamsSize = 16

	// DefaultBrushRadius is the dig radius in terrain pixels.
	DefaultBrushRadius float32 = 24
)

// brushParamsStruct is the WGSL declaration matching BrushParams.
const brushParamsStruct = `struct BrushParams {
    center: vec2<f32>,
    radius: f32,
    flags: u32,
}`

// BrushParams is the uniform block the terrain pass reads each frame.
type BrushParams struct {
	// Center is the brush center in terrain pixel coordinates.
	Center common.Vec2
	// Radius is the brush radius in terrain pixels.
	Radius float32
	// Flags is a combination of BrushFlagDigging and BrushFlagSeeded.
	Flags uint32
}

// Marshal encodes the params in the WGSL uniform layout.
func (p BrushParams) Marshal() []byte {
	data := make([]byte, BrushParamsSize)
	common.PutFloat32s(data, p.Center.X, p.Center.Y, p.Radius)
	binary.LittleEndian.PutUint32(data[12:], p.Flags)
	return data
}

// UnmarshalBrushParams decodes params written by Marshal. Short input decodes to zero params.
func UnmarshalBrushParams(data []byte) BrushParams {
	if len(data) < BrushParamsSize {
		return BrushParams{}
	}
	return BrushParams{
		Center: common.Vec2{X: common.Float32At(data, 0), Y: common.Float32At(data, 4)},
		Radius: common.Float32At(data, 8),
		Flags:  binary.LittleEndian.Uint32(data[12:]),
	}
}

// Covers reports whether the point (x, y) in terrain pixels lies inside the brush.
func (p BrushParams) Covers(x, y float32) bool {
	dx, dy := x-p.Center.X, y-p.Center.Y
	return dx*dx+dy*dy <= p.Radius*p.Radius
}

// Brush is the dig cursor. Input handlers move it and the terrain pass reads it once per frame.
type Brush struct {
	mu      sync.Mutex
	center  common.Vec2
	radius  float32
	digging bool
}

// NewBrush creates an idle brush. A non-positive radius selects DefaultBrushRadius.
func NewBrush(radius float32) *Brush {
	if radius <= 0 {
		radius = DefaultBrushRadius
	}
	return &Brush{radius: radius}
}

// Update moves the brush to center, given in terrain pixels, and sets whether it is digging.
func (b *Brush) Update(center common.Vec2, digging bool) {
	b.mu.Lock()
	b.center = center
	b.digging = digging
	b.mu.Unlock()
}

// Digging reports whether the brush currently erases terrain.
func (b *Brush) Digging() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.digging
}

// Params returns the uniform block for one frame.
//
// Parameters:
//   - seeded: whether the previous target already holds terrain
//
// Returns:
//   - BrushParams: the current brush state with flags set
func (b *Brush) Params(seeded bool) BrushParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := BrushParams{Center: b.center, Radius: b.radius}
	if b.digging {
		p.Flags |= BrushFlagDigging
	}
	if seeded {
		p.Flags |= BrushFlagSeeded
	}
	return p
}

// Erase clears every pixel of img whose center the brush covers. It keeps a CPU copy of the
// terrain in step with what the terrain pass erases on the GPU.
//
// Parameters:
//   - img: the terrain pixels to modify in place
//   - p: the brush to apply
func Erase(img common.TextureStagingData, p BrushParams) {
	x0 := max(int(p.Center.X-p.Radius)-1, 0)
	y0 := max(int(p.Center.Y-p.Radius)-1, 0)
	x1 := min(int(p.Center.X+p.Radius)+1, int(img.Width)-1)
	y1 := min(int(p.Center.Y+p.Radius)+1, int(img.Height)-1)
	var clear [4]byte
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if p.Covers(float32(x)+0.5, float32(y)+0.5) {
				copy(img.Pixels[(y*int(img.Width)+x)*4:], clear[:])
			}
		}
	}
}
