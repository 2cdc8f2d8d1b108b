package common

import (
	"encoding/binary"
	"math"
)

// Vec2 is a 2D vector of float32 components. World coordinates are y-up, texture coordinates are y-down.
type Vec2 struct {
	X, Y float32
}

// Add returns the component-wise sum of v and o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns the component-wise difference v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Transform2D is an affine transform composed as scale, then rotation, then translation.
// It mirrors the placement of a level sprite in world space.
type Transform2D struct {
	// Translation is the world-space position of the transform origin.
	Translation Vec2
	// Rotation is the counter-clockwise rotation in radians.
	Rotation float32
	// Scale is the per-axis scale factor. A zero component is treated as 1.
	Scale Vec2
}

// IdentityTransform2D returns a transform that maps every point to itself.
//
// Returns:
//   - Transform2D: the identity transform
func IdentityTransform2D() Transform2D {
	return Transform2D{Scale: Vec2{X: 1, Y: 1}}
}

// Apply maps a point from the transform's local space into world space.
//
// Parameters:
//   - p: the local-space point
//
// Returns:
//   - Vec2: the world-space point
func (t Transform2D) Apply(p Vec2) Vec2 {
	sx, sy := Coalesce(t.Scale.X, 1), Coalesce(t.Scale.Y, 1)
	x, y := p.X*sx, p.Y*sy
	sin, cos := math.Sincos(float64(t.Rotation))
	rx := x*float32(cos) - y*float32(sin)
	ry := x*float32(sin) + y*float32(cos)
	return Vec2{X: rx + t.Translation.X, Y: ry + t.Translation.Y}
}

// ApplyInverse maps a world-space point back into the transform's local space.
// It is the exact inverse of Apply for any transform with non-zero scale.
//
// Parameters:
//   - p: the world-space point
//
// Returns:
//   - Vec2: the local-space point
func (t Transform2D) ApplyInverse(p Vec2) Vec2 {
	sx, sy := Coalesce(t.Scale.X, 1), Coalesce(t.Scale.Y, 1)
	x, y := p.X-t.Translation.X, p.Y-t.Translation.Y
	sin, cos := math.Sincos(float64(-t.Rotation))
	rx := x*float32(cos) - y*float32(sin)
	ry := x*float32(sin) + y*float32(cos)
	return Vec2{X: rx / sx, Y: ry / sy}
}

// PutFloat32s writes values into dst as little-endian IEEE-754 words, the layout WGSL expects for f32.
// dst must hold at least 4*len(values) bytes.
//
// Parameters:
//   - dst: destination byte slice
//   - values: the float32 values to encode
func PutFloat32s(dst []byte, values ...float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// Float32At decodes the little-endian float32 stored at byte offset off in src.
func Float32At(src []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(src[off:]))
}
