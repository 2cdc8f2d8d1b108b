package collision

import (
	"encoding/binary"
	"math"

	"github.com/all-the-way-home/home/engine/renderer/pipeline"
)

// Evaluate computes the flag for one slot against RGBA8 terrain pixels. It is the reference the
// collision shader implements.
//
// Parameters:
//   - s: the slot to test
//   - pix: the terrain pixels, 4 bytes per pixel, row-major
//   - width, height: the terrain size
//   - threshold: the alpha value a pixel must exceed to count as terrain
//
// Returns:
//   - uint32: 1 for a valid slot over terrain, 0 otherwise
func Evaluate(s Slot, pix []byte, width, height uint32, threshold uint8) uint32 {
	if s.Valid == 0 {
		return 0
	}
	x := math.Floor(float64(s.Position.X))
	y := math.Floor(float64(s.Position.Y))
	// negated comparisons also reject NaN
	if !(x >= 0 && y >= 0 && x < float64(width) && y < float64(height)) {
		return 0
	}
	i := (int(y)*int(width) + int(x)) * 4
	if i+3 >= len(pix) || pix[i+3] <= threshold {
		return 0
	}
	return 1
}

// Kernel returns the software rendition of the collision shader.
//
// Parameters:
//   - threshold: the alpha value a pixel must exceed to count as terrain
//
// Returns:
//   - pipeline.ComputeKernel: a kernel writing one result word per workgroup
func Kernel(threshold uint8) pipeline.ComputeKernel {
	return func(wg [3]uint32, io pipeline.KernelIO) {
		positions, results := io.Buffer(bindingPositions), io.Buffer(bindingResults)
		slot := int(wg[0])
		if (slot+1)*4 > len(results) || (slot+1)*SlotSize > len(positions) {
			return
		}
		pix, w, h := io.Texture(bindingTerrain)
		binary.LittleEndian.PutUint32(results[slot*4:], Evaluate(SlotAt(positions, slot), pix, w, h, threshold))
	}
}
