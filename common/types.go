// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// ErrEmptyImage is returned when a terrain image decodes to zero pixels.
var ErrEmptyImage = errors.New("common: image has no pixels")

// TextureStagingData holds RGBA pixel data for a texture pending GPU upload.
type TextureStagingData struct {
	// Pixels is the RGBA8 pixel data, 4 bytes per pixel, row-major with the first row at the top.
	Pixels []byte
	// Width is the width of the texture in pixels.
	Width uint32
	// Height is the height of the texture in pixels.
	Height uint32
}

// NewBlankTextureStagingData creates fully transparent RGBA staging data of the given size.
//
// Parameters:
//   - width: texture width in pixels
//   - height: texture height in pixels
//
// Returns:
//   - TextureStagingData: zero-filled pixel data
func NewBlankTextureStagingData(width, height uint32) TextureStagingData {
	return TextureStagingData{
		Pixels: make([]byte, int(width)*int(height)*4),
		Width:  width,
		Height: height,
	}
}

// Alpha returns the alpha byte of the pixel at (x, y), or 0 when the pixel is outside the image.
func (t TextureStagingData) Alpha(x, y int) uint8 {
	if x < 0 || y < 0 || x >= int(t.Width) || y >= int(t.Height) {
		return 0
	}
	return t.Pixels[(y*int(t.Width)+x)*4+3]
}

// FillRect sets every pixel of the rectangle [x0,x1) x [y0,y1) to the given color, clipped to the image.
func (t TextureStagingData) FillRect(x0, y0, x1, y1 int, rgba [4]byte) {
	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, int(t.Width)), min(y1, int(t.Height))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			copy(t.Pixels[(y*int(t.Width)+x)*4:], rgba[:])
		}
	}
}

// Clone returns a deep copy of the staging data.
func (t TextureStagingData) Clone() TextureStagingData {
	pix := make([]byte, len(t.Pixels))
	copy(pix, t.Pixels)
	return TextureStagingData{Pixels: pix, Width: t.Width, Height: t.Height}
}

// ImageToStagingData converts any image into RGBA staging data of exactly width x height pixels.
// Images of a different size are scaled with an approximate bilinear filter.
//
// Parameters:
//   - img: the decoded source image
//   - width: target width in pixels
//   - height: target height in pixels
//
// Returns:
//   - TextureStagingData: the converted pixel data
//   - error: ErrEmptyImage if the source has no pixels
func ImageToStagingData(img image.Image, width, height uint32) (TextureStagingData, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return TextureStagingData{}, ErrEmptyImage
	}

	dst := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	if bounds.Dx() == int(width) && bounds.Dy() == int(height) {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	}

	return TextureStagingData{Pixels: dst.Pix, Width: width, Height: height}, nil
}

// LoadTerrainImage decodes a PNG or JPEG file and scales it to the configured terrain size.
//
// Parameters:
//   - path: the image file path
//   - width: terrain width in pixels
//   - height: terrain height in pixels
//
// Returns:
//   - TextureStagingData: the terrain pixels
//   - error: error if the file cannot be opened or decoded
func LoadTerrainImage(path string, width, height uint32) (TextureStagingData, error) {
	file, err := os.Open(path)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to open terrain image %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return TextureStagingData{}, fmt.Errorf("failed to decode terrain image %s: %w", path, err)
	}
	return ImageToStagingData(img, width, height)
}
