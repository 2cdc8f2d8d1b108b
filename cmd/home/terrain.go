package main

import (
	"math"

	"github.com/all-the-way-home/home/common"
)

var (
	groundColor = [4]byte{112, 84, 52, 255}
	grassColor  = [4]byte{70, 140, 60, 255}
)

// generateTerrain builds a rolling ground for runs without a -terrain image. The surface height
// varies between roughly 55% and 80% of the image height and the top rows of every column are grass.
func generateTerrain(width, height uint32) common.TextureStagingData {
	img := common.NewBlankTextureStagingData(width, height)
	h := float64(height)
	for x := 0; x < int(width); x++ {
		t := float64(x) / float64(max(width, 1))
		surface := int(h * (0.675 + 0.08*math.Sin(t*2*math.Pi*2) + 0.045*math.Sin(t*2*math.Pi*5+1)))
		surface = min(max(surface, 0), int(height)-1)
		grass := min(surface+int(h*0.01)+1, int(height))
		img.FillRect(x, surface, x+1, grass, grassColor)
		img.FillRect(x, grass, x+1, int(height), groundColor)
	}
	return img
}
