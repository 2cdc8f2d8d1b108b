package common

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func approx(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-3
}

func TestTransform2DInverseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform2D
	}{
		{"identity", IdentityTransform2D()},
		{"translated", Transform2D{Translation: Vec2{X: 120, Y: -40}}},
		{"scaled", Transform2D{Scale: Vec2{X: 2, Y: 0.5}}},
		{"rotated", Transform2D{Rotation: math.Pi / 3, Scale: Vec2{X: 1, Y: 1}}},
		{"composed", Transform2D{Translation: Vec2{X: -8, Y: 3}, Rotation: 0.7, Scale: Vec2{X: 3, Y: 1.5}}},
	}

	points := []Vec2{{0, 0}, {10, -5}, {-640, 360}, {1279.5, 0.25}}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, p := range points {
				got := tt.tr.ApplyInverse(tt.tr.Apply(p))
				if !approx(got.X, p.X) || !approx(got.Y, p.Y) {
					t.Errorf("ApplyInverse(Apply(%v)) = %v", p, got)
				}
			}
		})
	}
}

func TestTransform2DZeroScaleIsUnit(t *testing.T) {
	tr := Transform2D{Translation: Vec2{X: 5, Y: 5}}
	got := tr.Apply(Vec2{X: 1, Y: 2})
	if got != (Vec2{X: 6, Y: 7}) {
		t.Errorf("Apply = %v, want {6 7}", got)
	}
}

func TestPutFloat32s(t *testing.T) {
	buf := make([]byte, 12)
	PutFloat32s(buf, 1.5, -2, 640)
	for i, want := range []float32{1.5, -2, 640} {
		if got := Float32At(buf, i*4); got != want {
			t.Errorf("Float32At(%d) = %v, want %v", i*4, got, want)
		}
	}
}

func TestStagingDataFillRectAndAlpha(t *testing.T) {
	s := NewBlankTextureStagingData(20, 20)
	s.FillRect(-5, -5, 10, 10, [4]byte{255, 255, 255, 255})

	tests := []struct {
		x, y int
		want uint8
	}{
		{0, 0, 255},
		{9, 9, 255},
		{10, 10, 0},
		{19, 0, 0},
		{-1, 0, 0},
		{0, 20, 0},
	}
	for _, tt := range tests {
		if got := s.Alpha(tt.x, tt.y); got != tt.want {
			t.Errorf("Alpha(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}

	c := s.Clone()
	c.Pixels[3] = 0
	if s.Alpha(0, 0) != 255 {
		t.Error("Clone shares pixel memory with the original")
	}
}

func TestImageToStagingDataScales(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}

	got, err := ImageToStagingData(src, 8, 6)
	if err != nil {
		t.Fatalf("ImageToStagingData: %v", err)
	}
	if got.Width != 8 || got.Height != 6 || len(got.Pixels) != 8*6*4 {
		t.Fatalf("size = %dx%d (%d bytes)", got.Width, got.Height, len(got.Pixels))
	}
	if a := got.Alpha(7, 5); a != 255 {
		t.Errorf("scaled alpha = %d, want 255", a)
	}

	if _, err := ImageToStagingData(image.NewNRGBA(image.Rectangle{}), 4, 4); err != ErrEmptyImage {
		t.Errorf("empty image error = %v, want ErrEmptyImage", err)
	}
}
