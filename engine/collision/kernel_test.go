package collision

import (
	"math"
	"testing"

	"github.com/all-the-way-home/home/common"
)

func TestEvaluate(t *testing.T) {
	img := squareTerrain()
	img.FillRect(20, 20, 21, 21, [4]byte{0, 0, 0, 10})

	tests := []struct {
		name      string
		slot      Slot
		threshold uint8
		want      uint32
	}{
		{"inside square", Slot{Position: common.Vec2{X: 5, Y: 5}, Valid: 1}, 0, 1},
		{"square origin", Slot{Position: common.Vec2{X: 0, Y: 0}, Valid: 1}, 0, 1},
		{"square edge", Slot{Position: common.Vec2{X: 9.9, Y: 9.9}, Valid: 1}, 0, 1},
		{"just outside", Slot{Position: common.Vec2{X: 10, Y: 5}, Valid: 1}, 0, 0},
		{"empty terrain", Slot{Position: common.Vec2{X: 15, Y: 15}, Valid: 1}, 0, 0},
		{"unused slot over solid origin", Slot{}, 0, 0},
		{"negative fraction", Slot{Position: common.Vec2{X: -0.5, Y: 5}, Valid: 1}, 0, 0},
		{"past width", Slot{Position: common.Vec2{X: 32, Y: 5}, Valid: 1}, 0, 0},
		{"past height", Slot{Position: common.Vec2{X: 5, Y: 40}, Valid: 1}, 0, 0},
		{"nan", Slot{Position: common.Vec2{X: float32(math.NaN()), Y: 5}, Valid: 1}, 0, 0},
		{"faint pixel default threshold", Slot{Position: common.Vec2{X: 20, Y: 20}, Valid: 1}, 0, 1},
		{"faint pixel under threshold", Slot{Position: common.Vec2{X: 20, Y: 20}, Valid: 1}, 10, 0},
		{"solid pixel over threshold", Slot{Position: common.Vec2{X: 5, Y: 5}, Valid: 1}, 254, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.slot, img.Pixels, img.Width, img.Height, tt.threshold); got != tt.want {
				t.Errorf("Evaluate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestKernelOnSyntheticTerrain(t *testing.T) {
	r := newTestRenderer(t)
	sys, registry := newTestSystem(t, r, 4)
	stable := newTerrain(t, r, squareTerrain())

	spawnAt(t, registry, 5, 5)
	spawnAt(t, registry, 15, 15)
	if _, err := sys.Publish(pixelSpace); err != nil {
		t.Fatal(err)
	}
	if !runFrame(t, r, sys, stable) {
		t.Fatal("frame was not dispatched")
	}

	res, ok := sys.Register().Peek()
	if !ok {
		t.Fatal("no result after Poll")
	}
	want := []uint32{1, 0, 0, 0}
	if len(res.Flags) != len(want) {
		t.Fatalf("got %d flags, want %d", len(res.Flags), len(want))
	}
	for i := range want {
		if res.Flags[i] != want[i] {
			t.Errorf("flag[%d] = %d, want %d", i, res.Flags[i], want[i])
		}
	}
	if res.Tick != 1 || res.SnapshotVersion != 1 {
		t.Errorf("result tick %d snapshot %d, want 1 and 1", res.Tick, res.SnapshotVersion)
	}
}

func TestSlotEncoding(t *testing.T) {
	data := make([]byte, 2*SlotSize)
	s := Slot{Position: common.Vec2{X: 640, Y: 360}, ID: 7, Valid: 1}
	s.Put(data[SlotSize:])
	if got := SlotAt(data, 1); got != s {
		t.Errorf("SlotAt(1) = %+v, want %+v", got, s)
	}
	if got := SlotAt(data, 0); got != (Slot{}) {
		t.Errorf("untouched slot = %+v, want zero", got)
	}
}
