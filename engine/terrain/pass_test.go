package terrain

import (
	"bytes"
	"testing"

	"github.com/all-the-way-home/home/common"
)

func TestPassSeedsThenDigs(t *testing.T) {
	r := newTestRenderer(t)
	const w, h = 16, 12

	level := common.NewBlankTextureStagingData(w, h)
	level.FillRect(0, 6, w, h, [4]byte{90, 60, 30, 255})

	pair, err := NewTargetPair(r, w, h)
	if err != nil {
		t.Fatal(err)
	}
	brush := NewBrush(3)
	pass, err := NewPass(r, level, brush)
	if err != nil {
		t.Fatalf("NewPass: %v", err)
	}
	t.Cleanup(pass.Release)

	if pass.Seeded() {
		t.Fatal("new pass is already seeded")
	}
	if err := pass.Draw(pair); err != nil {
		t.Fatalf("first Draw: %v", err)
	}
	if !pass.Seeded() {
		t.Fatal("pass not seeded after the first draw")
	}
	if got := readTexture(t, r, pair.Active()); !bytes.Equal(got, level.Pixels) {
		t.Fatal("first frame does not show the level image")
	}
	pair.Swap()

	center := common.Vec2{X: 8, Y: 8}
	brush.Update(center, true)
	if err := pass.Draw(pair); err != nil {
		t.Fatalf("second Draw: %v", err)
	}

	want := level.Clone()
	Erase(want, brush.Params(true))
	got := readTexture(t, r, pair.Active())
	if !bytes.Equal(got, want.Pixels) {
		t.Fatal("dug frame differs from the CPU erase")
	}
	if alphaAt(got, w, 8, 8) != 0 {
		t.Error("pixel under the brush is still opaque")
	}
	if alphaAt(got, w, 1, 10) != 255 {
		t.Error("pixel outside the brush was erased")
	}
	if prev := readTexture(t, r, pair.Stable()); !bytes.Equal(prev, level.Pixels) {
		t.Error("drawing modified the stable target")
	}

	// once seeded the pass ignores the level image and keeps the hole
	pair.Swap()
	brush.Update(center, false)
	if err := pass.Draw(pair); err != nil {
		t.Fatal(err)
	}
	if kept := readTexture(t, r, pair.Active()); !bytes.Equal(kept, want.Pixels) {
		t.Error("idle brush frame did not carry the dug terrain forward")
	}
}

func TestBrushParams(t *testing.T) {
	b := NewBrush(0)
	tests := []struct {
		name    string
		digging bool
		seeded  bool
		flags   uint32
	}{
		{"idle unseeded", false, false, 0},
		{"idle seeded", false, true, BrushFlagSeeded},
		{"digging seeded", true, true, BrushFlagSeeded | BrushFlagDigging},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b.Update(common.Vec2{X: 3, Y: 4}, tt.digging)
			p := b.Params(tt.seeded)
			if p.Flags != tt.flags || p.Radius != DefaultBrushRadius {
				t.Errorf("Params() = %+v", p)
			}
			if got := UnmarshalBrushParams(p.Marshal()); got != p {
				t.Errorf("decoded %+v, want %+v", got, p)
			}
		})
	}

	p := BrushParams{Center: common.Vec2{X: 10, Y: 10}, Radius: 2}
	if !p.Covers(11, 11) || p.Covers(13, 10) {
		t.Error("Covers() disagrees with the brush circle")
	}
}
