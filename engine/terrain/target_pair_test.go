package terrain

import (
	"bytes"
	"testing"

	"github.com/all-the-way-home/home/engine/renderer/resource"
)

func TestTargetPairSwap(t *testing.T) {
	r := newTestRenderer(t)
	p, err := NewTargetPair(r, 4, 3)
	if err != nil {
		t.Fatalf("NewTargetPair: %v", err)
	}

	first, second := p.Active(), p.Stable()
	if first == nil || second == nil || first == second {
		t.Fatalf("Active() = %v, Stable() = %v, want two distinct targets", first, second)
	}
	for _, tex := range []resource.Texture{first, second} {
		if tex.Format() != TargetFormat || tex.Width() != 4 || tex.Height() != 3 {
			t.Errorf("target %q = %s %dx%d", tex.Label(), tex.Format(), tex.Width(), tex.Height())
		}
		if pix := readTexture(t, r, tex); !bytes.Equal(pix, make([]byte, 4*3*4)) {
			t.Errorf("target %q is not blank", tex.Label())
		}
	}

	p.Swap()
	if p.Active() != second || p.Stable() != first {
		t.Error("Swap() did not exchange the roles")
	}
	p.Swap()
	if p.Active() != first || p.Stable() != second {
		t.Error("second Swap() did not restore the roles")
	}

	p.Release()
	if p.Active() != nil || p.Stable() != nil {
		t.Error("released pair still exposes targets")
	}

	var nilPair *TargetPair
	if nilPair.Stable() != nil || nilPair.Active() != nil {
		t.Error("nil pair should expose no targets")
	}
}
