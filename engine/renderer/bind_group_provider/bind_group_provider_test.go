package bind_group_provider

import (
	"reflect"
	"testing"

	"github.com/all-the-way-home/home/engine/renderer/resource"
)

type fakeBindGroup struct{ released int }

func (f *fakeBindGroup) Label() string { return "fake" }
func (f *fakeBindGroup) Release()      { f.released++ }

type fakeBuffer struct{}

func (fakeBuffer) Label() string               { return "buf" }
func (fakeBuffer) Size() uint64                { return 16 }
func (fakeBuffer) Usage() resource.BufferUsage { return resource.BufferUsageStorage }
func (fakeBuffer) Release()                    {}

func TestSetBindGroupReleasesPrevious(t *testing.T) {
	p := NewBindGroupProvider("test")
	first, second := &fakeBindGroup{}, &fakeBindGroup{}

	p.SetBindGroup(first)
	p.SetBindGroup(second)

	if first.released != 1 {
		t.Errorf("first bind group released %d times, want 1", first.released)
	}
	if second.released != 0 {
		t.Errorf("current bind group released %d times, want 0", second.released)
	}
	if got := p.Generation(); got != 2 {
		t.Errorf("Generation() = %d, want 2", got)
	}

	p.Release()
	if second.released != 1 || p.BindGroup() != nil {
		t.Error("Release should release and clear the current bind group")
	}
}

func TestMissingBindings(t *testing.T) {
	p := NewBindGroupProvider("test", WithBuffer(0, fakeBuffer{}))

	if got := p.Missing(2, 0, 1); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Errorf("Missing = %v, want [1 2]", got)
	}

	p.SetBuffer(2, fakeBuffer{})
	p.SetBuffer(0, nil)
	if got := p.Missing(0, 2); !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Missing after update = %v, want [0]", got)
	}
	if p.Label() != "test" {
		t.Errorf("Label() = %q", p.Label())
	}
}
