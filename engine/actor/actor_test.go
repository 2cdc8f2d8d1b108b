package actor

import (
	"testing"

	"github.com/all-the-way-home/home/common"
)

func TestActorTransitions(t *testing.T) {
	a := NewActor(WithPosition(common.Vec2{X: 1, Y: 2}), WithSpeed(3))
	if a.State() != StateFalling {
		t.Fatalf("new actor state = %v, want falling", a.State())
	}
	if a.Fall() {
		t.Error("Fall() on a falling actor reported a transition")
	}
	if !a.Land() || a.State() != StateWalking {
		t.Fatal("Land() did not move a falling actor to walking")
	}
	if a.Land() {
		t.Error("Land() on a walking actor reported a transition")
	}
	if a.Position() != (common.Vec2{X: 1, Y: 2}) || a.Speed() != 3 {
		t.Errorf("landing changed position or speed: %v %v", a.Position(), a.Speed())
	}
	if !a.Fall() || a.State() != StateFalling {
		t.Error("Fall() did not move a walking actor to falling")
	}
	if a.Epoch() != 2 {
		t.Errorf("Epoch() = %d after two transitions", a.Epoch())
	}
}

func TestMotionStep(t *testing.T) {
	wall := func(_ Actor, next common.Vec2) bool { return next.X >= 10 }

	tests := []struct {
		name      string
		state     State
		start     common.Vec2
		speed     float32
		motion    Motion
		wantPos   common.Vec2
		wantSpeed float32
	}{
		{"falling default", StateFalling, common.Vec2{X: 5, Y: 5}, 2, Motion{}, common.Vec2{X: 5, Y: 4.5}, 2},
		{"falling custom", StateFalling, common.Vec2{X: 5, Y: 5}, 2, Motion{FallSpeed: 2}, common.Vec2{X: 5, Y: 3}, 2},
		{"walking right", StateWalking, common.Vec2{X: 5, Y: 5}, 2, Motion{Blocked: wall}, common.Vec2{X: 7, Y: 5}, 2},
		{"walking into wall", StateWalking, common.Vec2{X: 9, Y: 5}, 2, Motion{Blocked: wall}, common.Vec2{X: 9, Y: 5}, -2},
		{"walking left", StateWalking, common.Vec2{X: 9, Y: 5}, -2, Motion{Blocked: wall}, common.Vec2{X: 7, Y: 5}, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewActor(WithState(tt.state), WithPosition(tt.start), WithSpeed(tt.speed))
			tt.motion.Step(a)
			if a.Position() != tt.wantPos || a.Speed() != tt.wantSpeed {
				t.Errorf("after Step: pos %v speed %v, want %v %v", a.Position(), a.Speed(), tt.wantPos, tt.wantSpeed)
			}
			if a.State() != tt.state {
				t.Errorf("Step changed state to %v", a.State())
			}
		})
	}
}

func TestDropUnsupported(t *testing.T) {
	walkingLow := NewActor(WithState(StateWalking), WithPosition(common.Vec2{Y: -10}))
	walkingHigh := NewActor(WithState(StateWalking), WithPosition(common.Vec2{Y: 10}))
	falling := NewActor(WithPosition(common.Vec2{Y: -10}))

	probe := SupportProbeFunc(func(a Actor) bool { return a.Position().Y > 0 })
	if n := DropUnsupported(probe, []Actor{walkingLow, walkingHigh, falling}); n != 1 {
		t.Errorf("DropUnsupported() = %d, want 1", n)
	}
	if walkingLow.State() != StateFalling || walkingHigh.State() != StateWalking || falling.State() != StateFalling {
		t.Error("probe applied to the wrong actors")
	}
	if n := DropUnsupported(nil, []Actor{walkingHigh}); n != 0 {
		t.Errorf("nil probe dropped %d actors", n)
	}
}
