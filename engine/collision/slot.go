package collision

import (
	_ "embed"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/renderer/shader"
)

// SlotSize is the byte size of one ActorSlot in the positions buffer.
const SlotSize = 16

// SlotStructKey is the annotation key shaders use to include or bind ActorSlot.
const SlotStructKey shader.AnnotationArg = "actor_slot"

//go:embed assets/actor_slot.wgsl
var actorSlotSource string

// SlotStruct returns the ActorSlot declaration for shader.WithStruct.
func SlotStruct() shader.StructSource {
	return shader.StructSource{Source: actorSlotSource, Type: "ActorSlot"}
}

// SlotIDMask keeps the bits of an actor ID that survive the float32 encoding of Slot.ID.
const SlotIDMask = 1<<24 - 1

// Slot is one entry of the positions buffer.
type Slot struct {
	// Position is the actor position in terrain pixels.
	Position common.Vec2
	// ID is the low 24 bits of the actor ID encoded as a float, the widest integer a float32 holds
	// exactly. It is informational, results are matched by slot index.
	ID float32
	// Valid is 1 for a slot holding a live actor and 0 for an unused slot.
	Valid float32
}

// Put encodes the slot into dst, which must hold SlotSize bytes.
func (s Slot) Put(dst []byte) {
	common.PutFloat32s(dst, s.Position.X, s.Position.Y, s.ID, s.Valid)
}

// SlotAt decodes slot i of an encoded positions buffer.
func SlotAt(data []byte, i int) Slot {
	off := i * SlotSize
	return Slot{
		Position: common.Vec2{X: common.Float32At(data, off), Y: common.Float32At(data, off+4)},
		ID:       common.Float32At(data, off+8),
		Valid:    common.Float32At(data, off+12),
	}
}
