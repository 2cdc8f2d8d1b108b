package collision

import (
	"fmt"
	"sync"

	"github.com/all-the-way-home/home/common"
	"github.com/all-the-way-home/home/engine/actor"
)

// SlotRecord records which actor a slot held when a PositionFrame was built.
type SlotRecord struct {
	// ActorID is the actor in the slot, 0 for an unused slot.
	ActorID uint64
	// Falling is true when the actor was falling at build time. Only such slots may land.
	Falling bool
	// Epoch is the actor's state epoch at build time.
	Epoch uint64
}

// PositionFrame is an immutable set of actor positions built in one tick. The encoded slots and
// the slot table travel together so results are applied to the actors that were measured.
type PositionFrame struct {
	// Tick is the build sequence number, starting at 1.
	Tick uint64
	// Data is the encoded positions buffer, Capacity slots long.
	Data []byte
	// Slots is the slot table, Capacity entries long.
	Slots []SlotRecord
	// Live is the number of valid slots.
	Live int
}

// PositionBuffer builds a PositionFrame every tick and publishes the latest one to the render side.
type PositionBuffer struct {
	mu       sync.Mutex
	capacity int
	tick     uint64
	latest   *PositionFrame
}

// NewPositionBuffer creates a builder for frames of the given capacity.
func NewPositionBuffer(capacity int) *PositionBuffer {
	return &PositionBuffer{capacity: capacity}
}

// Build encodes the actors in order into a new frame and publishes it. Actor i occupies slot i.
// Slots past the last actor are zero, which marks them invalid.
//
// Parameters:
//   - actors: the live actors in registry order
//   - toPixel: maps an actor's world position to terrain pixel coordinates
//
// Returns:
//   - *PositionFrame: the published frame
//   - error: wrapping ErrCapacityExceeded when there are more actors than slots, nothing is published
func (b *PositionBuffer) Build(actors []actor.Actor, toPixel func(common.Vec2) common.Vec2) (*PositionFrame, error) {
	if len(actors) > b.capacity {
		return nil, fmt.Errorf("%w: %d actors for %d slots", ErrCapacityExceeded, len(actors), b.capacity)
	}

	frame := &PositionFrame{
		Data:  make([]byte, b.capacity*SlotSize),
		Slots: make([]SlotRecord, b.capacity),
		Live:  len(actors),
	}
	for i, a := range actors {
		id := a.ID()
		Slot{
			Position: toPixel(a.Position()),
			ID:       float32(id & SlotIDMask),
			Valid:    1,
		}.Put(frame.Data[i*SlotSize:])
		frame.Slots[i] = SlotRecord{ActorID: id, Falling: a.State() == actor.StateFalling, Epoch: a.Epoch()}
	}

	b.mu.Lock()
	b.tick++
	frame.Tick = b.tick
	b.latest = frame
	b.mu.Unlock()
	return frame, nil
}

// Latest returns the most recently published frame, or nil before the first build.
func (b *PositionBuffer) Latest() *PositionFrame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Reset drops the published frame.
func (b *PositionBuffer) Reset() {
	b.mu.Lock()
	b.latest = nil
	b.mu.Unlock()
}

// Capacity returns the number of slots per frame.
func (b *PositionBuffer) Capacity() int {
	return b.capacity
}
