package collision

import "sync"

// Result is one set of collision flags read back from the GPU with the slot table of the
// positions it was computed from.
type Result struct {
	// Flags holds one word per slot, 1 when the slot's pixel holds terrain.
	Flags []uint32
	// Slots is the slot table of the frame the flags were computed from.
	Slots []SlotRecord
	// Tick is the PositionFrame tick the flags were computed from.
	Tick uint64
	// SnapshotVersion is the terrain snapshot version the flags were computed against.
	SnapshotVersion uint64
}

// ResultRegister holds the latest available Result. Writers replace it, the reader takes it.
// Neither side ever waits on the GPU.
type ResultRegister struct {
	mu     sync.Mutex
	latest *Result
	stored uint64
}

// Store replaces the held result.
func (r *ResultRegister) Store(res Result) {
	r.mu.Lock()
	r.latest = &res
	r.stored++
	r.mu.Unlock()
}

// Take returns the held result and empties the register so a result is applied at most once.
//
// Returns:
//   - Result: the latest result
//   - bool: false when no new result arrived since the last Take
func (r *ResultRegister) Take() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return Result{}, false
	}
	res := *r.latest
	r.latest = nil
	return res, true
}

// Peek returns the held result without taking it.
func (r *ResultRegister) Peek() (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == nil {
		return Result{}, false
	}
	return *r.latest, true
}

// Stored returns how many results have been stored in total.
func (r *ResultRegister) Stored() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stored
}

// Clear drops the held result.
func (r *ResultRegister) Clear() {
	r.mu.Lock()
	r.latest = nil
	r.mu.Unlock()
}
