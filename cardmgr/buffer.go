package cardmgr

import (
	"github.com/zokrezyl/yetty/yerr"
)

// storageGrowthFactor is how much extra headroom commitReservations
// grants a buffer whose requested size exceeds its current capacity.
const storageGrowthFactor = 1.5

// storageArena backs Loop 1's declareBufferNeeds / reserve and Loop 2's
// allocateBuffer. Every frame starts a fresh bump-pointer pass over the
// committed capacity; reservations from the previous frame do not carry
// forward, so a card that stops declaring a need silently loses its
// allocation on the next frame rather than leaking it.
type storageArena struct {
	capacity  uint32
	requested uint32 // running total declared this frame, before commit
	bump      uint32 // bump pointer for the current frame's allocations

	dirtyFrom, dirtyTo uint32
	hasDirty           bool
}

func newStorageArena(initialCapacity uint32) *storageArena {
	return &storageArena{capacity: initialCapacity}
}

// reserve is called once per card per frame during Loop 1. It only
// accumulates a running total; no allocation happens until
// commitReservations.
func (a *storageArena) reserve(size uint32) {
	a.requested += size
}

// commitReservations ends Loop 1: if the accumulated requests exceed
// the current capacity, the arena grows by storageGrowthFactor (at
// least enough to cover the request) and resets the bump pointer for
// Loop 2's allocation pass.
func (a *storageArena) commitReservations() (grew bool, newCapacity uint32) {
	if a.requested > a.capacity {
		next := uint32(float64(a.requested) * storageGrowthFactor)
		if next < a.requested {
			next = a.requested
		}
		a.capacity = next
		grew = true
	}
	a.bump = 0
	a.requested = 0
	return grew, a.capacity
}

// allocate hands out the next size bytes in this frame's bump pass,
// run during Loop 2. Exceeding the committed capacity here indicates a
// renderer under-declared its need in Loop 1, which is a programming
// error in the card, not a runtime condition to grow past. The caller
// (Manager) is responsible for slicing the backing storage and, when
// shm framing is in play, placing the AllocationHeader.
func (a *storageArena) allocate(size uint32) (offset uint32, err error) {
	if a.bump+size > a.capacity {
		return 0, yerr.Wrap(yerr.OutOfSpace, "cardmgr: buffer allocation exceeds committed reservation", ErrOutOfSpace)
	}
	off := a.bump
	a.bump += size
	return off, nil
}

func (a *storageArena) markDirty(offset, size uint32) {
	end := offset + size
	if !a.hasDirty {
		a.dirtyFrom, a.dirtyTo, a.hasDirty = offset, end, true
		return
	}
	if offset < a.dirtyFrom {
		a.dirtyFrom = offset
	}
	if end > a.dirtyTo {
		a.dirtyTo = end
	}
}

func (a *storageArena) takeDirtyRange() (offset, size uint32, ok bool) {
	if !a.hasDirty {
		return 0, 0, false
	}
	offset, size, ok = a.dirtyFrom, a.dirtyTo-a.dirtyFrom, true
	a.hasDirty = false
	return
}

// subAllocation records one card's slice of the arena, for diagnostics
// (DumpBufferAllocations / yettyc buffers).
type subAllocation struct {
	SlotIndex uint32
	Scope     string
	Offset    uint32
	Size      uint32
}
