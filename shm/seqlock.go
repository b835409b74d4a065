package shm

import (
	"sync/atomic"
	"unsafe"
)

// HeaderByteSize is the fixed 16-byte size of AllocationHeader, the
// seqlock header placed at the start of every shared-memory card
// allocation.
const HeaderByteSize = 16

// AllocationHeader is the 16-byte seqlock header placed at the start of
// every shared-memory allocation:
//
//	seq:       atomic u32   odd => writer in progress; even => quiescent
//	uploading: atomic u32   1 => terminal is reading for GPU upload
//	size:      u32          payload bytes following this header
//	_pad:      u32
//
// The pair (seq, uploading) implements a one-writer/one-reader seqlock:
// the writer waits out the reader, and the reader waits out an in-flight
// write.
type AllocationHeader struct {
	seq       atomic.Uint32
	uploading atomic.Uint32
	size      uint32
	_pad      uint32
}

// HeaderAt overlays an AllocationHeader on the given shared-memory slice
// at the given byte offset. The slice must outlive the header and must
// not be reallocated (Region.Grow invalidates all outstanding headers,
// per the BufferHandle stability contract in §3).
func HeaderAt(region []byte, offset uint32) *AllocationHeader {
	return (*AllocationHeader)(unsafe.Pointer(&region[offset]))
}

// Size returns the payload size recorded in the header.
func (h *AllocationHeader) Size() uint32 { return atomic.LoadUint32(&h.size) }

// SetSize records the payload size. Callers must hold a write guard.
func (h *AllocationHeader) SetSize(n uint32) { atomic.StoreUint32(&h.size, n) }

// DefaultSpinBudget bounds how many iterations BeginRead will spin
// waiting out a stuck writer before giving up and abandoning the upload
// for one frame.
const DefaultSpinBudget = 200_000

// WriteGuard is held by a writer between BeginWrite and EndWrite. Its
// existence (rather than a bare bool) statically enforces that a writer
// cannot forget to pair the two calls: construct one with BeginWrite,
// and nothing else in this package accepts an AllocationHeader for
// writing.
type WriteGuard struct {
	h *AllocationHeader
}

// BeginWrite starts a write transaction: it waits out any in-progress GPU
// upload, then marks the header odd (write in progress). Writers bracket
// their payload writes with BeginWrite/EndWrite.
func BeginWrite(h *AllocationHeader) WriteGuard {
	for {
		spinUntilClear(&h.uploading)
		h.seq.Add(1)
		if h.uploading.Load() == 0 {
			return WriteGuard{h: h}
		}
		// A reader set uploading between the check and the increment and
		// may have seen seq even; step back to even and wait it out.
		h.seq.Add(1)
	}
}

// EndWrite completes the write transaction, marking the header even
// again (quiescent).
func (g WriteGuard) EndWrite() {
	g.h.seq.Add(1)
}

// ReadGuard is held by the renderer between BeginRead and EndRead.
type ReadGuard struct {
	h *AllocationHeader
}

// BeginRead starts a read transaction for GPU upload: it sets the
// uploading flag (so a subsequent writer waits) and spins out any
// write already in progress, bounded by budget iterations. If the spin
// budget is exhausted (a stuck or crashed writer left seq odd), ok is
// false and the caller should abandon the upload for this frame rather
// than block indefinitely.
func BeginRead(h *AllocationHeader, budget int) (g ReadGuard, ok bool) {
	h.uploading.Store(1)
	for i := 0; i < budget; i++ {
		if h.seq.Load()&1 == 0 {
			return ReadGuard{h: h}, true
		}
	}
	if h.seq.Load()&1 == 0 {
		return ReadGuard{h: h}, true
	}
	h.uploading.Store(0)
	return ReadGuard{}, false
}

// EndRead completes the read transaction, clearing the uploading flag.
// Calling it on the zero guard returned by a failed BeginRead is a no-op.
func (g ReadGuard) EndRead() {
	if g.h == nil {
		return
	}
	g.h.uploading.Store(0)
}

func spinUntilClear(flag *atomic.Uint32) {
	for flag.Load() != 0 {
		// Bounded by the reader's own BeginRead/EndRead pairing; the
		// reader never holds "uploading" for more than one flush.
	}
}
