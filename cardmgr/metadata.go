package cardmgr

import (
	"github.com/zokrezyl/yetty/card"
	"github.com/zokrezyl/yetty/yerr"
)

// metadataSizeClasses are the fixed pool-allocator bucket sizes, in
// bytes. A request larger than the largest class fails with
// ErrInvalidMetadataSize.
var metadataSizeClasses = [...]uint32{32, 64, 128, 256}

func classFor(size uint32) (class uint32, ok bool) {
	for _, c := range metadataSizeClasses {
		if size <= c {
			return c, true
		}
	}
	return 0, false
}

// metadataPool is a bump-pointer arena with a per-class free list, one
// per fixed size class. Freed slots are reused before growing the
// arena, so steady-state card churn never grows metadata usage.
type metadataPool struct {
	capacity uint32              // total bytes backing the metadata buffer
	bump     uint32              // next never-used byte offset
	free     map[uint32][]uint32 // class -> free offsets
	data     []byte              // process-private staging mirror of the GPU buffer

	dirtyFrom, dirtyTo uint32
	hasDirty           bool
}

func newMetadataPool(capacity uint32) *metadataPool {
	return &metadataPool{
		capacity: capacity,
		free:     make(map[uint32][]uint32, len(metadataSizeClasses)),
		data:     make([]byte, capacity),
	}
}

// stage copies data into the pool's staging mirror at offset. The
// caller is responsible for calling markDirty separately.
func (p *metadataPool) stage(offset uint32, data []byte) {
	copy(p.data[offset:], data)
}

// read returns the staged bytes in [offset, offset+size).
func (p *metadataPool) read(offset, size uint32) []byte {
	return p.data[offset : offset+size]
}

// allocate returns a handle into a size class bucket big enough for
// size bytes, reusing a freed slot of the same class if one exists.
func (p *metadataPool) allocate(size uint32) (card.MetadataHandle, error) {
	class, ok := classFor(size)
	if !ok {
		return card.InvalidMetadataHandle, yerr.Wrap(yerr.InvalidArgument, "cardmgr: metadata request exceeds largest size class", ErrInvalidMetadataSize)
	}
	if freelist := p.free[class]; len(freelist) > 0 {
		off := freelist[len(freelist)-1]
		p.free[class] = freelist[:len(freelist)-1]
		return card.MetadataHandle{Offset: off, Size: class}, nil
	}
	if p.bump+class > p.capacity {
		return card.InvalidMetadataHandle, yerr.Wrap(yerr.OutOfSpace, "cardmgr: metadata pool exhausted", ErrOutOfSpace)
	}
	off := p.bump
	p.bump += class
	return card.MetadataHandle{Offset: off, Size: class}, nil
}

// deallocate returns the handle's slot to its class free list for reuse.
func (p *metadataPool) deallocate(h card.MetadataHandle) {
	if !h.Valid() {
		return
	}
	p.free[h.Size] = append(p.free[h.Size], h.Offset)
}

// markDirty coalesces a byte range into the single outstanding
// dirty span flushed to the GPU metadata buffer on the next Flush.
func (p *metadataPool) markDirty(offset, size uint32) {
	end := offset + size
	if !p.hasDirty {
		p.dirtyFrom, p.dirtyTo, p.hasDirty = offset, end, true
		return
	}
	if offset < p.dirtyFrom {
		p.dirtyFrom = offset
	}
	if end > p.dirtyTo {
		p.dirtyTo = end
	}
}

func (p *metadataPool) takeDirtyRange() (offset, size uint32, ok bool) {
	if !p.hasDirty {
		return 0, 0, false
	}
	offset, size, ok = p.dirtyFrom, p.dirtyTo-p.dirtyFrom, true
	p.hasDirty = false
	return
}

func (p *metadataPool) usedBytes() uint32 { return p.bump }
