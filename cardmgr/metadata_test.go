package cardmgr

import (
	"testing"

	"github.com/zokrezyl/yetty/yerr"
)

func TestMetadataPoolAllocateRoundsToClass(t *testing.T) {
	p := newMetadataPool(1024)
	h, err := p.allocate(40)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if h.Size != 64 {
		t.Fatalf("handle size = %d, want rounded-up class 64", h.Size)
	}
}

func TestMetadataPoolRejectsOversizedRequest(t *testing.T) {
	p := newMetadataPool(1024)
	_, err := p.allocate(1000)
	if !yerr.Is(err, yerr.InvalidArgument) {
		t.Fatalf("allocate(1000) error = %v, want InvalidArgument", err)
	}
}

func TestMetadataPoolReusesFreedSlot(t *testing.T) {
	p := newMetadataPool(1024)
	h1, _ := p.allocate(32)
	p.deallocate(h1)
	h2, err := p.allocate(32)
	if err != nil {
		t.Fatalf("allocate after free: %v", err)
	}
	if h2.Offset != h1.Offset {
		t.Fatalf("offset = %d, want reused offset %d", h2.Offset, h1.Offset)
	}
	if p.usedBytes() != 32 {
		t.Fatalf("usedBytes = %d, want 32 (no new bump growth)", p.usedBytes())
	}
}

func TestMetadataPoolStageAndDirtyRange(t *testing.T) {
	p := newMetadataPool(1024)
	h, _ := p.allocate(32)
	payload := []byte("hello-metadata")
	p.stage(h.Offset, payload)
	p.markDirty(h.Offset, uint32(len(payload)))

	off, size, ok := p.takeDirtyRange()
	if !ok {
		t.Fatalf("takeDirtyRange reported no dirty range")
	}
	if off != h.Offset || size != uint32(len(payload)) {
		t.Fatalf("dirty range = (%d,%d), want (%d,%d)", off, size, h.Offset, len(payload))
	}
	got := p.read(off, size)
	if string(got) != string(payload) {
		t.Fatalf("read = %q, want %q", got, payload)
	}
	if _, _, ok := p.takeDirtyRange(); ok {
		t.Fatalf("dirty range was not cleared by takeDirtyRange")
	}
}

func TestMetadataPoolExhaustion(t *testing.T) {
	p := newMetadataPool(64)
	if _, err := p.allocate(64); err != nil {
		t.Fatalf("first allocate: %v", err)
	}
	_, err := p.allocate(64)
	if !yerr.Is(err, yerr.OutOfSpace) {
		t.Fatalf("allocate past capacity error = %v, want OutOfSpace", err)
	}
}
