package card

// MetadataHandle addresses a card's slice of the metadata buffer:
// (offset, size) into a fixed-class pool ({32, 64, 128, 256} bytes).
// Stable for the card's lifetime.
type MetadataHandle struct {
	Offset uint32
	Size   uint32
}

// Valid reports whether the handle refers to a live allocation.
func (h MetadataHandle) Valid() bool { return h.Size > 0 }

// InvalidMetadataHandle is the zero-value sentinel for "no allocation".
var InvalidMetadataHandle = MetadataHandle{}

// BufferHandle addresses a card's sub-allocation within the linear GPU
// storage buffer. Data points directly at the writable bytes (either the
// process-private backing slice or, when shm streaming is enabled, the
// mapped shared-memory region) — cards write here directly.
type BufferHandle struct {
	Data   []byte
	Offset uint32
	Size   uint32
}

// Valid reports whether the handle refers to a live allocation.
func (h BufferHandle) Valid() bool { return h.Size > 0 }

// InvalidBufferHandle is the zero-value sentinel for "no allocation".
var InvalidBufferHandle = BufferHandle{}

// TextureHandle is an opaque reservation in the shared texture atlas. It
// becomes paintable at an AtlasPosition only after the atlas packer next
// runs (3-loop Loop 3).
type TextureHandle struct {
	ID uint32
}

// Valid reports whether the handle refers to a live reservation.
func (h TextureHandle) Valid() bool { return h.ID != 0 }

// InvalidTextureHandle is the zero-value sentinel for "no reservation".
var InvalidTextureHandle = TextureHandle{}

// AtlasPosition is the top-left pixel coordinate a TextureHandle was
// placed at by the most recent atlas pack.
type AtlasPosition struct {
	X, Y uint32
}
