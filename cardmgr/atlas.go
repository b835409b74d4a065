package cardmgr

import (
	"encoding/binary"
	"sort"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/zokrezyl/yetty/card"
	"github.com/zokrezyl/yetty/yerr"
)

// Atlas dimensions: initially 2048x2048 RGBA8, grown in doubling steps
// up to maxAtlasSize.
const (
	initialAtlasSize = 2048
	maxAtlasSize     = 8192
	atlasPadding     = 1
	bytesPerPixel    = 4

	// textureRecordSize is the byte width of one packRecords entry:
	// four little-endian uint32s (x, y, width, height).
	textureRecordSize = 16
)

// shelf is one horizontal strip of the atlas, ported from
// github.com/gogpu/gg's text/msdf.ShelfAllocator and generalized from
// fixed glyph cells to arbitrary texture-card rectangles.
type shelf struct {
	y      int
	height int
	x      int
}

// shelfAllocator implements shelf-based rectangle packing over a
// width x height area.
type shelfAllocator struct {
	width, height int
	padding       int
	shelves       []shelf
	usedArea      int
}

func newShelfAllocator(width, height, padding int) *shelfAllocator {
	return &shelfAllocator{width: width, height: height, padding: padding, shelves: make([]shelf, 0, 16)}
}

func (a *shelfAllocator) allocate(w, h int) (x, y int, ok bool) {
	paddedW := w + a.padding
	paddedH := h + a.padding

	for i := range a.shelves {
		s := &a.shelves[i]
		if s.x+paddedW > a.width {
			continue
		}
		if h > s.height {
			if i == len(a.shelves)-1 {
				if s.y+paddedH <= a.height {
					s.height = h
					x, y = s.x, s.y
					s.x += paddedW
					a.usedArea += w * h
					return x, y, true
				}
			}
			continue
		}
		x, y = s.x, s.y
		s.x += paddedW
		a.usedArea += w * h
		return x, y, true
	}

	newY := 0
	if len(a.shelves) > 0 {
		last := a.shelves[len(a.shelves)-1]
		newY = last.y + last.height + a.padding
	}
	if newY+paddedH > a.height {
		return -1, -1, false
	}
	a.shelves = append(a.shelves, shelf{y: newY, height: h, x: paddedW})
	a.usedArea += w * h
	return 0, newY, true
}

// textureSlot is the manager's bookkeeping for one TextureHandle: its
// declared size and, once packed, its atlas position.
type textureSlot struct {
	width, height uint32
	pos           card.AtlasPosition
	packed        bool
	pixels        []byte // staged pixels, uploaded on next uploadAtlas
	dirty         bool
}

// atlasManager owns the atlas texture and the shelf packer. It mirrors
// CardTextureManager from include/yetty/card-texture-manager.h.
type atlasManager struct {
	device hal.Device

	size int // current square dimension

	slots  map[card.TextureHandle]*textureSlot
	nextID uint32

	texture     hal.Texture
	textureView hal.TextureView
	sampler     hal.Sampler
	initialized bool
}

func newAtlasManager(device hal.Device) *atlasManager {
	return &atlasManager{
		device: device,
		size:   initialAtlasSize,
		slots:  make(map[card.TextureHandle]*textureSlot),
		nextID: 1,
	}
}

// allocate declares a texture card's pixel size, returning a handle valid
// for write() and (after the next createAtlas) getAtlasPosition().
func (a *atlasManager) allocate(width, height uint32) (card.TextureHandle, error) {
	if width == 0 || height == 0 {
		return card.InvalidTextureHandle, yerr.New(yerr.InvalidArgument, "cardmgr: zero-sized texture allocation")
	}
	if int(width) > maxAtlasSize || int(height) > maxAtlasSize {
		return card.InvalidTextureHandle, yerr.Wrap(yerr.TooLarge, "cardmgr: texture exceeds atlas maximum", ErrTooLarge)
	}
	h := card.TextureHandle{ID: a.nextID}
	a.nextID++
	a.slots[h] = &textureSlot{width: width, height: height}
	return h, nil
}

func (a *atlasManager) deallocate(h card.TextureHandle) {
	delete(a.slots, h)
}

// write stages RGBA8 pixels for the handle; they are uploaded to the GPU
// texture on the next uploadAtlas call. Pixels may only be written after
// createAtlas has assigned a position.
func (a *atlasManager) write(h card.TextureHandle, pixels []byte) error {
	slot, ok := a.slots[h]
	if !ok {
		return yerr.New(yerr.NotFound, "cardmgr: unknown texture handle")
	}
	if !slot.packed {
		return yerr.New(yerr.InvalidArgument, "cardmgr: write before atlas pack")
	}
	want := int(slot.width) * int(slot.height) * bytesPerPixel
	if len(pixels) != want {
		return yerr.Newf(yerr.InvalidArgument, "cardmgr: pixel buffer is %d bytes, want %d", len(pixels), want)
	}
	slot.pixels = pixels
	slot.dirty = true
	return nil
}

func (a *atlasManager) atlasPosition(h card.TextureHandle) card.AtlasPosition {
	if slot, ok := a.slots[h]; ok {
		return slot.pos
	}
	return card.AtlasPosition{}
}

// createAtlas re-runs the shelf packer over every live handle (Loop 3;
// called on every TextureAtlasPack, whether or not any handle changed).
// It grows the atlas in doubling steps when the current size can't fit
// every handle.
func (a *atlasManager) createAtlas() error {
	for size := a.size; size <= maxAtlasSize; size *= 2 {
		if a.tryPack(size) {
			if size != a.size || !a.initialized {
				if err := a.recreateTexture(size); err != nil {
					return err
				}
			}
			a.size = size
			return nil
		}
	}
	return yerr.New(yerr.TooLarge, "cardmgr: atlas cannot fit all texture cards even at maximum size")
}

func (a *atlasManager) tryPack(size int) bool {
	packer := newShelfAllocator(size, size, atlasPadding)
	placed := make(map[card.TextureHandle]card.AtlasPosition, len(a.slots))
	for h, slot := range a.slots {
		x, y, ok := packer.allocate(int(slot.width), int(slot.height))
		if !ok {
			return false
		}
		placed[h] = card.AtlasPosition{X: uint32(x), Y: uint32(y)}
	}
	for h, pos := range placed {
		slot := a.slots[h]
		slot.pos = pos
		slot.packed = true
		slot.dirty = true
	}
	return true
}

func (a *atlasManager) recreateTexture(size int) error {
	tex, err := a.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "yetty_card_atlas",
		Size:          hal.Extent3D{Width: uint32(size), Height: uint32(size), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create atlas texture", err)
	}
	view, err := a.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "yetty_card_atlas_view"})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create atlas texture view", err)
	}
	if a.sampler == nil {
		sampler, err := a.device.CreateSampler(&hal.SamplerDescriptor{Label: "yetty_card_atlas_sampler"})
		if err != nil {
			return yerr.Wrap(yerr.OsError, "cardmgr: create atlas sampler", err)
		}
		a.sampler = sampler
	}
	if a.texture != nil {
		a.device.DestroyTextureView(a.textureView)
		a.device.DestroyTexture(a.texture)
	}
	a.texture = tex
	a.textureView = view
	a.initialized = true
	return nil
}

// uploadAtlas pushes every dirty staged-pixel slot into the GPU atlas
// texture. Called by Manager.Flush.
func (a *atlasManager) uploadAtlas(queue hal.Queue) error {
	if !a.initialized {
		return nil
	}
	for _, slot := range a.slots {
		if !slot.dirty || slot.pixels == nil {
			continue
		}
		queue.WriteTexture(
			&hal.ImageCopyTexture{Texture: a.texture, Origin: hal.Origin3D{X: slot.pos.X, Y: slot.pos.Y}},
			slot.pixels,
			&hal.ImageDataLayout{BytesPerRow: slot.width * bytesPerPixel, RowsPerImage: slot.height},
			&hal.Extent3D{Width: slot.width, Height: slot.height, DepthOrArrayLayers: 1},
		)
		slot.dirty = false
	}
	return nil
}

// close releases the atlas's GPU resources, if any were created.
func (a *atlasManager) close() {
	if a.texture != nil {
		a.device.DestroyTextureView(a.textureView)
		a.device.DestroyTexture(a.texture)
	}
	if a.sampler != nil {
		a.device.DestroySampler(a.sampler)
	}
}

// packRecords serializes every packed handle's atlas rectangle as
// {x, y, width, height} uint32 quads, ordered by TextureHandle.ID. This
// is the CPU-side mirror of the bind group's texture_buffer (spec.md
// §4.2.1): shaders look up a card's atlas rectangle by this same index
// rather than by raw pixel offset.
func (a *atlasManager) packRecords() []byte {
	handles := make([]card.TextureHandle, 0, len(a.slots))
	for h, slot := range a.slots {
		if slot.packed {
			handles = append(handles, h)
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].ID < handles[j].ID })

	buf := make([]byte, len(handles)*textureRecordSize)
	for i, h := range handles {
		slot := a.slots[h]
		rec := buf[i*textureRecordSize : (i+1)*textureRecordSize]
		binary.LittleEndian.PutUint32(rec[0:4], slot.pos.X)
		binary.LittleEndian.PutUint32(rec[4:8], slot.pos.Y)
		binary.LittleEndian.PutUint32(rec[8:12], slot.width)
		binary.LittleEndian.PutUint32(rec[12:16], slot.height)
	}
	return buf
}

func (a *atlasManager) stats() (count int, w, h, usedPixels int) {
	used := 0
	for _, slot := range a.slots {
		used += int(slot.width) * int(slot.height)
	}
	return len(a.slots), a.size, a.size, used
}
