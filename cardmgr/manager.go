package cardmgr

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/zokrezyl/yetty/card"
	"github.com/zokrezyl/yetty/shm"
	"github.com/zokrezyl/yetty/yerr"
)

// Config controls a Manager's initial capacities and streaming backing.
// Every field has a usable zero value; withDefaults fills them in.
type Config struct {
	// InitialMetadataCapacity is the starting size, in bytes, of the
	// metadata pool's backing GPU buffer.
	InitialMetadataCapacity uint32
	// InitialStorageCapacity is the starting size, in bytes, of the
	// card storage arena's backing GPU buffer.
	InitialStorageCapacity uint32
	// ShmRegion, if non-nil, backs the storage arena with named shared
	// memory instead of a process-private slice, and every buffer
	// allocation is framed with a shm.AllocationHeader so a remote
	// client can seqlock-read it (spec.md §4.4 card streaming). Owned
	// by the caller; Manager never creates or closes it.
	ShmRegion *shm.Region
	// SpinBudget bounds Flush's seqlock reads of shm-backed allocations.
	// 0 uses shm.DefaultSpinBudget.
	SpinBudget int
}

const (
	defaultMetadataCapacity = 1 << 16 // 64 KiB
	defaultStorageCapacity  = 1 << 20 // 1 MiB
	dummyAtlasSize          = 1

	// initialTextureInfoRecords sizes the texture_buffer binding before
	// any texture card exists; it grows in doubling steps alongside the
	// atlas's live handle count.
	initialTextureInfoRecords = 64
)

func (c Config) withDefaults() Config {
	if c.InitialMetadataCapacity == 0 {
		c.InitialMetadataCapacity = defaultMetadataCapacity
	}
	if c.InitialStorageCapacity == 0 {
		c.InitialStorageCapacity = defaultStorageCapacity
	}
	if c.SpinBudget == 0 {
		c.SpinBudget = shm.DefaultSpinBudget
	}
	return c
}

// allocKey identifies one card's named buffer scope, for the
// diagnostics map used by DumpBufferAllocations.
type allocKey struct {
	slot  uint32
	scope string
}

// Manager is the terminal-side owner of every GPU resource a Card can
// hold: the metadata pool, the storage arena, the texture atlas, and
// the shared bind group rendering reads from. It realizes the
// 3-loop per-frame protocol from spec.md §4.2 and the name<->slot
// registry from §4.2.3.
//
// Ported from include/yetty/card-manager.h + src/yetty/card-manager.cpp,
// generalized from the original's shared_ptr-owned, virtual-dispatch
// card graph to Go's handle-indexed arenas and the static Kind
// capability table in package card.
type Manager struct {
	device hal.Device

	uniformBuffer hal.Buffer
	uniformSize   uint64

	meta       *metadataPool
	metaBuffer hal.Buffer

	storage        *storageArena
	storageBuffer  hal.Buffer
	storageBacking []byte // nil when shmRegion backs storage instead
	shmRegion      *shm.Region
	spinBudget     int

	atlas *atlasManager

	textureBuffer         hal.Buffer
	textureBufferCapacity uint32 // bytes

	reg *registry

	cards     map[uint32]*card.Card
	nextSlot  uint32
	freeSlots []uint32

	allocations map[allocKey]subAllocation

	dummyTexture hal.Texture
	dummyView    hal.TextureView
	dummySampler hal.Sampler

	bgLayout hal.BindGroupLayout
	bg       hal.BindGroup
	bgDirty  bool

	closed bool
}

// New creates a Manager. uniformBuffer is the caller's per-frame
// terminal uniform buffer (projection, cell metrics, ...); Manager
// binds it read-only at binding 0 of the shared card bind group but
// does not own its lifetime.
func New(device hal.Device, uniformBuffer hal.Buffer, uniformSize uint64, cfg Config) (*Manager, error) {
	cfg = cfg.withDefaults()

	m := &Manager{
		device:        device,
		uniformBuffer: uniformBuffer,
		uniformSize:   uniformSize,
		meta:          newMetadataPool(cfg.InitialMetadataCapacity),
		storage:       newStorageArena(cfg.InitialStorageCapacity),
		atlas:         newAtlasManager(device),
		reg:           newRegistry(),
		cards:         make(map[uint32]*card.Card),
		allocations:   make(map[allocKey]subAllocation),
		shmRegion:     cfg.ShmRegion,
		spinBudget:    cfg.SpinBudget,
		nextSlot:      1,
	}
	if m.shmRegion == nil {
		m.storageBacking = make([]byte, cfg.InitialStorageCapacity)
	}

	if err := m.createMetadataBuffer(cfg.InitialMetadataCapacity); err != nil {
		return nil, err
	}
	if err := m.createStorageBuffer(cfg.InitialStorageCapacity); err != nil {
		m.device.DestroyBuffer(m.metaBuffer)
		return nil, err
	}
	if err := m.createDummyAtlasResources(); err != nil {
		return nil, err
	}
	if err := m.createTextureInfoBuffer(initialTextureInfoRecords * textureRecordSize); err != nil {
		return nil, err
	}
	if err := m.createBindGroupLayout(); err != nil {
		return nil, err
	}
	if err := m.rebuildBindGroup(); err != nil {
		return nil, err
	}

	slogger().Info("card manager created",
		"metadata_capacity", cfg.InitialMetadataCapacity,
		"storage_capacity", cfg.InitialStorageCapacity,
		"streaming", m.shmRegion != nil)
	return m, nil
}

func (m *Manager) createMetadataBuffer(size uint32) error {
	buf, err := m.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "yetty_card_metadata",
		Size:  uint64(size),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create metadata buffer", err)
	}
	m.metaBuffer = buf
	return nil
}

func (m *Manager) createStorageBuffer(size uint32) error {
	buf, err := m.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "yetty_card_storage",
		Size:  uint64(size),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create storage buffer", err)
	}
	m.storageBuffer = buf
	return nil
}

// createTextureInfoBuffer (re)creates the texture_buffer binding: a
// read-only storage buffer of packed atlas rectangles, one per live
// texture handle, mirrored from atlasManager.packRecords.
func (m *Manager) createTextureInfoBuffer(size uint32) error {
	buf, err := m.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "yetty_card_texture_info",
		Size:  uint64(size),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create texture info buffer", err)
	}
	m.textureBuffer = buf
	m.textureBufferCapacity = size
	return nil
}

// createDummyAtlasResources builds a 1x1 placeholder texture/view/
// sampler so the shared bind group is always completable, even before
// any texture card exists and atlasManager.createAtlas has run once.
// Ported from CardManager::createDummyAtlasTexture in card-manager.cpp.
func (m *Manager) createDummyAtlasResources() error {
	tex, err := m.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "yetty_card_atlas_dummy",
		Size:          hal.Extent3D{Width: dummyAtlasSize, Height: dummyAtlasSize, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create dummy atlas texture", err)
	}
	view, err := m.device.CreateTextureView(tex, &hal.TextureViewDescriptor{Label: "yetty_card_atlas_dummy_view"})
	if err != nil {
		m.device.DestroyTexture(tex)
		return yerr.Wrap(yerr.OsError, "cardmgr: create dummy atlas view", err)
	}
	sampler, err := m.device.CreateSampler(&hal.SamplerDescriptor{Label: "yetty_card_atlas_dummy_sampler"})
	if err != nil {
		m.device.DestroyTextureView(view)
		m.device.DestroyTexture(tex)
		return yerr.Wrap(yerr.OsError, "cardmgr: create dummy atlas sampler", err)
	}
	m.dummyTexture, m.dummyView, m.dummySampler = tex, view, sampler
	return nil
}

func (m *Manager) createBindGroupLayout() error {
	layout, err := m.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "yetty_card_bind_group_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{SampleType: gputypes.TextureSampleTypeFloat, ViewDimension: gputypes.TextureViewDimension2D}},
			{Binding: 4, Visibility: gputypes.ShaderStageFragment,
				Sampler: &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}},
			{Binding: 5, Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
		},
	})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create bind group layout", err)
	}
	m.bgLayout = layout
	return nil
}

// rebuildBindGroup recreates the shared bind group, picking the real
// atlas texture/view once atlasManager has one and falling back to the
// dummy otherwise. Ported from CardManager::updateBindGroup.
func (m *Manager) rebuildBindGroup() error {
	view := m.dummyView
	sampler := m.dummySampler
	if m.atlas.initialized {
		view = m.atlas.textureView
		sampler = m.atlas.sampler
	}

	bg, err := m.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "yetty_card_bind_group",
		Layout: m.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: m.uniformBuffer.NativeHandle(), Offset: 0, Size: m.uniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: m.metaBuffer.NativeHandle(), Offset: 0, Size: 0}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: m.storageBuffer.NativeHandle(), Offset: 0, Size: 0}},
			{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 4, Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()}},
			{Binding: 5, Resource: gputypes.BufferBinding{Buffer: m.textureBuffer.NativeHandle(), Offset: 0, Size: 0}},
		},
	})
	if err != nil {
		return yerr.Wrap(yerr.OsError, "cardmgr: create bind group", err)
	}
	if m.bg != nil {
		m.device.DestroyBindGroup(m.bg)
	}
	m.bg = bg
	m.bgDirty = false
	return nil
}

// BindGroup returns the shared bind group rendering binds once per
// frame. Stable until the next Flush that rebuilds it.
func (m *Manager) BindGroup() hal.BindGroup { return m.bg }

// ShmRegion returns the shared memory region backing the storage arena,
// or nil if the manager was configured without streaming support.
func (m *Manager) ShmRegion() *shm.Region { return m.shmRegion }

// --- card lifecycle ---

// AddCard assigns the next free slot to c and begins tracking it. The
// caller is responsible for allocating c's metadata handle separately
// (AllocateMetadata) since not every card kind needs the same size
// class immediately.
func (m *Manager) AddCard(c *card.Card) (uint32, error) {
	if m.closed {
		return 0, yerr.Wrap(yerr.Unavailable, "cardmgr: manager is closed", ErrManagerClosed)
	}
	slot, err := m.allocSlot()
	if err != nil {
		return 0, err
	}
	c.SlotIndex = slot
	m.cards[slot] = c
	return slot, nil
}

func (m *Manager) allocSlot() (uint32, error) {
	if n := len(m.freeSlots); n > 0 {
		slot := m.freeSlots[n-1]
		m.freeSlots = m.freeSlots[:n-1]
		return slot, nil
	}
	if m.nextSlot >= card.MaxCardSlots {
		return 0, yerr.Newf(yerr.OutOfSpace, "cardmgr: slot table exhausted at %d cards", card.MaxCardSlots)
	}
	slot := m.nextSlot
	m.nextSlot++
	return slot, nil
}

// RemoveCard releases every resource slot belonging to the card at
// slot (metadata, textures, named buffer allocations, registry entry)
// and returns the slot to the free list.
func (m *Manager) RemoveCard(slot uint32) error {
	c, ok := m.cards[slot]
	if !ok {
		return yerr.Wrap(yerr.NotFound, "cardmgr: remove unknown slot", ErrUnknownSlot)
	}
	if c.Meta.Valid() {
		m.meta.deallocate(c.Meta)
	}
	for _, th := range c.Textures {
		m.atlas.deallocate(th)
	}
	for scope := range c.Buffers {
		delete(m.allocations, allocKey{slot, scope})
	}
	m.reg.unregisterSlot(slot)
	delete(m.cards, slot)
	m.freeSlots = append(m.freeSlots, slot)
	return nil
}

// Card returns the live card at slot, if any.
func (m *Manager) Card(slot uint32) (*card.Card, bool) {
	c, ok := m.cards[slot]
	return c, ok
}

// Cards returns every live card. The returned slice is a snapshot;
// mutating the Manager afterward does not affect it.
func (m *Manager) Cards() []*card.Card {
	out := make([]*card.Card, 0, len(m.cards))
	for _, c := range m.cards {
		out = append(out, c)
	}
	return out
}

// --- name registry (spec.md §4.2.3) ---

// RegisterNamedCard binds name to slot. A collision with an existing
// binding overwrites it and logs a warning rather than failing: OSC
// clients are expected to pick unique names, but a reused name should
// degrade gracefully (last writer wins) instead of rejecting a card.
func (m *Manager) RegisterNamedCard(name string, slot uint32) {
	if name == "" {
		return
	}
	if m.reg.register(name, slot) {
		slogger().Warn("card name collision, overwriting previous binding", "name", name, "slot", slot)
	}
}

// UnregisterNamedCard removes a name binding without affecting the card.
func (m *Manager) UnregisterNamedCard(name string) { m.reg.unregister(name) }

// GetSlotIndexByName resolves a card name to its slot index.
func (m *Manager) GetSlotIndexByName(name string) (uint32, bool) { return m.reg.slotByName(name) }

// GetNameBySlotIndex returns the name bound to slot, or "" if unnamed.
func (m *Manager) GetNameBySlotIndex(slot uint32) string { return m.reg.nameBySlot(slot) }

// --- metadata ---

// AllocateMetadata reserves size bytes of metadata for a card, rounding
// up to the nearest fixed size class.
func (m *Manager) AllocateMetadata(size uint32) (card.MetadataHandle, error) {
	return m.meta.allocate(size)
}

// WriteMetadata copies data into a card's metadata region and marks it
// dirty for upload on the next Flush.
func (m *Manager) WriteMetadata(h card.MetadataHandle, data []byte) error {
	if !h.Valid() {
		return yerr.New(yerr.InvalidArgument, "cardmgr: write to invalid metadata handle")
	}
	if uint32(len(data)) > h.Size {
		return yerr.Newf(yerr.InvalidArgument, "cardmgr: metadata write of %d bytes exceeds handle size %d", len(data), h.Size)
	}
	m.meta.stage(h.Offset, data)
	m.meta.markDirty(h.Offset, uint32(len(data)))
	return nil
}

// --- 3-loop protocol (spec.md §4.2.1) ---

// DeclareBufferNeeds runs Loop 1 over every running buffer-needing
// card, letting each renderer call Reserve with its size.
func (m *Manager) DeclareBufferNeeds() {
	for _, c := range m.cards {
		if c.Running && c.NeedsBuffer() && c.Renderer != nil {
			c.Renderer.DeclareBufferNeeds(c)
		}
	}
}

// Reserve accumulates size bytes into this frame's pending storage
// request. Called by renderers from inside DeclareBufferNeeds.
func (m *Manager) Reserve(size uint32) {
	if m.shmRegion != nil {
		size += shm.HeaderByteSize
	}
	m.storage.reserve(size)
}

// CommitReservations ends Loop 1, growing the storage arena (and its
// GPU buffer, and its shm region if streaming is enabled) if the
// accumulated requests exceeded the current capacity.
func (m *Manager) CommitReservations() error {
	grew, newCap := m.storage.commitReservations()
	if !grew {
		return nil
	}
	if m.shmRegion != nil {
		if int(newCap) > m.shmRegion.Size() {
			if err := m.shmRegion.Grow(int(newCap)); err != nil {
				return yerr.Wrap(yerr.OsError, "cardmgr: grow shm region", err)
			}
		}
	} else {
		grown := make([]byte, newCap)
		copy(grown, m.storageBacking)
		m.storageBacking = grown
	}
	m.device.DestroyBuffer(m.storageBuffer)
	if err := m.createStorageBuffer(newCap); err != nil {
		return err
	}
	m.bgDirty = true
	slogger().Info("storage arena grown", "new_capacity", newCap)
	return nil
}

// AllocateBuffers runs Loop 2 over every running buffer-needing card.
func (m *Manager) AllocateBuffers() error {
	for _, c := range m.cards {
		if c.Running && c.NeedsBuffer() && c.Renderer != nil {
			if err := c.Renderer.AllocateBuffers(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// AllocateTextures runs Loop 2's texture-reservation half over every
// running texture-needing card.
func (m *Manager) AllocateTextures() error {
	for _, c := range m.cards {
		if c.Running && c.NeedsTexture() && c.Renderer != nil {
			if err := c.Renderer.AllocateTextures(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// AllocateBuffer hands a buffer-needing card its sub-allocation for one
// named scope (e.g. "waveform", "cells"). Called by a card's Renderer
// from within AllocateBuffers, after CommitReservations has run. When
// shm streaming is enabled the allocation is framed with a 16-byte
// AllocationHeader; handle.Data points past the header at the payload.
func (m *Manager) AllocateBuffer(slotIndex uint32, scope string, size uint32) (card.BufferHandle, error) {
	if m.closed {
		return card.InvalidBufferHandle, yerr.Wrap(yerr.Unavailable, "cardmgr: manager is closed", ErrManagerClosed)
	}
	framed := m.shmRegion != nil
	allocSize := size
	if framed {
		allocSize += shm.HeaderByteSize
	}
	off, err := m.storage.allocate(allocSize)
	if err != nil {
		return card.InvalidBufferHandle, err
	}

	payloadOff := off
	var data []byte
	if framed {
		payloadOff += shm.HeaderByteSize
		hdr := shm.HeaderAt(m.shmRegion.Data(), off)
		hdr.SetSize(size)
		data = m.shmRegion.Data()[payloadOff : payloadOff+size]
	} else {
		data = m.storageBacking[payloadOff : payloadOff+size]
	}

	handle := card.BufferHandle{Data: data, Offset: off, Size: size}
	m.allocations[allocKey{slotIndex, scope}] = subAllocation{SlotIndex: slotIndex, Scope: scope, Offset: off, Size: size}
	if c, ok := m.cards[slotIndex]; ok {
		if c.Buffers == nil {
			c.Buffers = make(map[string]card.BufferHandle)
		}
		c.Buffers[scope] = handle
	}
	return handle, nil
}

// MarkBufferDirty records that bytes [offset, offset+size) of the
// storage arena changed and need uploading on the next Flush. For a
// framed (shm-backed) allocation, offset/size should address the
// payload, not the header.
func (m *Manager) MarkBufferDirty(offset, size uint32) { m.storage.markDirty(offset, size) }

// AllocateTexture reserves an atlas slot for a texture-needing card.
// The handle becomes paintable at an AtlasPosition only after the next
// TextureAtlasPack.
func (m *Manager) AllocateTexture(width, height uint32) (card.TextureHandle, error) {
	return m.atlas.allocate(width, height)
}

// WriteTexture stages RGBA8 pixels for a texture handle, uploaded to
// the GPU atlas on the next Flush. Must be called after a pack has
// assigned the handle a position (i.e. after TextureAtlasPack).
func (m *Manager) WriteTexture(h card.TextureHandle, pixels []byte) error {
	return m.atlas.write(h, pixels)
}

// AtlasPosition returns the most recently packed position of h.
func (m *Manager) AtlasPosition(h card.TextureHandle) card.AtlasPosition { return m.atlas.atlasPosition(h) }

// TextureAtlasPack runs Loop 3: it repacks every live texture handle on
// each call, without checking whether anything changed since the last
// pack, and marks the bind group dirty whenever the atlas texture is
// created or recreated at a new size.
func (m *Manager) TextureAtlasPack() error {
	beforeInit, beforeSize := m.atlas.initialized, m.atlas.size
	if err := m.atlas.createAtlas(); err != nil {
		return err
	}
	if m.atlas.initialized && (!beforeInit || m.atlas.size != beforeSize) {
		m.bgDirty = true
	}
	return nil
}

// --- per-frame flush ---

// Flush uploads every dirty metadata/storage/atlas range to the GPU and
// rebuilds the shared bind group if it's stale. Ordering follows
// CardManager::flush in card-manager.cpp: pack atlas, upload atlas,
// rebuild bind group, then flush buffers and metadata.
func (m *Manager) Flush(queue hal.Queue) error {
	if err := m.TextureAtlasPack(); err != nil {
		return err
	}
	if err := m.atlas.uploadAtlas(queue); err != nil {
		return err
	}
	if err := m.flushTextureInfo(queue); err != nil {
		return err
	}
	if m.bgDirty {
		if err := m.rebuildBindGroup(); err != nil {
			return err
		}
	}
	if err := m.flushStorage(queue); err != nil {
		return err
	}
	m.flushMetadata(queue)
	return nil
}

// flushTextureInfo rewrites the texture_buffer binding from the atlas's
// current packed rectangles, growing the buffer (doubling) first if the
// live handle count has outgrown it.
func (m *Manager) flushTextureInfo(queue hal.Queue) error {
	records := m.atlas.packRecords()
	if len(records) == 0 {
		return nil
	}
	if uint32(len(records)) > m.textureBufferCapacity {
		newCap := m.textureBufferCapacity
		if newCap == 0 {
			newCap = initialTextureInfoRecords * textureRecordSize
		}
		for newCap < uint32(len(records)) {
			newCap *= 2
		}
		m.device.DestroyBuffer(m.textureBuffer)
		if err := m.createTextureInfoBuffer(newCap); err != nil {
			return err
		}
		m.bgDirty = true
	}
	queue.WriteBuffer(m.textureBuffer, 0, records)
	return nil
}

// flushStorage uploads the arena's dirty byte range. When backed by
// shm, each framed allocation overlapping the dirty range is
// seqlock-read (BeginRead/EndRead) so a concurrently writing streaming
// client cannot tear a read; an allocation whose writer is stuck past
// the spin budget is skipped for this frame rather than blocking.
func (m *Manager) flushStorage(queue hal.Queue) error {
	offset, size, ok := m.storage.takeDirtyRange()
	if !ok {
		return nil
	}
	if m.shmRegion == nil {
		queue.WriteBuffer(m.storageBuffer, uint64(offset), m.storageBacking[offset:offset+size])
		return nil
	}

	region := m.shmRegion.Data()
	for key, sub := range m.allocations {
		_ = key
		if sub.Offset+sub.Size <= offset || sub.Offset >= offset+size {
			continue
		}
		hdr := shm.HeaderAt(region, sub.Offset)
		guard, ok := shm.BeginRead(hdr, m.spinBudget)
		if !ok {
			slogger().Warn("skipped stuck buffer allocation this frame", "slot", sub.SlotIndex, "scope", sub.Scope)
			continue
		}
		payloadOff := sub.Offset + shm.HeaderByteSize
		queue.WriteBuffer(m.storageBuffer, uint64(payloadOff), region[payloadOff:payloadOff+sub.Size])
		guard.EndRead()
	}
	return nil
}

func (m *Manager) flushMetadata(queue hal.Queue) {
	offset, size, ok := m.meta.takeDirtyRange()
	if !ok {
		return
	}
	queue.WriteBuffer(m.metaBuffer, uint64(offset), m.meta.read(offset, size))
}

// --- diagnostics (spec.md §4.5) ---

// Stats summarizes current pool/arena/atlas occupancy.
type Stats struct {
	MetadataUsed     uint32
	MetadataCapacity uint32
	BufferCapacity   uint32
	PendingUploads   bool
	AtlasCards       int
	AtlasWidth       int
	AtlasHeight      int
	AtlasUsedPixels  int
	LiveCards        int
}

func (m *Manager) Stats() Stats {
	atlasCards, atlasW, atlasH, atlasUsed := m.atlas.stats()
	return Stats{
		MetadataUsed:     m.meta.usedBytes(),
		MetadataCapacity: m.meta.capacity,
		BufferCapacity:   m.storage.capacity,
		PendingUploads:   m.storage.hasDirty || m.meta.hasDirty,
		AtlasCards:       atlasCards,
		AtlasWidth:       atlasW,
		AtlasHeight:      atlasH,
		AtlasUsedPixels:  atlasUsed,
		LiveCards:        len(m.cards),
	}
}

// BufferAllocation is one entry of DumpBufferAllocations, naming a
// card's named buffer scope and where it lives in the storage arena.
type BufferAllocation struct {
	SlotIndex uint32
	CardName  string
	Scope     string
	Offset    uint32
	Size      uint32
}

// DumpBufferAllocations lists every live named buffer allocation,
// sorted by offset, for the buffers_list RPC method behind "yettyc buffers".
func (m *Manager) DumpBufferAllocations() []BufferAllocation {
	out := make([]BufferAllocation, 0, len(m.allocations))
	for key, sub := range m.allocations {
		out = append(out, BufferAllocation{
			SlotIndex: sub.SlotIndex,
			CardName:  m.reg.nameBySlot(key.slot),
			Scope:     sub.Scope,
			Offset:    sub.Offset,
			Size:      sub.Size,
		})
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Offset < out[j-1].Offset; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Close releases every GPU resource the manager owns. The caller's
// uniform buffer and (if provided) shm region are not touched.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	m.closed = true
	if m.bg != nil {
		m.device.DestroyBindGroup(m.bg)
	}
	m.device.DestroyBindGroupLayout(m.bgLayout)
	m.device.DestroyBuffer(m.metaBuffer)
	m.device.DestroyBuffer(m.storageBuffer)
	m.device.DestroyBuffer(m.textureBuffer)
	m.device.DestroyTextureView(m.dummyView)
	m.device.DestroyTexture(m.dummyTexture)
	m.device.DestroySampler(m.dummySampler)
	m.atlas.close()
	return nil
}
