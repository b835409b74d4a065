package rpc

import (
	"fmt"

	"github.com/zokrezyl/yetty/cardmgr"
)

// RegisterCardStreamHandlers wires the CardStream channel's buffer
// streaming negotiation directly to a cardmgr.Manager and its
// (optional) shared memory region.
//
// Methods:
//   - stream_connect: {} -> {data_shm, data_size}
//   - stream_get_buffer: {name | slot_index, scope} -> {offset, size}
//     (size=0 for a known card whose scope has not yet been allocated;
//     an error only for a card that cannot be resolved at all)
//   - stream_mark_dirty: {name, scope} -> {}
//   - stream_disconnect: {} -> {}
//   - buffers_list: {} -> [{slot_index, card, name, offset, size}, ...]
//   - cards_list: {} -> [{slot_index, name, type}, ...]
func RegisterCardStreamHandlers(server *Server, mgr *cardmgr.Manager) {
	server.RegisterRequest(CardStream, "stream_connect", func(map[string]any) (any, error) {
		region := mgr.ShmRegion()
		if region == nil {
			return nil, fmt.Errorf("streaming not enabled: manager has no shared memory region")
		}
		return map[string]any{
			"data_shm":  region.Name(),
			"data_size": uint64(region.Size()),
		}, nil
	})

	server.RegisterRequest(CardStream, "stream_get_buffer", func(params map[string]any) (any, error) {
		slot, ok := resolveSlot(mgr, params)
		if !ok {
			return nil, fmt.Errorf("no card registered under name %q", paramString(params, "name"))
		}
		c, ok := mgr.Card(slot)
		if !ok {
			return nil, fmt.Errorf("no card at slot %d", slot)
		}
		scope := paramString(params, "scope")
		handle, allocated := c.Buffers[scope]
		if !allocated || !handle.Valid() {
			// The card exists but Loop 2 hasn't run AllocateBuffer for
			// this scope yet (e.g. right after stream_connect, before
			// the card's first frame) — advisory zero, not an error.
			return map[string]any{"offset": uint32(0), "size": uint32(0)}, nil
		}
		return map[string]any{
			"offset": handle.Offset,
			"size":   handle.Size,
		}, nil
	})

	server.RegisterRequest(CardStream, "stream_mark_dirty", func(params map[string]any) (any, error) {
		name := paramString(params, "name")
		scope := paramString(params, "scope")
		slot, ok := mgr.GetSlotIndexByName(name)
		if !ok {
			return nil, fmt.Errorf("no card registered under name %q", name)
		}
		c, ok := mgr.Card(slot)
		if !ok {
			return nil, fmt.Errorf("card %q has no live slot", name)
		}
		handle, ok := c.Buffers[scope]
		if !ok || !handle.Valid() {
			return nil, fmt.Errorf("card %q has no buffer scope %q", name, scope)
		}
		mgr.MarkBufferDirty(handle.Offset, handle.Size)
		return map[string]any{}, nil
	})

	server.RegisterRequest(CardStream, "stream_disconnect", func(map[string]any) (any, error) {
		return map[string]any{}, nil
	})

	server.RegisterRequest(CardStream, "buffers_list", func(map[string]any) (any, error) {
		allocations := mgr.DumpBufferAllocations()
		out := make([]map[string]any, 0, len(allocations))
		for _, a := range allocations {
			out = append(out, map[string]any{
				"slot_index": a.SlotIndex,
				"card":       a.CardName,
				"name":       a.Scope,
				"offset":     a.Offset,
				"size":       a.Size,
			})
		}
		return out, nil
	})

	server.RegisterRequest(CardStream, "cards_list", func(map[string]any) (any, error) {
		cards := mgr.Cards()
		out := make([]map[string]any, 0, len(cards))
		for _, c := range cards {
			out = append(out, map[string]any{
				"slot_index": c.SlotIndex,
				"name":       mgr.GetNameBySlotIndex(c.SlotIndex),
				"type":       c.Kind.String(),
			})
		}
		return out, nil
	})
}

// resolveSlot resolves a CardStream request's card target: by registered
// name if params carries a non-empty "name", otherwise directly by
// "slot_index". ok is false only when a "name" was given but isn't
// registered; an absent-and-zero slot_index is treated as slot 0, same as
// every other coerced param in this package.
func resolveSlot(mgr *cardmgr.Manager, params map[string]any) (uint32, bool) {
	if name := paramString(params, "name"); name != "" {
		return mgr.GetSlotIndexByName(name)
	}
	return uint32(paramUint64(params, "slot_index")), true
}
