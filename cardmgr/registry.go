package cardmgr

// registry is the name <-> slotIndex bijection described in spec.md
// §4.2.3. It is consulted by the streaming RPC to translate
// user-friendly names to slot indices, and by the OSC dispatcher to
// target cards by --name.
type registry struct {
	nameToSlot map[string]uint32
	slotToName map[uint32]string
}

func newRegistry() *registry {
	return &registry{
		nameToSlot: make(map[string]uint32),
		slotToName: make(map[uint32]string),
	}
}

// register binds name to slot. A name collision, a slot collision, or
// both overwrite the prior binding(s) so the map stays a bijection; the
// caller is expected to log a warning on collided (done by
// Manager.RegisterNamedCard, which has the slogger).
func (r *registry) register(name string, slot uint32) (collided bool) {
	if prevSlot, ok := r.nameToSlot[name]; ok {
		delete(r.slotToName, prevSlot)
		collided = true
	}
	if prevName, ok := r.slotToName[slot]; ok {
		delete(r.nameToSlot, prevName)
		collided = true
	}
	r.nameToSlot[name] = slot
	r.slotToName[slot] = name
	return collided
}

func (r *registry) unregister(name string) {
	if slot, ok := r.nameToSlot[name]; ok {
		delete(r.nameToSlot, name)
		delete(r.slotToName, slot)
	}
}

// unregisterSlot removes whatever name (if any) currently points at
// slot. Called on card disposal so the registry stays bijective with
// the live card set (spec.md §3 invariant) even when the caller only
// knows the slot, not the name.
func (r *registry) unregisterSlot(slot uint32) {
	if name, ok := r.slotToName[slot]; ok {
		delete(r.nameToSlot, name)
		delete(r.slotToName, slot)
	}
}

func (r *registry) slotByName(name string) (uint32, bool) {
	slot, ok := r.nameToSlot[name]
	return slot, ok
}

func (r *registry) nameBySlot(slot uint32) string {
	return r.slotToName[slot]
}

func (r *registry) len() int { return len(r.nameToSlot) }
