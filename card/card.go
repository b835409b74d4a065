// Package card defines the data model for terminal-hosted card widgets:
// their identity, position, resource handles, and lifecycle state. It
// does not render anything — per-variant rendering (plot math, PDF
// decode, vector drawing, ...) is an out-of-scope collaborator that
// plugs in through the Renderer interface.
package card

import "fmt"

// cardGlyphBase is the smallest codepoint the grid's glyph field can
// carry that denotes a card rather than a font glyph; the terminal's
// font path must never attempt to rasterize a codepoint at or above it.
const cardGlyphBase = 0x100000

// MaxCardSlots bounds the number of unique card slots tracked per
// terminal.
const MaxCardSlots = 16384

// GlyphFor encodes a card's slot index into the grid-cell glyph
// codepoint convention. The terminal's font path must never render a
// codepoint >= cardGlyphBase.
func GlyphFor(slot uint32) uint32 {
	return cardGlyphBase + slot
}

// SlotFromGlyph decodes a card glyph codepoint back to its slot index.
// ok is false if the codepoint does not denote a card.
func SlotFromGlyph(glyph uint32) (slot uint32, ok bool) {
	if glyph < cardGlyphBase {
		return 0, false
	}
	return glyph - cardGlyphBase, true
}

// Renderer is implemented by each out-of-scope card variant (plot math,
// PDF decode, ThorVG vector drawing, Python embedding, ...). The card
// subsystem only calls these hooks at the points the 3-loop protocol and
// input dispatch define; it never inspects a variant's internal state.
type Renderer interface {
	// DeclareBufferNeeds runs in Loop 1. Buffer-needing renderers must
	// call Manager.Reserve with their total byte requirement here.
	DeclareBufferNeeds(c *Card)
	// AllocateBuffers / AllocateTextures run in Loop 2, after
	// reservations have committed; handles obtained here are stable
	// until the next Loop 1.
	AllocateBuffers(c *Card) error
	AllocateTextures(c *Card) error
	// Render runs once per visible frame after Loop 2/3 complete.
	Render(c *Card, time float64) error
	// Dispose releases any renderer-private state. Card-owned handles
	// are released by the manager, not here.
	Dispose(c *Card) error
}

// Card is a polymorphic entity hosted by the terminal: a stable numeric
// identity (SlotIndex), an optional user-chosen Name, a grid position and
// size, and the resource handles its Kind's capabilities entitle it to.
//
// Card never owns a Manager reference directly: it holds handles into
// arenas the manager outlives, and code operating on a Card always
// receives the owning manager as an explicit parameter.
type Card struct {
	ID         string // 8-char OSC-assigned id
	SlotIndex  uint32
	Name       string // "" if unnamed
	Kind       Kind
	X, Y       int32
	Width      uint32 // cells; 0 means "stretch to edge"
	Height     uint32 // cells; 0 means "stretch to edge"
	Running    bool
	Meta       MetadataHandle
	Buffers    map[string]BufferHandle
	Textures   []TextureHandle
	Renderer   Renderer
	ScreenOriginX float32
	ScreenOriginY float32
}

// NeedsBuffer reports the static capability of the card's kind.
func (c *Card) NeedsBuffer() bool { return Capabilities(c.Kind).NeedsBuffer }

// NeedsTexture reports the static capability of the card's kind.
func (c *Card) NeedsTexture() bool { return Capabilities(c.Kind).NeedsTexture }

// Glyph returns the grid-cell glyph codepoint that addresses this card.
func (c *Card) Glyph() uint32 { return GlyphFor(c.SlotIndex) }

// TypeName returns the OSC-facing type string ("plot", "qr", ...).
func (c *Card) TypeName() string { return c.Kind.String() }

func (c *Card) String() string {
	name := c.Name
	if name == "" {
		name = "-"
	}
	return fmt.Sprintf("Card{id=%s slot=%d kind=%s name=%s pos=(%d,%d) size=%dx%d running=%t}",
		c.ID, c.SlotIndex, c.Kind, name, c.X, c.Y, c.Width, c.Height, c.Running)
}
