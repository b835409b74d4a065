package card

// Kind discriminates the card variants the terminal hosts. It models the
// sum type with a closed enum plus a static capability table: dispatch
// on per-frame operations switches on this discriminant rather than
// going through virtual dispatch.
type Kind int

const (
	KindUnknown Kind = iota
	KindTexture
	KindPlot
	KindHDraw
	KindYDraw
	KindQR
	KindYText
	KindPython
	KindMarkdown
	KindYPdf
	KindYGrid
)

// String returns the OSC-facing type name used in "-c TYPE", "ls", and
// "cards" output.
func (k Kind) String() string {
	switch k {
	case KindTexture:
		return "texture"
	case KindPlot:
		return "plot"
	case KindHDraw:
		return "hdraw"
	case KindYDraw:
		return "ydraw"
	case KindQR:
		return "qr"
	case KindYText:
		return "ytext"
	case KindPython:
		return "python"
	case KindMarkdown:
		return "markdown"
	case KindYPdf:
		return "ypdf"
	case KindYGrid:
		return "ygrid"
	default:
		return "unknown"
	}
}

// ParseKind maps an OSC "-c TYPE" string to a Kind. Unregistered type
// names (anything not in the static capability table) return
// (KindUnknown, false).
func ParseKind(name string) (Kind, bool) {
	for _, k := range allKinds {
		if k.String() == name {
			return k, true
		}
	}
	return KindUnknown, false
}

var allKinds = []Kind{
	KindTexture, KindPlot, KindHDraw, KindYDraw, KindQR,
	KindYText, KindPython, KindMarkdown, KindYPdf, KindYGrid,
}

// AllKinds returns every registered card kind, in a stable order (used by
// the OSC "cards" command).
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Capability declares the static resource needs of a card kind. Every
// instance of a kind shares the same capability set; there is no
// per-instance override.
type Capability struct {
	NeedsBuffer  bool
	NeedsTexture bool
}

var capabilities = map[Kind]Capability{
	KindTexture:  {NeedsTexture: true},
	KindPlot:     {NeedsBuffer: true},
	KindHDraw:    {NeedsBuffer: true},
	KindYDraw:    {NeedsBuffer: true},
	KindQR:       {NeedsTexture: true},
	KindYText:    {NeedsBuffer: true},
	KindPython:   {NeedsBuffer: true, NeedsTexture: true},
	KindMarkdown: {NeedsBuffer: true},
	KindYPdf:     {NeedsTexture: true},
	KindYGrid:    {NeedsBuffer: true},
}

// Capabilities returns the static capability table entry for a kind.
func Capabilities(k Kind) Capability { return capabilities[k] }
