package cardmgr

import "errors"

// Sentinel errors for cardmgr, each tagged with a yerr.Kind at the point
// they're returned (see yerr.Wrap call sites in this package).
var (
	// ErrOutOfSpace is returned when a buffer allocation overruns the
	// committed reservation for the current frame.
	ErrOutOfSpace = errors.New("cardmgr: allocation exceeds committed reservation")

	// ErrTooLarge is returned when a texture allocation exceeds the
	// maximum atlas dimension.
	ErrTooLarge = errors.New("cardmgr: texture exceeds maximum atlas size")

	// ErrManagerClosed is returned when operating on a disposed manager.
	ErrManagerClosed = errors.New("cardmgr: manager is closed")

	// ErrUnknownSlot is returned when a slot index has no live card.
	ErrUnknownSlot = errors.New("cardmgr: unknown slot index")

	// ErrInvalidMetadataSize is returned for a metadata allocation request
	// above the largest pool class.
	ErrInvalidMetadataSize = errors.New("cardmgr: metadata size exceeds largest pool class")
)
