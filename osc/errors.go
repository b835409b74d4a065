package osc

import "errors"

// Sentinel errors for osc. They carry no yerr.Kind; call sites wrap them
// with fmt.Errorf and %w.
var (
	// ErrUnknownVendor is returned when a sequence's vendor id isn't
	// VendorID.
	ErrUnknownVendor = errors.New("osc: unknown vendor id")

	// ErrMalformedSequence is returned for a sequence with fewer than
	// the minimum vendor+command fields.
	ErrMalformedSequence = errors.New("osc: malformed sequence")

	// ErrEmptyCommand is returned when the generic-args field tokenizes
	// to nothing.
	ErrEmptyCommand = errors.New("osc: empty command")

	// ErrUnknownCommand is returned for an unrecognized command word.
	ErrUnknownCommand = errors.New("osc: unknown command")

	// ErrMissingFlagValue is returned when a flag expecting a value is
	// the last token, or when an integer flag's value is not an integer.
	ErrMissingFlagValue = errors.New("osc: missing flag value")

	// ErrUnknownFlag is returned for a flag a command doesn't recognize.
	ErrUnknownFlag = errors.New("osc: unknown flag")

	// ErrMissingRequiredFlag is returned when a command's required flag
	// (e.g. run's --card) is absent.
	ErrMissingRequiredFlag = errors.New("osc: missing required flag")

	// ErrNoTarget is returned when kill/stop/start/update get neither
	// --id/--name nor --card.
	ErrNoTarget = errors.New("osc: no target specified")

	// ErrUnknownCardType is returned when a card type name is not
	// recognized (by the factory or by card.ParseKind).
	ErrUnknownCardType = errors.New("osc: unknown card type")
)
