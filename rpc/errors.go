package rpc

import "errors"

var (
	ErrMalformedFrame  = errors.New("rpc: malformed frame")
	ErrUnknownMethod   = errors.New("rpc: unknown method")
	ErrUnknownChannel  = errors.New("rpc: unknown channel")
	ErrStreamNotFound  = errors.New("rpc: stream not found")
	ErrCardNotFound    = errors.New("rpc: card not found")
	ErrAlreadyStreaming = errors.New("rpc: card already streaming")
)
