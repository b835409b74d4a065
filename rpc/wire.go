// Package rpc implements the terminal's per-process Unix-domain-socket
// endpoint: a msgpack-rpc wire format extended with a channel tag, an
// EventLoop channel for synthesized input, and a CardStream channel for
// zero-copy buffer streaming.
//
// Ported from the terminal's embedded RPC loop (spec.md §4.4, §5); no
// single original_source file owns this wholesale the way card-manager.cpp
// owns cardmgr, so the wire framing follows spec.md directly and the
// server loop follows gogpu-gg's single-goroutine-driven resource-manager
// idiom (internal/gpu's device/queue ownership model) generalized to a
// poll-driven connection loop.
package rpc

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Channel tags which subsystem handles a message.
type Channel uint32

const (
	// EventLoop carries synthesized user input and workspace queries.
	EventLoop Channel = 0
	// CardStream carries streaming-buffer negotiation and diagnostics.
	CardStream Channel = 1
)

func (c Channel) String() string {
	switch c {
	case EventLoop:
		return "EventLoop"
	case CardStream:
		return "CardStream"
	default:
		return fmt.Sprintf("Channel(%d)", uint32(c))
	}
}

// Frame type tags, the first element of every wire array.
const (
	typeRequest      = 0
	typeResponse     = 1
	typeNotification = 2
)

// Request is a client call expecting a Response: [0, msgid, channel, method, params].
type Request struct {
	MsgID   uint32
	Channel Channel
	Method  string
	Params  map[string]any
}

// Response answers a Request: [1, msgid, error, result]. Exactly one of
// Err/Result is non-nil.
type Response struct {
	MsgID  uint32
	Err    string // empty means success
	Result any
}

// Notification is a fire-and-forget message: [2, channel, method, params].
type Notification struct {
	Channel Channel
	Method  string
	Params  map[string]any
}

// DecodeFrame parses one msgpack-encoded wire frame, returning exactly
// one of (*Request, *Response, *Notification) populated.
func DecodeFrame(data []byte) (*Request, *Response, *Notification, error) {
	var raw []msgpack.RawMessage
	if err := msgpack.Unmarshal(data, &raw); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if len(raw) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: empty frame", ErrMalformedFrame)
	}

	var frameType int
	if err := msgpack.Unmarshal(raw[0], &frameType); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: non-integer frame type", ErrMalformedFrame)
	}

	switch frameType {
	case typeRequest:
		if len(raw) != 5 {
			return nil, nil, nil, fmt.Errorf("%w: request needs 5 elements, got %d", ErrMalformedFrame, len(raw))
		}
		req, err := decodeRequest(raw)
		return req, nil, nil, err
	case typeResponse:
		if len(raw) != 4 {
			return nil, nil, nil, fmt.Errorf("%w: response needs 4 elements, got %d", ErrMalformedFrame, len(raw))
		}
		resp, err := decodeResponse(raw)
		return nil, resp, nil, err
	case typeNotification:
		if len(raw) != 4 {
			return nil, nil, nil, fmt.Errorf("%w: notification needs 4 elements, got %d", ErrMalformedFrame, len(raw))
		}
		note, err := decodeNotification(raw)
		return nil, nil, note, err
	default:
		return nil, nil, nil, fmt.Errorf("%w: unknown frame type %d", ErrMalformedFrame, frameType)
	}
}

func decodeRequest(raw []msgpack.RawMessage) (*Request, error) {
	var msgID uint32
	var channel uint32
	var method string
	var params map[string]any
	if err := msgpack.Unmarshal(raw[1], &msgID); err != nil {
		return nil, fmt.Errorf("%w: msgid: %v", ErrMalformedFrame, err)
	}
	if err := msgpack.Unmarshal(raw[2], &channel); err != nil {
		return nil, fmt.Errorf("%w: channel: %v", ErrMalformedFrame, err)
	}
	if err := msgpack.Unmarshal(raw[3], &method); err != nil {
		return nil, fmt.Errorf("%w: method: %v", ErrMalformedFrame, err)
	}
	if err := msgpack.Unmarshal(raw[4], &params); err != nil {
		params = nil
	}
	return &Request{MsgID: msgID, Channel: Channel(channel), Method: method, Params: params}, nil
}

func decodeResponse(raw []msgpack.RawMessage) (*Response, error) {
	var msgID uint32
	var errStr string
	var result any
	if err := msgpack.Unmarshal(raw[1], &msgID); err != nil {
		return nil, fmt.Errorf("%w: msgid: %v", ErrMalformedFrame, err)
	}
	_ = msgpack.Unmarshal(raw[2], &errStr)
	_ = msgpack.Unmarshal(raw[3], &result)
	return &Response{MsgID: msgID, Err: errStr, Result: result}, nil
}

func decodeNotification(raw []msgpack.RawMessage) (*Notification, error) {
	var channel uint32
	var method string
	var params map[string]any
	if err := msgpack.Unmarshal(raw[1], &channel); err != nil {
		return nil, fmt.Errorf("%w: channel: %v", ErrMalformedFrame, err)
	}
	if err := msgpack.Unmarshal(raw[2], &method); err != nil {
		return nil, fmt.Errorf("%w: method: %v", ErrMalformedFrame, err)
	}
	if err := msgpack.Unmarshal(raw[3], &params); err != nil {
		params = nil
	}
	return &Notification{Channel: Channel(channel), Method: method, Params: params}, nil
}

// EncodeRequest serializes a request frame.
func EncodeRequest(msgID uint32, channel Channel, method string, params map[string]any) ([]byte, error) {
	return msgpack.Marshal([]any{typeRequest, msgID, uint32(channel), method, params})
}

// EncodeResponse serializes a response frame. Exactly one of errMsg/result
// should be non-empty/non-nil.
func EncodeResponse(msgID uint32, errMsg string, result any) ([]byte, error) {
	var errField any
	if errMsg != "" {
		errField = errMsg
	}
	return msgpack.Marshal([]any{typeResponse, msgID, errField, result})
}

// EncodeNotification serializes a notification frame.
func EncodeNotification(channel Channel, method string, params map[string]any) ([]byte, error) {
	return msgpack.Marshal([]any{typeNotification, uint32(channel), method, params})
}
