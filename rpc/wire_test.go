package rpc

import "testing"

func TestEncodeDecodeRequestRoundTrip(t *testing.T) {
	data, err := EncodeRequest(7, EventLoop, "key_down", map[string]any{"key": int64(65)})
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	req, resp, note, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if resp != nil || note != nil {
		t.Fatalf("expected only a request, got resp=%v note=%v", resp, note)
	}
	if req.MsgID != 7 || req.Channel != EventLoop || req.Method != "key_down" {
		t.Fatalf("request = %+v", req)
	}
}

func TestEncodeDecodeResponseRoundTrip(t *testing.T) {
	data, err := EncodeResponse(3, "", map[string]any{"ok": true})
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	req, resp, note, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if req != nil || note != nil {
		t.Fatalf("expected only a response")
	}
	if resp.MsgID != 3 || resp.Err != "" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestEncodeDecodeErrorResponse(t *testing.T) {
	data, err := EncodeResponse(3, "unknown method: bogus", nil)
	if err != nil {
		t.Fatalf("EncodeResponse: %v", err)
	}
	_, resp, _, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if resp.Err != "unknown method: bogus" {
		t.Fatalf("response err = %q", resp.Err)
	}
}

func TestEncodeDecodeNotificationRoundTrip(t *testing.T) {
	data, err := EncodeNotification(CardStream, "stream_mark_dirty", map[string]any{"offset": uint64(16), "size": uint64(32)})
	if err != nil {
		t.Fatalf("EncodeNotification: %v", err)
	}
	req, resp, note, err := DecodeFrame(data)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	if req != nil || resp != nil {
		t.Fatalf("expected only a notification")
	}
	if note.Channel != CardStream || note.Method != "stream_mark_dirty" {
		t.Fatalf("notification = %+v", note)
	}
}

func TestDecodeFrameRejectsMalformedInput(t *testing.T) {
	if _, _, _, err := DecodeFrame([]byte{0xff}); err == nil {
		t.Fatalf("expected error for malformed frame")
	}
}

func TestChannelString(t *testing.T) {
	if EventLoop.String() != "EventLoop" {
		t.Fatalf("EventLoop.String() = %q", EventLoop.String())
	}
	if CardStream.String() != "CardStream" {
		t.Fatalf("CardStream.String() = %q", CardStream.String())
	}
}
