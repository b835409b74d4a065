package rpc

import "testing"

type recordingSink struct {
	calls []string
}

func (s *recordingSink) KeyDown(key, mods, scancode int)   { s.calls = append(s.calls, "key_down") }
func (s *recordingSink) KeyUp(key, mods, scancode int)     { s.calls = append(s.calls, "key_up") }
func (s *recordingSink) CharInput(codepoint uint32, mods int) { s.calls = append(s.calls, "char") }
func (s *recordingSink) MouseDown(x, y float64, button int) { s.calls = append(s.calls, "mouse_down") }
func (s *recordingSink) MouseUp(x, y float64, button int)   { s.calls = append(s.calls, "mouse_up") }
func (s *recordingSink) MouseMove(x, y float64)             { s.calls = append(s.calls, "mouse_move") }
func (s *recordingSink) MouseDrag(x, y float64, button int) { s.calls = append(s.calls, "mouse_drag") }
func (s *recordingSink) Scroll(x, y, dx, dy float64, mods int) {
	s.calls = append(s.calls, "scroll")
}
func (s *recordingSink) SetFocus(objectID uint64) { s.calls = append(s.calls, "set_focus") }
func (s *recordingSink) Resize(width, height float64) {
	s.calls = append(s.calls, "resize")
}
func (s *recordingSink) ContextMenuAction(objectID uint64, action string, row, col int) {
	s.calls = append(s.calls, "context_menu_action")
}
func (s *recordingSink) CardMouseDown(targetID uint64, x, y float64, button int) {
	s.calls = append(s.calls, "card_mouse_down")
}
func (s *recordingSink) CardMouseUp(targetID uint64, x, y float64, button int) {
	s.calls = append(s.calls, "card_mouse_up")
}
func (s *recordingSink) CardMouseMove(targetID uint64, x, y float64) {
	s.calls = append(s.calls, "card_mouse_move")
}
func (s *recordingSink) CardScroll(targetID uint64, x, y, dx, dy float64) {
	s.calls = append(s.calls, "card_scroll")
}
func (s *recordingSink) Close(objectID uint64)               { s.calls = append(s.calls, "close") }
func (s *recordingSink) Split(objectID uint64, orientation int) { s.calls = append(s.calls, "split") }
func (s *recordingSink) UITree() string                      { return "root" }

func TestRegisterEventLoopHandlersWiresAllMethods(t *testing.T) {
	s, _ := newTestServer(t)
	sink := &recordingSink{}
	RegisterEventLoopHandlers(s, sink)

	notifyMethods := []string{
		"key_down", "key_up", "char", "mouse_down", "mouse_up", "mouse_move",
		"mouse_drag", "scroll", "set_focus", "resize", "context_menu_action",
		"card_mouse_down", "card_mouse_up", "card_mouse_move", "card_scroll",
		"close", "split",
	}
	for _, m := range notifyMethods {
		h, ok := s.notifies[handlerKey{EventLoop, m}]
		if !ok {
			t.Fatalf("method %q was not registered", m)
		}
		h(map[string]any{})
	}
	if len(sink.calls) != len(notifyMethods) {
		t.Fatalf("got %d calls, want %d: %v", len(sink.calls), len(notifyMethods), sink.calls)
	}

	reqH, ok := s.requests[handlerKey{EventLoop, "ui_tree"}]
	if !ok {
		t.Fatalf("ui_tree was not registered as a request")
	}
	result, err := reqH(map[string]any{})
	if err != nil || result != "root" {
		t.Fatalf("ui_tree = %v, %v", result, err)
	}
}

func TestParamHelpersCoerceMsgpackTypes(t *testing.T) {
	p := map[string]any{
		"x":   float64(1.5),
		"key": int64(65),
		"id":  uint64(42),
		"s":   "hi",
	}
	if paramFloat(p, "x") != 1.5 {
		t.Fatalf("paramFloat mismatch")
	}
	if paramInt(p, "key") != 65 {
		t.Fatalf("paramInt mismatch")
	}
	if paramUint64(p, "id") != 42 {
		t.Fatalf("paramUint64 mismatch")
	}
	if paramString(p, "s") != "hi" {
		t.Fatalf("paramString mismatch")
	}
	if paramFloat(p, "missing") != 0 {
		t.Fatalf("paramFloat default mismatch")
	}
}
