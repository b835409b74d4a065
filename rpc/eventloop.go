package rpc

// EventSink receives synthesized input and workspace queries dispatched
// over the EventLoop channel. The terminal's synchronous event pipeline
// (window, vterm, layout tree) is an out-of-scope collaborator; this
// interface is its wire-protocol-facing seam.
type EventSink interface {
	KeyDown(key, mods, scancode int)
	KeyUp(key, mods, scancode int)
	CharInput(codepoint uint32, mods int)
	MouseDown(x, y float64, button int)
	MouseUp(x, y float64, button int)
	MouseMove(x, y float64)
	MouseDrag(x, y float64, button int)
	Scroll(x, y, dx, dy float64, mods int)
	SetFocus(objectID uint64)
	Resize(width, height float64)
	ContextMenuAction(objectID uint64, action string, row, col int)
	CardMouseDown(targetID uint64, x, y float64, button int)
	CardMouseUp(targetID uint64, x, y float64, button int)
	CardMouseMove(targetID uint64, x, y float64)
	CardScroll(targetID uint64, x, y, dx, dy float64)
	Close(objectID uint64)
	Split(objectID uint64, orientation int)
	UITree() string
}

func paramFloat(params map[string]any, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case uint64:
		return float64(v)
	default:
		return 0
	}
}

func paramInt(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case uint64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func paramUint64(params map[string]any, key string) uint64 {
	switch v := params[key].(type) {
	case uint64:
		return v
	case int64:
		return uint64(v)
	case float64:
		return uint64(v)
	default:
		return 0
	}
}

func paramString(params map[string]any, key string) string {
	if s, ok := params[key].(string); ok {
		return s
	}
	return ""
}

// RegisterEventLoopHandlers wires every EventLoop channel method to
// sink, using the notification-style dispatch the original CLI's event
// names imply (event.cpp's "key-down", "mouse-move", ... vocabulary),
// except ui_tree which is a synchronous query and so is registered as
// a request.
func RegisterEventLoopHandlers(server *Server, sink EventSink) {
	notify := func(method string, fn func(params map[string]any)) {
		server.RegisterNotification(EventLoop, method, fn)
	}

	notify("key_down", func(p map[string]any) {
		sink.KeyDown(paramInt(p, "key"), paramInt(p, "mods"), paramInt(p, "scancode"))
	})
	notify("key_up", func(p map[string]any) {
		sink.KeyUp(paramInt(p, "key"), paramInt(p, "mods"), paramInt(p, "scancode"))
	})
	notify("char", func(p map[string]any) {
		sink.CharInput(uint32(paramUint64(p, "codepoint")), paramInt(p, "mods"))
	})
	notify("mouse_down", func(p map[string]any) {
		sink.MouseDown(paramFloat(p, "x"), paramFloat(p, "y"), paramInt(p, "button"))
	})
	notify("mouse_up", func(p map[string]any) {
		sink.MouseUp(paramFloat(p, "x"), paramFloat(p, "y"), paramInt(p, "button"))
	})
	notify("mouse_move", func(p map[string]any) {
		sink.MouseMove(paramFloat(p, "x"), paramFloat(p, "y"))
	})
	notify("mouse_drag", func(p map[string]any) {
		sink.MouseDrag(paramFloat(p, "x"), paramFloat(p, "y"), paramInt(p, "button"))
	})
	notify("scroll", func(p map[string]any) {
		sink.Scroll(paramFloat(p, "x"), paramFloat(p, "y"), paramFloat(p, "dx"), paramFloat(p, "dy"), paramInt(p, "mods"))
	})
	notify("set_focus", func(p map[string]any) {
		sink.SetFocus(paramUint64(p, "object_id"))
	})
	notify("resize", func(p map[string]any) {
		sink.Resize(paramFloat(p, "width"), paramFloat(p, "height"))
	})
	notify("context_menu_action", func(p map[string]any) {
		sink.ContextMenuAction(paramUint64(p, "object_id"), paramString(p, "action"), paramInt(p, "row"), paramInt(p, "col"))
	})
	notify("card_mouse_down", func(p map[string]any) {
		sink.CardMouseDown(paramUint64(p, "target_id"), paramFloat(p, "x"), paramFloat(p, "y"), paramInt(p, "button"))
	})
	notify("card_mouse_up", func(p map[string]any) {
		sink.CardMouseUp(paramUint64(p, "target_id"), paramFloat(p, "x"), paramFloat(p, "y"), paramInt(p, "button"))
	})
	notify("card_mouse_move", func(p map[string]any) {
		sink.CardMouseMove(paramUint64(p, "target_id"), paramFloat(p, "x"), paramFloat(p, "y"))
	})
	notify("card_scroll", func(p map[string]any) {
		sink.CardScroll(paramUint64(p, "target_id"), paramFloat(p, "x"), paramFloat(p, "y"), paramFloat(p, "dx"), paramFloat(p, "dy"))
	})
	notify("close", func(p map[string]any) {
		sink.Close(paramUint64(p, "object_id"))
	})
	notify("split", func(p map[string]any) {
		sink.Split(paramUint64(p, "object_id"), paramInt(p, "orientation"))
	})

	server.RegisterRequest(EventLoop, "ui_tree", func(map[string]any) (any, error) {
		return sink.UITree(), nil
	})
}
