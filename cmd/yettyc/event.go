package main

import (
	"fmt"

	"github.com/zokrezyl/yetty/rpc"
)

type eventTypeInfo struct {
	name   string
	params string
}

var eventTypes = []eventTypeInfo{
	{"card-mouse-down", "-target-id N -x F -y F -button N"},
	{"card-mouse-move", "-target-id N -x F -y F"},
	{"card-mouse-up", "-target-id N -x F -y F -button N"},
	{"card-scroll", "-target-id N -x F -y F -dx F -dy F"},
	{"char", "-codepoint N [-mods N]"},
	{"close", "-object-id N"},
	{"context-menu-action", "-object-id N -action STR -row N -col N"},
	{"key-down", "-key N -mods N [-scancode N]"},
	{"key-up", "-key N -mods N [-scancode N]"},
	{"mouse-down", "-x F -y F -button N"},
	{"mouse-drag", "-x F -y F -button N"},
	{"mouse-move", "-x F -y F"},
	{"mouse-up", "-x F -y F -button N"},
	{"resize", "-width F -height F"},
	{"scroll", "-x F -y F -dx F -dy F [-mods N]"},
	{"set-focus", "-object-id N"},
	{"split", "-object-id N -orientation STR"},
}

func cmdEvent(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: yettyc event send|list")
	}
	switch args[0] {
	case "send":
		return cmdEventSend(args[1:])
	case "list":
		return cmdEventList(args[1:])
	default:
		return fmt.Errorf("event: unknown subcommand %q", args[0])
	}
}

func cmdEventList([]string) error {
	fmt.Println("Available event types:")
	fmt.Println()
	for _, et := range eventTypes {
		fmt.Printf("  %s\n", et.name)
		fmt.Printf("      %s\n", et.params)
	}
	return nil
}

func cmdEventSend(args []string) error {
	fs, socket := newFlagSet("event send")
	key := fs.Int("key", 0, "key code")
	mods := fs.Int("mods", 0, "modifier flags")
	scancode := fs.Int("scancode", 0, "scancode")
	x := fs.Float64("x", 0, "x coordinate")
	y := fs.Float64("y", 0, "y coordinate")
	dx := fs.Float64("dx", 0, "delta x")
	dy := fs.Float64("dy", 0, "delta y")
	button := fs.Int("button", 0, "mouse button")
	codepoint := fs.Uint("codepoint", 0, "unicode codepoint")
	objectID := fs.Uint64("object-id", 0, "object id")
	targetID := fs.Uint64("target-id", 0, "target card id")
	action := fs.String("action", "", "action string")
	row := fs.Int("row", 0, "row")
	col := fs.Int("col", 0, "column")
	width := fs.Float64("width", 0, "width")
	height := fs.Float64("height", 0, "height")
	orientation := fs.String("orientation", "vertical", "orientation (horizontal/vertical)")

	if err := fs.Parse(args); err != nil {
		return err
	}
	positional := fs.Args()
	if len(positional) == 0 {
		return fmt.Errorf("event type required")
	}
	eventType := positional[0]

	client, err := dialFromFlag(socket)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	orientVal, err := parseOrientation(*orientation)
	if err != nil {
		return err
	}

	return sendEvent(client, eventType, eventParams{
		key: *key, mods: *mods, scancode: *scancode,
		x: *x, y: *y, dx: *dx, dy: *dy, button: *button,
		codepoint: uint32(*codepoint), objectID: *objectID, targetID: *targetID,
		action: *action, row: *row, col: *col,
		width: *width, height: *height, orientation: orientVal,
	})
}

func parseOrientation(s string) (int, error) {
	switch s {
	case "horizontal", "h":
		return 0, nil
	case "vertical", "v":
		return 1, nil
	default:
		return 0, fmt.Errorf("invalid orientation %q, use horizontal or vertical", s)
	}
}

type eventParams struct {
	key, mods, scancode      int
	x, y, dx, dy             float64
	button                   int
	codepoint                uint32
	objectID, targetID       uint64
	action                   string
	row, col                 int
	width, height            float64
	orientation              int
}

func sendEvent(c *rpc.Client, eventType string, p eventParams) error {
	switch eventType {
	case "key-down":
		return c.Notify(rpc.EventLoop, "key_down", map[string]any{"key": p.key, "mods": p.mods, "scancode": p.scancode})
	case "key-up":
		return c.Notify(rpc.EventLoop, "key_up", map[string]any{"key": p.key, "mods": p.mods, "scancode": p.scancode})
	case "char":
		return c.Notify(rpc.EventLoop, "char", map[string]any{"codepoint": p.codepoint, "mods": p.mods})
	case "mouse-down":
		return c.Notify(rpc.EventLoop, "mouse_down", map[string]any{"x": p.x, "y": p.y, "button": p.button})
	case "mouse-up":
		return c.Notify(rpc.EventLoop, "mouse_up", map[string]any{"x": p.x, "y": p.y, "button": p.button})
	case "mouse-move":
		return c.Notify(rpc.EventLoop, "mouse_move", map[string]any{"x": p.x, "y": p.y})
	case "mouse-drag":
		return c.Notify(rpc.EventLoop, "mouse_drag", map[string]any{"x": p.x, "y": p.y, "button": p.button})
	case "scroll":
		return c.Notify(rpc.EventLoop, "scroll", map[string]any{"x": p.x, "y": p.y, "dx": p.dx, "dy": p.dy, "mods": p.mods})
	case "set-focus":
		return c.Notify(rpc.EventLoop, "set_focus", map[string]any{"object_id": p.objectID})
	case "resize":
		return c.Notify(rpc.EventLoop, "resize", map[string]any{"width": p.width, "height": p.height})
	case "context-menu-action":
		return c.Notify(rpc.EventLoop, "context_menu_action", map[string]any{
			"object_id": p.objectID, "action": p.action, "row": p.row, "col": p.col,
		})
	case "card-mouse-down":
		return c.Notify(rpc.EventLoop, "card_mouse_down", map[string]any{
			"target_id": p.targetID, "x": p.x, "y": p.y, "button": p.button,
		})
	case "card-mouse-up":
		return c.Notify(rpc.EventLoop, "card_mouse_up", map[string]any{
			"target_id": p.targetID, "x": p.x, "y": p.y, "button": p.button,
		})
	case "card-mouse-move":
		return c.Notify(rpc.EventLoop, "card_mouse_move", map[string]any{
			"target_id": p.targetID, "x": p.x, "y": p.y,
		})
	case "card-scroll":
		return c.Notify(rpc.EventLoop, "card_scroll", map[string]any{
			"target_id": p.targetID, "x": p.x, "y": p.y, "dx": p.dx, "dy": p.dy,
		})
	case "close":
		return c.Notify(rpc.EventLoop, "close", map[string]any{"object_id": p.objectID})
	case "split":
		return c.Notify(rpc.EventLoop, "split", map[string]any{"object_id": p.objectID, "orientation": p.orientation})
	default:
		return fmt.Errorf("unknown event type %q. run 'yettyc event list' for available types", eventType)
	}
}
