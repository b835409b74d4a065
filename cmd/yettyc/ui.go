package main

import (
	"fmt"

	"github.com/zokrezyl/yetty/rpc"
)

func cmdUI(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: yettyc ui tree")
	}
	switch args[0] {
	case "tree":
		return cmdUITree(args[1:])
	default:
		return fmt.Errorf("ui: unknown subcommand %q", args[0])
	}
}

func cmdUITree(args []string) error {
	fs, socket := newFlagSet("ui tree")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dialFromFlag(socket)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	result, err := client.Request(rpc.EventLoop, "ui_tree", map[string]any{})
	if err != nil {
		return fmt.Errorf("ui tree failed: %w", err)
	}
	tree, _ := result.(string)
	fmt.Println(tree)
	return nil
}
