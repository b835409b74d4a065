package main

import (
	"fmt"

	"github.com/zokrezyl/yetty/rpc"
)

func cmdCards(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: yettyc cards list")
	}
	switch args[0] {
	case "list":
		return cmdCardsList(args[1:])
	default:
		return fmt.Errorf("cards: unknown subcommand %q", args[0])
	}
}

func cmdCardsList(args []string) error {
	fs, socket := newFlagSet("cards list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dialFromFlag(socket)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	rows, err := rpc.RequestSlice(client, rpc.CardStream, "cards_list", map[string]any{})
	if err != nil {
		return fmt.Errorf("cards_list failed: %w", err)
	}

	fmt.Printf("%-8s %-20s %-20s\n", "SLOT", "NAME", "TYPE")
	fmt.Println(dashes(48))

	for _, raw := range rows {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			name = "-"
		}
		fmt.Printf("%-8v %-20s %-20v\n", m["slot_index"], name, m["type"])
	}
	return nil
}
