package main

import (
	"fmt"

	"github.com/zokrezyl/yetty/rpc"
)

func cmdBuffers(args []string) error {
	fs, socket := newFlagSet("buffers")
	cardFilter := fs.String("card", "", "filter by card name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dialFromFlag(socket)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	rows, err := rpc.RequestSlice(client, rpc.CardStream, "buffers_list", map[string]any{})
	if err != nil {
		return fmt.Errorf("buffers_list failed: %w", err)
	}

	fmt.Printf("%-8s %-20s %-12s %12s %12s\n", "SLOT", "CARD", "NAME", "OFFSET", "SIZE")
	fmt.Println(dashes(64))

	for _, raw := range rows {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		cardName, _ := m["card"].(string)
		if *cardFilter != "" && cardName != *cardFilter {
			continue
		}
		if cardName == "" {
			cardName = "-"
		}
		fmt.Printf("%-8v %-20s %-12v %12v %12v\n",
			m["slot_index"], cardName, m["name"], m["offset"], m["size"])
	}
	return nil
}

func dashes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '-'
	}
	return string(b)
}
