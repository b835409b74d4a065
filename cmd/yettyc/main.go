// Command yettyc talks to a running yetty terminal over its RPC socket:
// listing card buffers, sending synthesized input events, and dumping
// the UI layout tree.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/zokrezyl/yetty/rpc"
)

type subCmd func(args []string) error

func main() {
	subcmds := map[string]subCmd{
		"buffers": cmdBuffers,
		"cards":   cmdCards,
		"event":   cmdEvent,
		"ui":      cmdUI,
	}

	if len(os.Args) < 2 {
		usage(subcmds)
		os.Exit(2)
	}

	cmd, ok := subcmds[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "yettyc: unknown command %q\n", os.Args[1])
		usage(subcmds)
		os.Exit(2)
	}

	if err := cmd(os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "yettyc: %v\n", err)
		os.Exit(1)
	}
}

func usage(subcmds map[string]subCmd) {
	fmt.Fprintln(os.Stderr, "usage: yettyc <command> [flags]")
	fmt.Fprintln(os.Stderr, "commands: buffers, cards list, event send, event list, ui tree")
}

// dialFromFlag dials the socket named by the parsed -socket flag value,
// or $YETTY_SOCKET when that value is empty.
func dialFromFlag(socket *string) (*rpc.Client, error) {
	path := *socket
	if path == "" {
		envPath, ok := rpc.SocketPathFromEnv()
		if !ok {
			return nil, fmt.Errorf("no socket given and $YETTY_SOCKET is unset")
		}
		path = envPath
	}
	return rpc.Dial(path)
}

func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	socket := fs.String("socket", "", "RPC socket path (default: $YETTY_SOCKET)")
	return fs, socket
}
