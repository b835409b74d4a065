package rpc

import (
	"bytes"
	"fmt"
	"net"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/zokrezyl/yetty/yerr"
)

// Client is a synchronous msgpack-rpc client over a Unix domain socket,
// for one-shot callers like cmd/yettyc (the original's sync-mode
// RpcClient; the async/libuv mode is an out-of-scope collaborator for a
// long-running terminal, not a CLI tool).
type Client struct {
	conn      net.Conn
	nextMsgID uint32
	buf       bytes.Buffer
}

// Dial connects to the RPC server listening at path.
func Dial(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, yerr.Wrap(yerr.Unavailable, "rpc: dial "+path, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Request sends a request and blocks for its response, returning the
// decoded result or the server's reported error.
func (c *Client) Request(channel Channel, method string, params map[string]any) (any, error) {
	c.nextMsgID++
	msgID := c.nextMsgID

	data, err := EncodeRequest(msgID, channel, method, params)
	if err != nil {
		return nil, yerr.Wrap(yerr.ProtocolError, "rpc: encode request", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return nil, yerr.Wrap(yerr.OsError, "rpc: write request", err)
	}

	for {
		req, resp, note, err := c.nextFrame()
		if err != nil {
			return nil, err
		}
		switch {
		case resp != nil && resp.MsgID == msgID:
			if resp.Err != "" {
				return nil, yerr.New(yerr.ProtocolError, resp.Err)
			}
			return resp.Result, nil
		case req != nil, note != nil:
			continue // not expected from a server, but don't wedge on it
		}
	}
}

// Notify sends a fire-and-forget notification.
func (c *Client) Notify(channel Channel, method string, params map[string]any) error {
	data, err := EncodeNotification(channel, method, params)
	if err != nil {
		return yerr.Wrap(yerr.ProtocolError, "rpc: encode notification", err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return yerr.Wrap(yerr.OsError, "rpc: write notification", err)
	}
	return nil
}

// nextFrame reads from the connection until one complete frame is
// decodable, buffering any trailing bytes for the next call.
func (c *Client) nextFrame() (*Request, *Response, *Notification, error) {
	read := make([]byte, 65536)
	for {
		data := c.buf.Bytes()
		if len(data) > 0 {
			r := bytes.NewReader(data)
			dec := msgpack.NewDecoder(r)
			var raw []msgpack.RawMessage
			if err := dec.Decode(&raw); err == nil {
				consumed := len(data) - r.Len()
				frame := append([]byte(nil), data[:consumed]...)
				c.buf.Next(consumed)
				return DecodeFrame(frame)
			}
		}

		n, err := c.conn.Read(read)
		if n > 0 {
			c.buf.Write(read[:n])
			continue
		}
		if err != nil {
			return nil, nil, nil, yerr.Wrap(yerr.OsError, "rpc: read response", err)
		}
	}
}

// RequestMap is a convenience wrapper for handlers that always return a
// map[string]any, returning a clearer error if the server sent something
// else.
func RequestMap(c *Client, channel Channel, method string, params map[string]any) (map[string]any, error) {
	result, err := c.Request(channel, method, params)
	if err != nil {
		return nil, err
	}
	m, ok := result.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("rpc: %s returned %T, want a map", method, result)
	}
	return m, nil
}

// RequestSlice is the array-result counterpart of RequestMap, for
// methods like cards_list/buffers_list that answer with a list of maps.
// Every element is itself decoded generically, so callers type-assert
// each entry as map[string]any.
func RequestSlice(c *Client, channel Channel, method string, params map[string]any) ([]any, error) {
	result, err := c.Request(channel, method, params)
	if err != nil {
		return nil, err
	}
	s, ok := result.([]any)
	if !ok {
		return nil, fmt.Errorf("rpc: %s returned %T, want a list", method, result)
	}
	return s, nil
}
