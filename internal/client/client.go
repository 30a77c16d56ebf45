// Package client is the CLI's front end for talking to a running session
// daemon: one dial, one JSON request, one JSON response, per call — the
// same per-connection shape the daemon's socket server expects.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/ehrlich-b/tui-wright/internal/emulator"
	"github.com/ehrlich-b/tui-wright/internal/protocol"
)

// Client holds a socket path, not a connection: every call dials fresh,
// since the wire contract is one request per connection, not a session.
type Client struct {
	socketPath string
	dialer     net.Dialer
}

// Dial verifies the socket is reachable and returns a Client bound to it.
// Sessions here are trusted local peers reachable only by the socket's
// 0600 permissions, so there is no token or handshake beyond the connect
// itself.
func Dial(ctx context.Context, socketPath string) (*Client, error) {
	c := &Client{socketPath: socketPath}
	conn, err := c.dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	conn.Close()
	return c, nil
}

// SendRequest opens a new connection, writes req as a single JSON line,
// and decodes the single JSON response that follows.
func (c *Client) SendRequest(ctx context.Context, req protocol.Request) (protocol.Response, error) {
	conn, err := c.dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("dial %s: %w", c.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("marshal request: %w", err)
	}
	if _, err := conn.Write(append(body, '\n')); err != nil {
		return protocol.Response{}, fmt.Errorf("write request: %w", err)
	}

	var resp protocol.Response
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&resp); err != nil {
		return protocol.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// Screen fetches the current grid.
func (c *Client) Screen(ctx context.Context, format string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindScreen, Format: format})
}

// Cursor fetches the current cursor position.
func (c *Client) Cursor(ctx context.Context) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindCursor})
}

// Type injects literal text.
func (c *Client) Type(ctx context.Context, text string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindType, Text: text})
}

// Key injects a named key.
func (c *Client) Key(ctx context.Context, name string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindKey, Name: name})
}

// Mouse injects a mouse event at (col, row).
func (c *Client) Mouse(ctx context.Context, action string, col, row int) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindMouse, Action: action, Col: col, Row: row})
}

// Resize reshapes the session's terminal.
func (c *Client) Resize(ctx context.Context, cols, rows int) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindResize, Cols: cols, Rows: rows})
}

// WaitFor blocks (from the daemon's side) until substr appears or timeout
// elapses. The client's own context deadline should exceed timeout.
func (c *Client) WaitFor(ctx context.Context, substr string, timeout time.Duration) (protocol.Response, error) {
	ms := int(timeout / time.Millisecond)
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindWaitFor, Text: substr, TimeoutMS: &ms})
}

// Assert performs a single substring check against the current screen.
func (c *Client) Assert(ctx context.Context, substr string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindAssert, Text: substr})
}

// SnapshotDiff compares baseline to the daemon's current screen.
func (c *Client) SnapshotDiff(ctx context.Context, baseline *emulator.Grid) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindSnapshotDiff, Baseline: baseline})
}

// TraceStart begins recording to path ("" lets the daemon pick a default).
func (c *Client) TraceStart(ctx context.Context, path string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindTraceStart, Path: path})
}

// TraceStop finalizes the active recording, if any.
func (c *Client) TraceStop(ctx context.Context) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindTraceStop})
}

// TraceMarker records a labeled marker event on the active recording.
func (c *Client) TraceMarker(ctx context.Context, label string) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindTraceMarker, Label: label})
}

// Kill asks the daemon to terminate its child and tear itself down.
func (c *Client) Kill(ctx context.Context) (protocol.Response, error) {
	return c.SendRequest(ctx, protocol.Request{Kind: protocol.KindKill})
}
