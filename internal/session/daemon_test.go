package session

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ehrlich-b/tui-wright/internal/protocol"
	"github.com/ehrlich-b/tui-wright/internal/ptyhost"
)

func newTestDaemon(t *testing.T) (*Daemon, string) {
	t.Helper()

	host, err := ptyhost.Spawn("bash", []string{"--noprofile", "--norc"}, 80, 24)
	if err != nil {
		t.Skipf("cannot spawn bash pty in this environment: %v", err)
	}

	sess := New("test", host, 80, 24)
	socketPath := filepath.Join(t.TempDir(), "tui-wright-test.sock")

	listener, err := Bind(socketPath)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	d := NewDaemon(sess, socketPath, listener, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go d.Serve(ctx)

	return d, socketPath
}

func roundTrip(t *testing.T, socketPath string, req protocol.Request) protocol.Response {
	t.Helper()

	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	if _, err := conn.Write(append(body, '\n')); err != nil {
		t.Fatalf("write request: %v", err)
	}

	var resp protocol.Response
	if err := json.NewDecoder(bufio.NewReader(conn)).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestSpawnTypeWaitForEchoesInput(t *testing.T) {
	_, socketPath := newTestDaemon(t)

	typeResp := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindType, Text: "echo hello\r"})
	if !typeResp.OK {
		t.Fatalf("type failed: %+v", typeResp)
	}

	waitResp := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindWaitFor, Text: "hello"})
	if !waitResp.OK {
		t.Fatalf("waitfor did not find text: %+v", waitResp)
	}

	screenResp := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindScreen, Format: "json"})
	if !screenResp.OK || screenResp.Grid == nil {
		t.Fatalf("screen json failed: %+v", screenResp)
	}
	if screenResp.Grid.Rows != 24 || screenResp.Grid.Cols != 80 {
		t.Fatalf("unexpected grid dims: %dx%d", screenResp.Grid.Cols, screenResp.Grid.Rows)
	}
}

func TestResizeIdempotent(t *testing.T) {
	_, socketPath := newTestDaemon(t)

	first := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindResize, Cols: 40, Rows: 10})
	if !first.OK {
		t.Fatalf("resize failed: %+v", first)
	}

	before := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindScreen, Format: "json"})

	second := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindResize, Cols: 40, Rows: 10})
	if !second.OK {
		t.Fatalf("second resize failed: %+v", second)
	}

	after := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindScreen, Format: "json"})

	if before.Grid.Rows != after.Grid.Rows || before.Grid.Cols != after.Grid.Cols {
		t.Fatalf("dims changed on repeated identical resize")
	}
}

func TestKeyShiftRejected(t *testing.T) {
	_, socketPath := newTestDaemon(t)

	resp := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindKey, Name: "shift+m"})
	if resp.OK {
		t.Fatal("expected shift+m to fail")
	}
	if resp.Error != protocol.KindErrUnsupportedModifier {
		t.Fatalf("got error kind %q, want UnsupportedModifier", resp.Error)
	}
}

func TestSnapshotDiffIdenticalOnNoChange(t *testing.T) {
	_, socketPath := newTestDaemon(t)

	baselineResp := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindScreen, Format: "json"})
	if !baselineResp.OK {
		t.Fatalf("baseline screen failed: %+v", baselineResp)
	}

	diffResp := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindSnapshotDiff, Baseline: baselineResp.Grid})
	if !diffResp.OK || diffResp.Diff == nil {
		t.Fatalf("snapshot_diff failed: %+v", diffResp)
	}
	if !diffResp.Diff.Identical {
		t.Fatalf("expected identical diff on unchanged screen, got %+v", diffResp.Diff)
	}
	if len(diffResp.Diff.ChangedCells) != 0 {
		t.Fatalf("expected no changed cells, got %d", len(diffResp.Diff.ChangedCells))
	}
}

func TestKillThenSessionUnreachable(t *testing.T) {
	_, socketPath := newTestDaemon(t)

	killResp := roundTrip(t, socketPath, protocol.Request{Kind: protocol.KindKill})
	if !killResp.OK {
		t.Fatalf("kill failed: %+v", killResp)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(socketPath); os.IsNotExist(err) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatalf("socket %s still present after kill", socketPath)
}
