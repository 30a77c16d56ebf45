package client

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ehrlich-b/tui-wright/internal/ptyhost"
	"github.com/ehrlich-b/tui-wright/internal/session"
)

func startTestDaemon(t *testing.T) string {
	t.Helper()

	host, err := ptyhost.Spawn("bash", []string{"--noprofile", "--norc"}, 80, 24)
	if err != nil {
		t.Skipf("cannot spawn bash pty in this environment: %v", err)
	}

	sess := session.New("client-test", host, 80, 24)
	socketPath := filepath.Join(t.TempDir(), "tui-wright-client-test.sock")

	listener, err := session.Bind(socketPath)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}

	d := session.NewDaemon(sess, socketPath, listener, slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go d.Serve(ctx)

	return socketPath
}

func TestDialAndTypeWaitFor(t *testing.T) {
	socketPath := startTestDaemon(t)
	ctx := context.Background()

	c, err := Dial(ctx, socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if _, err := c.Type(ctx, "echo marco\r"); err != nil {
		t.Fatalf("type: %v", err)
	}

	resp, err := c.WaitFor(ctx, "marco", 2*time.Second)
	if err != nil {
		t.Fatalf("waitfor: %v", err)
	}
	if !resp.OK {
		t.Fatalf("waitfor did not find text: %+v", resp)
	}
}

func TestCursorAndKill(t *testing.T) {
	socketPath := startTestDaemon(t)
	ctx := context.Background()

	c, err := Dial(ctx, socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	if _, err := c.Cursor(ctx); err != nil {
		t.Fatalf("cursor: %v", err)
	}

	if _, err := c.Kill(ctx); err != nil {
		t.Fatalf("kill: %v", err)
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
