package daemonize

import (
	"os"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func dup2(oldfd, newfd int) error {
	return unix.Dup2(oldfd, newfd)
}

// handshakeFixture wires up a real pipe and substitutes it for fd 3 so
// SignalReady/SignalFailure (which always open fd 3 directly) and
// WaitReady can be exercised without a real re-exec.
func handshakeFixture(t *testing.T) (*Handle, func()) {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}

	if w.Fd() != 3 {
		// Ensure fd 3 is free and dup w onto it, since SignalReady/Failure
		// are hardcoded to fd 3 the way the real daemon child sees it via
		// ExtraFiles.
		if err := dup2(int(w.Fd()), 3); err != nil {
			w.Close()
			r.Close()
			t.Skipf("cannot arrange fd 3 in this environment: %v", err)
		}
		w.Close()
		w = os.NewFile(3, "tui-wright-handshake")
	}

	h := &Handle{r: r}
	return h, func() { w.Close() }
}

func TestSignalReadyThenWaitReadySucceeds(t *testing.T) {
	h, cleanup := handshakeFixture(t)
	defer cleanup()

	if err := SignalReady(); err != nil {
		t.Fatalf("SignalReady: %v", err)
	}
	if err := h.WaitReady(2 * time.Second); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}
}

func TestSignalFailureThenWaitReadyFails(t *testing.T) {
	h, cleanup := handshakeFixture(t)
	defer cleanup()

	SignalFailure("pty spawn failed")
	if err := h.WaitReady(2 * time.Second); err == nil {
		t.Fatal("expected WaitReady to fail after SignalFailure")
	}
}

func TestWaitReadyTimesOutOnSilence(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer w.Close()

	h := &Handle{r: r}
	start := time.Now()
	if err := h.WaitReady(100 * time.Millisecond); err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("WaitReady took far longer than its timeout")
	}
}

func TestOverrideEnvReplacesExistingKey(t *testing.T) {
	base := []string{"TMPDIR=/old", "PATH=/bin"}
	got := overrideEnv(base, []string{"TMPDIR=/new"})

	seenNew, seenOld := false, false
	for _, kv := range got {
		switch kv {
		case "TMPDIR=/new":
			seenNew = true
		case "TMPDIR=/old":
			seenOld = true
		}
	}
	if !seenNew || seenOld {
		t.Fatalf("overrideEnv did not replace TMPDIR cleanly: %v", got)
	}
}

func TestIsDetachedChild(t *testing.T) {
	os.Unsetenv(EnvMarker)
	if IsDetachedChild() {
		t.Fatal("expected false with marker unset")
	}
	os.Setenv(EnvMarker, "1")
	defer os.Unsetenv(EnvMarker)
	if !IsDetachedChild() {
		t.Fatal("expected true with marker set to 1")
	}
}
