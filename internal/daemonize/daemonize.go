// Package daemonize implements the double-fork detach described in §4.7
// using Go's idiomatic substitute for a raw fork(2): the outer process
// re-execs itself with a hidden marker, detached via Setsid, and the two
// sides talk across a pipe so the outer process can block until the
// detached one has bound its socket (or report why it couldn't).
package daemonize

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/blake2b"
)

// EnvMarker, when set to "1" in the process environment, identifies this
// invocation as the re-exec'd detached side rather than the original CLI
// invocation.
const EnvMarker = "TUI_WRIGHT_DAEMONIZE"

// readyToken is hashed rather than sent as a bare literal so a truncated or
// garbled pipe write can't be mistaken for a genuine success signal.
var readyToken = []byte("tui-wright-daemon-ready")

func readySignature() [32]byte {
	return blake2b.Sum256(readyToken)
}

// overrideEnv returns base with any entry whose key matches one in
// overrides dropped, followed by overrides — so the override actually
// takes effect instead of losing to an earlier same-key entry, which is
// how most libc getenv implementations resolve duplicates.
func overrideEnv(base, overrides []string) []string {
	keys := make(map[string]bool, len(overrides))
	for _, kv := range overrides {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			keys[kv[:i]] = true
		}
	}

	out := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		if i := strings.IndexByte(kv, '='); i >= 0 && keys[kv[:i]] {
			continue
		}
		out = append(out, kv)
	}
	return append(out, overrides...)
}

// Handle is the parent-side view of a detached daemon process.
type Handle struct {
	Cmd *exec.Cmd
	r   *os.File
}

// Start re-execs the current binary with args, detaching it via Setsid and
// leaving stdin/stdout/stderr unset (Go connects unset std streams to
// /dev/null, which is exactly the "inherits no stdio" requirement). The
// new process's only inherited descriptor is the write end of a fresh
// pipe, always fd 3 inside the child via ExtraFiles.
func Start(args []string, extraEnv ...string) (*Handle, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolve executable: %w", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create handshake pipe: %w", err)
	}

	cmd := exec.Command(exe, args...)
	cmd.Env = append(overrideEnv(os.Environ(), extraEnv), EnvMarker+"=1")
	cmd.ExtraFiles = []*os.File{w}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("start detached process: %w", err)
	}
	w.Close()

	return &Handle{Cmd: cmd, r: r}, nil
}

// WaitReady blocks until the detached process reports it has bound its
// socket, or timeout elapses, or the pipe closes/errors without a valid
// signature — any of which is a startup failure.
func (h *Handle) WaitReady(timeout time.Duration) error {
	defer h.r.Close()

	if err := h.r.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return fmt.Errorf("set handshake deadline: %w", err)
	}

	sc := bufio.NewScanner(h.r)
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return fmt.Errorf("daemon handshake failed: %w", err)
		}
		return errors.New("daemon handshake closed before signaling ready")
	}

	line := sc.Text()
	if len(line) > 2 && line[:2] == "E:" {
		return fmt.Errorf("daemon reported startup failure: %s", line[2:])
	}

	got, err := hex.DecodeString(line)
	if err != nil || len(got) != 32 {
		return fmt.Errorf("daemon sent malformed ready signature")
	}
	want := readySignature()
	if hex.EncodeToString(got) != hex.EncodeToString(want[:]) {
		return errors.New("daemon sent an unrecognized ready signature")
	}
	return nil
}

// SignalReady is called from the detached child (fd 3) once its socket is
// bound and it is about to enter the serving loop.
func SignalReady() error {
	f := os.NewFile(3, "tui-wright-handshake")
	if f == nil {
		return errors.New("handshake pipe (fd 3) not present")
	}
	defer f.Close()

	sig := readySignature()
	_, err := fmt.Fprintln(f, hex.EncodeToString(sig[:]))
	return err
}

// SignalFailure is called from the detached child when it could not reach
// the ready state, carrying msg back to the waiting parent.
func SignalFailure(msg string) {
	f := os.NewFile(3, "tui-wright-handshake")
	if f == nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "E:%s\n", msg)
}

// IsDetachedChild reports whether the current process is the re-exec'd,
// Setsid-detached side of Start.
func IsDetachedChild() bool {
	return os.Getenv(EnvMarker) == "1"
}
