// Package ptyhost opens a PTY pair, spawns the child on its slave side, and
// carries bytes in both directions, grounded on the same creack/pty calls
// used to host an interactive child process one layer up in the stack this
// program borrows its daemon shape from.
package ptyhost

import (
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Host owns one PTY master/child pair for the lifetime of a session.
type Host struct {
	cmd  *exec.Cmd
	ptmx *os.File

	mu   sync.Mutex
	cols int
	rows int
}

// Spawn opens a PTY at (cols, rows) and starts command/args on its slave
// side. The child inherits the invoking environment; stdio is the PTY
// slave, so it inherits no extra descriptors from the controller.
func Spawn(command string, args []string, cols, rows int) (*Host, error) {
	cmd := exec.Command(command, args...)
	cmd.Env = os.Environ()

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
	if err != nil {
		return nil, fmt.Errorf("open pty: %w", err)
	}

	return &Host{cmd: cmd, ptmx: ptmx, cols: cols, rows: rows}, nil
}

// Read satisfies io.Reader over the PTY master, used by the session's
// dedicated reader goroutine.
func (h *Host) Read(p []byte) (int, error) {
	return h.ptmx.Read(p)
}

// Write injects bytes into the PTY master on demand (keystrokes, mouse
// reports).
func (h *Host) Write(p []byte) (int, error) {
	return h.ptmx.Write(p)
}

// Resize issues a window-size change on the master, triggering SIGWINCH in
// the child, and records the new local dimensions.
func (h *Host) Resize(cols, rows int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := pty.Setsize(h.ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	h.cols, h.rows = cols, rows
	return nil
}

// Size returns the last-accepted dimensions.
func (h *Host) Size() (cols, rows int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols, h.rows
}

// Signal delivers sig to the child process directly by pid, the same way
// the sandbox's process-limiting code reaches past os.Process for signal
// and resource-limit syscalls the standard library doesn't expose as
// conveniently.
func (h *Host) Signal(sig syscall.Signal) error {
	if h.cmd.Process == nil {
		return nil
	}
	return unix.Kill(h.cmd.Process.Pid, sig)
}

// Wait blocks until the child exits and returns its wait error (nil on a
// clean exit-code-0 termination).
func (h *Host) Wait() error {
	return h.cmd.Wait()
}

// Close releases the PTY master. The child should already have been
// signalled to exit before calling this.
func (h *Host) Close() error {
	return h.ptmx.Close()
}
