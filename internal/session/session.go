// Package session binds {PTY Host, Emulator, Recorder, Socket Server} into
// one addressable, long-lived session, matching the hub shape described in
// the cyclic-references design note: the PTY reader only ever reaches the
// emulator and recorder through the session's own lock, never by holding
// its own reference to either.
package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ehrlich-b/tui-wright/internal/emulator"
	"github.com/ehrlich-b/tui-wright/internal/keys"
	"github.com/ehrlich-b/tui-wright/internal/mouse"
	"github.com/ehrlich-b/tui-wright/internal/protocol"
	"github.com/ehrlich-b/tui-wright/internal/ptyhost"
	"github.com/ehrlich-b/tui-wright/internal/recorder"
)

// Session is the shared state one daemon process owns: the PTY-hosted
// child, the emulator tracking its screen, and an optional recorder.
// mu is the single reader-writer lock guarding the emulator: readers
// (screen/cursor/waitfor poll/assert/snapshot_diff) take RLock; writers
// (the PTY reader feeding bytes, and type/key/mouse/resize requests)
// take Lock. No blocking I/O happens while either lease is held.
type Session struct {
	ID string

	mu   sync.RWMutex
	host *ptyhost.Host
	emu  *emulator.Emulator
	rec  *recorder.Recorder

	exited   chan struct{}
	exitOnce sync.Once
	exitErr  error
}

// New wires a freshly spawned PTY host to a freshly sized emulator.
func New(id string, host *ptyhost.Host, cols, rows int) *Session {
	return &Session{
		ID:     id,
		host:   host,
		emu:    emulator.New(cols, rows),
		exited: make(chan struct{}),
	}
}

// Exited is closed once the child process has been reaped.
func (s *Session) Exited() <-chan struct{} {
	return s.exited
}

// markExited is called exactly once, from the waiter goroutine.
func (s *Session) markExited(err error) {
	s.exitOnce.Do(func() {
		s.exitErr = err
		close(s.exited)
	})
}

// ExitErr returns the error cmd.Wait() returned, valid only after Exited()
// is closed.
func (s *Session) ExitErr() error {
	return s.exitErr
}

// isExited reports whether the child has already been reaped.
func (s *Session) isExited() bool {
	select {
	case <-s.exited:
		return true
	default:
		return false
	}
}

// feedOutput is called by the PTY reader goroutine for every chunk read
// from the master. It takes the write lease to advance the emulator, then
// records an "o" event outside the lease (the recorder has its own lock
// and never blocks on the emulator's).
func (s *Session) feedOutput(data []byte) {
	s.mu.Lock()
	s.emu.Feed(data)
	rec := s.rec
	s.mu.Unlock()

	if rec != nil {
		rec.Output(data)
	}
}

// Screen returns the current grid.
func (s *Session) Screen() emulator.Grid {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.Snapshot()
}

// ScreenText returns the current screen rendered as text.
func (s *Session) ScreenText() string {
	return s.Screen().Text()
}

// Cursor returns the current cursor position.
func (s *Session) Cursor() (row, col int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emu.Cursor()
}

// Type injects literal text into the PTY.
func (s *Session) Type(text string) error {
	if s.isExited() {
		return protocol.ErrChildExited
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.host.Write([]byte(text)); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrIoError, err)
	}
	if s.rec != nil {
		s.rec.Input(text)
		s.rec.Marker(fmt.Sprintf("type %q", text))
	}
	return nil
}

// Key resolves a symbolic key name and injects its byte sequence.
func (s *Session) Key(name string) error {
	seq, err := keys.Resolve(name)
	if err != nil {
		return err
	}

	if s.isExited() {
		return protocol.ErrChildExited
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.host.Write([]byte(seq)); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrIoError, err)
	}
	if s.rec != nil {
		s.rec.Input(seq)
		s.rec.Marker("key " + name)
	}
	return nil
}

// Mouse encodes and injects a mouse event.
func (s *Session) Mouse(action string, col, row int) error {
	if col < 0 || row < 0 {
		return protocol.ErrInvalidCoordinates
	}

	seq, err := mouse.Encode(action, col, row)
	if err != nil {
		return err
	}

	if s.isExited() {
		return protocol.ErrChildExited
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.host.Write([]byte(seq)); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrIoError, err)
	}
	if s.rec != nil {
		s.rec.Input(seq)
		s.rec.Marker(fmt.Sprintf("mouse %s %d,%d", action, col, row))
	}
	return nil
}

// Resize reshapes both the PTY and the emulator.
func (s *Session) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return protocol.ErrInvalidCoordinates
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.host.Resize(cols, rows); err != nil {
		return fmt.Errorf("%w: %v", protocol.ErrIoError, err)
	}
	s.emu.Resize(cols, rows)
	if s.rec != nil {
		s.rec.Resize(cols, rows)
	}
	return nil
}

// WaitFor polls the screen text for substr at a fixed interval until it
// appears or timeout elapses. timeout == 0 performs exactly one check.
func (s *Session) WaitFor(substr string, timeout time.Duration) (text string, ok bool) {
	const pollInterval = 50 * time.Millisecond

	deadline := time.Now().Add(timeout)
	for {
		text = s.ScreenText()
		if strings.Contains(text, substr) {
			return text, true
		}
		if timeout == 0 || time.Now().After(deadline) {
			return text, false
		}
		time.Sleep(pollInterval)
	}
}

// Assert performs a single substring check.
func (s *Session) Assert(substr string) (text string, found bool) {
	text = s.ScreenText()
	return text, strings.Contains(text, substr)
}

// SnapshotDiff compares baseline to the current grid.
func (s *Session) SnapshotDiff(baseline emulator.Grid) protocol.Diff {
	current := s.Screen()
	return protocol.ComputeDiff(baseline, current)
}

// TraceStart begins recording to path, failing if a recording is already
// active.
func (s *Session) TraceStart(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rec != nil {
		return "", fmt.Errorf("%w: trace already active at %s", protocol.ErrIoError, s.rec.Path())
	}

	cols, rows := s.host.Size()
	rec, err := recorder.Start(path, cols, rows)
	if err != nil {
		return "", fmt.Errorf("%w: %v", protocol.ErrIoError, err)
	}
	s.rec = rec
	return path, nil
}

// TraceStop finalizes the active recording, if any.
func (s *Session) TraceStop() error {
	s.mu.Lock()
	rec := s.rec
	s.rec = nil
	s.mu.Unlock()

	if rec == nil {
		return nil
	}
	return rec.Stop()
}

// TraceMarker records a marker event on the active recording, if any.
func (s *Session) TraceMarker(label string) error {
	s.mu.RLock()
	rec := s.rec
	s.mu.RUnlock()

	if rec == nil {
		return nil
	}
	return rec.Marker(label)
}

// stopRecording is used during shutdown: the recorder is always finalized
// before anything else per §4.6.
func (s *Session) stopRecording() {
	s.mu.Lock()
	rec := s.rec
	s.rec = nil
	s.mu.Unlock()

	if rec != nil {
		rec.Stop()
	}
}
