package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/ehrlich-b/tui-wright/internal/keys"
	"github.com/ehrlich-b/tui-wright/internal/mouse"
	"github.com/ehrlich-b/tui-wright/internal/protocol"
)

// Daemon owns the listening socket for one session and serves requests
// against it until told to shut down.
type Daemon struct {
	Session    *Session
	socketPath string
	listener   net.Listener
	log        *slog.Logger

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
}

// Bind opens the Unix socket at socketPath, removing a stale one first.
// Mode is set to 0600 per §6.
func Bind(socketPath string) (net.Listener, error) {
	_ = os.Remove(socketPath)

	l, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("bind socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		l.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return l, nil
}

// NewDaemon wires a session to an already-bound listener.
func NewDaemon(sess *Session, socketPath string, listener net.Listener, log *slog.Logger) *Daemon {
	return &Daemon{
		Session:    sess,
		socketPath: socketPath,
		listener:   listener,
		log:        log,
		shutdownCh: make(chan struct{}),
	}
}

// Serve runs the PTY reader, the child waiter, and the accept loop. It
// returns once the daemon has fully shut down, for any reason.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go d.readPTYLoop()
	go d.waitChild(cancel)

	var wg sync.WaitGroup
	acceptErrCh := make(chan error, 1)

	go func() {
		acceptErrCh <- d.acceptLoop(ctx, &wg)
	}()

	select {
	case <-ctx.Done():
	case err := <-acceptErrCh:
		if err != nil {
			d.log.Error("accept loop exited", "err", err)
		}
	case <-d.shutdownCh:
	}

	d.listener.Close()
	wg.Wait()
	d.cleanup()

	return nil
}

// Shutdown triggers an orderly stop: new accepts are refused, then
// in-flight handlers finish writing their response before the socket path
// is removed.
func (d *Daemon) Shutdown() {
	d.shutdownOnce.Do(func() { close(d.shutdownCh) })
}

func (d *Daemon) acceptLoop(ctx context.Context, wg *sync.WaitGroup) error {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-d.shutdownCh:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			d.handleConn(conn)
		}()
	}
}

func (d *Daemon) handleConn(conn net.Conn) {
	req, err := protocol.ReadRequest(conn)
	if err != nil {
		protocol.WriteResponse(conn, protocol.Response{
			OK:      false,
			Error:   protocol.KindErrProtocolError,
			Message: err.Error(),
		})
		return
	}

	resp := d.dispatch(req)
	if err := protocol.WriteResponse(conn, resp); err != nil {
		d.log.Error("write response", "kind", req.Kind, "err", err)
	}
}

// dispatch is the exhaustive match over request kinds the design notes
// call for: every Kind must have a case, or the default below reports a
// ProtocolError for anything unrecognized.
func (d *Daemon) dispatch(req protocol.Request) protocol.Response {
	switch req.Kind {
	case protocol.KindScreen:
		return d.doScreen(req)
	case protocol.KindCursor:
		row, col := d.Session.Cursor()
		return protocol.Response{OK: true, Row: row, Col: col}
	case protocol.KindType:
		return errResponse(d.Session.Type(req.Text))
	case protocol.KindKey:
		return errResponse(d.Session.Key(req.Name))
	case protocol.KindMouse:
		return errResponse(d.Session.Mouse(req.Action, req.Col, req.Row))
	case protocol.KindResize:
		return errResponse(d.Session.Resize(req.Cols, req.Rows))
	case protocol.KindWaitFor:
		return d.doWaitFor(req)
	case protocol.KindAssert:
		text, found := d.Session.Assert(req.Text)
		return protocol.Response{OK: true, Text: text, Found: found}
	case protocol.KindSnapshotDiff:
		if req.Baseline == nil {
			return protocol.Response{OK: false, Error: protocol.KindErrProtocolError, Message: "snapshot_diff requires baseline"}
		}
		diff := d.Session.SnapshotDiff(*req.Baseline)
		return protocol.Response{OK: true, Diff: &diff}
	case protocol.KindTraceStart:
		path := req.Path
		if path == "" {
			path = defaultTracePath(d.Session.ID)
		}
		got, err := d.Session.TraceStart(path)
		if err != nil {
			return errResponse(err)
		}
		return protocol.Response{OK: true, Path: got}
	case protocol.KindTraceStop:
		return errResponse(d.Session.TraceStop())
	case protocol.KindTraceMarker:
		return errResponse(d.Session.TraceMarker(req.Label))
	case protocol.KindKill:
		return d.doKill()
	default:
		return protocol.Response{OK: false, Error: protocol.KindErrProtocolError, Message: fmt.Sprintf("unknown request kind %q", req.Kind)}
	}
}

func (d *Daemon) doScreen(req protocol.Request) protocol.Response {
	if req.Format == "json" {
		grid := d.Session.Screen()
		return protocol.Response{OK: true, Grid: &grid}
	}
	return protocol.Response{OK: true, Text: d.Session.ScreenText()}
}

func (d *Daemon) doWaitFor(req protocol.Request) protocol.Response {
	timeoutMS := 5000
	if req.TimeoutMS != nil {
		timeoutMS = *req.TimeoutMS
	}
	text, ok := d.Session.WaitFor(req.Text, time.Duration(timeoutMS)*time.Millisecond)
	if !ok {
		return protocol.Response{OK: false, Error: protocol.KindErrTimeout, Message: text, Text: text}
	}
	return protocol.Response{OK: true, Text: text}
}

func (d *Daemon) doKill() protocol.Response {
	go d.shutdownSequence()
	return protocol.Response{OK: true}
}

// shutdownSequence implements §4.3's shutdown contract: stop the recorder,
// close the socket, remove the socket path, close the PTY, SIGHUP then
// SIGKILL the child after a grace period.
func (d *Daemon) shutdownSequence() {
	d.Session.stopRecording()
	d.Shutdown()

	d.Session.host.Signal(syscall.SIGHUP)

	select {
	case <-d.Session.Exited():
	case <-time.After(2 * time.Second):
		d.Session.host.Signal(syscall.SIGKILL)
	}
}

func (d *Daemon) cleanup() {
	d.Session.stopRecording()
	os.Remove(d.socketPath)
	d.Session.host.Close()
}

func (d *Daemon) readPTYLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := d.Session.host.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			d.Session.feedOutput(chunk)
		}
		if err != nil {
			if err != io.EOF {
				d.log.Error("pty read error", "err", err)
			}
			return
		}
	}
}

func (d *Daemon) waitChild(cancel context.CancelFunc) {
	err := d.Session.host.Wait()
	d.Session.markExited(err)
	d.log.Info("child exited", "err", err)
	d.Shutdown()
	cancel()
}

func defaultTracePath(id string) string {
	return fmt.Sprintf("%s/tui-wright-%s.cast", os.TempDir(), id)
}

func errResponse(err error) protocol.Response {
	if err == nil {
		return protocol.Response{OK: true}
	}

	kind := classify(err)
	return protocol.Response{OK: false, Error: kind, Message: err.Error()}
}

// classify maps any error this package's operations can return to its
// protocol error kind, by sentinel match where one exists and by type
// switch for the richer typed errors from the keys/mouse packages.
func classify(err error) protocol.ErrorKind {
	switch {
	case errors.Is(err, protocol.ErrChildExited):
		return protocol.KindErrChildExited
	case errors.Is(err, protocol.ErrInvalidCoordinates):
		return protocol.KindErrInvalidCoordinates
	case errors.Is(err, protocol.ErrIoError):
		return protocol.KindErrIoError
	}

	var unknownKey keys.ErrUnknownKey
	if errors.As(err, &unknownKey) {
		return protocol.KindErrUnknownKeyName
	}
	var unsupportedMod keys.ErrUnsupportedModifier
	if errors.As(err, &unsupportedMod) {
		return protocol.KindErrUnsupportedModifier
	}
	var unknownAction mouse.ErrUnknownAction
	if errors.As(err, &unknownAction) {
		return protocol.KindErrUnknownMouseAction
	}

	return protocol.KindErrIoError
}
