// Package protocol defines the request/response wire vocabulary exchanged
// as a single JSON object per freshly-connected stream socket connection,
// and the closed set of error kinds a handler can report.
package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"net"

	"github.com/ehrlich-b/tui-wright/internal/emulator"
)

// Sentinel errors for the error kinds that don't already have a richer
// typed error elsewhere (keys.ErrUnknownKey, mouse.ErrUnknownAction, and
// keys.ErrUnsupportedModifier carry their own detail and are classified by
// type instead).
var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrChildExited        = errors.New("child exited")
	ErrTimeout            = errors.New("waitfor timed out")
	ErrIoError            = errors.New("io error")
	ErrProtocolError      = errors.New("malformed request")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// Kind enumerates every request kind this program understands. Adding a
// new value here without a corresponding case in the dispatcher's switch
// is caught at review time, not at runtime — see Daemon.dispatch in the session
// package for the exhaustive match this type exists to support.
type Kind string

const (
	KindScreen       Kind = "screen"
	KindCursor       Kind = "cursor"
	KindType         Kind = "type"
	KindKey          Kind = "key"
	KindMouse        Kind = "mouse"
	KindResize       Kind = "resize"
	KindWaitFor      Kind = "waitfor"
	KindAssert       Kind = "assert"
	KindSnapshotDiff Kind = "snapshot_diff"
	KindTraceStart   Kind = "trace_start"
	KindTraceStop    Kind = "trace_stop"
	KindTraceMarker  Kind = "trace_marker"
	KindKill         Kind = "kill"
)

// ErrorKind is the closed set of error identifiers from §7, carried in a
// response's "error" field so clients can branch on the kind rather than
// the human-readable message.
type ErrorKind string

const (
	KindErrSessionNotFound     ErrorKind = "SessionNotFound"
	KindErrUnknownKeyName      ErrorKind = "UnknownKeyName"
	KindErrUnknownMouseAction  ErrorKind = "UnknownMouseAction"
	KindErrUnsupportedModifier ErrorKind = "UnsupportedModifier"
	KindErrInvalidCoordinates  ErrorKind = "InvalidCoordinates"
	KindErrTimeout             ErrorKind = "Timeout"
	KindErrIoError             ErrorKind = "IoError"
	KindErrProtocolError       ErrorKind = "ProtocolError"
	KindErrChildExited         ErrorKind = "ChildExited"
)

// Request is the single JSON object a client sends; fields unused by Kind
// are left zero. Flattened rather than nested per-kind payloads, since the
// wire contract is "one JSON object", not a tagged union of sub-objects.
type Request struct {
	Kind      Kind           `json:"kind"`
	Format    string         `json:"format,omitempty"`
	Text      string         `json:"text,omitempty"`
	Name      string         `json:"name,omitempty"`
	Action    string         `json:"action,omitempty"`
	Col       int            `json:"col,omitempty"`
	Row       int            `json:"row,omitempty"`
	Cols      int            `json:"cols,omitempty"`
	Rows      int            `json:"rows,omitempty"`
	TimeoutMS *int           `json:"timeout_ms,omitempty"`
	Baseline  *emulator.Grid `json:"baseline,omitempty"`
	Path      string         `json:"path,omitempty"`
	Label     string         `json:"label,omitempty"`
}

// Response is the single JSON object written back. OK is always present;
// all else is populated according to the request Kind that produced it.
type Response struct {
	OK      bool           `json:"ok"`
	Error   ErrorKind      `json:"error,omitempty"`
	Message string         `json:"message,omitempty"`
	Text    string         `json:"text,omitempty"`
	Row     int            `json:"row"`
	Col     int            `json:"col"`
	Grid    *emulator.Grid `json:"grid,omitempty"`
	Found   bool           `json:"found,omitempty"`
	Diff    *Diff          `json:"diff,omitempty"`
	Path    string         `json:"path,omitempty"`
}

// Diff is the result of comparing two grids per §4.5.
type Diff struct {
	Identical         bool           `json:"identical"`
	DimensionsChanged *DimsChange    `json:"dimensions_changed,omitempty"`
	CursorChanged     *CursorChange  `json:"cursor_changed,omitempty"`
	ChangedCells      []ChangedCell  `json:"changed_cells"`
	Summary           DiffSummary    `json:"summary"`
}

type Dims struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type DimsChange struct {
	Old Dims `json:"old"`
	New Dims `json:"new"`
}

type CursorPos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type CursorChange struct {
	Old CursorPos `json:"old"`
	New CursorPos `json:"new"`
}

type ChangedCell struct {
	Row int            `json:"row"`
	Col int            `json:"col"`
	Old emulator.Cell  `json:"old"`
	New emulator.Cell  `json:"new"`
}

type DiffSummary struct {
	ChangedCount int `json:"changed_count"`
	TotalCells   int `json:"total_cells"`
}

// ComputeDiff compares a baseline grid to the current one per §4.5: when
// dimensions differ, only the overlapping sub-rectangle is compared and
// the dimension change is reported; changed_cells is ordered (row, col)
// ascending.
func ComputeDiff(baseline, current emulator.Grid) Diff {
	d := Diff{Identical: true, ChangedCells: []ChangedCell{}}

	if baseline.Rows != current.Rows || baseline.Cols != current.Cols {
		d.Identical = false
		d.DimensionsChanged = &DimsChange{
			Old: Dims{Rows: baseline.Rows, Cols: baseline.Cols},
			New: Dims{Rows: current.Rows, Cols: current.Cols},
		}
	}

	if baseline.CursorRow != current.CursorRow || baseline.CursorCol != current.CursorCol {
		d.Identical = false
		d.CursorChanged = &CursorChange{
			Old: CursorPos{Row: baseline.CursorRow, Col: baseline.CursorCol},
			New: CursorPos{Row: current.CursorRow, Col: current.CursorCol},
		}
	}

	rows := min(baseline.Rows, current.Rows)
	cols := min(baseline.Cols, current.Cols)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			oldCell := baseline.Cells[r][c]
			newCell := current.Cells[r][c]
			if cellsEqual(oldCell, newCell) {
				continue
			}
			d.Identical = false
			d.ChangedCells = append(d.ChangedCells, ChangedCell{Row: r, Col: c, Old: oldCell, New: newCell})
		}
	}

	d.Summary = DiffSummary{
		ChangedCount: len(d.ChangedCells),
		TotalCells:   rows * cols,
	}

	return d
}

func cellsEqual(a, b emulator.Cell) bool {
	return a.Char == b.Char && a.Fg == b.Fg && a.Bg == b.Bg &&
		a.Bold == b.Bold && a.Italic == b.Italic && a.Underline == b.Underline && a.Inverse == b.Inverse
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// ReadRequest reads a single JSON object from conn: up to the first
// newline, or to EOF if the client closes its write side without one.
func ReadRequest(conn net.Conn) (Request, error) {
	r := bufio.NewReader(conn)
	line, err := r.ReadBytes('\n')
	if err != nil && err != io.EOF {
		return Request{}, err
	}
	if len(line) == 0 {
		return Request{}, io.ErrUnexpectedEOF
	}

	var req Request
	if jsonErr := json.Unmarshal(line, &req); jsonErr != nil {
		return Request{}, jsonErr
	}
	return req, nil
}

// WriteResponse writes a single JSON response object to conn.
func WriteResponse(conn net.Conn, resp Response) error {
	return json.NewEncoder(conn).Encode(resp)
}
