// Package emulator turns a raw PTY byte stream into the structured Cell/Grid
// vocabulary the rest of tui-wright speaks, adapting the terminal library's
// own cell model and default colors to this program's contract.
package emulator

import (
	"image/color"
	"strconv"
	"strings"

	headlessterm "github.com/danielgatis/go-headless-term"
)

func init() {
	// The spec's default fg/bg differ from the library's own built-in
	// defaults (light gray on black); override the package-level vars so
	// every unset cell resolves to the colors this program promises.
	headlessterm.DefaultForeground = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	headlessterm.DefaultBackground = color.RGBA{R: 0, G: 0, B: 0, A: 255}
}

// RGB is an 0-255 color triple.
type RGB struct {
	R, G, B int
}

var (
	defaultFg = RGB{255, 255, 255}
	defaultBg = RGB{0, 0, 0}
)

// Cell is a single on-screen position per the Cell tuple: char, fg, bg and
// the four boolean style flags. The empty string denotes an unset cell.
type Cell struct {
	Char      string `json:"char"`
	Fg        RGB    `json:"fg"`
	Bg        RGB    `json:"bg"`
	Bold      bool   `json:"bold"`
	Italic    bool   `json:"italic"`
	Underline bool   `json:"underline"`
	Inverse   bool   `json:"inverse"`
}

// Grid is a row-major rectangular capture of the screen plus cursor.
type Grid struct {
	Rows      int      `json:"rows"`
	Cols      int      `json:"cols"`
	Cells     [][]Cell `json:"cells"`
	CursorRow int      `json:"cursor_row"`
	CursorCol int      `json:"cursor_col"`
}

// Emulator wraps a headlessterm.Terminal, presenting the feed/resize/
// snapshot/cursor contract this program's callers depend on. The wrapped
// terminal is already internally thread-safe; the session layer's
// read/write lease still governs who is allowed to call in, so no
// additional locking is added here.
type Emulator struct {
	term *headlessterm.Terminal
}

// New constructs an Emulator at the given dimensions. Sixel/Kitty image
// synthesis is disabled: the spec excludes graphics entirely.
func New(cols, rows int) *Emulator {
	term := headlessterm.New(
		headlessterm.WithSize(rows, cols),
		headlessterm.WithSixel(false),
		headlessterm.WithKitty(false),
	)
	return &Emulator{term: term}
}

// Feed advances emulator state with the given bytes. Malformed sequences
// are silently discarded by the underlying decoder, matching the no-error
// contract.
func (e *Emulator) Feed(p []byte) {
	e.term.Write(p)
}

// Resize reshapes the grid, preserving in-bounds content; newly exposed
// cells are blank with default attributes.
func (e *Emulator) Resize(cols, rows int) {
	e.term.Resize(rows, cols)
}

// Cursor returns the current cursor position.
func (e *Emulator) Cursor() (row, col int) {
	return e.term.CursorPos()
}

// Snapshot produces a value-copy Grid; callers may hold it indefinitely
// without blocking further emulator writes.
func (e *Emulator) Snapshot() Grid {
	snap := e.term.Snapshot(headlessterm.SnapshotDetailFull)

	grid := Grid{
		Rows:      snap.Size.Rows,
		Cols:      snap.Size.Cols,
		Cells:     make([][]Cell, snap.Size.Rows),
		CursorRow: snap.Cursor.Row,
		CursorCol: snap.Cursor.Col,
	}

	for r, line := range snap.Lines {
		row := make([]Cell, len(line.Cells))
		for c, sc := range line.Cells {
			ch := sc.Char
			if ch == " " && !hasVisibleAttrs(sc.Attributes) && sc.Fg == hexOf(defaultFg) && sc.Bg == hexOf(defaultBg) {
				ch = ""
			}
			row[c] = Cell{
				Char:      ch,
				Fg:        parseHex(sc.Fg, defaultFg),
				Bg:        parseHex(sc.Bg, defaultBg),
				Bold:      sc.Attributes.Bold,
				Italic:    sc.Attributes.Italic,
				Underline: sc.Attributes.Underline,
				Inverse:   sc.Attributes.Reverse,
			}
		}
		grid.Cells[r] = row
	}

	return grid
}

// Text renders the grid as the §4.5 text format: each row's chars
// concatenated, right-trimmed, joined by newlines, with trailing blank
// lines removed.
func (g Grid) Text() string {
	lines := make([]string, 0, g.Rows)
	for _, row := range g.Cells {
		var sb strings.Builder
		for _, c := range row {
			if c.Char == "" {
				sb.WriteByte(' ')
			} else {
				sb.WriteString(c.Char)
			}
		}
		lines = append(lines, strings.TrimRight(sb.String(), " \t"))
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func hasVisibleAttrs(a headlessterm.SnapshotAttrs) bool {
	return a.Bold || a.Dim || a.Italic || a.Underline || a.Blink || a.Reverse || a.Hidden || a.Strikethrough
}

func hexOf(c RGB) string {
	return "#" + hex2(c.R) + hex2(c.G) + hex2(c.B)
}

func hex2(v int) string {
	s := strconv.FormatInt(int64(v), 16)
	if len(s) == 1 {
		s = "0" + s
	}
	return s
}

func parseHex(s string, fallback RGB) RGB {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	r, err1 := strconv.ParseInt(s[1:3], 16, 32)
	g, err2 := strconv.ParseInt(s[3:5], 16, 32)
	b, err3 := strconv.ParseInt(s[5:7], 16, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return fallback
	}
	return RGB{int(r), int(g), int(b)}
}
