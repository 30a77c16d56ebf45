package recorder

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestStartWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.cast")
	rec, err := Start(path, 80, 24)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer rec.Stop()

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		t.Fatal("expected a header line")
	}
	var h header
	if err := json.Unmarshal(sc.Bytes(), &h); err != nil {
		t.Fatalf("header not valid json: %v", err)
	}
	if h.Version != 2 || h.Width != 80 || h.Height != 24 {
		t.Fatalf("unexpected header: %+v", h)
	}
}

func TestEventsAreOrderedAndMonotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.cast")
	rec, err := Start(path, 80, 24)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := rec.Input("echo hi"); err != nil {
		t.Fatal(err)
	}
	if err := rec.Marker(`type "echo hi"`); err != nil {
		t.Fatal(err)
	}
	if err := rec.Output([]byte("echo hi\r\n")); err != nil {
		t.Fatal(err)
	}
	if err := rec.Resize(100, 30); err != nil {
		t.Fatal(err)
	}
	if err := rec.Stop(); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Scan() // header

	var lastTime float64
	codes := []string{}
	for sc.Scan() {
		var ev []json.RawMessage
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("event not valid json array: %v", err)
		}
		if len(ev) != 3 {
			t.Fatalf("expected 3-element event, got %d", len(ev))
		}
		var tm float64
		if err := json.Unmarshal(ev[0], &tm); err != nil {
			t.Fatal(err)
		}
		if tm < lastTime {
			t.Fatalf("timestamp went backwards: %v after %v", tm, lastTime)
		}
		lastTime = tm

		var code string
		json.Unmarshal(ev[1], &code)
		codes = append(codes, code)
	}

	want := []string{"i", "m", "o", "r"}
	if len(codes) != len(want) {
		t.Fatalf("got codes %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("event %d: got %q, want %q", i, codes[i], want[i])
		}
	}
}
