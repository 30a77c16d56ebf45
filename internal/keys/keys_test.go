package keys

import "testing"

func TestResolveNamed(t *testing.T) {
	cases := map[string]string{
		"up":       "\x1b[A",
		"ENTER":    "\r",
		"pgup":     "\x1b[5~",
		"pagedown": "\x1b[6~",
		"Esc":      "\x1b",
		"f1":       "\x1bOP",
	}
	for name, want := range cases {
		got, err := Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", name, err)
		}
		if got != want {
			t.Errorf("Resolve(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestResolveCtrl(t *testing.T) {
	got, err := Resolve("ctrl+a")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "\x01" {
		t.Errorf("ctrl+a = %q, want 0x01", got)
	}

	got, err = Resolve("ctrl-z")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "\x1a" {
		t.Errorf("ctrl-z = %q, want 0x1a", got)
	}
}

func TestResolveAlt(t *testing.T) {
	got, err := Resolve("alt+m")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != "\x1bm" {
		t.Errorf("alt+m = %q, want ESC m", got)
	}
}

func TestResolveShiftRejected(t *testing.T) {
	_, err := Resolve("shift+m")
	if _, ok := err.(ErrUnsupportedModifier); !ok {
		t.Fatalf("expected ErrUnsupportedModifier, got %v", err)
	}
}

func TestResolveUnknown(t *testing.T) {
	_, err := Resolve("nonsense")
	if _, ok := err.(ErrUnknownKey); !ok {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}
