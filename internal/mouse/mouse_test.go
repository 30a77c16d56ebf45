package mouse

import "testing"

func TestEncodePress(t *testing.T) {
	got, err := Encode("press", 9, 4)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "\x1b[<0;10;5M"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeLargeCoordinatesNotTruncated(t *testing.T) {
	got, err := Encode("press", 299, 299)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := "\x1b[<0;300;300M"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestEncodeRelease(t *testing.T) {
	got, err := Encode("release", 0, 0)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got != "\x1b[<0;1;1m" {
		t.Errorf("got %q", got)
	}
}

func TestEncodeScroll(t *testing.T) {
	up, _ := Encode("scrollup", 0, 0)
	if up != "\x1b[<64;1;1M" {
		t.Errorf("scrollup got %q", up)
	}
	down, _ := Encode("scrolldown", 0, 0)
	if down != "\x1b[<65;1;1M" {
		t.Errorf("scrolldown got %q", down)
	}
}

func TestEncodeUnknown(t *testing.T) {
	_, err := Encode("teleport", 0, 0)
	if _, ok := err.(ErrUnknownAction); !ok {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}
