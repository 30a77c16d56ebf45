// Package keys canonicalizes the symbolic key-name lexicon of the request
// protocol into the byte sequences the PTY expects.
package keys

import (
	"fmt"
	"strings"
)

// ErrUnknownKey and ErrUnsupportedModifier classify lookup failures so the
// protocol layer can map them to their response error kinds without string
// matching.
type ErrUnknownKey struct{ Name string }

func (e ErrUnknownKey) Error() string { return fmt.Sprintf("unknown key %q", e.Name) }

type ErrUnsupportedModifier struct{ Name string }

func (e ErrUnsupportedModifier) Error() string {
	return fmt.Sprintf("unsupported modifier in key %q (shift+ is not supported, send literal text instead)", e.Name)
}

var named = map[string]string{
	"up":        "\x1b[A",
	"down":      "\x1b[B",
	"right":     "\x1b[C",
	"left":      "\x1b[D",
	"home":      "\x1b[H",
	"end":       "\x1b[F",
	"pageup":    "\x1b[5~",
	"pgup":      "\x1b[5~",
	"pagedown":  "\x1b[6~",
	"pgdn":      "\x1b[6~",
	"enter":     "\r",
	"return":    "\r",
	"tab":       "\t",
	"backspace": "\x7f",
	"bs":        "\x7f",
	"delete":    "\x1b[3~",
	"del":       "\x1b[3~",
	"insert":    "\x1b[2~",
	"ins":       "\x1b[2~",
	"space":     " ",
	"escape":    "\x1b",
	"esc":       "\x1b",
	"f1":        "\x1bOP",
	"f2":        "\x1bOQ",
	"f3":        "\x1bOR",
	"f4":        "\x1bOS",
	"f5":        "\x1b[15~",
	"f6":        "\x1b[17~",
	"f7":        "\x1b[18~",
	"f8":        "\x1b[19~",
	"f9":        "\x1b[20~",
	"f10":       "\x1b[21~",
	"f11":       "\x1b[23~",
	"f12":       "\x1b[24~",
}

// Resolve canonicalizes name (case-insensitive) and returns its byte
// sequence, or an error identifying why it could not be resolved.
func Resolve(name string) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(name))

	if seq, ok := named[lower]; ok {
		return seq, nil
	}

	if strings.HasPrefix(lower, "shift+") || strings.HasPrefix(lower, "shift-") {
		return "", ErrUnsupportedModifier{Name: name}
	}

	if rest, ok := cutPrefix(lower, "ctrl+", "ctrl-"); ok {
		if len(rest) != 1 || rest[0] < 'a' || rest[0] > 'z' {
			return "", ErrUnknownKey{Name: name}
		}
		return string(rune(rest[0] - 'a' + 1)), nil
	}

	if rest, ok := cutPrefix(lower, "alt+", "alt-"); ok {
		if len([]rune(rest)) != 1 {
			return "", ErrUnknownKey{Name: name}
		}
		return "\x1b" + rest, nil
	}

	return "", ErrUnknownKey{Name: name}
}

func cutPrefix(s string, prefixes ...string) (string, bool) {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return s[len(p):], true
		}
	}
	return "", false
}
