// Package mouse encodes mouse actions into SGR mouse-reporting escape
// sequences, the format that avoids the legacy 223-column coordinate limit.
package mouse

import (
	"fmt"
	"strings"
)

// ErrUnknownAction identifies an unrecognized action name.
type ErrUnknownAction struct{ Action string }

func (e ErrUnknownAction) Error() string { return fmt.Sprintf("unknown mouse action %q", e.Action) }

// buttonCode, suffix per action; "press" is an alias of "click".
var actions = map[string]struct {
	button int
	suffix byte
}{
	"press":      {0, 'M'},
	"click":      {0, 'M'},
	"release":    {0, 'm'},
	"move":       {34, 'M'},
	"scrollup":   {64, 'M'},
	"scrolldown": {65, 'M'},
}

// Encode converts a 0-indexed (col, row) mouse event to its SGR byte
// sequence: CSI < button ; col ; row M|m, with coordinates shifted to the
// 1-indexed SGR convention.
func Encode(action string, col, row int) (string, error) {
	a, ok := actions[strings.ToLower(strings.TrimSpace(action))]
	if !ok {
		return "", ErrUnknownAction{Action: action}
	}
	return fmt.Sprintf("\x1b[<%d;%d;%d%c", a.button, col+1, row+1, a.suffix), nil
}
