// Package socketpath encapsulates the one piece of process-wide state this
// program has: deriving a session's socket path and discovering sessions by
// scanning the directory that holds them. Every helper takes the directory
// explicitly rather than reading a hidden constant, so tests can point it
// at a temp dir.
package socketpath

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

const prefix = "tui-wright-"
const suffix = ".sock"

// For derives the deterministic socket path for a session id inside dir
// (normally $TMPDIR).
func For(dir, id string) string {
	return filepath.Join(dir, prefix+id+suffix)
}

// IDFromPath extracts a session id from a socket path produced by For, or
// returns ok=false if name doesn't match the pattern.
func IDFromPath(path string) (id string, ok bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix), true
}

// List scans dir for session sockets and returns their ids.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if id, ok := IDFromPath(e.Name()); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// WaitForAppear blocks until a session socket for id appears under dir, or
// ctx is cancelled, watching dir for events instead of polling. No command
// in this program calls it; `list` scans the directory once.
func WaitForAppear(ctx context.Context, dir, id string) error {
	path := For(dir, id)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return ctx.Err()
			}
			if ev.Name == path && (ev.Op&(fsnotify.Create|fsnotify.Write) != 0) {
				return nil
			}
		case err := <-watcher.Errors:
			if err != nil {
				return err
			}
		}
	}
}
