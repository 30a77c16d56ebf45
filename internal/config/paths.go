package config

import (
	"os"
	"path/filepath"
)

// GetUserConfigDir returns the directory holding tui-wright's user-level
// settings.json/settings.yaml, without creating it.
func GetUserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".tui-wright"), nil
}

// EnsureConfigDir creates the user config directory if it is absent.
func EnsureConfigDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}

// TempDir returns $TMPDIR, falling back to /tmp — the directory sessions'
// sockets and default trace files live under.
func TempDir() string {
	if d := os.Getenv("TMPDIR"); d != "" {
		return filepath.Clean(d)
	}
	return "/tmp"
}
