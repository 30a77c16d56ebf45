package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the tunables a tui-wright invocation reads from disk before
// flags are applied. Flags always win over file values; file values win
// over the defaults below.
type Config struct {
	SocketDir          string `json:"socket_dir,omitempty" yaml:"socket_dir,omitempty"`
	DefaultCols        int    `json:"default_cols,omitempty" yaml:"default_cols,omitempty"`
	DefaultRows        int    `json:"default_rows,omitempty" yaml:"default_rows,omitempty"`
	DefaultWaitTimeout int    `json:"default_wait_timeout_ms,omitempty" yaml:"default_wait_timeout_ms,omitempty"`
	TraceDir           string `json:"trace_dir,omitempty" yaml:"trace_dir,omitempty"`
	LogLevel           string `json:"log_level,omitempty" yaml:"log_level,omitempty"`
	LogFile            string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

// Defaults returns the built-in values used when neither a settings file
// nor a flag supplies one.
func Defaults() Config {
	return Config{
		SocketDir:          TempDir(),
		DefaultCols:        80,
		DefaultRows:        24,
		DefaultWaitTimeout: 5000,
		TraceDir:           TempDir(),
		LogLevel:           "info",
	}
}

// Load reads settings.json, then settings.yaml, from userConfigDir, layering
// each found file's non-zero fields over the running config. Missing files
// are not an error.
func Load(userConfigDir string) (Config, error) {
	cfg := Defaults()

	if err := mergeFile(&cfg, filepath.Join(userConfigDir, "settings.json"), json.Unmarshal); err != nil {
		return cfg, err
	}
	if err := mergeFile(&cfg, filepath.Join(userConfigDir, "settings.yaml"), yaml.Unmarshal); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func mergeFile(cfg *Config, path string, unmarshal func([]byte, any) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var override Config
	if err := unmarshal(data, &override); err != nil {
		return err
	}
	mergeInto(cfg, override)
	return nil
}

func mergeInto(cfg *Config, override Config) {
	if override.SocketDir != "" {
		cfg.SocketDir = override.SocketDir
	}
	if override.DefaultCols != 0 {
		cfg.DefaultCols = override.DefaultCols
	}
	if override.DefaultRows != 0 {
		cfg.DefaultRows = override.DefaultRows
	}
	if override.DefaultWaitTimeout != 0 {
		cfg.DefaultWaitTimeout = override.DefaultWaitTimeout
	}
	if override.TraceDir != "" {
		cfg.TraceDir = override.TraceDir
	}
	if override.LogLevel != "" {
		cfg.LogLevel = override.LogLevel
	}
	if override.LogFile != "" {
		cfg.LogFile = override.LogFile
	}
}

// Save writes the config as indented JSON to userConfigDir/settings.json,
// creating the directory if needed.
func Save(userConfigDir string, cfg Config) error {
	if err := EnsureConfigDir(userConfigDir); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(userConfigDir, "settings.json"), data, 0644)
}
