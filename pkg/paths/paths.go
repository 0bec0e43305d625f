// Package paths provides centralized path resolution for cmdwin's config,
// state, and runtime files.
//
// Layout (XDG-style):
//
//	Config:  ~/.config/cmdwin/config.yaml  (override: CMDWIN_CONFIG_DIR)
//	State:   ~/.local/state/cmdwin/        (override: CMDWIN_STATE_DIR)
//	Themes:  <config>/themes/
//	Runtime: /tmp/cmdwin-*                 (override: CMDWIN_RUNTIME_ID)
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	configDirOnce   sync.Once
	configDirCached string

	stateDirOnce   sync.Once
	stateDirCached string
)

// ConfigDir resolves the config directory.
// Priority: CMDWIN_CONFIG_DIR env > ~/.config/cmdwin/
func ConfigDir() string {
	configDirOnce.Do(func() {
		if env := os.Getenv("CMDWIN_CONFIG_DIR"); env != "" {
			configDirCached = env
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				configDirCached = "."
			} else {
				configDirCached = filepath.Join(home, ".config", "cmdwin")
			}
		}
	})
	return configDirCached
}

// StateDir resolves the state directory.
// Priority: CMDWIN_STATE_DIR env > ~/.local/state/cmdwin/
func StateDir() string {
	stateDirOnce.Do(func() {
		if env := os.Getenv("CMDWIN_STATE_DIR"); env != "" {
			stateDirCached = env
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				stateDirCached = "."
			} else {
				stateDirCached = filepath.Join(home, ".local", "state", "cmdwin")
			}
		}
	})
	return stateDirCached
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ThemeDir returns the directory scanned for engine theme files.
func ThemeDir() string {
	return filepath.Join(ConfigDir(), "themes")
}

// StatePath returns the full path to a state file (e.g. "events.log").
func StatePath(filename string) string {
	return filepath.Join(StateDir(), filename)
}

// runtimeID distinguishes parallel launcher roles (mainly for tests).
func runtimeID() string {
	if env := os.Getenv("CMDWIN_RUNTIME_ID"); env != "" {
		return env
	}
	return "default"
}

// SocketPath returns the singleton control socket path.
func SocketPath() string {
	return fmt.Sprintf("/tmp/cmdwin-%s.sock", runtimeID())
}

// PidPath returns the singleton pidfile path.
func PidPath() string {
	return fmt.Sprintf("/tmp/cmdwin-%s.pid", runtimeID())
}

// EnsureConfigDir creates the config directory if it doesn't exist and returns its path.
func EnsureConfigDir() (string, error) {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir %s: %w", dir, err)
	}
	return dir, nil
}

// EnsureStateDir creates the state directory if it doesn't exist and returns its path.
func EnsureStateDir() (string, error) {
	dir := StateDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create state dir %s: %w", dir, err)
	}
	return dir, nil
}

// ShortenHome replaces the user's home directory prefix with "~".
// Display only; never feed the result back into file operations.
func ShortenHome(p string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	if p == home {
		return "~"
	}
	if strings.HasPrefix(p, home) {
		suffix := p[len(home):]
		if strings.HasPrefix(suffix, string(os.PathSeparator)) {
			return "~" + suffix
		}
	}
	return p
}

// ResetForTest clears cached values so tests can re-run resolution logic.
// Only use in tests.
func ResetForTest() {
	configDirOnce = sync.Once{}
	configDirCached = ""
	stateDirOnce = sync.Once{}
	stateDirCached = ""
}
