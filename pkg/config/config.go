package config

import (
	"time"

	"github.com/zomem/alacritty-mac/pkg/paths"
)

// Config holds every startup input of the launcher. No new file format: one
// YAML file under the cmdwin config dir.
type Config struct {
	MenuLabel   string        `yaml:"menu_label"`    // menu-bar item title
	Hotkey      string        `yaml:"hotkey"`        // e.g. "cmd+shift+f12", "f12", "" to disable
	ShowOnStart bool          `yaml:"show_on_start"` // reveal the window when the owner starts
	Window      Window        `yaml:"window"`
	Animation   Animation     `yaml:"animation"`
	Engine      Engine        `yaml:"engine"`
	Notify      Notifications `yaml:"notifications"`
}

// Window is the anchor/position policy handed to the engine at create time.
type Window struct {
	Anchor        string `yaml:"anchor"`         // "top", "bottom", "left", "right"
	SizePercent   int    `yaml:"size_percent"`   // share of the screen along the drop axis
	Margin        int    `yaml:"margin"`         // px gap from the anchored edge
	FollowsCursor bool   `yaml:"follows_cursor"` // anchor on the display with the pointer
}

type Animation struct {
	DurationMS int `yaml:"duration_ms"`
}

// Duration returns the reveal/hide animation length.
func (a Animation) Duration() time.Duration {
	return time.Duration(a.DurationMS) * time.Millisecond
}

// Engine describes how to start and talk to the terminal engine.
type Engine struct {
	Command        string   `yaml:"command"` // engine binary
	Args           []string `yaml:"args"`
	Theme          string   `yaml:"theme"` // theme file path, "" for engine default
	ReadyTimeoutMS int      `yaml:"ready_timeout_ms"`
}

// ReadyTimeout bounds the create handshake.
func (e Engine) ReadyTimeout() time.Duration {
	return time.Duration(e.ReadyTimeoutMS) * time.Millisecond
}

type Notifications struct {
	Silent bool `yaml:"silent"` // suppress user-visible failure notifications
}

// Anchors valid for Window.Anchor.
var Anchors = []string{"top", "bottom", "left", "right"}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() string {
	return paths.ConfigPath()
}
