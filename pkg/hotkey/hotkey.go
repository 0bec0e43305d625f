// Package hotkey parses hotkey bindings and registers the one global
// activation key for the command window.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyBinding = errors.New("empty hotkey binding")
	ErrUnknownKey   = errors.New("unknown key name")
	ErrUnknownMod   = errors.New("unknown modifier name")
)

// Modifiers is a bitset of hotkey modifier keys.
type Modifiers uint8

const (
	ModCmd Modifiers = 1 << iota
	ModShift
	ModOption
	ModCtrl
)

// Carbon modifier bits, for engines and tools that persist the binding the
// way the macOS fork does.
const (
	carbonCmd    = 1 << 8
	carbonShift  = 1 << 9
	carbonOption = 1 << 11
	carbonCtrl   = 1 << 12
)

// Carbon returns the Carbon-style modifier mask for this set.
func (m Modifiers) Carbon() uint32 {
	var out uint32
	if m&ModCmd != 0 {
		out |= carbonCmd
	}
	if m&ModShift != 0 {
		out |= carbonShift
	}
	if m&ModOption != 0 {
		out |= carbonOption
	}
	if m&ModCtrl != 0 {
		out |= carbonCtrl
	}
	return out
}

func (m Modifiers) String() string {
	var parts []string
	if m&ModCmd != 0 {
		parts = append(parts, "cmd")
	}
	if m&ModCtrl != 0 {
		parts = append(parts, "ctrl")
	}
	if m&ModOption != 0 {
		parts = append(parts, "option")
	}
	if m&ModShift != 0 {
		parts = append(parts, "shift")
	}
	return strings.Join(parts, "+")
}

// Binding is one parsed hotkey combination. Code is the macOS virtual
// keycode for Key.
type Binding struct {
	Mods Modifiers
	Key  string
	Code uint16
}

func (b Binding) String() string {
	mods := b.Mods.String()
	if mods == "" {
		return b.Key
	}
	return mods + "+" + b.Key
}

// macKeyCode maps key names to macOS virtual keycodes. The F-key block is
// the range the fork's status bar accepts for its hotkey recorder.
var macKeyCode = map[string]uint16{
	"f1": 122, "f2": 120, "f3": 99, "f4": 118, "f5": 96,
	"f6": 97, "f7": 98, "f8": 100, "f9": 101, "f10": 109,
	"f11": 103, "f12": 111, "f13": 105, "f14": 107, "f15": 113,
	"f16": 106, "f17": 64, "f18": 79, "f19": 80,

	"a": 0, "s": 1, "d": 2, "f": 3, "h": 4, "g": 5, "z": 6, "x": 7,
	"c": 8, "v": 9, "b": 11, "q": 12, "w": 13, "e": 14, "r": 15,
	"y": 16, "t": 17, "o": 31, "u": 32, "i": 34, "p": 35, "l": 37,
	"j": 38, "k": 40, "n": 45, "m": 46,

	"1": 18, "2": 19, "3": 20, "4": 21, "5": 23, "6": 22, "7": 26,
	"8": 28, "9": 25, "0": 29,

	"space": 49, "grave": 50, "`": 50,
}

var modNames = map[string]Modifiers{
	"cmd":     ModCmd,
	"command": ModCmd,
	"super":   ModCmd,
	"shift":   ModShift,
	"alt":     ModOption,
	"option":  ModOption,
	"ctrl":    ModCtrl,
	"control": ModCtrl,
}

// Parse reads a binding like "cmd+shift+f12" or "f12". The last element is
// the key; everything before it must be a modifier.
func Parse(spec string) (Binding, error) {
	spec = strings.TrimSpace(strings.ToLower(spec))
	if spec == "" {
		return Binding{}, ErrEmptyBinding
	}

	parts := strings.Split(spec, "+")
	var b Binding
	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == len(parts)-1 {
			code, ok := macKeyCode[part]
			if !ok {
				return Binding{}, fmt.Errorf("%w: %q", ErrUnknownKey, part)
			}
			b.Key = part
			b.Code = code
			continue
		}
		mod, ok := modNames[part]
		if !ok {
			return Binding{}, fmt.Errorf("%w: %q", ErrUnknownMod, part)
		}
		b.Mods |= mod
	}
	return b, nil
}
