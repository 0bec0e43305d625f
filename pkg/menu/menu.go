// Package menu models the menu-bar item for the command window: the item
// list, label handling, and the theme submenu built from the theme
// directory.
package menu

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Action identifies what a menu item does when clicked.
type Action int

const (
	ActionToggle Action = iota
	ActionNewWindow
	ActionTheme
	ActionOpenConfig
	ActionQuit
)

// Item is one entry of the menu-bar menu.
type Item struct {
	Action Action
	Label  string
	Theme  string // theme file path for ActionTheme items
}

// maxLabelWidth keeps menu-bar titles from eating the whole status area.
const maxLabelWidth = 24

// TruncateLabel shortens a label to the given display width, ellipsized.
func TruncateLabel(label string, width int) string {
	if runewidth.StringWidth(label) <= width {
		return label
	}
	return runewidth.Truncate(label, width, "…")
}

// BarTitle returns the menu-bar title for a configured label.
func BarTitle(label string) string {
	return TruncateLabel(strings.TrimSpace(label), maxLabelWidth)
}

// BuildItems assembles the menu in the fixed order users see it: toggle
// first, then window/theme actions, then config, quit last.
func BuildItems(toggleLabel string, themes []string) []Item {
	items := []Item{
		{Action: ActionToggle, Label: TruncateLabel(toggleLabel, maxLabelWidth)},
		{Action: ActionNewWindow, Label: "New Window"},
	}
	for _, theme := range themes {
		items = append(items, Item{
			Action: ActionTheme,
			Label:  themeLabel(theme),
			Theme:  theme,
		})
	}
	items = append(items,
		Item{Action: ActionOpenConfig, Label: "Open Config"},
		Item{Action: ActionQuit, Label: "Quit"},
	)
	return items
}

// themeExts are the file types offered in the theme submenu.
var themeExts = map[string]bool{
	".toml": true,
	".yml":  true,
	".yaml": true,
}

// ListThemes returns the theme files under dir, sorted by name. A missing
// directory is an empty submenu, not an error.
func ListThemes(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var themes []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if themeExts[strings.ToLower(filepath.Ext(entry.Name()))] {
			themes = append(themes, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(themes)
	return themes, nil
}

// themeLabel renders a theme path as a human menu label ("nord", not
// "/home/x/.config/cmdwin/themes/nord.toml").
func themeLabel(path string) string {
	base := filepath.Base(path)
	return TruncateLabel(strings.TrimSuffix(base, filepath.Ext(base)), maxLabelWidth)
}
