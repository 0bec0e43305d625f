package menu

import (
	"sync"

	"fyne.io/systray"
)

// Bar is the installed menu-bar item. Callbacks fire on their own goroutines;
// they should hand activation off to the serialized event queue and return.
type Bar struct {
	OnToggle     func()
	OnNewWindow  func()
	OnTheme      func(path string)
	OnOpenConfig func()
	OnQuit       func()

	// sys overrides the systray calls; nil means the real status bar.
	sys *barHooks

	mu     sync.Mutex
	toggle *systray.MenuItem
	stop   chan struct{}
}

// barHooks abstracts the systray calls Install makes, so menu construction
// can be asserted without a status-bar run loop.
type barHooks struct {
	setTitle   func(string)
	setTooltip func(string)
	item       func(title, tooltip string) *systray.MenuItem
	subItem    func(parent *systray.MenuItem, title, tooltip string) *systray.MenuItem
	separator  func()
}

var defaultHooks = barHooks{
	setTitle:   systray.SetTitle,
	setTooltip: systray.SetTooltip,
	item:       systray.AddMenuItem,
	subItem: func(parent *systray.MenuItem, title, tooltip string) *systray.MenuItem {
		return parent.AddSubMenuItem(title, tooltip)
	},
	separator: systray.AddSeparator,
}

func (b *Bar) hooks() *barHooks {
	if b.sys != nil {
		return b.sys
	}
	return &defaultHooks
}

// Install builds the menu from BuildItems, so the installed menu and the item
// model cannot drift. Must be called from the systray onReady callback;
// systray.Run owns the main goroutine.
func (b *Bar) Install(label string, themes []string) {
	h := b.hooks()

	b.mu.Lock()
	b.stop = make(chan struct{})
	stop := b.stop
	b.mu.Unlock()

	h.setTitle(BarTitle(label))
	h.setTooltip("Command window")

	var themeParent *systray.MenuItem
	for _, it := range BuildItems(label, themes) {
		switch it.Action {
		case ActionToggle:
			item := h.item(it.Label, "Show or hide the command window")
			b.mu.Lock()
			b.toggle = item
			b.mu.Unlock()
			b.watch(stop, item, func() { b.call(b.OnToggle) })

		case ActionNewWindow:
			item := h.item(it.Label, "Open a regular terminal window")
			b.watch(stop, item, func() { b.call(b.OnNewWindow) })

		case ActionTheme:
			if themeParent == nil {
				themeParent = h.item("Theme", "")
			}
			theme := it.Theme
			item := h.subItem(themeParent, it.Label, theme)
			b.watch(stop, item, func() {
				if b.OnTheme != nil {
					b.OnTheme(theme)
				}
			})

		case ActionOpenConfig:
			h.separator()
			item := h.item(it.Label, "")
			b.watch(stop, item, func() { b.call(b.OnOpenConfig) })

		case ActionQuit:
			item := h.item(it.Label, "")
			b.watch(stop, item, func() { b.call(b.OnQuit) })
		}
	}
}

// SetLabel updates the bar title and toggle item after a config reload.
func (b *Bar) SetLabel(label string) {
	b.hooks().setTitle(BarTitle(label))
	b.mu.Lock()
	toggle := b.toggle
	b.mu.Unlock()
	if toggle != nil {
		toggle.SetTitle(TruncateLabel(label, maxLabelWidth))
	}
}

// Close stops the click watchers. The systray loop itself is stopped by
// systray.Quit from the caller.
func (b *Bar) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stop != nil {
		close(b.stop)
		b.stop = nil
	}
}

func (b *Bar) call(fn func()) {
	if fn != nil {
		fn()
	}
}

func (b *Bar) watch(stop chan struct{}, item *systray.MenuItem, onClick func()) {
	go func() {
		for {
			select {
			case <-item.ClickedCh:
				onClick()
			case <-stop:
				return
			}
		}
	}()
}
