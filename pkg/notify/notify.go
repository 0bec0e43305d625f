// Package notify surfaces launcher failures to the user. A silent hotkey
// that never opens anything is worse than a visible error.
package notify

import (
	"log"
)

// Notifier delivers one user-visible notification. Implementations must not
// block the caller.
type Notifier interface {
	Notify(title, body string)
}

// Func adapts a plain function to Notifier.
type Func func(title, body string)

func (f Func) Notify(title, body string) { f(title, body) }

// Discard drops all notifications (config: notifications.silent).
var Discard = Func(func(string, string) {})

// LogNotifier writes notifications to a logger. The non-mac fallback, and
// useful behind a file logger in tests.
type LogNotifier struct {
	Logger *log.Logger
}

func (n *LogNotifier) Notify(title, body string) {
	if n.Logger != nil {
		n.Logger.Printf("%s: %s", title, body)
	}
}
