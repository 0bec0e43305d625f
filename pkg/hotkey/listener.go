package hotkey

import (
	"errors"
	"sync"
)

// ErrUnsupported means this build cannot register system-wide hotkeys. The
// caller degrades to menu-only activation; this is never fatal.
var ErrUnsupported = errors.New("global hotkeys not supported on this platform")

// Registrar registers one global key combination with the OS. Register
// returns an unregister function; a failed registration (combination already
// bound elsewhere, unsupported platform) returns an error instead.
type Registrar interface {
	Register(b Binding, onPress func()) (func(), error)
}

// Listener owns at most one live system-wide registration. It exists so the
// registration is always released on rebind and shutdown; a leaked global
// hotkey outlives the process.
type Listener struct {
	reg Registrar

	mu         sync.Mutex
	unregister func()
	current    Binding
}

// NewListener creates a listener using the given registrar (normally
// SystemRegistrar()).
func NewListener(reg Registrar) *Listener {
	return &Listener{reg: reg}
}

// Start registers the binding. On error the listener holds no registration
// and the caller should fall back to menu-only activation.
func (l *Listener) Start(b Binding, onPress func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.unregister != nil {
		l.unregister()
		l.unregister = nil
	}
	unregister, err := l.reg.Register(b, onPress)
	if err != nil {
		return err
	}
	l.unregister = unregister
	l.current = b
	return nil
}

// Rebind swaps the registration to a new binding, releasing the old one
// first. A no-op when the binding is unchanged.
func (l *Listener) Rebind(b Binding, onPress func()) error {
	l.mu.Lock()
	unchanged := l.unregister != nil && l.current == b
	l.mu.Unlock()
	if unchanged {
		return nil
	}
	return l.Start(b, onPress)
}

// Stop releases the registration. Safe to call repeatedly.
func (l *Listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.unregister != nil {
		l.unregister()
		l.unregister = nil
	}
}

// Active reports whether a registration is currently held.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.unregister != nil
}
