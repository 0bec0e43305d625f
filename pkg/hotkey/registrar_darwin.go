//go:build darwin

package hotkey

import (
	"fmt"

	hk "golang.design/x/hotkey"
)

// SystemRegistrar returns the Carbon-backed registrar. Registration must
// happen after the application run loop is up (the menu bar's onReady is
// fine).
func SystemRegistrar() Registrar {
	return systemRegistrar{}
}

type systemRegistrar struct{}

func (systemRegistrar) Register(b Binding, onPress func()) (func(), error) {
	var mods []hk.Modifier
	if b.Mods&ModCmd != 0 {
		mods = append(mods, hk.ModCmd)
	}
	if b.Mods&ModShift != 0 {
		mods = append(mods, hk.ModShift)
	}
	if b.Mods&ModOption != 0 {
		mods = append(mods, hk.ModOption)
	}
	if b.Mods&ModCtrl != 0 {
		mods = append(mods, hk.ModCtrl)
	}

	// On darwin hotkey.Key is the raw virtual keycode.
	key := hk.New(mods, hk.Key(b.Code))
	if err := key.Register(); err != nil {
		return nil, fmt.Errorf("register %s: %w", b, err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-key.Keydown():
				onPress()
			case <-stop:
				return
			}
		}
	}()

	return func() {
		close(stop)
		key.Unregister()
	}, nil
}
