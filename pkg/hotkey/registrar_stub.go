//go:build !darwin

package hotkey

// SystemRegistrar returns a registrar that always fails with ErrUnsupported.
// The command window is a macOS feature; other builds run menu-only.
func SystemRegistrar() Registrar {
	return unsupportedRegistrar{}
}

type unsupportedRegistrar struct{}

func (unsupportedRegistrar) Register(Binding, func()) (func(), error) {
	return nil, ErrUnsupported
}
