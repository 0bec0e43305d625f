//go:build darwin

package notify

import (
	"fmt"
	"os/exec"
	"strings"
)

// System returns the macOS notifier, backed by osascript so no notification
// framework entitlement is needed.
func System() Notifier {
	return Func(func(title, body string) {
		script := fmt.Sprintf("display notification %q with title %q",
			sanitize(body), sanitize(title))
		cmd := exec.Command("osascript", "-e", script)
		go cmd.Run()
	})
}

// sanitize keeps the AppleScript literal well-formed.
func sanitize(s string) string {
	return strings.NewReplacer("\"", "'", "\\", "/").Replace(s)
}
