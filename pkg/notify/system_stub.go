//go:build !darwin

package notify

import (
	"log"
	"os"
)

// System returns the fallback notifier for platforms without a desktop
// notification hook: notifications land on stderr.
func System() Notifier {
	return &LogNotifier{Logger: log.New(os.Stderr, "[cmdwin] ", log.LstdFlags)}
}
