package main

import (
	"log"
	"os"
	"runtime/debug"

	"github.com/zomem/alacritty-mac/pkg/paths"
)

var crashLog *log.Logger
var eventLog *log.Logger
var debugLog *log.Logger

// openStateLog opens an append-only log file under the state dir. When the
// dir or file cannot be created the logger falls back to stderr.
func openStateLog(name, filePrefix, stderrPrefix string) *log.Logger {
	if _, err := paths.EnsureStateDir(); err != nil {
		return log.New(os.Stderr, stderrPrefix, log.LstdFlags)
	}
	f, err := os.OpenFile(paths.StatePath(name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stderr, stderrPrefix, log.LstdFlags)
	}
	return log.New(f, filePrefix, log.LstdFlags|log.Lmicroseconds)
}

func initCrashLog() {
	crashLog = openStateLog("crash.log", "", "[CRASH] ")
}

func initEventLog() {
	eventLog = openStateLog("events.log", "[event] ", "[EVENT] ")
}

func initDebugLog(enabled bool) {
	if enabled {
		debugLog = log.New(os.Stderr, "[debug] ", log.LstdFlags|log.Lmicroseconds)
	} else {
		debugLog = log.New(discard{}, "", 0)
	}
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func logEvent(format string, args ...interface{}) {
	if eventLog != nil {
		eventLog.Printf(format, args...)
	}
}

func logCrash(context string, r interface{}) {
	crashLog.Printf("=== CRASH in %s ===", context)
	crashLog.Printf("Panic: %v", r)
	crashLog.Printf("Stack trace:\n%s", debug.Stack())
	crashLog.Printf("=== END CRASH ===\n")
}

func recoverAndLog(context string) {
	if r := recover(); r != nil {
		logCrash(context, r)
	}
}
