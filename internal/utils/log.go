package utils

import (
	"log"
	"strings"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetLogLevel enables [DEBUG] output when level is "debug"
func SetLogLevel(level string) {
	debugEnabled.Store(strings.EqualFold(strings.TrimSpace(level), "debug"))
}

// DebugEnabled reports whether debug logging is on
func DebugEnabled() bool {
	return debugEnabled.Load()
}

// Debugf logs only when debug logging is enabled
func Debugf(format string, args ...interface{}) {
	if debugEnabled.Load() {
		log.Printf(format, args...)
	}
}
