// Package log provides the level-prefixed log helpers used across the
// application. Output goes through the standard library logger so that the
// timestamp format and destination are shared with everything else.
package log

import (
	"fmt"
	syslog "log"
	"sync/atomic"
)

var debugging atomic.Bool

func SetDebug(enabled bool) {
	debugging.Store(enabled)
}

func Debugf(format string, args ...any) {
	if debugging.Load() {
		printf("DEBUG", format, args...)
	}
}

func Infof(format string, args ...any) {
	printf("INFO", format, args...)
}

func Warnf(format string, args ...any) {
	printf("WARN", format, args...)
}

func Errorf(format string, args ...any) {
	printf("ERROR", format, args...)
}

func printf(level string, format string, args ...any) {
	syslog.Printf("%-5s  %s", level, fmt.Sprintf(format, args...))
}
