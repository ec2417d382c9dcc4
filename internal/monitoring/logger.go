// Package monitoring provides the engine's diagnostic logging hooks.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Eventf logs a degraded-mode or fallback decision in a uniform shape so log
// scrapes can pick out every non-silent fix. Stage names the pipeline stage,
// subject names the joint or region affected.
func Eventf(stage, subject, reason string, v ...interface{}) {
	if len(v) > 0 {
		reason = fmt.Sprintf(reason, v...)
	}
	Logf("event stage=%s subject=%s reason=%s", stage, subject, reason)
}
