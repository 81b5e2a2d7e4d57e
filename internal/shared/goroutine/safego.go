// Package goroutine launches background goroutines that must not take the
// process down when they panic.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/orris-inc/tokengate/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine. A panic in fn is recovered and logged
// under the given name together with the stack trace; the caller keeps
// running either way.
func SafeGo(log logger.Interface, name string, fn func()) {
	go Protect(log, name, fn)
}

// Protect runs fn on the current goroutine with the same panic recovery as
// SafeGo. Useful inside loops that must survive a panicking iteration.
func Protect(log logger.Interface, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("goroutine panicked",
				"goroutine", name,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
		}
	}()
	fn()
}
