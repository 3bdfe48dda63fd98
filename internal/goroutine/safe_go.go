package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/stayhub/stayhub-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic.
// Паника логируется вместе со стеком, процесс продолжает работать.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger.Log != nil {
					logger.Log.Errorf("goroutine: panic: %v\nstack:\n%s", r, debug.Stack())
				} else {
					fmt.Printf("[ERROR] goroutine: panic: %v\nstack:\n%s\n", r, debug.Stack())
				}
			}
		}()
		fn()
	}()
}
