package rate

import (
	"fmt"
	"time"
)

// Guard names which of the two counters tripped.
type Guard string

const (
	// GuardIP is the network-origin guard.
	GuardIP Guard = "ip"
	// GuardEmail is the target-identity guard.
	GuardEmail Guard = "email"
)

// LimitError reports a tripped guard and the time remaining until that
// guard's window resets, floored at zero.
type LimitError struct {
	Guard      Guard
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limited by %s guard, retry after %s", e.Guard, e.RetryAfter)
}
