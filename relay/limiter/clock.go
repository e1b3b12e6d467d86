package limiter

import "time"

// Clock abstracts the monotonic time source so cell arithmetic and WaitUntil
// sleeps stay testable. time.Time values returned by the system clock carry
// Go's monotonic reading, which keeps the limiter correct across wall-clock
// jumps. None of the pack's repos carry a clock library, so this stays a
// two-method local interface.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns the process-wide monotonic clock.
func SystemClock() Clock { return systemClock{} }
