package completion

import "time"

// Clock abstracts timers so timeouts can be driven deterministically.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
