package domain

import "github.com/jonboulle/clockwork"

// clock is the package-level time source for receipt and processing
// timestamps. Tests freeze it via SetClock for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock exposes the package time source to collaborating packages so the
// whole service observes one notion of now.
func Clock() clockwork.Clock {
	return clock
}
