package hwport

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// SleepDelayer delays by sleeping on a clock.
type SleepDelayer struct {
	clock clockwork.Clock
}

// NewSleepDelayer creates a delayer backed by clock.
func NewSleepDelayer(clock clockwork.Clock) *SleepDelayer {
	return &SleepDelayer{clock: clock}
}

// Delay sleeps for d. Non-positive durations return immediately.
func (s *SleepDelayer) Delay(d time.Duration) {
	if d <= 0 {
		return
	}
	s.clock.Sleep(d)
}
