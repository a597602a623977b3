package clock

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Clock provides time and timer operations that can be faked for testing
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
	NewTicker(d time.Duration) clockwork.Ticker
}

// RealClock implements Clock using the system clock
type RealClock struct {
	clockwork.Clock
}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{Clock: clockwork.NewRealClock()}
}
