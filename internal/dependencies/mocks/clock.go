package mocks

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcoot/paddle-arena/internal/dependencies/clock"
)

// MockClock is a fake Clock for testing. Time only moves when Advance is called.
type MockClock struct {
	*clockwork.FakeClock
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{FakeClock: clockwork.NewFakeClockAt(t)}
}

// WaitForWaiters blocks until n timers or tickers are registered with the clock
func (c *MockClock) WaitForWaiters(ctx context.Context, n int) error {
	return c.BlockUntilContext(ctx, n)
}
