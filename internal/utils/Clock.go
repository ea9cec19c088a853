package utils

import (
	"time"

	"github.com/verlofplanner/verlof/pkg/date"
)

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (s SystemClock) Now() time.Time {
	return time.Now()
}

type MockClock struct {
	FixedNow time.Time
}

func (m *MockClock) Now() time.Time {
	return m.FixedNow
}

func (m *MockClock) SetNow(now time.Time) {
	m.FixedNow = now
}

// Today returns the local calendar date of the clock's current time.
func Today(c Clock) date.Date {
	return date.FromTime(c.Now())
}
