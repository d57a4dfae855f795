package engine

import (
	"time"
)

// Clock abstracts wall-clock reads so detection and expiry logic is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T. Tests advance it by reassigning.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}
