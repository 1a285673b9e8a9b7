package controller

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// LinearBackOff waits Floor, then Step longer after every consecutive call,
// never more than Ceiling. It never gives up.
type LinearBackOff struct {
	Floor   time.Duration
	Step    time.Duration
	Ceiling time.Duration

	current time.Duration
}

var _ backoff.BackOff = (*LinearBackOff)(nil)

func NewLinearBackOff() *LinearBackOff {
	return &LinearBackOff{Floor: BackoffFloor, Step: BackoffStep, Ceiling: BackoffCeiling}
}

func (b *LinearBackOff) NextBackOff() time.Duration {
	if b.current == 0 {
		b.current = b.Floor
	} else {
		b.current += b.Step
	}
	if b.current > b.Ceiling {
		b.current = b.Ceiling
	}
	return b.current
}

func (b *LinearBackOff) Reset() { b.current = 0 }
