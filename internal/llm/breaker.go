package llm

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the upstream has failed repeatedly and
// calls are being rejected without being sent.
var ErrCircuitOpen = errors.New("llm: upstream circuit open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker fails calls fast while the upstream model service is down, so a
// provider outage does not tie up request handlers for the full timeout.
type Breaker struct {
	mu              sync.Mutex
	state           breakerState
	failures        int
	lastFailureTime time.Time

	maxFailures int
	cooldown    time.Duration
}

func NewBreaker(maxFailures int, cooldown time.Duration) *Breaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{maxFailures: maxFailures, cooldown: cooldown}
}

// Allow reports whether a call may proceed. After the cooldown a single
// probe call is let through in half-open state.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == stateOpen {
		if time.Since(b.lastFailureTime) < b.cooldown {
			return ErrCircuitOpen
		}
		b.state = stateHalfOpen
	}

	return nil
}

// Record feeds the outcome of a call back into the breaker. Only upstream
// and transport failures count against it; caller-side errors do not.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.state = stateClosed
		b.failures = 0
		return
	}

	b.failures++
	b.lastFailureTime = time.Now()

	if b.state == stateHalfOpen || b.failures >= b.maxFailures {
		b.state = stateOpen
	}
}
