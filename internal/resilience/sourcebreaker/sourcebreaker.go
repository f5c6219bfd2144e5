// Package sourcebreaker implements a keyed circuit breaker with one
// independent closed/open/half-open state machine per monitored source.
// The scheduler records check outcomes here and consults IsOpen before
// contacting a source, so a chronically failing profile stops being polled
// until the reset timeout elapses or an operator resets it manually.
package sourcebreaker

import (
	"log/slog"
	"sync"
	"time"
)

// State represents the current state of a source's circuit.
type State int

const (
	// StateClosed indicates the circuit is closed and checks are allowed.
	// This is the normal operating state.
	StateClosed State = iota

	// StateOpen indicates the circuit is open due to consecutive failures.
	// Checks for the source are skipped while open.
	StateOpen

	// StateHalfOpen indicates the circuit is testing recovery.
	// Exactly one trial check is allowed through.
	StateHalfOpen
)

// String returns a string representation of the circuit state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Clock provides an abstraction for time operations to enable testing.
type Clock interface {
	Now() time.Time
}

// SystemClock is a Clock implementation that uses the system time.
type SystemClock struct{}

// Now returns the current system time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// Config holds configuration for the keyed breaker.
type Config struct {
	// FailureThreshold is the number of consecutive failures required to
	// open a source's circuit. Default: 5
	FailureThreshold int

	// ResetTimeout is the duration to wait in the open state before
	// allowing a half-open trial. Default: 30 minutes
	ResetTimeout time.Duration

	// Clock provides time abstraction for testing. Default: SystemClock
	Clock Clock
}

// Breaker tracks one circuit state per source key. All methods are safe
// for concurrent use across scheduler workers. State is in-memory only and
// lost on restart; the persisted notification history still prevents
// duplicate delivery after a restart.
type Breaker struct {
	config Config

	mu     sync.RWMutex
	states map[string]*circuit
}

type circuit struct {
	state               State
	consecutiveFailures int
	lastFailureAt       time.Time
}

// KeyState is a read-only snapshot of one source's circuit, for the status
// surface.
type KeyState struct {
	Key                 string
	State               State
	ConsecutiveFailures int
	LastFailureAt       time.Time
}

// New creates a keyed breaker with the given configuration.
//
// If config.FailureThreshold is 0, it defaults to 5.
// If config.ResetTimeout is 0, it defaults to 30 minutes.
// If config.Clock is nil, it defaults to SystemClock.
func New(config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Minute
	}
	if config.Clock == nil {
		config.Clock = &SystemClock{}
	}

	return &Breaker{
		config: config,
		states: make(map[string]*circuit),
	}
}

// RecordFailure records a failed check for the key and returns true when
// this call tripped the circuit into the open state. A failure while
// half-open returns the circuit straight to open.
func (b *Breaker) RecordFailure(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuitLocked(key)
	c.consecutiveFailures++
	c.lastFailureAt = b.config.Clock.Now()

	switch c.state {
	case StateHalfOpen:
		// Trial failed, reopen immediately.
		c.state = StateOpen
		slog.Warn("circuit breaker trial failed, reopening",
			slog.String("source", key),
			slog.Int("consecutive_failures", c.consecutiveFailures))
		return false
	case StateClosed:
		if c.consecutiveFailures >= b.config.FailureThreshold {
			c.state = StateOpen
			slog.Warn("circuit breaker tripped",
				slog.String("source", key),
				slog.Int("consecutive_failures", c.consecutiveFailures),
				slog.Duration("reset_timeout", b.config.ResetTimeout))
			return true
		}
	}
	return false
}

// RecordSuccess records a successful check for the key, resetting the
// failure count and closing the circuit.
func (b *Breaker) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.states[key]
	if !ok {
		return
	}
	if c.state != StateClosed {
		slog.Info("circuit breaker closed",
			slog.String("source", key),
			slog.String("previous_state", c.state.String()))
	}
	c.state = StateClosed
	c.consecutiveFailures = 0
}

// IsOpen reports whether checks for the key should be skipped. When the
// circuit is open and the reset timeout has elapsed since the last failure,
// it transitions to half-open and returns false, permitting one trial check.
func (b *Breaker) IsOpen(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.states[key]
	if !ok {
		return false
	}
	if c.state != StateOpen {
		return false
	}

	if b.config.Clock.Now().Sub(c.lastFailureAt) >= b.config.ResetTimeout {
		c.state = StateHalfOpen
		slog.Info("circuit breaker half-open, allowing trial check",
			slog.String("source", key))
		return false
	}
	return true
}

// State returns the current circuit state for the key. Keys that have never
// failed report closed.
func (b *Breaker) State(key string) State {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if c, ok := b.states[key]; ok {
		return c.state
	}
	return StateClosed
}

// Reset closes the circuit for a single key. Operational override.
func (b *Breaker) Reset(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.states, key)
}

// ResetAll closes every circuit.
func (b *Breaker) ResetAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.states = make(map[string]*circuit)
}

// States returns a snapshot of every tracked circuit.
func (b *Breaker) States() []KeyState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]KeyState, 0, len(b.states))
	for key, c := range b.states {
		out = append(out, KeyState{
			Key:                 key,
			State:               c.state,
			ConsecutiveFailures: c.consecutiveFailures,
			LastFailureAt:       c.lastFailureAt,
		})
	}
	return out
}

// circuitLocked returns the circuit for key, creating it lazily.
// Caller must hold b.mu.
func (b *Breaker) circuitLocked(key string) *circuit {
	c, ok := b.states[key]
	if !ok {
		c = &circuit{state: StateClosed}
		b.states[key] = c
	}
	return c
}
