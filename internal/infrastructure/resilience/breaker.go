package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker behavior
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
	// Cooldown is how long the circuit stays open before a trial call is allowed
	Cooldown time.Duration
	// OnStateChange is called whenever the state changes, outside the lock
	OnStateChange func(name string, from State, to State)
}

// Breaker fails calls fast once a dependency has failed repeatedly.
// In half-open state exactly one trial call is let through; its outcome
// closes or re-opens the circuit.
type Breaker struct {
	name     string
	settings Settings
	now      func() time.Time

	mu          sync.Mutex
	state       State
	failures    uint32
	openedAt    time.Time
	trialActive bool
}

// New creates a new circuit breaker with the given settings
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown == 0 {
		settings.Cooldown = 30 * time.Second
	}

	return &Breaker{
		name:     name,
		settings: settings,
		now:      time.Now,
		state:    StateClosed,
	}
}

// Name returns the name of the circuit breaker
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state of the circuit breaker
func (b *Breaker) State() State {
	b.mu.Lock()
	halfOpened := b.refresh()
	state := b.state
	b.mu.Unlock()

	if halfOpened {
		b.notify(StateOpen, StateHalfOpen)
	}
	return state
}

// Execute runs fn if the circuit accepts it and records the outcome.
// A panic inside fn counts as a failure and is re-raised.
func Execute[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.allow(); err != nil {
		return zero, err
	}

	success := false
	defer func() {
		b.record(success)
	}()

	result, err := fn()
	success = err == nil
	return result, err
}

func (b *Breaker) allow() error {
	b.mu.Lock()
	halfOpened := b.refresh()
	var err error
	switch b.state {
	case StateOpen:
		err = ErrCircuitOpen
	case StateHalfOpen:
		if b.trialActive {
			err = ErrCircuitOpen
		} else {
			b.trialActive = true
		}
	}
	b.mu.Unlock()

	if halfOpened {
		b.notify(StateOpen, StateHalfOpen)
	}
	return err
}

func (b *Breaker) record(success bool) {
	b.mu.Lock()
	from := b.state
	b.trialActive = false

	if success {
		b.failures = 0
		b.state = StateClosed
	} else {
		b.failures++
		if from == StateHalfOpen || b.failures >= b.settings.FailureThreshold {
			b.state = StateOpen
			b.openedAt = b.now()
		}
	}
	to := b.state
	b.mu.Unlock()

	b.notify(from, to)
}

// refresh moves an expired open circuit to half-open. Caller holds mu.
func (b *Breaker) refresh() bool {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.state = StateHalfOpen
		b.trialActive = false
		return true
	}
	return false
}

func (b *Breaker) notify(from, to State) {
	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
