package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFailed = errors.New("failed")

func run(b *Breaker, success bool) error {
	_, err := Execute(b, func() (string, error) {
		if success {
			return "ok", nil
		}
		return "", errFailed
	})
	return err
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		threshold     uint32
		requests      []bool // true = success, false = failure
		expectedState State
	}{
		{"stays closed on successes", 3, []bool{true, true, true}, StateClosed},
		{"opens after consecutive failures", 3, []bool{false, false, false}, StateOpen},
		{"success resets the failure run", 3, []bool{false, false, true, false, false}, StateClosed},
		{"threshold of one trips immediately", 1, []bool{false}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			breaker := New("test", Settings{FailureThreshold: tt.threshold, Cooldown: time.Minute})

			for _, success := range tt.requests {
				_ = run(breaker, success)
			}

			assert.Equal(t, tt.expectedState, breaker.State())
		})
	}
}

func TestBreakerOpenFailsFast(t *testing.T) {
	breaker := New("test", Settings{FailureThreshold: 2, Cooldown: time.Minute})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, run(breaker, false), errFailed)
	}

	called := false
	_, err := Execute(breaker, func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open circuit must not invoke the call")
}

func TestBreakerHalfOpenTrial(t *testing.T) {
	now := time.Now()
	breaker := New("test", Settings{FailureThreshold: 1, Cooldown: time.Second})
	breaker.now = func() time.Time { return now }

	require.ErrorIs(t, run(breaker, false), errFailed)
	assert.Equal(t, StateOpen, breaker.State())

	now = now.Add(2 * time.Second)
	assert.Equal(t, StateHalfOpen, breaker.State())

	require.NoError(t, run(breaker, true))
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerFailedTrialReopens(t *testing.T) {
	now := time.Now()
	breaker := New("test", Settings{FailureThreshold: 3, Cooldown: time.Second})
	breaker.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_ = run(breaker, false)
	}
	now = now.Add(2 * time.Second)

	assert.ErrorIs(t, run(breaker, false), errFailed)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerSingleTrial(t *testing.T) {
	now := time.Now()
	breaker := New("test", Settings{FailureThreshold: 1, Cooldown: time.Second})
	breaker.now = func() time.Time { return now }

	_ = run(breaker, false)
	now = now.Add(2 * time.Second)

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = Execute(breaker, func() (int, error) {
			close(started)
			<-release
			return 0, nil
		})
	}()

	<-started
	assert.ErrorIs(t, run(breaker, true), ErrCircuitOpen, "second trial call should be rejected")
	close(release)
	wg.Wait()

	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	breaker := New("test", Settings{FailureThreshold: 1, Cooldown: time.Minute})

	assert.Panics(t, func() {
		_, _ = Execute(breaker, func() (int, error) {
			panic("boom")
		})
	})
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerCallbacks(t *testing.T) {
	var mu sync.Mutex
	var transitions []string

	now := time.Now()
	breaker := New("test", Settings{
		FailureThreshold: 2,
		Cooldown:         time.Second,
		OnStateChange: func(name string, from State, to State) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	breaker.now = func() time.Time { return now }

	_ = run(breaker, false)
	_ = run(breaker, false)
	now = now.Add(2 * time.Second)
	_ = run(breaker, true)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
