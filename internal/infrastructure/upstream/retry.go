package upstream

import (
	"net/http"
	"time"
)

// RetryState is a position in the retry state machine
type RetryState int

const (
	// StateAttempting means a request is about to be (or is being) sent
	StateAttempting RetryState = iota
	// StateBackingOff means the last attempt was throttled and a delay is pending
	StateBackingOff
	// StateSucceeded is terminal: the last attempt returned 2xx
	StateSucceeded
	// StateExhausted is terminal: every allowed attempt was throttled
	StateExhausted
	// StateFailed is terminal: the last attempt failed for a reason other than throttling
	StateFailed
)

func (s RetryState) String() string {
	switch s {
	case StateAttempting:
		return "attempting"
	case StateBackingOff:
		return "backing_off"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RetryPolicy configures the exponential backoff applied to throttled requests
type RetryPolicy struct {
	// MaxAttempts is the total number of requests, first one included
	MaxAttempts    int
	InitialBackoff time.Duration
	// MaxBackoff caps a single delay, zero means uncapped
	MaxBackoff time.Duration
}

// Backoff returns the delay after the given 1-based attempt:
// min(InitialBackoff * 2^(attempt-1), MaxBackoff)
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		if p.MaxBackoff > 0 && delay >= p.MaxBackoff {
			break
		}
		delay *= 2
	}
	if p.MaxBackoff > 0 && delay > p.MaxBackoff {
		return p.MaxBackoff
	}
	return delay
}

// Schedule returns every delay a request throttled on all attempts would wait
func (p RetryPolicy) Schedule() []time.Duration {
	var delays []time.Duration
	for attempt := 1; attempt < p.maxAttempts(); attempt++ {
		delays = append(delays, p.Backoff(attempt))
	}
	return delays
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeThrottled
	outcomeFailure
)

func classify(statusCode int) outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return outcomeSuccess
	case statusCode == http.StatusTooManyRequests:
		return outcomeThrottled
	default:
		return outcomeFailure
	}
}

// retryMachine tracks one request through the retry states.
// attempt is 1-based and counts requests already sent or in flight.
type retryMachine struct {
	policy  RetryPolicy
	state   RetryState
	attempt int
	delay   time.Duration
}

func newRetryMachine(policy RetryPolicy) *retryMachine {
	return &retryMachine{
		policy:  policy,
		state:   StateAttempting,
		attempt: 1,
	}
}

// observe records the outcome of the current attempt and returns the next state
func (m *retryMachine) observe(o outcome) RetryState {
	if m.state != StateAttempting {
		return m.state
	}

	switch o {
	case outcomeSuccess:
		m.state = StateSucceeded
	case outcomeThrottled:
		if m.attempt >= m.policy.maxAttempts() {
			m.state = StateExhausted
			return m.state
		}
		m.delay = m.policy.Backoff(m.attempt)
		m.state = StateBackingOff
	default:
		m.state = StateFailed
	}
	return m.state
}

// resume leaves BackingOff for the next attempt
func (m *retryMachine) resume() {
	if m.state != StateBackingOff {
		return
	}
	m.attempt++
	m.delay = 0
	m.state = StateAttempting
}
