package pages

import (
	"fmt"
	"sync"
)

// LoadState is where a page load is in its lifecycle
type LoadState string

const (
	StateIdle             LoadState = "idle"
	StateLoading          LoadState = "loading"
	StateFullSuccess      LoadState = "full_success"
	StatePartialSuccess   LoadState = "partial_success"
	StateDegradedFallback LoadState = "degraded_fallback"
	StateRendered         LoadState = "rendered"
)

// Settled reports whether s is one of the three outcomes of a finished join
func (s LoadState) Settled() bool {
	return s == StateFullSuccess || s == StatePartialSuccess || s == StateDegradedFallback
}

var transitions = map[LoadState][]LoadState{
	StateIdle:             {StateLoading},
	StateLoading:          {StateFullSuccess, StatePartialSuccess, StateDegradedFallback},
	StateFullSuccess:      {StateRendered},
	StatePartialSuccess:   {StateRendered},
	StateDegradedFallback: {StateRendered},
	StateRendered:         {},
}

// Lifecycle tracks one page load:
// idle -> loading -> (full_success | partial_success | degraded_fallback) -> rendered.
// Only Retry goes back to loading.
type Lifecycle struct {
	mu      sync.Mutex
	page    string
	state   LoadState
	outcome LoadState
	attempt int
}

// NewLifecycle starts a lifecycle in idle
func NewLifecycle(page string) *Lifecycle {
	return &Lifecycle{page: page, state: StateIdle}
}

// State returns the current state
func (l *Lifecycle) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Outcome returns the last settled state, or "" before the first join completes
func (l *Lifecycle) Outcome() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.outcome
}

// Attempt counts how many times the page entered loading
func (l *Lifecycle) Attempt() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempt
}

// Transition moves to next or fails if the move is not allowed
func (l *Lifecycle) Transition(next LoadState) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, allowed := range transitions[l.state] {
		if allowed == next {
			l.enter(next)
			return nil
		}
	}
	return fmt.Errorf("page %s: invalid transition %s -> %s", l.page, l.state, next)
}

// Retry restarts a settled or rendered load at loading
func (l *Lifecycle) Retry() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.state.Settled() && l.state != StateRendered {
		return fmt.Errorf("page %s: cannot retry while %s", l.page, l.state)
	}
	l.enter(StateLoading)
	return nil
}

// enter MUST be called with l.mu held
func (l *Lifecycle) enter(next LoadState) {
	if next == StateLoading {
		l.attempt++
	}
	if next.Settled() {
		l.outcome = next
	}
	l.state = next
}
