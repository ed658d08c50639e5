// Package lifecycle manages the process-level state machine
// (Uninit -> Init -> Running -> Stopping -> Stopped/Failed) and the
// shutdown broadcast every long-running task subscribes to.
package lifecycle

import (
	"fmt"
	"sync"
)

// State is a position in the process lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateRunning       State = "running"
	StateStopping      State = "stopping"
	StateStopped       State = "stopped"
	StateFailed        State = "failed"
)

var validTransitions = map[State]map[State]bool{
	StateUninitialized: {StateInitializing: true, StateFailed: true},
	StateInitializing:  {StateRunning: true, StateFailed: true},
	StateRunning:       {StateStopping: true, StateFailed: true},
	StateStopping:      {StateStopped: true, StateFailed: true},
	StateStopped:       {},
	StateFailed:        {},
}

// Manager is the thread-safe process lifecycle owner. Start/Stop are
// idempotent-safe: a second Shutdown call after Stopped is a no-op.
type Manager struct {
	mu        sync.RWMutex
	state     State
	listeners []chan struct{}
}

// New returns a Manager in StateUninitialized.
func New() *Manager {
	return &Manager{state: StateUninitialized}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// setState validates and applies a transition.
func (m *Manager) setState(next State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == next {
		return nil
	}
	if !validTransitions[m.state][next] {
		return fmt.Errorf("lifecycle: invalid transition from %s to %s", m.state, next)
	}
	m.state = next
	return nil
}

// Initialize moves Uninitialized -> Initializing.
func (m *Manager) Initialize() error { return m.setState(StateInitializing) }

// Start moves Initializing -> Running.
func (m *Manager) Start() error { return m.setState(StateRunning) }

// Fail moves any non-terminal state to Failed. Used by the supervisor when
// an unrecoverable error bubbles up from a core task.
func (m *Manager) Fail() error { return m.setState(StateFailed) }

// Shutdown transitions Running -> Stopping, broadcasts the shutdown signal
// to every subscriber, then transitions Stopping -> Stopped. Calling
// Shutdown again once the manager has reached a terminal state is a no-op.
func (m *Manager) Shutdown() error {
	if m.State() == StateStopped || m.State() == StateFailed {
		return nil
	}
	if err := m.setState(StateStopping); err != nil {
		return err
	}
	m.broadcastShutdown()
	return m.setState(StateStopped)
}

func (m *Manager) broadcastShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.listeners {
		close(ch)
	}
	m.listeners = nil
}

// Subscribe returns a channel that is closed once Shutdown is called. Every
// core task should select on this alongside its own work.
func (m *Manager) Subscribe() <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan struct{})
	if m.state == StateStopping || m.state == StateStopped {
		close(ch)
		return ch
	}
	m.listeners = append(m.listeners, ch)
	return ch
}
