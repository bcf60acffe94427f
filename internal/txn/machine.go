package txn

import (
	"errors"
	"sync"
	"time"
)

// ErrBusy is returned by Begin while a transaction is pending or confirming.
var ErrBusy = errors.New("another transaction is in progress")

// Machine holds the live transaction state. Success and error states return
// to idle after the reset delay unless another transaction begins first.
type Machine struct {
	mu         sync.Mutex
	state      State
	gen        uint64
	resetDelay time.Duration
	timer      *time.Timer
	subs       map[int]func(State)
	nextSub    int
}

// NewMachine creates an idle machine. A zero resetDelay disables the
// automatic return to idle.
func NewMachine(resetDelay time.Duration) *Machine {
	return &Machine{resetDelay: resetDelay, subs: make(map[int]func(State))}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn to receive every new state. Calls happen outside
// the machine's lock, in the goroutine that caused the change.
func (m *Machine) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Begin starts a transaction.
func (m *Machine) Begin() error {
	_, err := m.Fire(Begin())
	if errors.Is(err, ErrInvalidTransition) {
		return ErrBusy
	}
	return err
}

// Fire applies e and notifies subscribers of the result.
func (m *Machine) Fire(e Event) (State, error) {
	return m.fire(e, nil)
}

// fire applies e. When gen is set the event is dropped unless no transition
// happened since that generation.
func (m *Machine) fire(e Event, gen *uint64) (State, error) {
	m.mu.Lock()
	if gen != nil && *gen != m.gen {
		s := m.state
		m.mu.Unlock()
		return s, nil
	}
	next, err := Transition(m.state, e)
	if err != nil {
		m.mu.Unlock()
		return next, err
	}
	m.state = next
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if next.Status.Terminal() && m.resetDelay > 0 {
		gen := m.gen
		m.timer = time.AfterFunc(m.resetDelay, func() { m.autoReset(gen) })
	}
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next, nil
}

// Reset returns a finished transaction to idle immediately.
func (m *Machine) Reset() error {
	_, err := m.Fire(Reset())
	return err
}

func (m *Machine) autoReset(gen uint64) {
	m.fire(Reset(), &gen) //nolint:errcheck
}
