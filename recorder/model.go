package recorder

import (
	"context"
	"sync"
)

// stateSubBuffer sizes each subscriber's published-state channel; a slow
// subscriber drops states rather than blocking the producer.
const stateSubBuffer = 8

// Model holds the recorder's state, its lifecycle callback registry, and
// a broadcast stream of state changes. It is infallible: registration and
// dispatch never error on their own account, though a registered callback
// may return an error which the registry propagates to its caller.
type Model struct {
	mu    sync.Mutex
	state State
	reg   *Registry
	subs  []chan State

	// start/stop are optional imperative forwarders installed by the
	// owning Core; nil until installed.
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

// NewModel returns a Model in the Idle state with an empty registry.
func NewModel() *Model {
	return &Model{
		state: StateIdle,
		reg:   NewRegistry(),
	}
}

// State returns the current lifecycle state.
func (m *Model) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// States returns a channel that receives every subsequent state change.
// Publication is non-blocking: a subscriber that falls behind misses
// intermediate states rather than stalling UpdateState.
func (m *Model) States() <-chan State {
	ch := make(chan State, stateSubBuffer)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// UpdateState stores new and dispatches state_update callbacks with the
// new state as argument.
func (m *Model) UpdateState(ctx context.Context, new State) error {
	m.mu.Lock()
	m.state = new
	subs := make([]chan State, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- new:
		default:
		}
	}

	return m.reg.Dispatch(ctx, EventStateUpdate, new)
}

// SetForwarders installs the imperative start/stop forwarders the owning
// Core exposes through the model.
func (m *Model) SetForwarders(start, stop func(ctx context.Context) error) {
	m.mu.Lock()
	m.start = start
	m.stop = stop
	m.mu.Unlock()
}

// Start invokes the installed start forwarder, if any.
func (m *Model) Start(ctx context.Context) error {
	m.mu.Lock()
	start := m.start
	m.mu.Unlock()
	if start == nil {
		return nil
	}
	return start(ctx)
}

// Stop invokes the installed stop forwarder, if any.
func (m *Model) Stop(ctx context.Context) error {
	m.mu.Lock()
	stop := m.stop
	m.mu.Unlock()
	if stop == nil {
		return nil
	}
	return stop(ctx)
}

// On registers cb against the named event channel and returns a
// deregistration handle.
func (m *Model) On(kind EventKind, cb func(ctx context.Context, arg any) error) Handle {
	return m.reg.On(kind, cb)
}

// Off deregisters a previously registered callback.
func (m *Model) Off(kind EventKind, h Handle) {
	m.reg.Off(kind, h)
}

// Invoke dispatches kind's callbacks with arg. Used internally by Core;
// exported so plugins authored outside this package can raise errors
// (EventError) through the same channel.
func (m *Model) Invoke(ctx context.Context, kind EventKind, arg any) error {
	return m.reg.Dispatch(ctx, kind, arg)
}
