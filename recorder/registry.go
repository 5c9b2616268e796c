package recorder

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// EventKind names one of the recorder's lifecycle callback channels.
type EventKind int

const (
	EventStateUpdate EventKind = iota
	EventBeforeStart
	EventStart
	EventBeforeStop
	EventStop
	EventError
	EventAudioFrame
	eventKindCount
)

// Handle is an opaque, unique-per-registration deregistration token.
type Handle string

// slot holds one registered callback under its minted Handle.
type slot struct {
	handle Handle
	cb     func(ctx context.Context, arg any) error
}

// Registry is a collection of named channels, one per lifecycle event,
// each an insertion-ordered slot table keyed by Handle. Registration is
// O(1) and safe for concurrent callers; dispatch iterates a snapshot of
// the slots present at dispatch time so that registrations made during a
// dispatch are not observed by that dispatch.
type Registry struct {
	mu    sync.Mutex
	slots [eventKindCount][]slot
}

// NewRegistry builds an empty callback registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// On registers cb against kind and returns a handle usable with Off.
func (r *Registry) On(kind EventKind, cb func(ctx context.Context, arg any) error) Handle {
	h := Handle(uuid.NewString())
	r.mu.Lock()
	r.slots[kind] = append(r.slots[kind], slot{handle: h, cb: cb})
	r.mu.Unlock()
	return h
}

// Off deregisters the callback previously registered as h against kind.
// Deregistering an unknown or already-removed handle is a no-op.
func (r *Registry) Off(kind EventKind, h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slots := r.slots[kind]
	for i, s := range slots {
		if s.handle == h {
			r.slots[kind] = append(slots[:i:i], slots[i+1:]...)
			return
		}
	}
}

// Dispatch invokes every callback registered for kind, sequentially in
// registration order, awaiting each before starting the next. Callbacks
// registered during this dispatch are not invoked by it.
func (r *Registry) Dispatch(ctx context.Context, kind EventKind, arg any) error {
	r.mu.Lock()
	snapshot := make([]slot, len(r.slots[kind]))
	copy(snapshot, r.slots[kind])
	r.mu.Unlock()

	for _, s := range snapshot {
		if err := s.cb(ctx, arg); err != nil {
			return err
		}
	}
	return nil
}
