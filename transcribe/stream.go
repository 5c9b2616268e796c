package transcribe

// Stream is the mutable, undo/redo-capable transcription document. It is
// not safe for concurrent use; callers serialize access (the streaming
// plugin does this by driving it from a single goroutine per session).
type Stream struct {
	State DocumentState

	// History holds applied actions oldest-first; the last element is the
	// most recently applied action.
	History []UndoableAction

	// Undone holds undone actions most-recent-first: index 0 is the action
	// that was undone last.
	Undone []UndoableAction
}

// NewStream returns an empty document with no history.
func NewStream() *Stream {
	return &Stream{}
}

// ReceiveActions applies a server-sent batch atomically: either every
// action in the batch lands and is recorded in History, or none of it
// does. A successful non-empty receive clears Undone, since it invalidates
// any previously undone redo branch; an empty batch is a no-op that leaves
// History and Undone untouched.
func (s *Stream) ReceiveActions(actions []Action) error {
	if len(actions) == 0 {
		return nil
	}

	undoable, err := MapInverses(s.State, actions)
	if err != nil {
		return err
	}
	next, err := Apply(s.State, actions)
	if err != nil {
		return err
	}

	s.State = next
	s.History = append(s.History, undoable...)
	s.Undone = nil
	return nil
}

func applyInverse(state DocumentState, entries []UndoableAction) (DocumentState, error) {
	for _, entry := range entries {
		next, err := Apply(state, entry.Inverse)
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

func applyOriginal(state DocumentState, entries []UndoableAction) (DocumentState, error) {
	for _, entry := range entries {
		next, err := Apply(state, []Action{entry.Original})
		if err != nil {
			return state, err
		}
		state = next
	}
	return state, nil
}

func reversed(entries []UndoableAction) []UndoableAction {
	out := make([]UndoableAction, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// Undo pops up to n entries (clamped to len(History)) and reverses their
// effect. Each entry's own Inverse list is applied in its original order;
// only the batch itself is walked newest-first, so an entry's inverse
// never runs against state that still reflects a later entry it depends
// on. The popped batch is pushed onto Undone unreversed: the oldest
// action in the batch is undone last and so becomes the most recently
// undone entry, landing at Undone's front exactly where it already sits
// in the popped slice.
func (s *Stream) Undo(n int) error {
	if n <= 0 {
		return nil
	}
	if n > len(s.History) {
		n = len(s.History)
	}
	if n == 0 {
		return nil
	}

	split := len(s.History) - n
	popped := s.History[split:] // chronological: oldest..newest
	kept := s.History[:split]

	next, err := applyInverse(s.State, reversed(popped))
	if err != nil {
		return err
	}

	s.State = next
	s.History = kept
	s.Undone = append(append([]UndoableAction{}, popped...), s.Undone...)
	return nil
}

// Redo pops up to n entries (clamped to len(Undone)) from the front and
// replays their original actions in that same front-to-back order, which
// is already the chronological order they need to reapply in, then
// appends them onto History unreversed.
func (s *Stream) Redo(n int) error {
	if n <= 0 {
		return nil
	}
	if n > len(s.Undone) {
		n = len(s.Undone)
	}
	if n == 0 {
		return nil
	}

	popped := s.Undone[:n]
	kept := s.Undone[n:]

	next, err := applyOriginal(s.State, popped)
	if err != nil {
		return err
	}

	s.State = next
	s.Undone = kept
	s.History = append(s.History, popped...)
	return nil
}
