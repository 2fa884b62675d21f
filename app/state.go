package app

// State holds the current value of a state machine over S.
type State[S any] struct {
	current S
}

// Get returns the current state.
func (s *State[S]) Get() S { return s.current }

// NextState holds a pending transition of the state machine over S.
type NextState[S any] struct {
	pending *S
}

// Set queues a transition to v.
func (n *NextState[S]) Set(v S) { n.pending = &v }

// Pending returns the queued transition, if any.
func (n *NextState[S]) Pending() (S, bool) {
	if n.pending == nil {
		var zero S
		return zero, false
	}
	return *n.pending, true
}

// InitState installs the State and NextState resources of S, starting at
// S's default value.
func InitState[S any](a *App) {
	InitResource[NextState[S]](a)
	if HasResource[State[S]](a) {
		return
	}
	InsertResource(a, State[S]{current: defaultOf[S]()})
}

// Apply performs the pending transition of S, if any. It reports whether the
// state changed.
func Apply[S any](a *App) bool {
	next, ok := Resource[NextState[S]](a)
	if !ok {
		return false
	}
	v, ok := next.Pending()
	if !ok {
		return false
	}
	cur := MustResource[State[S]](a)
	cur.current = v
	next.pending = nil
	return true
}
