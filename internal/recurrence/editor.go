package recurrence

import (
	"errors"
	"sync"
	"time"
)

// Phase represents where an editor session is in its lifecycle.
type Phase string

const (
	PhaseOff       Phase = "off"
	PhaseEditing   Phase = "editing"
	PhaseSubmitted Phase = "submitted"
	PhaseCancelled Phase = "cancelled"
)

var (
	// ErrNotEditing is returned when a mutation or submit arrives outside
	// the editing phase.
	ErrNotEditing = errors.New("recurrence editor is not active")
)

// Editor is one user's recurrence editing session. Submitted and cancelled
// are terminal; the descriptor is handed off on submit and discarded on
// cancel.
type Editor struct {
	phase     Phase
	state     EditorState
	startedAt time.Time
	updatedAt time.Time
	mu        sync.Mutex
}

// NewEditor returns an editor in the off phase.
func NewEditor() *Editor {
	now := time.Now()
	return &Editor{
		phase:     PhaseOff,
		startedAt: now,
		updatedAt: now,
	}
}

// Phase returns the current lifecycle phase.
func (e *Editor) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Enable turns the recurrence switch on and resets the form state.
func (e *Editor) Enable() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = PhaseEditing
	e.state = NewEditorState()
	e.state.Recurring = true
	e.updatedAt = time.Now()
}

// Update applies a mutation to the form state while editing.
func (e *Editor) Update(mutate func(*EditorState)) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseEditing {
		return ErrNotEditing
	}
	mutate(&e.state)
	e.updatedAt = time.Now()
	return nil
}

// State returns a copy of the current form state.
func (e *Editor) State() EditorState {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.state
	state.Weekdays = make(map[string]bool, len(e.state.Weekdays))
	for k, v := range e.state.Weekdays {
		state.Weekdays[k] = v
	}
	return state
}

// Submit normalizes and hands off the descriptor, ending the session.
func (e *Editor) Submit() (Rule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseEditing {
		return Rule{}, ErrNotEditing
	}
	e.phase = PhaseSubmitted
	e.updatedAt = time.Now()
	return e.state.Normalize(), nil
}

// Cancel discards the descriptor and ends the session.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.phase = PhaseCancelled
	e.state = EditorState{}
	e.updatedAt = time.Now()
}

// IsExpired reports whether the session has been idle longer than timeout.
func (e *Editor) IsExpired(timeout time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return time.Since(e.updatedAt) > timeout
}

// EditorStore manages per-user editor sessions with idle expiry.
type EditorStore struct {
	sessions map[int64]*Editor
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewEditorStore creates a store; timeout defaults to 30 minutes.
func NewEditorStore(timeout time.Duration) *EditorStore {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &EditorStore{
		sessions: make(map[int64]*Editor),
		timeout:  timeout,
	}
}

// Get returns the user's session, or nil.
func (s *EditorStore) Get(userID int64) *Editor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[userID]
}

// GetOrCreate returns the user's live session, replacing expired or
// terminal ones with a fresh editor.
func (s *EditorStore) GetOrCreate(userID int64) *Editor {
	s.mu.Lock()
	defer s.mu.Unlock()

	editor, ok := s.sessions[userID]
	if ok && !editor.IsExpired(s.timeout) {
		phase := editor.Phase()
		if phase != PhaseSubmitted && phase != PhaseCancelled {
			return editor
		}
	}

	editor = NewEditor()
	s.sessions[userID] = editor
	return editor
}

// Delete removes the user's session.
func (s *EditorStore) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Cleanup drops expired sessions and returns how many were removed.
func (s *EditorStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, editor := range s.sessions {
		if editor.IsExpired(s.timeout) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}
