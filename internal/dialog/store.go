package dialog

import (
	"errors"
	"sync"
	"time"
)

var ErrSessionNotFound = errors.New("dialog: session not found")

// tombstoneTTL bounds how long a finished call keeps rejecting utterances
// still sitting in the queue.
const tombstoneTTL = 5 * time.Minute

// SessionStore holds the active sessions, one per live call. Sessions are
// in-memory only; call end discards them after archival.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
	ended    map[string]time.Time
	now      func() time.Time
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
		ended:    make(map[string]time.Time),
		now:      time.Now,
	}
}

// lockCall serializes all handling for one call. Utterances for different
// calls proceed in parallel; a second utterance for the same call waits for
// the first to finish, so session fields are only ever touched by one
// goroutine at a time no matter how many workers share the queue.
func (st *SessionStore) lockCall(callID string) func() {
	st.mu.Lock()
	l, ok := st.locks[callID]
	if !ok {
		l = &sync.Mutex{}
		st.locks[callID] = l
	}
	st.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// GetOrCreate returns the session for a call, creating it on the first
// utterance. The boolean reports whether the session already existed.
func (st *SessionStore) GetOrCreate(callID, callerPhone string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[callID]; ok {
		return s, true
	}
	s := NewSession(callID, callerPhone, st.now())
	st.sessions[callID] = s
	return s, false
}

// Get returns an existing session.
func (st *SessionStore) Get(callID string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[callID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete removes a finished session and leaves a short-lived tombstone so
// utterances still queued for the call are dropped instead of resurrecting
// it.
func (st *SessionStore) Delete(callID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, callID)
	delete(st.locks, callID)
	cutoff := st.now().Add(-tombstoneTTL)
	for id, at := range st.ended {
		if at.Before(cutoff) {
			delete(st.ended, id)
		}
	}
	st.ended[callID] = st.now()
}

// Ended reports whether the call finished recently.
func (st *SessionStore) Ended(callID string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	at, ok := st.ended[callID]
	return ok && !at.Before(st.now().Add(-tombstoneTTL))
}

// PruneIdle removes sessions with no activity for longer than maxIdle and
// returns them so the caller can archive what the caller abandoned.
func (st *SessionStore) PruneIdle(maxIdle time.Duration) []*Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	cutoff := st.now().Add(-maxIdle)
	var pruned []*Session
	for id, s := range st.sessions {
		if s.LastActivity.Before(cutoff) {
			if s.State() != StateEnded {
				s.Terminate("session timed out")
			}
			pruned = append(pruned, s)
			delete(st.sessions, id)
			delete(st.locks, id)
			st.ended[id] = st.now()
		}
	}
	return pruned
}

// Len reports the number of active sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
