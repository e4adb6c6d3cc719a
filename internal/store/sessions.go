package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"mragenda.app/server/internal/kv"
)

const sessionsKey = "mragenda_chats"

// SessionStore owns the canonical list of chat sessions. Every mutation
// is written through to the persistence collaborator so persisted state
// and displayed state never diverge by more than one write.
type SessionStore struct {
	mu       sync.Mutex
	kv       kv.Store
	sessions []ChatSession
}

func NewSessionStore(store kv.Store) (*SessionStore, error) {
	s := &SessionStore{kv: store}

	raw, ok, err := store.Get(sessionsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat sessions: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.sessions); err != nil {
			return nil, fmt.Errorf("failed to decode chat sessions: %w", err)
		}
		s.sortLocked()
	}
	return s, nil
}

// Upsert inserts the session, or replaces the entry with the same id.
// The list stays sorted newest-first by CreatedAt.
func (s *SessionStore) Upsert(session ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session = cloneSession(session)
	replaced := false
	for i := range s.sessions {
		if s.sessions[i].ID == session.ID {
			s.sessions[i] = session
			replaced = true
			break
		}
	}
	if !replaced {
		s.sessions = append(s.sessions, session)
	}
	s.sortLocked()
	return s.persistLocked()
}

// Remove deletes the session with the given id. Removing an unknown id is
// a no-op, not an error.
func (s *SessionStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return s.persistLocked()
		}
	}
	return nil
}

// List returns the sessions newest-first. The returned slice is a copy.
func (s *SessionStore) List() []ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ChatSession, len(s.sessions))
	for i := range s.sessions {
		out[i] = cloneSession(s.sessions[i])
	}
	return out
}

func (s *SessionStore) Get(id string) (ChatSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return cloneSession(s.sessions[i]), true
		}
	}
	return ChatSession{}, false
}

func (s *SessionStore) sortLocked() {
	sort.SliceStable(s.sessions, func(i, j int) bool {
		return s.sessions[i].CreatedAt.After(s.sessions[j].CreatedAt)
	})
}

func (s *SessionStore) persistLocked() error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("failed to encode chat sessions: %w", err)
	}
	if err := s.kv.Set(sessionsKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist chat sessions: %w", err)
	}
	return nil
}

func cloneSession(session ChatSession) ChatSession {
	out := session
	out.Messages = make([]ChatMessage, len(session.Messages))
	copy(out.Messages, session.Messages)
	return out
}
