package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"mragenda.app/server/internal/kv"
)

const notesKey = "mragenda_notes"

func reminderTriggeredKey(noteID string) string {
	return "reminder_triggered_" + noteID
}

// NoteStore owns the notes collection. Like the session store it persists
// the whole collection as JSON under a fixed key; the per-note reminder
// "triggered" flags live under their own keys so the reminder poller can
// flip them without rewriting the collection.
type NoteStore struct {
	mu    sync.Mutex
	kv    kv.Store
	notes []Note
}

func NewNoteStore(store kv.Store) (*NoteStore, error) {
	s := &NoteStore{kv: store}

	raw, ok, err := store.Get(notesKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load notes: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.notes); err != nil {
			return nil, fmt.Errorf("failed to decode notes: %w", err)
		}
	}
	return s, nil
}

// Upsert inserts or replaces the note. A changed or cleared reminder
// resets the triggered flag so the reminder can fire again.
func (s *NoteStore) Upsert(note Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.notes {
		if s.notes[i].ID == note.ID {
			if reminderChanged(s.notes[i].Reminder, note.Reminder) || note.Reminder == nil {
				if err := s.kv.Delete(reminderTriggeredKey(note.ID)); err != nil {
					return err
				}
			}
			s.notes[i] = note
			replaced = true
			break
		}
	}
	if !replaced {
		s.notes = append(s.notes, note)
	}
	return s.persistLocked()
}

func (s *NoteStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(reminderTriggeredKey(id)); err != nil {
		return err
	}
	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
			return s.persistLocked()
		}
	}
	return nil
}

// List returns all notes sorted by UpdatedAt descending.
func (s *NoteStore) List() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func (s *NoteStore) Get(id string) (Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notes {
		if s.notes[i].ID == id {
			return s.notes[i], true
		}
	}
	return Note{}, false
}

// ReminderTriggered reports whether the note's reminder has already fired.
func (s *NoteStore) ReminderTriggered(noteID string) (bool, error) {
	_, ok, err := s.kv.Get(reminderTriggeredKey(noteID))
	return ok, err
}

func (s *NoteStore) MarkReminderTriggered(noteID string) error {
	return s.kv.Set(reminderTriggeredKey(noteID), "true")
}

func (s *NoteStore) persistLocked() error {
	data, err := json.Marshal(s.notes)
	if err != nil {
		return fmt.Errorf("failed to encode notes: %w", err)
	}
	if err := s.kv.Set(notesKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist notes: %w", err)
	}
	return nil
}

func reminderChanged(a, b *time.Time) bool {
	if a == nil || b == nil {
		return (a == nil) != (b == nil)
	}
	return !a.Equal(*b)
}
