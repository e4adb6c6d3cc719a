package core

import (
	"bytes"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"mragenda.app/server/internal/store"
)

const aiNoteTitle = "AI Tarafından Oluşturulan Not"

// NoteService wraps the note store with id/timestamp bookkeeping, the
// category filters of the dashboard, and the "save an assistant reply as
// a note" conversion.
type NoteService struct {
	notes  *store.NoteStore
	md     goldmark.Markdown
	logger zerolog.Logger
	now    func() time.Time
}

func NewNoteService(notes *store.NoteStore, logger zerolog.Logger) *NoteService {
	return &NoteService{
		notes: notes,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
		logger: logger,
		now:    time.Now,
	}
}

// Save upserts the note, minting an id and CreatedAt for a new one and
// refreshing UpdatedAt either way.
func (s *NoteService) Save(note store.Note) (store.Note, error) {
	now := s.now()
	if note.ID == "" {
		note.ID = uuid.NewString()
		note.CreatedAt = now
	} else if existing, ok := s.notes.Get(note.ID); ok {
		note.CreatedAt = existing.CreatedAt
	} else if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now

	if err := s.notes.Upsert(note); err != nil {
		return store.Note{}, err
	}
	return note, nil
}

func (s *NoteService) Delete(id string) error {
	return s.notes.Remove(id)
}

func (s *NoteService) Get(id string) (store.Note, bool) {
	return s.notes.Get(id)
}

// List filters notes by dashboard category. Secret notes only show under
// the secret category; upcoming means a reminder still in the future.
func (s *NoteService) List(category store.NoteCategory) []store.Note {
	all := s.notes.List()
	now := s.now()

	out := make([]store.Note, 0, len(all))
	for _, n := range all {
		switch category {
		case store.CategoryImportant:
			if n.IsImportant && !n.IsSecret {
				out = append(out, n)
			}
		case store.CategoryUpcoming:
			if n.Reminder != nil && n.Reminder.After(now) && !n.IsSecret {
				out = append(out, n)
			}
		case store.CategorySecret:
			if n.IsSecret {
				out = append(out, n)
			}
		default:
			if !n.IsSecret {
				out = append(out, n)
			}
		}
	}
	return out
}

// CreateFromChat turns an assistant reply (markdown) into a new note with
// rendered HTML content.
func (s *NoteService) CreateFromChat(markdown string) (store.Note, error) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(markdown), &buf); err != nil {
		return store.Note{}, fmt.Errorf("failed to render note content: %w", err)
	}

	now := s.now()
	note := store.Note{
		ID:        uuid.NewString(),
		Title:     aiNoteTitle,
		Content:   buf.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.notes.Upsert(note); err != nil {
		return store.Note{}, err
	}
	s.logger.Debug().Str("note_id", note.ID).Msg("created note from chat reply")
	return note, nil
}
