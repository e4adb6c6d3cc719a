package core

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mragenda.app/server/internal/store"
)

const previewMaxRunes = 100

var htmlTagPattern = regexp.MustCompile(`<[^>]*>?`)

// Notifier delivers a due reminder to the user. Delivery is an external
// concern; the default implementation just logs.
type Notifier interface {
	Notify(title, body string) error
}

type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(title, body string) error {
	n.Logger.Info().Str("title", title).Str("body", body).Msg("reminder due")
	return nil
}

// ReminderService polls notes for due reminders. Each reminder fires at
// most once until the note's reminder is changed or cleared, tracked via
// the note store's triggered flags.
type ReminderService struct {
	notes    *store.NoteStore
	notifier Notifier
	interval time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

func NewReminderService(notes *store.NoteStore, notifier Notifier, interval time.Duration, logger zerolog.Logger) *ReminderService {
	return &ReminderService{
		notes:    notes,
		notifier: notifier,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Run polls until ctx is cancelled.
func (s *ReminderService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("reminder poller started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reminder poller stopped")
			return
		case <-ticker.C:
			s.CheckOnce()
		}
	}
}

// CheckOnce scans all notes and fires every due, not-yet-triggered
// reminder.
func (s *ReminderService) CheckOnce() {
	now := s.now()
	for _, note := range s.notes.List() {
		if note.Reminder == nil || note.Reminder.After(now) {
			continue
		}

		triggered, err := s.notes.ReminderTriggered(note.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("note_id", note.ID).Msg("failed to read reminder flag")
			continue
		}
		if triggered {
			continue
		}

		s.logger.Info().Str("note_id", note.ID).Str("title", note.Title).Msg("triggering reminder")
		if err := s.notifier.Notify(note.Title, contentPreview(note.Content)); err != nil {
			s.logger.Error().Err(err).Str("note_id", note.ID).Msg("failed to deliver reminder")
			// Left untriggered so the next poll retries delivery.
			continue
		}
		if err := s.notes.MarkReminderTriggered(note.ID); err != nil {
			s.logger.Error().Err(err).Str("note_id", note.ID).Msg("failed to mark reminder triggered")
		}
	}
}

// contentPreview strips HTML tags and truncates for notification bodies.
func contentPreview(html string) string {
	text := htmlTagPattern.ReplaceAllString(html, "")
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= previewMaxRunes {
		return text
	}
	return string(runes[:previewMaxRunes]) + "..."
}
