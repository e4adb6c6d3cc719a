package core

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mragenda.app/server/internal/kv"
	"mragenda.app/server/internal/store"
)

type recordingNotifier struct {
	calls []string
}

func (n *recordingNotifier) Notify(title, body string) error {
	n.calls = append(n.calls, title+"|"+body)
	return nil
}

func newTestReminders(t *testing.T, now time.Time) (*ReminderService, *store.NoteStore, *recordingNotifier) {
	t.Helper()
	notes, err := store.NewNoteStore(kv.NewMemory())
	require.NoError(t, err)

	notifier := &recordingNotifier{}
	svc := NewReminderService(notes, notifier, time.Second, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc, notes, notifier
}

func TestReminderFiresOnceWhenDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, notes, notifier := newTestReminders(t, now)

	due := now.Add(-time.Minute)
	require.NoError(t, notes.Upsert(store.Note{
		ID:       "n1",
		Title:    "Doktor randevusu",
		Content:  "<p>Saat <strong>10:00</strong></p>",
		Reminder: &due,
	}))

	svc.CheckOnce()
	svc.CheckOnce()

	require.Len(t, notifier.calls, 1)
	assert.Equal(t, "Doktor randevusu|Saat 10:00", notifier.calls[0])
}

func TestReminderNotDueYet(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, notes, notifier := newTestReminders(t, now)

	future := now.Add(time.Hour)
	require.NoError(t, notes.Upsert(store.Note{ID: "n1", Title: "sonra", Reminder: &future}))
	require.NoError(t, notes.Upsert(store.Note{ID: "n2", Title: "hatırlatıcısız"}))

	svc.CheckOnce()
	assert.Empty(t, notifier.calls)
}

func TestReminderRefiresAfterChange(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, notes, notifier := newTestReminders(t, now)

	first := now.Add(-2 * time.Hour)
	note := store.Note{ID: "n1", Title: "su iç", Reminder: &first}
	require.NoError(t, notes.Upsert(note))
	svc.CheckOnce()
	require.Len(t, notifier.calls, 1)

	// Rescheduling resets the triggered flag; once the new time passes
	// the reminder fires again.
	second := now.Add(-time.Minute)
	note.Reminder = &second
	require.NoError(t, notes.Upsert(note))
	svc.CheckOnce()
	assert.Len(t, notifier.calls, 2)
}

func TestContentPreviewTruncates(t *testing.T) {
	html := "<h1>Başlık</h1><p>" + strings.Repeat("ç", 150) + "</p>"
	preview := contentPreview(html)
	assert.Len(t, []rune(preview), previewMaxRunes+3) // 100 runes + "..."
	assert.NotContains(t, preview, "<")
}
