package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mragenda.app/server/internal/kv"
)

func TestNoteStoreListSortedByUpdatedAt(t *testing.T) {
	s, err := NewNoteStore(kv.NewMemory())
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(Note{ID: "stale", UpdatedAt: base}))
	require.NoError(t, s.Upsert(Note{ID: "fresh", UpdatedAt: base.Add(time.Hour)}))

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "fresh", list[0].ID)
	assert.Equal(t, "stale", list[1].ID)
}

func TestNoteStoreReminderFlagLifecycle(t *testing.T) {
	s, err := NewNoteStore(kv.NewMemory())
	require.NoError(t, err)

	reminder := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	note := Note{ID: "n1", Title: "toplantı", Reminder: &reminder}
	require.NoError(t, s.Upsert(note))

	triggered, err := s.ReminderTriggered("n1")
	require.NoError(t, err)
	assert.False(t, triggered)

	require.NoError(t, s.MarkReminderTriggered("n1"))
	triggered, err = s.ReminderTriggered("n1")
	require.NoError(t, err)
	assert.True(t, triggered)

	// Changing the reminder resets the flag so it can fire again.
	later := reminder.Add(time.Hour)
	note.Reminder = &later
	require.NoError(t, s.Upsert(note))

	triggered, err = s.ReminderTriggered("n1")
	require.NoError(t, err)
	assert.False(t, triggered)
}

func TestNoteStoreRemoveClearsReminderFlag(t *testing.T) {
	mem := kv.NewMemory()
	s, err := NewNoteStore(mem)
	require.NoError(t, err)

	reminder := time.Now()
	require.NoError(t, s.Upsert(Note{ID: "n1", Reminder: &reminder}))
	require.NoError(t, s.MarkReminderTriggered("n1"))
	require.NoError(t, s.Remove("n1"))

	triggered, err := s.ReminderTriggered("n1")
	require.NoError(t, err)
	assert.False(t, triggered)
	assert.Empty(t, s.List())
}

func TestNoteStorePersistsAcrossReload(t *testing.T) {
	mem := kv.NewMemory()
	s, err := NewNoteStore(mem)
	require.NoError(t, err)

	require.NoError(t, s.Upsert(Note{ID: "n1", Title: "alışveriş", Content: "<p>süt</p>"}))

	reloaded, err := NewNoteStore(mem)
	require.NoError(t, err)

	got, ok := reloaded.Get("n1")
	require.True(t, ok)
	assert.Equal(t, "alışveriş", got.Title)
	assert.Equal(t, "<p>süt</p>", got.Content)
}
