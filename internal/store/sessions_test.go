package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mragenda.app/server/internal/kv"
)

func sessionAt(id string, createdAt time.Time) ChatSession {
	return ChatSession{
		ID:        id,
		Title:     "session " + id,
		Messages:  []ChatMessage{},
		CreatedAt: createdAt,
	}
}

func TestSessionStoreNewestFirst(t *testing.T) {
	s, err := NewSessionStore(kv.NewMemory())
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Upsert(sessionAt("b", base.Add(2*time.Minute))))
	require.NoError(t, s.Upsert(sessionAt("c", base.Add(1*time.Minute))))
	require.NoError(t, s.Upsert(sessionAt("a", base.Add(3*time.Minute))))

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "c", list[2].ID)
}

func TestSessionStoreUpsertReplacesById(t *testing.T) {
	s, err := NewSessionStore(kv.NewMemory())
	require.NoError(t, err)

	created := time.Now()
	require.NoError(t, s.Upsert(sessionAt("x", created)))

	updated := sessionAt("x", created)
	updated.Title = "renamed"
	updated.Messages = []ChatMessage{{Text: "hello", IsUser: true}}
	require.NoError(t, s.Upsert(updated))

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "renamed", list[0].Title)
	assert.Len(t, list[0].Messages, 1)
}

func TestSessionStoreRemoveAbsentIsNoop(t *testing.T) {
	s, err := NewSessionStore(kv.NewMemory())
	require.NoError(t, err)

	require.NoError(t, s.Upsert(sessionAt("keep", time.Now())))
	require.NoError(t, s.Remove("missing"))

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "keep", list[0].ID)
}

func TestSessionStorePersistsAcrossReload(t *testing.T) {
	mem := kv.NewMemory()

	s, err := NewSessionStore(mem)
	require.NoError(t, err)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	old := sessionAt("old", base)
	old.Messages = []ChatMessage{
		{Text: "merhaba", IsUser: true},
		{Text: "Merhaba! Size nasıl yardımcı olabilirim?", IsUser: false},
	}
	require.NoError(t, s.Upsert(old))
	require.NoError(t, s.Upsert(sessionAt("new", base.Add(time.Hour))))
	require.NoError(t, s.Remove("new"))

	reloaded, err := NewSessionStore(mem)
	require.NoError(t, err)

	list := reloaded.List()
	require.Len(t, list, 1)
	assert.Equal(t, "old", list[0].ID)
	require.Len(t, list[0].Messages, 2)
	assert.False(t, list[0].Messages[1].IsUser)
}

func TestSessionStoreReturnsCopies(t *testing.T) {
	s, err := NewSessionStore(kv.NewMemory())
	require.NoError(t, err)

	sess := sessionAt("x", time.Now())
	sess.Messages = []ChatMessage{{Text: "original", IsUser: true}}
	require.NoError(t, s.Upsert(sess))

	got, ok := s.Get("x")
	require.True(t, ok)
	got.Messages[0].Text = "mutated"

	again, ok := s.Get("x")
	require.True(t, ok)
	assert.Equal(t, "original", again.Messages[0].Text)
}
