package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, ok, err := s.Get("mragenda_chats")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("mragenda_chats", `[{"id":"a"}]`))
	value, ok, err := s.Get("mragenda_chats")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, value)

	// Set on an existing key replaces the value.
	require.NoError(t, s.Set("mragenda_chats", `[]`))
	value, ok, err = s.Get("mragenda_chats")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[]`, value)
}

func TestSQLiteStoreDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("reminder_triggered_n1", "true"))
	require.NoError(t, s.Delete("reminder_triggered_n1"))

	_, ok, err := s.Get("reminder_triggered_n1")
	require.NoError(t, err)
	assert.False(t, ok)

	// Deleting an absent key is fine.
	require.NoError(t, s.Delete("missing"))
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Set("mragenda_settings", `{"theme":"dark"}`))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok, err := reopened.Get("mragenda_settings")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"theme":"dark"}`, value)
}
