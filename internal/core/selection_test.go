package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"mragenda.app/server/internal/store"
)

func newestFirst(ids ...string) []store.ChatSession {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	sessions := make([]store.ChatSession, len(ids))
	for i, id := range ids {
		sessions[i] = store.ChatSession{
			ID:        id,
			CreatedAt: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return sessions
}

func TestSelectFirstAvailable(t *testing.T) {
	sessions := newestFirst("a", "b", "c")

	assert.Equal(t, "a", SelectFirstAvailable("", sessions), "empty selection picks newest")
	assert.Equal(t, "b", SelectFirstAvailable("b", sessions), "valid selection is kept")
	assert.Equal(t, "a", SelectFirstAvailable("gone", sessions), "stale selection falls back to newest")
	assert.Equal(t, "", SelectFirstAvailable("", nil), "no sessions means no selection")
}

func TestNextSelectionAfterDelete(t *testing.T) {
	tests := []struct {
		name       string
		sessions   []store.ChatSession
		selectedID string
		deletedID  string
		want       string
	}{
		{"middle selected, previous preferred", newestFirst("a", "b", "c"), "b", "b", "a"},
		{"newest selected, next taken", newestFirst("a", "b", "c"), "a", "a", "b"},
		{"oldest selected, previous taken", newestFirst("a", "b", "c"), "c", "c", "b"},
		{"only session deleted", newestFirst("a"), "a", "a", ""},
		{"unselected session deleted", newestFirst("a", "b", "c"), "a", "c", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextSelectionAfterDelete(tt.selectedID, tt.deletedID, tt.sessions)
			assert.Equal(t, tt.want, got)
		})
	}
}
