package core

import "mragenda.app/server/internal/store"

// SelectFirstAvailable keeps the current selection when it still refers
// to an existing session; otherwise it picks the newest session, or none.
func SelectFirstAvailable(selectedID string, sessions []store.ChatSession) string {
	if selectedID != "" {
		for _, s := range sessions {
			if s.ID == selectedID {
				return selectedID
			}
		}
	}
	if len(sessions) > 0 {
		return sessions[0].ID
	}
	return ""
}

// NextSelectionAfterDelete computes the selection that should replace
// deletedID: the previous session by index if one exists, else the next,
// else none. Deleting an unselected session leaves the selection alone.
func NextSelectionAfterDelete(selectedID, deletedID string, sessions []store.ChatSession) string {
	if selectedID != deletedID {
		return selectedID
	}
	for i, s := range sessions {
		if s.ID != deletedID {
			continue
		}
		if i > 0 {
			return sessions[i-1].ID
		}
		if i+1 < len(sessions) {
			return sessions[i+1].ID
		}
		return ""
	}
	return ""
}
