package store

import "time"

// ChatMessage is one entry in a conversation. Messages are append-only
// except for the in-place text growth of the assistant message currently
// being streamed.
type ChatMessage struct {
	Text   string `json:"text"`
	IsUser bool   `json:"isUser"`
}

// ChatSession is one conversation. Draft marks a session that was created
// but never sent; its id is retired when the first message goes out.
type ChatSession struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Draft     bool          `json:"draft,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Note content is stored as HTML produced by the formatted text surface.
type Note struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	IsImportant bool       `json:"isImportant"`
	IsSecret    bool       `json:"isSecret"`
	Reminder    *time.Time `json:"reminder,omitempty"`
}

type NoteCategory string

const (
	CategoryAll       NoteCategory = "all"
	CategoryUpcoming  NoteCategory = "upcoming"
	CategoryImportant NoteCategory = "important"
	CategorySecret    NoteCategory = "secret"
)

// User is the single local user behind the PIN gate.
type User struct {
	Name    string `json:"name"`
	PINHash string `json:"-"`
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type Settings struct {
	Theme Theme `json:"theme"`
}
