package core

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mragenda.app/server/internal/store"
)

const (
	draftTitle = "Yeni Sohbet"

	// Shown in place of the assistant reply when the stream aborts.
	assistantErrorText = "Üzgünüm, bir hata oluştu. Lütfen tekrar deneyin."

	titleMaxRunes = 40
)

var (
	ErrSessionNotFound = errors.New("chat session not found")

	// ErrTurnInFlight rejects a second SendMessage on a session whose
	// previous turn has not settled yet.
	ErrTurnInFlight = errors.New("a reply is already streaming for this session")
)

// ChatService owns the protocol for turning one user input into a
// persisted, streamed assistant reply. For each turn it appends the user
// message, grows an assistant placeholder in place as fragments arrive,
// and writes every incremental change back to the session store.
type ChatService struct {
	sessions *store.SessionStore
	streamer Streamer
	logger   zerolog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewChatService(sessions *store.SessionStore, streamer Streamer, logger zerolog.Logger) *ChatService {
	return &ChatService{
		sessions: sessions,
		streamer: streamer,
		logger:   logger,
		inFlight: make(map[string]struct{}),
	}
}

// NewDraft creates an empty draft session. Its id is transient: the first
// SendMessage retires it and mints a permanent one.
func (s *ChatService) NewDraft() (store.ChatSession, error) {
	session := store.ChatSession{
		ID:        uuid.NewString(),
		Title:     draftTitle,
		Draft:     true,
		Messages:  []store.ChatMessage{},
		CreatedAt: time.Now(),
	}
	if err := s.sessions.Upsert(session); err != nil {
		return store.ChatSession{}, err
	}
	s.logger.Debug().Str("session_id", session.ID).Msg("created draft session")
	return session, nil
}

// SendMessage runs one full turn against the session with the given id.
// onSnapshot, when non-nil, is invoked with each persisted snapshot of
// the session (once after the placeholder append, then once per
// fragment); it runs on the calling goroutine, strictly in order.
//
// Stream failures never surface as errors: the turn settles with the
// fixed error text in the assistant slot. The returned error is non-nil
// only when the turn could not start at all.
func (s *ChatService) SendMessage(ctx context.Context, sessionID string, userInput string, onSnapshot func(store.ChatSession)) (store.ChatSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return store.ChatSession{}, ErrSessionNotFound
	}

	isNewChat := len(session.Messages) == 0

	title := session.Title
	if isNewChat {
		title = truncateTitle(userInput)
	}

	finalID := session.ID
	if session.Draft {
		finalID = uuid.NewString()
	}

	if err := s.beginTurn(session.ID, finalID); err != nil {
		return store.ChatSession{}, err
	}
	defer s.endTurn(session.ID, finalID)

	working := store.ChatSession{
		ID:        finalID,
		Title:     title,
		Draft:     false,
		CreatedAt: session.CreatedAt,
		Messages:  append(session.Messages, store.ChatMessage{Text: userInput, IsUser: true}),
	}

	// The draft entry is retired before the promoted session is written so
	// the old id never coexists with the new one in the store.
	if session.Draft && finalID != session.ID {
		if err := s.sessions.Remove(session.ID); err != nil {
			return store.ChatSession{}, err
		}
	}

	working.Messages = append(working.Messages, store.ChatMessage{Text: "", IsUser: false})
	s.persist(working, onSnapshot)

	// The placeholder is excluded from the history sent upstream.
	history := toTurns(working.Messages[:len(working.Messages)-1])

	stream, err := s.streamer.RequestStream(ctx, history)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", finalID).Msg("stream request failed")
		return s.failTurn(working, onSnapshot), nil
	}

	var reply strings.Builder
	for {
		fragment, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Error().Err(err).Str("session_id", finalID).Msg("stream aborted")
			return s.failTurn(working, onSnapshot), nil
		}

		reply.WriteString(fragment.Text)
		working.Messages[len(working.Messages)-1].Text = reply.String()
		s.persist(working, onSnapshot)
	}

	s.logger.Debug().Str("session_id", finalID).Int("reply_len", reply.Len()).Msg("turn settled")
	return working, nil
}

// failTurn replaces the assistant placeholder with the fixed error text.
// If the last message is unexpectedly not an assistant message, a fresh
// error message is appended instead so the turn never ends invisibly.
func (s *ChatService) failTurn(working store.ChatSession, onSnapshot func(store.ChatSession)) store.ChatSession {
	last := len(working.Messages) - 1
	if last >= 0 && !working.Messages[last].IsUser {
		working.Messages[last] = store.ChatMessage{Text: assistantErrorText, IsUser: false}
	} else {
		working.Messages = append(working.Messages, store.ChatMessage{Text: assistantErrorText, IsUser: false})
	}
	s.persist(working, onSnapshot)
	return working
}

// persist writes the working session through to the store. A failed write
// is logged and the turn carries on with in-memory state; there is no
// retry or rollback.
func (s *ChatService) persist(working store.ChatSession, onSnapshot func(store.ChatSession)) {
	if err := s.sessions.Upsert(working); err != nil {
		s.logger.Error().Err(err).Str("session_id", working.ID).Msg("failed to persist session snapshot")
	}
	if onSnapshot != nil {
		onSnapshot(working)
	}
}

func (s *ChatService) beginTurn(ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, busy := s.inFlight[id]; busy {
			return ErrTurnInFlight
		}
	}
	for _, id := range ids {
		s.inFlight[id] = struct{}{}
	}
	return nil
}

func (s *ChatService) endTurn(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.inFlight, id)
	}
}

func toTurns(messages []store.ChatMessage) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		role := RoleModel
		if msg.IsUser {
			role = RoleUser
		}
		turns = append(turns, Turn{Role: role, Text: msg.Text})
	}
	return turns
}

func truncateTitle(input string) string {
	runes := []rune(input)
	if len(runes) <= titleMaxRunes {
		return input
	}
	return string(runes[:titleMaxRunes]) + "..."
}
