package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"mragenda.app/server/internal/auth"
	"mragenda.app/server/internal/config"
	"mragenda.app/server/internal/core"
	"mragenda.app/server/internal/store"
)

type APIHandler struct {
	chatService *core.ChatService
	noteService *core.NoteService
	sessions    *store.SessionStore
	users       *store.UserStore
	settings    *store.SettingsStore
	logger      zerolog.Logger

	mu         sync.Mutex
	selectedID string
}

func NewAPIHandler(cs *core.ChatService, ns *core.NoteService, sessions *store.SessionStore, users *store.UserStore, settings *store.SettingsStore, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		chatService: cs,
		noteService: ns,
		sessions:    sessions,
		users:       users,
		settings:    settings,
		logger:      logger,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userName, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.users.Get()
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to load user in auth middleware")
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}
		if user == nil || user.Name != userName {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type WelcomeRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

// WelcomeHandler creates the single local user on first run.
func (h *APIHandler) WelcomeHandler(w http.ResponseWriter, r *http.Request) {
	var req WelcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || req.PIN == "" {
		http.Error(w, "Name and PIN are required", http.StatusBadRequest)
		return
	}

	existing, err := h.users.Get()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to check for existing user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "User already exists", http.StatusConflict)
		return
	}

	pinHash, err := auth.HashPIN(req.PIN)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user := store.User{Name: strings.TrimSpace(req.Name), PINHash: pinHash}
	if err := h.users.Save(user); err != nil {
		h.logger.Error().Err(err).Msg("failed to save user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateJWT(user.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"name": user.Name, "token": token})
}

type LoginRequest struct {
	PIN string `json:"pin"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.users.Get()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load user for login")
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if user == nil || !auth.CheckPIN(req.PIN, user.PINHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user.Name)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate JWT")
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"name": user.Name, "token": token})
}

// --- Notes ---

func (h *APIHandler) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	category := store.NoteCategory(r.URL.Query().Get("category"))
	if category == "" {
		category = store.CategoryAll
	}
	notes := h.noteService.List(category)
	json.NewEncoder(w).Encode(notes)
}

func (h *APIHandler) SaveNoteHandler(w http.ResponseWriter, r *http.Request) {
	var note store.Note
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(note.Title) == "" {
		http.Error(w, "Note title is required", http.StatusBadRequest)
		return
	}

	saved, err := h.noteService.Save(note)
	if err != nil {
		h.logger.Error().Err(err).Str("note_id", note.ID).Msg("failed to save note")
		http.Error(w, "Failed to save note", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(saved)
}

func (h *APIHandler) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "noteID")
	if err := h.noteService.Delete(noteID); err != nil {
		h.logger.Error().Err(err).Str("note_id", noteID).Msg("failed to delete note")
		http.Error(w, "Failed to delete note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type NoteFromChatRequest struct {
	Content string `json:"content"`
}

func (h *APIHandler) NoteFromChatHandler(w http.ResponseWriter, r *http.Request) {
	var req NoteFromChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Content == "" {
		http.Error(w, "Content cannot be empty", http.StatusBadRequest)
		return
	}

	note, err := h.noteService.CreateFromChat(req.Content)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create note from chat")
		http.Error(w, "Failed to create note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(note)
}

// --- Chat sessions ---

type ListChatsResponse struct {
	Sessions   []store.ChatSession `json:"sessions"`
	SelectedID string              `json:"selected_id,omitempty"`
}

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()

	h.mu.Lock()
	h.selectedID = core.SelectFirstAvailable(h.selectedID, sessions)
	selected := h.selectedID
	h.mu.Unlock()

	json.NewEncoder(w).Encode(ListChatsResponse{Sessions: sessions, SelectedID: selected})
}

func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.chatService.NewDraft()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to create draft session")
		http.Error(w, "Failed to create chat", http.StatusInternalServerError)
		return
	}

	h.mu.Lock()
	h.selectedID = session.ID
	h.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(session)
}

func (h *APIHandler) GetChatDetailsHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	session, ok := h.sessions.Get(chatID)
	if !ok {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(session)
}

func (h *APIHandler) SelectChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")
	if _, ok := h.sessions.Get(chatID); !ok {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}

	h.mu.Lock()
	h.selectedID = chatID
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	h.mu.Lock()
	h.selectedID = core.NextSelectionAfterDelete(h.selectedID, chatID, h.sessions.List())
	selected := h.selectedID
	h.mu.Unlock()

	if err := h.sessions.Remove(chatID); err != nil {
		h.logger.Error().Err(err).Str("session_id", chatID).Msg("failed to delete session")
		http.Error(w, "Failed to delete chat", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"selected_id": selected})
}

type PostMessageRequest struct {
	Content string `json:"content"`
}

// PostMessageHandler runs one chat turn. With ?stream=1 the response is
// an SSE stream of message snapshots; otherwise the settled session is
// returned as JSON. Empty input is rejected here, before the controller
// is invoked.
func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), config.AppConfig.StreamTimeout)
	defer cancel()

	if r.URL.Query().Get("stream") == "1" {
		h.postMessageSSE(ctx, w, chatID, content)
		return
	}

	session, err := h.chatService.SendMessage(ctx, chatID, content, nil)
	if err != nil {
		h.writeSendError(w, chatID, err)
		return
	}
	h.reselectAfterSend(chatID, session.ID)
	json.NewEncoder(w).Encode(session)
}

type streamEvent struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

func (h *APIHandler) postMessageSSE(ctx context.Context, w http.ResponseWriter, chatID, content string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	onSnapshot := func(snapshot store.ChatSession) {
		last := snapshot.Messages[len(snapshot.Messages)-1]
		data, err := json.Marshal(streamEvent{SessionID: snapshot.ID, Text: last.Text})
		if err != nil {
			return
		}
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
		flusher.Flush()
	}

	session, err := h.chatService.SendMessage(ctx, chatID, content, onSnapshot)
	if err != nil {
		// Headers are not written yet only on the non-snapshot path, so a
		// start failure can still use a plain status code.
		h.writeSendError(w, chatID, err)
		return
	}
	h.reselectAfterSend(chatID, session.ID)

	fmt.Fprintf(w, "event: done\ndata: %s\n\n", session.ID)
	flusher.Flush()
}

// reselectAfterSend follows a draft promotion: a selection pointing at
// the retired draft id moves to the permanent id.
func (h *APIHandler) reselectAfterSend(oldID, newID string) {
	if oldID == newID {
		return
	}
	h.mu.Lock()
	if h.selectedID == oldID {
		h.selectedID = newID
	}
	h.mu.Unlock()
}

func (h *APIHandler) writeSendError(w http.ResponseWriter, chatID string, err error) {
	switch {
	case errors.Is(err, core.ErrSessionNotFound):
		http.Error(w, "Chat not found", http.StatusNotFound)
	case errors.Is(err, core.ErrTurnInFlight):
		http.Error(w, "A reply is already in progress for this chat", http.StatusConflict)
	default:
		h.logger.Error().Err(err).Str("session_id", chatID).Msg("failed to post message")
		http.Error(w, "Failed to post message", http.StatusInternalServerError)
	}
}

// --- Settings ---

func (h *APIHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settings.Get()
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to load settings")
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(settings)
}

func (h *APIHandler) SaveSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var settings store.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	switch settings.Theme {
	case store.ThemeLight, store.ThemeDark, store.ThemeSystem:
	default:
		http.Error(w, "Unknown theme", http.StatusBadRequest)
		return
	}

	if err := h.settings.Save(settings); err != nil {
		h.logger.Error().Err(err).Msg("failed to save settings")
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(settings)
}
