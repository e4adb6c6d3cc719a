package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)       // Basic request logging
	r.Use(middleware.Recoverer)    // Recover from panics
	r.Use(middleware.StripSlashes) // Ensure consistent path handling

	// All API routes will be under /api
	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/welcome", apiHandler.WelcomeHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		})

		// User-authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.JWTAuthMiddleware)

			// Note routes
			r.Get("/notes", apiHandler.ListNotesHandler)
			r.Post("/notes", apiHandler.SaveNoteHandler)
			r.Delete("/notes/{noteID}", apiHandler.DeleteNoteHandler)
			r.Post("/notes/from-chat", apiHandler.NoteFromChatHandler)

			// Chat routes
			r.Get("/chats", apiHandler.ListChatsHandler)
			r.Post("/chats", apiHandler.CreateChatHandler)
			r.Get("/chats/{chatID}", apiHandler.GetChatDetailsHandler)
			r.Post("/chats/{chatID}/select", apiHandler.SelectChatHandler)
			r.Delete("/chats/{chatID}", apiHandler.DeleteChatHandler)
			r.Post("/chats/{chatID}/messages", apiHandler.PostMessageHandler)

			// Settings routes
			r.Get("/settings", apiHandler.GetSettingsHandler)
			r.Put("/settings", apiHandler.SaveSettingsHandler)
		})
	})

	return r
}
