package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mragenda.app/server/internal/api"
	"mragenda.app/server/internal/config"
	"mragenda.app/server/internal/core"
	"mragenda.app/server/internal/kv"
	"mragenda.app/server/internal/logging"
	"mragenda.app/server/internal/store"
)

func main() {
	// Load configuration
	config.LoadConfig()

	logger := logging.Init(config.AppConfig.LogLevel, config.AppConfig.LogFile)

	// Initialize the persistence collaborator and the stores on top of it
	kvStore, err := kv.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer kvStore.Close()

	sessionStore, err := store.NewSessionStore(kvStore)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load chat sessions")
	}
	noteStore, err := store.NewNoteStore(kvStore)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load notes")
	}
	userStore := store.NewUserStore(kvStore)
	settingsStore := store.NewSettingsStore(kvStore)

	// Initialize LLM service
	llmService, err := core.NewLLMService(context.Background(), config.AppConfig.GeminiAPIKey, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM service")
	}
	defer llmService.Close()

	// Initialize services
	chatService := core.NewChatService(sessionStore, llmService, logger)
	noteService := core.NewNoteService(noteStore, logger)

	// Reminder poller runs until shutdown
	reminderCtx, stopReminders := context.WithCancel(context.Background())
	defer stopReminders()
	reminderService := core.NewReminderService(
		noteStore,
		core.LogNotifier{Logger: logger},
		config.AppConfig.ReminderPollInterval,
		logger,
	)
	go reminderService.Run(reminderCtx)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(chatService, noteService, sessionStore, userStore, settingsStore, logger)
	router := api.NewRouter(apiHandler)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: config.AppConfig.StreamTimeout + 10*time.Second, // streamed turns hold the response open
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info().Str("addr", serverAddr).Msg("starting server, press Ctrl+C to quit")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Str("addr", serverAddr).Msg("could not listen")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	stopReminders()

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exiting gracefully")
}
