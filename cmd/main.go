package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"

	"reqclassify/internal/auth"
	"reqclassify/internal/classifier"
	"reqclassify/internal/config"
	"reqclassify/internal/history"
	"reqclassify/internal/mailer"
	"reqclassify/internal/store"
	"reqclassify/internal/web"
	"reqclassify/middleware"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	for _, dir := range []string{cfg.DataDir, cfg.UploadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal().Err(err).Str("dir", dir).Msg("Failed to create directory")
		}
	}

	userStore := store.NewUserStore(cfg.UsersPath())
	historyStore := store.NewHistoryStore(cfg.HistoryPath())

	// The app runs without a model artifact; predictions then report
	// the model as unavailable, matching the startup contract.
	var clf classifier.Classifier = classifier.Unavailable{}
	model, err := classifier.Load(cfg.ModelPath)
	switch {
	case err == nil:
		clf = model
		logger.Info().Str("path", cfg.ModelPath).Msg("Model artifact loaded")
	case os.IsNotExist(err):
		logger.Warn().Str("path", cfg.ModelPath).Msg("Model artifact not found; predictions disabled")
	default:
		logger.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("Failed to load model artifact")
	}

	authService := auth.NewAuthService(userStore)
	historyService := history.NewHistoryService(historyStore)
	mailService := mailer.NewMailer(cfg)

	webHandler, err := web.NewWebHandler(authService, historyService, clf, mailService, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize web handler")
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: middleware.LoggingMiddleware(webHandler.SetupRoutes()),
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server error")
		}
	}()

	waitForShutdown(server)
}

func waitForShutdown(server *http.Server) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info().Msg("Shutting down the server...")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		os.Exit(1)
	}
	logger.Info().Msg("Server stopped")
}
