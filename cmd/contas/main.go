package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"contas/internal/api"
	"contas/internal/busy"
	"contas/internal/config"
	applog "contas/internal/log"
	"contas/internal/notify"
	"contas/internal/prefs"
	"contas/internal/session"
	"contas/internal/storage"
	"contas/internal/web"
)

func main() {
	// Optional .env; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := applog.New(applog.Config{
		Level:     parseLevel(cfg.LogLevel),
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	slot, err := storage.OpenSlot(cfg.SlotDBPath)
	if err != nil {
		logger.Error("Failed to open local slot", applog.FieldError, err, "path", cfg.SlotDBPath)
		os.Exit(1)
	}
	defer slot.Close()

	// The session store is both the client's token source and its 401
	// hook, while its auth service needs the client. The closures below
	// break the cycle; requests only flow once sessions is assigned.
	var sessions *session.Store
	client, err := api.NewClient(api.Options{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.RequestTimeout,
		Tokens:  api.TokenFunc(func() string { return sessions.Token() }),
		OnUnauthorized: func() {
			sessions.HandleUnauthorized()
		},
		Logger: logger,
	})
	if err != nil {
		logger.Error("Failed to build API client", applog.FieldError, err, "baseURL", cfg.APIBaseURL)
		os.Exit(1)
	}

	auth := api.NewAuthService(client)
	sessions = session.NewStore(slot, auth, logger)
	preferences := prefs.NewStore(slot, auth, logger)
	notices := notify.NewBroadcaster(cfg.NotifyTTL)
	indicator := busy.NewIndicator()

	// Restore any persisted session, then reconcile the display mode
	// against the remote profile. Both tolerate an unreachable API.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := sessions.Restore(startupCtx); err != nil {
		logger.Warn("Session restore incomplete", applog.FieldError, err)
	}
	preferences.Reconcile(startupCtx)
	startupCancel()

	srv := web.NewServer(":"+cfg.Port, web.Deps{
		Sessions:     sessions,
		Prefs:        preferences,
		Notices:      notices,
		Busy:         indicator,
		Auth:         auth,
		Transactions: api.NewTransactionService(client),
		Savings:      api.NewSavingService(client),
		Users:        api.NewUserService(client),
		Logger:       logger,
	})

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting contas server", "port", cfg.Port, "api", cfg.APIBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped")
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
