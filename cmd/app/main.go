package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	calendarGet "halaqa-service/internal/http-server/handlers/calendar/get"
	conflictCheck "halaqa-service/internal/http-server/handlers/conflicts/check"
	scheduleCreate "halaqa-service/internal/http-server/handlers/schedules/create"
	scheduleDeactivate "halaqa-service/internal/http-server/handlers/schedules/deactivate"
	scheduleUpdate "halaqa-service/internal/http-server/handlers/schedules/update"
	sessionBulk "halaqa-service/internal/http-server/handlers/sessions/bulk"
	sessionGenerate "halaqa-service/internal/http-server/handlers/sessions/generate"
	sessionGet "halaqa-service/internal/http-server/handlers/sessions/get"
	sessionReschedule "halaqa-service/internal/http-server/handlers/sessions/reschedule"
	sessionSchedule "halaqa-service/internal/http-server/handlers/sessions/schedule"
	slotGet "halaqa-service/internal/http-server/handlers/slots/get"

	"halaqa-service/internal/config"
	"halaqa-service/internal/lock"
	svc "halaqa-service/internal/service"
	"halaqa-service/internal/storage/memory"
	"halaqa-service/internal/storage/postgres"
	slogpretty "halaqa-service/pkg/handlers/slogPretty"
	"halaqa-service/pkg/middleware/mwLogger"
	"halaqa-service/pkg/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {

	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)

	log.Info("Starting API", slog.String("env", cfg.Env))
	log.Debug("Debug messages are enabled")

	var storage interface {
		svc.Store
		Close() error
	}

	if cfg.StoragePath == ":memory:" {
		storage = memory.New()
		log.Warn("Using in-memory storage, data will not survive a restart")
	} else {
		pg, err := postgres.New(cfg.StoragePath)
		if err != nil {
			log.Error("Failed to init storage", sl.Err(err))
			os.Exit(1)
		}
		storage = pg
	}

	var locker interface {
		lock.Locker
		Close() error
	}

	if cfg.RedisAddr == "" {
		locker = lock.NewMemoryLock()
		log.Warn("Using in-process locks, do not run multiple replicas")
	} else {
		rl, err := lock.NewRedisLock(cfg.RedisAddr)
		if err != nil {
			log.Error("Failed to init redis lock", sl.Err(err))
			os.Exit(1)
		}
		locker = rl
	}

	service := svc.NewService(storage, locker, cfg.Scheduling)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwLogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(CORS)

	// Sessions
	router.Get("/sessions/{id}", sessionGet.New(log, service))
	router.Post("/sessions/{id}/schedule", sessionSchedule.New(log, service))
	router.Post("/sessions/{id}/reschedule", sessionReschedule.New(log, service))

	// Circles
	router.Post("/circles/{id}/sessions/bulk", sessionBulk.New(log, service))
	router.Post("/circles/{id}/sessions/generate", sessionGenerate.New(log, service))
	router.Post("/circles/{id}/schedule", scheduleCreate.New(log, service))
	router.Delete("/circles/{id}/schedule", scheduleDeactivate.New(log, service))

	// Schedules
	router.Put("/schedules/{id}", scheduleUpdate.New(log, service))

	// Derived views
	router.Get("/slots", slotGet.New(log, service))
	router.Get("/calendar", calendarGet.New(log, service))
	router.Get("/conflicts/check", conflictCheck.New(log, service))

	serv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	serverErrCh := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", slog.String("addr", cfg.Address))
		if err := serv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErrCh:
		if err != nil {
			log.Error("HTTP server stopped unexpectedly", sl.Err(err))
		} else {
			log.Info("HTTP server stopped gracefully")
		}
	}

	shutdownTimeout := cfg.HTTPServer.ShutdownTimeout

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info("Shutting down HTTP server", slog.String("timeout", shutdownTimeout.String()))

	if err := serv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", sl.Err(err))
	} else {
		log.Info("Server shutdown complete")
	}

	if storage != nil {
		if err := storage.Close(); err != nil {
			log.Error("Failed to close storage", sl.Err(err))
		} else {
			log.Info("Storage closed")
		}
	} else {
		log.Debug("Storage is nil, nothing to close")
	}

	if locker != nil {
		if err := locker.Close(); err != nil {
			log.Error("Failed to close locker", sl.Err(err))
		} else {
			log.Info("Locker closed")
		}
	}

	log.Info("Shutdown finished, server stopped")

}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger
	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}
