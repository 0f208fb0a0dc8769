// Command api starts the Newsdesk HTTP API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	"github.com/mvettori/newsdesk/internal/config"
	"github.com/mvettori/newsdesk/internal/db"
	"github.com/mvettori/newsdesk/internal/handlers"
	"github.com/mvettori/newsdesk/internal/kv"
	"github.com/mvettori/newsdesk/internal/models"
)

func main() {
	// Structured logging.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Database connection.
	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		slog.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Data stores.
	articleStore := models.NewArticleStore(pool)
	refStore := models.NewRefStore(pool)
	prefStore := models.NewPreferenceStore(pool)
	state := kv.NewPG(pool)

	// Handlers.
	articlesHandler := &handlers.ArticlesHandler{
		Articles: articleStore,
	}
	metaHandler := &handlers.MetaHandler{
		Refs: refStore,
	}
	usersHandler := &handlers.UsersHandler{
		Articles:    articleStore,
		Preferences: prefStore,
	}
	healthHandler := &handlers.HealthHandler{
		Pool:         pool,
		State:        state,
		AdapterCount: 3,
	}

	// Router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/api/health", healthHandler.Check)

	r.Get("/api/articles", articlesHandler.Index)
	r.Get("/api/sources", metaHandler.Sources)
	r.Get("/api/categories", metaHandler.Categories)
	r.Get("/api/authors", metaHandler.Authors)

	r.Route("/api/users/{id}", func(r chi.Router) {
		r.Get("/feed", usersHandler.Feed)
		r.Get("/preferences", usersHandler.GetPreferences)
		r.Put("/preferences", usersHandler.UpdatePreferences)
	})

	// Start server.
	addr := cfg.Server.Addr()
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
	}

	slog.Info("server stopped")
}
