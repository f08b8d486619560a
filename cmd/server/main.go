package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/encryptoo/encryptoo/internal/artifact"
	"github.com/encryptoo/encryptoo/internal/config"
	"github.com/encryptoo/encryptoo/internal/db"
	"github.com/encryptoo/encryptoo/internal/feedback"
	"github.com/encryptoo/encryptoo/internal/handlers"
	"github.com/encryptoo/encryptoo/internal/middleware"
	"github.com/encryptoo/encryptoo/internal/repo"
	"github.com/encryptoo/encryptoo/internal/scheduler"
)

func main() {
	cfg := config.Load()

	setupLogger(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	database, err := db.Connect(cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBUser, cfg.DBPass,
		cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.Migrate(cfg.DatabaseURL()); err != nil {
		slog.Error("run migrations", "error", err)
		os.Exit(1)
	}

	artifacts, err := artifact.NewStore(cfg.WorkDir)
	if err != nil {
		slog.Error("open artifact workspace", "error", err)
		os.Exit(1)
	}

	feedbackStore, err := feedback.NewStore(cfg.FeedbackFile)
	if err != nil {
		slog.Error("open feedback store", "error", err)
		os.Exit(1)
	}

	purge := scheduler.Run(artifacts, cfg.ArtifactTTL)
	defer purge.Stop()

	router := newRouter(database, artifacts, feedbackStore, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

// newRouter wires the full middleware chain and route table. Kept as a
// function so tests can build the whole app against fakes.
func newRouter(database *sql.DB, artifacts *artifact.Store, feedbackStore *feedback.Store, cfg config.Config) http.Handler {
	sessions := &middleware.SessionManager{
		Secret: []byte(cfg.SessionSecret),
		TTL:    cfg.SessionTTL,
	}

	authHandler := &handlers.AuthHandler{
		UserRepo: repo.NewUserRepo(database),
		Sessions: sessions,
	}
	uploadHandler := &handlers.UploadHandler{Artifacts: artifacts}
	pageHandler := &handlers.PageHandler{Artifacts: artifacts}
	feedbackHandler := &handlers.FeedbackHandler{Store: feedbackStore}

	authLimiter := middleware.AuthRateLimiter()

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(false))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Operational endpoints
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Public
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Get("/login", authHandler.LoginForm)
		r.Post("/login", authHandler.Login)
		r.Get("/register", authHandler.RegisterForm)
		r.Post("/register", authHandler.Register)
	})
	r.Get("/logout", authHandler.Logout)
	r.Get("/about", pageHandler.About)

	// Feedback: anonymous allowed, session attached when present
	r.Group(func(r chi.Router) {
		r.Use(sessions.OptionalAuth)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/save-feedback", feedbackHandler.Save)
	})

	// Protected
	r.Group(func(r chi.Router) {
		r.Use(sessions.RequireAuth)
		r.Get("/", pageHandler.Index)
		r.Get("/output/", pageHandler.Output)
		r.Get("/output/artifact", pageHandler.Artifact)
		r.Get("/output/thumbnail", pageHandler.Thumbnail)
		r.Get("/uploadenc/", uploadHandler.EncodeForm)
		r.Get("/uploaddec/", uploadHandler.DecodeForm)
		r.Get("/view-feedback", feedbackHandler.View)

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBytes(cfg.MaxUploadBytes))
			r.Post("/uploadenc/", uploadHandler.Encode)
			r.Post("/uploaddec/", uploadHandler.Decode)
		})
	})

	return r
}

func setupLogger(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))
}
