// Package server wires the dependency graph and defines the route table.
//
// This is the composition root: main.go hands it config, it builds the
// store, token issuer, hasher, uploader, services, and handlers, and mounts
// everything on a chi router. Handlers never touch the database; services
// never touch HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/streamhub/internal/auth"
	"github.com/sakif/streamhub/internal/handler"
	"github.com/sakif/streamhub/internal/media"
	"github.com/sakif/streamhub/internal/middleware"
	sqliteRepo "github.com/sakif/streamhub/internal/repository/sqlite"
	"github.com/sakif/streamhub/internal/service"
)

// Config is everything the server needs, assembled once in main from the
// environment and immutable afterwards.
type Config struct {
	Port   int
	DBPath string
	Tokens auth.TokenConfig
	Media  media.S3Config
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency chain:
//
//	sqlite.DB -> SessionManager / ProfileService -> UserHandler -> routes
//
// Each layer receives interfaces, not concretions, so tests can substitute
// fakes at the same seams.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenIssuer(cfg.Tokens)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token issuer: %w", err)
	}

	uploader, err := media.NewS3Uploader(ctx, cfg.Media)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating media uploader: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, uploader)
	return s, nil
}

// setupRoutes mounts middleware and the /api/v1 route table.
func (s *Server) setupRoutes(tokens *auth.TokenIssuer, uploader media.Uploader) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	sessions := service.NewSessionManager(s.db, tokens, auth.NewPasswordHasher(), uploader, s.logger)
	profiles := service.NewProfileService(s.db, s.logger)
	users := handler.NewUserHandler(sessions, profiles,
		s.config.Tokens.AccessTTL, s.config.Tokens.RefreshTTL, s.logger)

	s.router.Route("/api/v1/users", func(r chi.Router) {
		// Public
		r.Post("/register", users.HandleRegister)
		r.Post("/login", users.HandleLogin)
		r.Post("/refresh-token", users.HandleRefresh)

		// Public, but richer when authenticated (isSubscribed)
		r.With(auth.OptionalAuth(tokens)).Get("/channel/{username}", users.HandleChannelProfile)

		// Authenticated
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/logout", users.HandleLogout)
			r.Post("/change-password", users.HandleChangePassword)
			r.Get("/me", users.HandleMe)
			r.Patch("/me", users.HandleUpdateDetails)
			r.Patch("/me/avatar", users.HandleUpdateAvatar)
			r.Patch("/me/cover", users.HandleUpdateCover)
			r.Get("/history", users.HandleWatchHistory)
		})
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
