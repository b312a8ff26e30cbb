// Package server wires the application together: router, middleware, route
// definitions, and graceful shutdown. It is the composition root — the
// GraphQL client, repositories, services, and handlers are all constructed
// here and nowhere else.
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

	"github.com/sakif/supablog/internal/auth"
	"github.com/sakif/supablog/internal/graphql"
	"github.com/sakif/supablog/internal/handler"
	"github.com/sakif/supablog/internal/middleware"
	"github.com/sakif/supablog/internal/repository/supabase"
	"github.com/sakif/supablog/internal/service"
)

// Config holds everything the server needs to run. It is populated from the
// environment by the config package; nothing in here reads env vars directly.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string

	SupabaseURL     string
	SupabaseAnonKey string

	JWTSecret          string
	AuthProvider       string
	AuthCallbackURL    string
	RedirectAfterLogin string
}

// Server owns the router and the shared dependencies behind it.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
}

// New assembles the full dependency chain:
//
//	graphql.Client → supabase.Store → services → handlers → routes
//
// Each layer receives only what it needs. Handlers never see the GraphQL
// client, services never see HTTP.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and all route handlers.
//
// Routes:
//
//	GET  /                → published posts, paginated (HTML)
//	GET  /posts/{id}      → post detail (HTML)
//	GET  /posts/new       → composer (HTML, sign-in required)
//	POST /posts           → composer submission (sign-in required)
//	GET  /auth/sign-in    → start OAuth flow
//	GET  /auth/callback   → finish OAuth flow
//	POST /auth/logout     → clear session
//	GET  /api/posts       → post list (JSON)
//	GET  /api/posts/{id}  → post detail (JSON)
//	POST /api/posts       → create post (JSON, sign-in required)
//	GET  /static/*        → CSS and assets
func (s *Server) setupRoutes() error {
	// Global middleware, in execution order: request IDs for tracing, real
	// client IPs behind proxies, one log line per request, panic recovery.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// Shared backend plumbing.
	client := graphql.NewClient(s.config.SupabaseURL, s.config.SupabaseAnonKey, s.logger)
	store := supabase.New(client)

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	provider := auth.NewProvider(s.config.SupabaseURL, s.config.SupabaseAnonKey, s.config.AuthCallbackURL, s.config.AuthProvider)

	postService := service.NewPostService(store, s.logger)
	authService := service.NewAuthService(store, tokens, s.logger)

	homeHandler, err := handler.NewHomeHandler(s.config.TemplateDir, postService, s.logger)
	if err != nil {
		return fmt.Errorf("creating home handler: %w", err)
	}
	postHandler, err := handler.NewPostHandler(s.config.TemplateDir, postService, s.logger)
	if err != nil {
		return fmt.Errorf("creating post handler: %w", err)
	}
	authHandler := handler.NewAuthHandler(provider, authService, s.config.RedirectAfterLogin, s.logger)
	apiHandler := handler.NewAPIHandler(postService, s.logger)

	// Page routes. OptionalUser attaches the session when present so every
	// page can show the signed-in state; RequireUser gates the composer.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalUser(tokens))
		r.Get("/", homeHandler.HandleHome)
		r.Get("/posts/{id}", postHandler.HandleDetail)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(tokens, "/auth/sign-in"))
		r.Get("/posts/new", postHandler.HandleNewForm)
		r.Post("/posts", postHandler.HandleCreate)
	})

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/sign-in", authHandler.HandleSignIn)
		r.Get("/callback", authHandler.HandleCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/posts", apiHandler.HandleList)
		r.Get("/posts/{id}", apiHandler.HandleGet)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUserAPI(tokens))
			r.Post("/posts", apiHandler.HandleCreate)
		})
	})

	return nil
}

// Start runs the HTTP server until it fails or a shutdown signal arrives.
// On SIGINT/SIGTERM, in-flight requests get 30 seconds to finish.
func (s *Server) Start() error {
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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("backend", s.config.SupabaseURL),
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
