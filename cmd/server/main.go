// Package main is the entry point for the blog server. It reads
// configuration, builds the logger, and hands off to internal/server;
// everything else lives in imported packages.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/supablog/internal/config"
	"github.com/sakif/supablog/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(server.Config{
		Port:               cfg.Port,
		TemplateDir:        cfg.TemplateDir,
		StaticDir:          cfg.StaticDir,
		SupabaseURL:        cfg.SupabaseURL,
		SupabaseAnonKey:    cfg.SupabaseAnonKey,
		JWTSecret:          cfg.JWTSecret,
		AuthProvider:       cfg.AuthProvider,
		AuthCallbackURL:    cfg.AuthCallbackURL,
		RedirectAfterLogin: cfg.RedirectAfterLogin,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until shutdown (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
