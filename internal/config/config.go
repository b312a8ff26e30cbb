// Package config loads application settings from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the full set of application settings. Required values have no
// defaults; Load fails fast when they are missing so a misconfigured deploy
// dies at startup rather than on the first request.
type Config struct {
	Port        int
	TemplateDir string
	StaticDir   string

	SupabaseURL     string // base URL of the hosted backend, e.g. https://xyz.supabase.co
	SupabaseAnonKey string

	JWTSecret          string
	AuthProvider       string // upstream identity provider name passed to the auth service
	AuthCallbackURL    string
	RedirectAfterLogin string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win over
// file values either way.
func Load() (*Config, error) {
	// Ignore the error: no .env file is the normal case outside local dev.
	_ = godotenv.Load()

	cfg := &Config{
		Port:               8080,
		TemplateDir:        "web/templates",
		StaticDir:          "web/static",
		AuthProvider:       "github",
		RedirectAfterLogin: "/posts/new",
	}

	var err error
	if cfg.SupabaseURL, err = required("SUPABASE_URL"); err != nil {
		return nil, err
	}
	if cfg.SupabaseAnonKey, err = required("SUPABASE_ANON_KEY"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = required("JWT_SECRET"); err != nil {
		return nil, err
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", raw, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv("AUTH_PROVIDER"); v != "" {
		cfg.AuthProvider = v
	}
	if v := os.Getenv("REDIRECT_AFTER_LOGIN"); v != "" {
		cfg.RedirectAfterLogin = v
	}
	if v := os.Getenv("TEMPLATE_DIR"); v != "" {
		cfg.TemplateDir = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	cfg.AuthCallbackURL = os.Getenv("AUTH_CALLBACK_URL")
	if cfg.AuthCallbackURL == "" {
		cfg.AuthCallbackURL = fmt.Sprintf("http://localhost:%d/auth/callback", cfg.Port)
	}

	return cfg, nil
}

func required(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is not set", name)
	}
	return value, nil
}
