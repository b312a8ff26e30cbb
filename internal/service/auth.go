package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/sakif/supablog/internal/apperror"
	"github.com/sakif/supablog/internal/auth"
	"github.com/sakif/supablog/internal/model"
	"github.com/sakif/supablog/internal/repository"
)

// LoginResult is everything the callback handler needs to finish a sign-in:
// the session it should greet the user with and the signed token to drop in
// the cookie.
type LoginResult struct {
	Session auth.Session
	Token   string
}

// AuthService turns a verified upstream identity into a local session,
// provisioning an author row for first-time visitors along the way.
type AuthService struct {
	authors repository.AuthorRepository
	tokens  *auth.TokenService
	logger  *slog.Logger
}

func NewAuthService(authors repository.AuthorRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{authors: authors, tokens: tokens, logger: logger}
}

// LoginOrProvision mints a session for the identity, creating its author row
// if this is the first visit. Provisioning is best effort: a backend hiccup
// here should not lock the user out of a session they already authenticated
// for, so failures are logged and the login proceeds.
func (s *AuthService) LoginOrProvision(ctx context.Context, identity *auth.Identity) (*LoginResult, error) {
	s.ensureAuthor(ctx, identity)

	session := auth.Session{
		UserID: identity.ID,
		Name:   identity.DisplayName(),
		Email:  identity.Email,
	}

	token, err := s.tokens.Generate(session)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Session: session, Token: token}, nil
}

func (s *AuthService) ensureAuthor(ctx context.Context, identity *auth.Identity) {
	if _, err := s.authors.GetAuthorByID(ctx, identity.ID); err == nil {
		return
	}

	err := s.authors.CreateAuthor(ctx, &model.Author{
		ID:     identity.ID,
		Name:   identity.ProvisionName(),
		Gender: model.AuthorGenderPlaceholder,
		Age:    model.AuthorAgePlaceholder,
	})
	if err == nil {
		s.logger.Info("author provisioned", "author_id", identity.ID)
		return
	}

	// A concurrent callback for the same user may have raced us to the
	// insert. The backend's primary key rejects the loser with a conflict;
	// either way the row exists and provisioning is done.
	if errors.Is(err, apperror.ErrConflict) {
		return
	}
	if _, checkErr := s.authors.GetAuthorByID(ctx, identity.ID); checkErr == nil {
		return
	}

	s.logger.Error("author provisioning failed", "author_id", identity.ID, "error", err)
}
