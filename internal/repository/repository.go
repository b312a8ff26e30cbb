// Package repository defines the data-access interfaces the service layer
// depends on. The concrete implementation (repository/supabase) talks to the
// hosted backend; tests substitute in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/supablog/internal/model"
)

// ListOptions is offset/limit pagination, passed through to the backend
// unchanged. There is no stable cursor — inserting a post while a reader is
// on page 2 can shift which items appear there.
type ListOptions struct {
	Limit  int
	Offset int
}

// PageInfo carries the backend's pagination flags for the requested slice.
type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
}

type PostRepository interface {
	// ListPublished returns one slice of published posts, newest first
	// (publish time descending, tie-broken by id descending).
	ListPublished(ctx context.Context, opts ListOptions) ([]model.Post, PageInfo, error)

	// GetByID returns exactly the post with the given id, or
	// apperror.ErrNotFound when the backend has no matching record.
	GetByID(ctx context.Context, id string) (*model.Post, error)

	// Create inserts a new post and returns the created record.
	Create(ctx context.Context, input model.NewPost) (*model.Post, error)
}

type AuthorRepository interface {
	// GetAuthorByID returns the author row for an identity id, or
	// apperror.ErrNotFound when no row exists yet.
	GetAuthorByID(ctx context.Context, id string) (*model.Author, error)

	// CreateAuthor inserts a new author row.
	CreateAuthor(ctx context.Context, author *model.Author) error
}
