package service

import (
	"context"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"github.com/sakif/supablog/internal/apperror"
	"github.com/sakif/supablog/internal/model"
	"github.com/sakif/supablog/internal/repository"
)

const (
	// PageSize is how many posts the home page shows per request.
	PageSize = 5

	MaxTitleLength = 200
	MaxBodyLength  = 100000
)

// PostPage is one page of the published-post listing, with the flags the
// template needs to render the Previous/Next controls.
type PostPage struct {
	Page            int
	Posts           []model.Post
	HasNextPage     bool
	HasPreviousPage bool
}

// PrevPage and NextPage are the link targets for the pagination controls.
// Templates only render them when the matching Has*Page flag is set.
func (p *PostPage) PrevPage() int { return p.Page - 1 }
func (p *PostPage) NextPage() int { return p.Page + 1 }

// PostService sits between the handlers and the post repository. It owns
// pagination arithmetic and input validation so handlers stay thin.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// ListPage fetches one page of published posts. Page numbers start at 1;
// anything below that is clamped rather than rejected, so a hand-edited
// ?page=0 still renders the first page.
func (s *PostService) ListPage(ctx context.Context, page int) (*PostPage, error) {
	if page < 1 {
		page = 1
	}

	posts, info, err := s.posts.ListPublished(ctx, repository.ListOptions{
		Limit:  PageSize,
		Offset: (page - 1) * PageSize,
	})
	if err != nil {
		return nil, err
	}

	return &PostPage{
		Page:            page,
		Posts:           posts,
		HasNextPage:     info.HasNextPage,
		HasPreviousPage: info.HasPreviousPage,
	}, nil
}

// GetByID returns a single post. Malformed ids never reach the backend;
// they are reported the same way as a missing row.
func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NotFound("post", id)
	}
	return s.posts.GetByID(ctx, id)
}

// Create validates and stores a new post, returning it with its assigned id.
func (s *PostService) Create(ctx context.Context, input model.NewPost) (*model.Post, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Body = strings.TrimSpace(input.Body)

	if err := validateNewPost(input); err != nil {
		return nil, err
	}

	post, err := s.posts.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("post created", "post_id", post.ID, "author_id", input.AuthorID, "published", input.Published)
	return post, nil
}

func validateNewPost(input model.NewPost) error {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Title,
			validation.Required.Error("title is required"),
			validation.RuneLength(1, MaxTitleLength).Error("title is too long")),
		validation.Field(&input.Body,
			validation.Required.Error("body is required"),
			validation.RuneLength(1, MaxBodyLength).Error("body is too long")),
		validation.Field(&input.AuthorID,
			validation.Required.Error("author id is required"),
			is.UUID.Error("author id must be a UUID")),
	)
	if err == nil {
		return nil
	}

	// Report the first failing field so the form can highlight it.
	if fieldErrs, ok := err.(validation.Errors); ok {
		for _, field := range []string{"Title", "Body", "AuthorID"} {
			if fieldErr, ok := fieldErrs[field]; ok {
				return apperror.ValidationFailed(strings.ToLower(field), fieldErr.Error())
			}
		}
	}
	return apperror.ValidationFailed("post", err.Error())
}
