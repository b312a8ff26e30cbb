package supabase

import (
	"context"
	"fmt"

	"github.com/sakif/supablog/internal/apperror"
	"github.com/sakif/supablog/internal/model"
	"github.com/sakif/supablog/internal/repository"
)

// postNode mirrors the node fields of the post queries. published_at stays
// a *string here — the wire format — and is parsed on the way out.
type postNode struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	PublishedAt *string `json:"published_at"`
	Authors     *struct {
		Name string `json:"name"`
	} `json:"authors"`
}

func (n postNode) toModel() model.Post {
	post := model.Post{
		ID:          n.ID,
		Title:       n.Title,
		Body:        n.Body,
		PublishedAt: parseTimestamp(n.PublishedAt),
	}
	if n.Authors != nil {
		post.AuthorName = n.Authors.Name
	}
	return post
}

type postsCollection struct {
	Edges []struct {
		Node postNode `json:"node"`
	} `json:"edges"`
	PageInfo struct {
		HasNextPage     bool `json:"hasNextPage"`
		HasPreviousPage bool `json:"hasPreviousPage"`
	} `json:"pageInfo"`
}

// ListPublished fetches one page of published posts. Limit and offset pass
// through to the backend unchanged; ordering and the published filter are
// baked into the query document.
func (s *Store) ListPublished(ctx context.Context, opts repository.ListOptions) ([]model.Post, repository.PageInfo, error) {
	var resp struct {
		PostsCollection postsCollection `json:"postsCollection"`
	}
	err := s.client.Do(ctx, queryListPosts, map[string]any{
		"limit":  opts.Limit,
		"offset": opts.Offset,
	}, &resp)
	if err != nil {
		return nil, repository.PageInfo{}, fmt.Errorf("listing posts: %w", err)
	}

	posts := make([]model.Post, 0, len(resp.PostsCollection.Edges))
	for _, edge := range resp.PostsCollection.Edges {
		posts = append(posts, edge.Node.toModel())
	}

	info := repository.PageInfo{
		HasNextPage:     resp.PostsCollection.PageInfo.HasNextPage,
		HasPreviousPage: resp.PostsCollection.PageInfo.HasPreviousPage,
	}
	return posts, info, nil
}

// GetByID fetches exactly one post. Zero edges means the id doesn't exist
// (or isn't visible), which maps to apperror.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*model.Post, error) {
	var resp struct {
		PostsCollection postsCollection `json:"postsCollection"`
	}
	err := s.client.Do(ctx, queryGetPostByID, map[string]any{"id": id}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching post %s: %w", id, err)
	}

	if len(resp.PostsCollection.Edges) == 0 {
		return nil, apperror.NotFound("post", id)
	}

	post := resp.PostsCollection.Edges[0].Node.toModel()
	return &post, nil
}

// createdRecord is the shape the create mutation returns per record.
type createdRecord struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Published   bool    `json:"published"`
	PublishedAt *string `json:"published_at"`
	AuthorID    string  `json:"author_id"`
}

// Create issues the create mutation and returns the first created record.
// A response with zero records is a create failure — the caller must not
// redirect anywhere on it.
func (s *Store) Create(ctx context.Context, input model.NewPost) (*model.Post, error) {
	var resp struct {
		Insert struct {
			AffectedCount int             `json:"affectedCount"`
			Records       []createdRecord `json:"records"`
		} `json:"insertIntopostsCollection"`
	}
	err := s.client.Do(ctx, mutationCreatePost, map[string]any{
		"title":     input.Title,
		"body":      input.Body,
		"published": input.Published,
		"author_id": input.AuthorID,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	if len(resp.Insert.Records) == 0 {
		return nil, fmt.Errorf("creating post: backend returned no records")
	}

	rec := resp.Insert.Records[0]
	return &model.Post{
		ID:          rec.ID,
		Title:       rec.Title,
		Body:        rec.Body,
		PublishedAt: parseTimestamp(rec.PublishedAt),
	}, nil
}
