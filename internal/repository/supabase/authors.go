package supabase

import (
	"context"
	"fmt"
	"strings"

	"github.com/sakif/supablog/internal/apperror"
	"github.com/sakif/supablog/internal/model"
)

type authorNode struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetAuthorByID is the point lookup the callback performs before provisioning.
func (s *Store) GetAuthorByID(ctx context.Context, id string) (*model.Author, error) {
	var resp struct {
		AuthorsCollection struct {
			Edges []struct {
				Node authorNode `json:"node"`
			} `json:"edges"`
		} `json:"authorsCollection"`
	}
	err := s.client.Do(ctx, queryGetAuthorByID, map[string]any{"id": id}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching author %s: %w", id, err)
	}

	if len(resp.AuthorsCollection.Edges) == 0 {
		return nil, apperror.NotFound("author", id)
	}

	node := resp.AuthorsCollection.Edges[0].Node
	return &model.Author{ID: node.ID, Name: node.Name}, nil
}

// CreateAuthor inserts the author row. The id is the backend table's primary key,
// so a concurrent duplicate insert is rejected by the backend itself; that
// rejection comes back as apperror.ErrConflict so the caller can treat it as
// "already provisioned" rather than a failure.
func (s *Store) CreateAuthor(ctx context.Context, author *model.Author) error {
	var resp struct {
		Insert struct {
			AffectedCount int          `json:"affectedCount"`
			Records       []authorNode `json:"records"`
		} `json:"insertIntoauthorsCollection"`
	}
	err := s.client.Do(ctx, mutationCreateAuthor, map[string]any{
		"id":     author.ID,
		"name":   author.Name,
		"gender": author.Gender,
		"age":    author.Age,
	}, &resp)
	if err != nil {
		if isDuplicateKey(err) {
			return apperror.Conflict("author", author.ID)
		}
		return fmt.Errorf("creating author %s: %w", author.ID, err)
	}
	return nil
}

// isDuplicateKey recognizes the backend's unique-constraint rejection. The
// GraphQL layer surfaces it as an error message, not a status code, so the
// Postgres wording is the only signal available.
func isDuplicateKey(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key")
}
