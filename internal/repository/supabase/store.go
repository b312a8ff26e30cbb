// Package supabase implements the repository interfaces on top of the
// hosted backend's GraphQL endpoint.
//
// Where a SQL-backed repository would scan rows, this one decodes the
// edge/node envelope the backend wraps every collection in:
//
//	{"postsCollection": {"edges": [{"node": {...}}, ...], "pageInfo": {...}}}
//
// The query documents live next to the code that decodes their responses
// (queries.go), the way a SQL repository keeps its statements next to the
// scan code.
package supabase

import (
	"time"

	"github.com/sakif/supablog/internal/graphql"
)

// Store holds the shared GraphQL client and implements both
// repository.PostRepository and repository.AuthorRepository.
//
// It is stateless: every method is a single round trip to the backend, with
// no transaction or retry wrapping.
type Store struct {
	client *graphql.Client
}

// New creates a Store over an already-configured backend client.
func New(client *graphql.Client) *Store {
	return &Store{client: client}
}

// parseTimestamp turns the backend's Datetime scalar into a *time.Time.
// NULL (draft posts) arrives as a nil pointer and stays nil. A value we
// cannot parse is treated the same as absent rather than failing the page.
func parseTimestamp(raw *string) *time.Time {
	if raw == nil || *raw == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, *raw); err == nil {
			return &ts
		}
	}
	return nil
}
