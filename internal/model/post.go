// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
//
// The application holds no authoritative state of its own: Post and Author
// mirror rows owned by the hosted backend. What lives here instead of in the
// repository layer is the presentation logic — excerpts, read time, date
// labels — because every surface (HTML pages, JSON API) needs the same rules.
package model

import (
	"strings"
	"time"
)

const (
	// ExcerptLength is the number of characters of body shown on list cards.
	// Counted in runes, not bytes, so multi-byte text is not cut mid-character.
	ExcerptLength = 180

	// WordsPerMinute drives the cosmetic read-time estimate on detail pages.
	WordsPerMinute = 200
)

// Post is a published or draft article as the backend returns it: the node
// fields of the list/detail queries plus the author's display name resolved
// through the authors relation.
//
// WHY PublishedAt *time.Time (a pointer)?
// The backend leaves published_at NULL for drafts. A nil pointer is Go's way
// of representing "absent" for a value type — time.Time has no natural zero
// we could safely treat as "unpublished".
type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	PublishedAt *time.Time `json:"publishedAt"`
	AuthorName  string     `json:"authorName"`
}

// NewPost is the input to the create mutation. AuthorID carries the raw
// identity id of the signed-in principal; the backend resolves the display
// name through the authors relation at read time.
type NewPost struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
	AuthorID  string `json:"authorId"`
}

// Excerpt returns the first ExcerptLength runes of the body, with "..."
// appended only when something was actually cut off. A body of exactly 180
// runes comes back verbatim, with no ellipsis.
func (p *Post) Excerpt() string {
	runes := []rune(p.Body)
	if len(runes) <= ExcerptLength {
		return p.Body
	}
	return string(runes[:ExcerptLength]) + "..."
}

// ReadTime estimates reading time in whole minutes: word count divided by
// WordsPerMinute, rounded up, never below 1. Purely cosmetic.
func (p *Post) ReadTime() int {
	words := len(strings.Fields(p.Body))
	if words == 0 {
		return 1
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// DisplayAuthor returns the author name, or "Unknown author" when the
// backend returned no related author row.
func (p *Post) DisplayAuthor() string {
	if p.AuthorName == "" {
		return "Unknown author"
	}
	return p.AuthorName
}

// AuthorInitial returns the first letter of the display name, uppercased,
// for the avatar badge on the detail page.
func (p *Post) AuthorInitial() string {
	runes := []rune(p.DisplayAuthor())
	return strings.ToUpper(string(runes[:1]))
}

// PublishedShort formats the publish date for list cards ("Jan 2, 2006").
// Drafts render as "Unpublished".
func (p *Post) PublishedShort() string {
	if p.PublishedAt == nil {
		return "Unpublished"
	}
	return p.PublishedAt.Format("Jan 2, 2006")
}

// PublishedLong formats the publish date for the detail page ("January 2, 2006").
func (p *Post) PublishedLong() string {
	if p.PublishedAt == nil {
		return "Unpublished"
	}
	return p.PublishedAt.Format("January 2, 2006")
}

// Paragraphs splits the body on blank lines for template rendering.
// html/template escapes each paragraph, so embedded markup is shown, not executed.
func (p *Post) Paragraphs() []string {
	var out []string
	for _, block := range strings.Split(p.Body, "\n\n") {
		if block = strings.TrimSpace(block); block != "" {
			out = append(out, block)
		}
	}
	return out
}
