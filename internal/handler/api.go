package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/supablog/internal/auth"
	"github.com/sakif/supablog/internal/model"
	"github.com/sakif/supablog/internal/service"
)

// APIHandler exposes the post catalogue as JSON, mirroring the HTML pages.
type APIHandler struct {
	posts  *service.PostService
	logger *slog.Logger
}

func NewAPIHandler(posts *service.PostService, logger *slog.Logger) *APIHandler {
	return &APIHandler{posts: posts, logger: logger}
}

// postResponse is the wire shape for a single post. Derived fields the
// templates compute (excerpt, read time) are precomputed here so API
// consumers see the same values the pages do.
type postResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body,omitempty"`
	Excerpt     string  `json:"excerpt"`
	Author      string  `json:"author"`
	PublishedAt *string `json:"publishedAt"`
	ReadTime    int     `json:"readTimeMinutes"`
}

type listResponse struct {
	Page            int            `json:"page"`
	Posts           []postResponse `json:"posts"`
	HasNextPage     bool           `json:"hasNextPage"`
	HasPreviousPage bool           `json:"hasPreviousPage"`
}

func toPostResponse(p *model.Post, includeBody bool) postResponse {
	resp := postResponse{
		ID:       p.ID,
		Title:    p.Title,
		Excerpt:  p.Excerpt(),
		Author:   p.DisplayAuthor(),
		ReadTime: p.ReadTime(),
	}
	if includeBody {
		resp.Body = p.Body
	}
	if p.PublishedAt != nil {
		formatted := p.PublishedAt.Format("2006-01-02T15:04:05Z07:00")
		resp.PublishedAt = &formatted
	}
	return resp
}

// HandleList returns one page of published posts.
//
// HTTP: GET /api/posts?page=N
func (h *APIHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	result, err := h.posts.ListPage(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := listResponse{
		Page:            result.Page,
		Posts:           make([]postResponse, 0, len(result.Posts)),
		HasNextPage:     result.HasNextPage,
		HasPreviousPage: result.HasPreviousPage,
	}
	for i := range result.Posts {
		resp.Posts = append(resp.Posts, toPostResponse(&result.Posts[i], false))
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleGet returns a single post with its full body.
//
// HTTP: GET /api/posts/{id}
func (h *APIHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPostResponse(post, true))
}

// createRequest is the JSON body for post creation. The author is always
// the authenticated caller; a client-supplied author id is ignored.
type createRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

// HandleCreate stores a new post for the authenticated user.
//
// HTTP: POST /api/posts
// Auth: required (RequireUserAPI returns 401 for anonymous callers)
func (h *APIHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, ok := auth.SessionFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireUserAPI, but don't trust route wiring.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "sign in to create posts"})
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid post JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	post, err := h.posts.Create(r.Context(), model.NewPost{
		Title:     req.Title,
		Body:      req.Body,
		Published: req.Published,
		AuthorID:  session.UserID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPostResponse(post, true))
}
