package handler

import (
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/supablog/internal/auth"
	"github.com/sakif/supablog/internal/service"
)

// HomeHandler renders the paginated list of published posts.
type HomeHandler struct {
	posts     *service.PostService
	templates *template.Template
	logger    *slog.Logger
}

func NewHomeHandler(templateDir string, posts *service.PostService, logger *slog.Logger) (*HomeHandler, error) {
	tmpl, err := parsePage(templateDir, "home.html")
	if err != nil {
		return nil, err
	}
	return &HomeHandler{posts: posts, templates: tmpl, logger: logger}, nil
}

// homeData is what home.html renders. When the backend is unreachable the
// page still renders, with an error banner in place of the post list.
type homeData struct {
	Title        string
	SignedIn     bool
	UserName     string
	Page         *service.PostPage
	LoadError    string
	DeniedNotice bool
}

// HandleHome serves the front page.
//
// HTTP: GET /?page=N
//
// The page number comes from the query string; anything unparseable falls
// back to the first page rather than erroring. A failed fetch renders the
// page shell with an error banner so the header and sign-in state survive
// backend outages.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}

	session, signedIn := auth.SessionFromContext(r.Context())
	data := homeData{
		Title:        "Supablog",
		SignedIn:     signedIn,
		UserName:     session.Name,
		DeniedNotice: r.URL.Query().Get("auth") == "denied",
	}

	result, err := h.posts.ListPage(r.Context(), page)
	if err != nil {
		h.logger.Error("failed to load post list",
			slog.Int("page", page),
			slog.String("error", err.Error()),
		)
		data.LoadError = "Posts are temporarily unavailable. Please try again in a moment."
	} else {
		data.Page = result
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render home page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
