package handler

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/xid"

	"github.com/sakif/supablog/internal/apperror"
	"github.com/sakif/supablog/internal/auth"
	"github.com/sakif/supablog/internal/model"
	"github.com/sakif/supablog/internal/service"
)

// formTokenCookie backs the one-shot token embedded in the new-post form.
// The cookie is cleared before the create mutation is dispatched, so a
// double-click or browser re-POST finds no matching token and never reaches
// the backend twice.
const formTokenCookie = "form_token"

// PostHandler serves the post detail page and the new-post form.
type PostHandler struct {
	posts    *service.PostService
	detail   *template.Template
	form     *template.Template
	notFound *template.Template
	logger   *slog.Logger
}

func NewPostHandler(templateDir string, posts *service.PostService, logger *slog.Logger) (*PostHandler, error) {
	detail, err := parsePage(templateDir, "post.html")
	if err != nil {
		return nil, err
	}
	form, err := parsePage(templateDir, "new_post.html")
	if err != nil {
		return nil, err
	}
	notFound, err := parsePage(templateDir, "notfound.html")
	if err != nil {
		return nil, err
	}
	return &PostHandler{
		posts:    posts,
		detail:   detail,
		form:     form,
		notFound: notFound,
		logger:   logger,
	}, nil
}

type detailData struct {
	Title    string
	SignedIn bool
	UserName string
	Post     *model.Post
}

type formData struct {
	Title     string
	SignedIn  bool
	UserName  string
	FormToken string
	Error     string

	// Submitted values, echoed back when validation fails.
	PostTitle string
	PostBody  string
	Published bool
}

// HandleDetail serves a single post.
//
// HTTP: GET /posts/{id}
//
// Every failure renders the not-found page: a missing row, a malformed id,
// and a backend outage all look the same to the reader. The distinction only
// matters in the logs.
func (h *PostHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, signedIn := auth.SessionFromContext(r.Context())

	post, err := h.posts.GetByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			h.logger.Error("failed to load post",
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
		}
		h.renderNotFound(w, signedIn, session.Name)
		return
	}

	data := detailData{
		Title:    post.Title,
		SignedIn: signedIn,
		UserName: session.Name,
		Post:     post,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.detail.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render post page", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleNewForm serves the post composer.
//
// HTTP: GET /posts/new
// Auth: required (RequireUser redirects anonymous visitors to sign-in)
func (h *PostHandler) HandleNewForm(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	data := formData{
		Title:     "New post",
		SignedIn:  true,
		UserName:  session.Name,
		FormToken: h.issueFormToken(w),
	}
	h.renderForm(w, data)
}

// HandleCreate accepts the composer submission.
//
// HTTP: POST /posts
// Auth: required
//
// The hidden form token must match the cookie issued with the form, and the
// cookie is cleared before the backend mutation runs. A stale or repeated
// submission therefore bounces back to the front page instead of inserting
// a second row.
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.SessionFromContext(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	if !h.consumeFormToken(w, r) {
		h.logger.Info("duplicate or stale post submission dropped",
			slog.String("userID", session.UserID),
		)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	input := model.NewPost{
		Title:     r.PostFormValue("title"),
		Body:      r.PostFormValue("body"),
		Published: r.PostFormValue("published") != "",
		AuthorID:  session.UserID,
	}

	post, err := h.posts.Create(r.Context(), input)
	if err != nil {
		h.logger.Warn("post creation failed",
			slog.String("userID", session.UserID),
			slog.String("error", err.Error()),
		)

		data := formData{
			Title:     "New post",
			SignedIn:  true,
			UserName:  session.Name,
			FormToken: h.issueFormToken(w), // failed submits get a fresh token to retry with
			Error:     createErrorMessage(err),
			PostTitle: input.Title,
			PostBody:  input.Body,
			Published: input.Published,
		}
		h.renderForm(w, data)
		return
	}

	http.Redirect(w, r, "/posts/"+post.ID, http.StatusSeeOther)
}

// issueFormToken generates a one-shot token and stores it in a short-lived
// cookie. The same value goes into the form's hidden field.
func (h *PostHandler) issueFormToken(w http.ResponseWriter) string {
	token := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     formTokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

// consumeFormToken checks the submitted token against the cookie and clears
// the cookie regardless of outcome. Clearing happens before the caller
// dispatches any mutation.
func (h *PostHandler) consumeFormToken(w http.ResponseWriter, r *http.Request) bool {
	cookie, err := r.Cookie(formTokenCookie)
	submitted := r.PostFormValue("form_token")

	http.SetCookie(w, &http.Cookie{
		Name:     formTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return err == nil && cookie.Value != "" && cookie.Value == submitted
}

func (h *PostHandler) renderForm(w http.ResponseWriter, data formData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.form.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render post form", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (h *PostHandler) renderNotFound(w http.ResponseWriter, signedIn bool, userName string) {
	data := detailData{
		Title:    "Post not found",
		SignedIn: signedIn,
		UserName: userName,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := h.notFound.ExecuteTemplate(w, "base", data); err != nil {
		h.logger.Error("failed to render not-found page", slog.String("error", err.Error()))
	}
}

// createErrorMessage picks the message shown above the composer when a
// submission fails. Validation messages come straight from the service;
// everything else gets a generic retry prompt.
func createErrorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && errors.Is(err, apperror.ErrValidation) {
		return appErr.Message
	}
	return "Could not save your post. Please try again."
}
