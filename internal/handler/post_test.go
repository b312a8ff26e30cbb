package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/supablog/internal/apperror"
	"github.com/sakif/supablog/internal/auth"
	"github.com/sakif/supablog/internal/model"
	"github.com/sakif/supablog/internal/repository"
	"github.com/sakif/supablog/internal/service"
)

// stubPostRepo lets each test script the repository's behavior directly.
type stubPostRepo struct {
	listPosts []model.Post
	listInfo  repository.PageInfo
	listErr   error
	getPost   *model.Post
	getErr    error
	created   *model.NewPost
	createErr error
}

func (s *stubPostRepo) ListPublished(_ context.Context, _ repository.ListOptions) ([]model.Post, repository.PageInfo, error) {
	return s.listPosts, s.listInfo, s.listErr
}

func (s *stubPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.getPost == nil {
		return nil, apperror.NotFound("post", id)
	}
	return s.getPost, nil
}

func (s *stubPostRepo) Create(_ context.Context, input model.NewPost) (*model.Post, error) {
	s.created = &input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &model.Post{ID: "11111111-2222-3333-4444-555555555555", Title: input.Title, Body: input.Body}, nil
}

// writeTestTemplates lays out a minimal template set that exercises the same
// field names the real templates use.
func writeTestTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"base.html": `{{define "base"}}<html><body>{{if .SignedIn}}signed-in as {{.UserName}}{{else}}anonymous{{end}} {{template "content" .}}</body></html>{{end}}`,
		"home.html": `{{define "content"}}{{if .LoadError}}banner: {{.LoadError}}{{else}}{{range .Page.Posts}}<article>{{.Title}} by {{.DisplayAuthor}}</article>{{end}}{{if .Page.HasPreviousPage}}prev-link{{end}}{{if .Page.HasNextPage}}next-link{{end}}{{end}}{{end}}`,
		"post.html": `{{define "content"}}<h1>{{.Post.Title}}</h1>{{.Post.Body}}{{end}}`,
		"new_post.html": `{{define "content"}}{{if .Error}}form-error: {{.Error}}{{end}}` +
			`<input name="title" value="{{.PostTitle}}"><textarea name="body">{{.PostBody}}</textarea>` +
			`<input type="hidden" name="form_token" value="{{.FormToken}}">{{end}}`,
		"notfound.html": `{{define "content"}}post-not-found{{end}}`,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	return dir
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newPostService(repo *stubPostRepo) *service.PostService {
	return service.NewPostService(repo, testLogger())
}

// withSession plants a signed-in session in the request context, the way the
// auth middleware would on a gated route.
func withSession(r *http.Request, userID, name string) *http.Request {
	ts, _ := auth.NewTokenService("test-secret-at-least-16-chars")
	token, _ := ts.Generate(auth.Session{UserID: userID, Name: name})

	rr := httptest.NewRecorder()
	var out *http.Request
	h := auth.OptionalUser(ts)(http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
		out = req
	}))
	r.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	h.ServeHTTP(rr, r)
	return out
}

// =========================================================================
// HOME PAGE
// =========================================================================

func TestHandleHome_RendersPosts(t *testing.T) {
	repo := &stubPostRepo{
		listPosts: []model.Post{
			{ID: "a", Title: "First post", AuthorName: "Ada"},
			{ID: "b", Title: "Second post"},
		},
		listInfo: repository.PageInfo{HasNextPage: true},
	}
	h, err := NewHomeHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.HandleHome(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, body, "First post by Ada")
	assert.Contains(t, body, "Second post by Unknown author")
	assert.Contains(t, body, "next-link")
	assert.NotContains(t, body, "prev-link")
	assert.Contains(t, body, "anonymous")
}

func TestHandleHome_BackendDownShowsBanner(t *testing.T) {
	repo := &stubPostRepo{listErr: apperror.Unavailable("backend request failed", errors.New("refused"))}
	h, err := NewHomeHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.HandleHome(rr, httptest.NewRequest(http.MethodGet, "/?page=2", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "banner:")
}

// =========================================================================
// POST DETAIL
// =========================================================================

func TestHandleDetail_Found(t *testing.T) {
	repo := &stubPostRepo{getPost: &model.Post{ID: "x", Title: "Hello", Body: "World"}}
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/posts/{id}", h.HandleDetail)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/posts/26d05c04-e94d-4f4f-9b91-9f2c3f2b0c90", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<h1>Hello</h1>")
}

func TestHandleDetail_AllFailuresLookTheSame(t *testing.T) {
	tests := []struct {
		name string
		repo *stubPostRepo
		path string
	}{
		{
			name: "missing row",
			repo: &stubPostRepo{},
			path: "/posts/26d05c04-e94d-4f4f-9b91-9f2c3f2b0c90",
		},
		{
			name: "malformed id never reaches the repository",
			repo: &stubPostRepo{getErr: errors.New("repo must not be called")},
			path: "/posts/not-a-uuid",
		},
		{
			name: "backend outage",
			repo: &stubPostRepo{getErr: apperror.Unavailable("backend request failed", errors.New("refused"))},
			path: "/posts/26d05c04-e94d-4f4f-9b91-9f2c3f2b0c90",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewPostHandler(writeTestTemplates(t), newPostService(tt.repo), testLogger())
			require.NoError(t, err)

			r := chi.NewRouter()
			r.Get("/posts/{id}", h.HandleDetail)

			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Contains(t, rr.Body.String(), "post-not-found")
		})
	}
}

// =========================================================================
// POST CREATION
// =========================================================================

const testAuthorID = "7b689cbd-4fe5-4f2f-91d7-b348a2d2c2b3"

func submitPost(t *testing.T, h *PostHandler, form url.Values, token string, withCookie bool) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		form.Set("form_token", token)
	}

	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if withCookie && token != "" {
		req.AddCookie(&http.Cookie{Name: formTokenCookie, Value: token})
	}
	req = withSession(req, testAuthorID, "Ada")

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)
	return rr
}

func TestHandleCreate_SuccessRedirectsToPost(t *testing.T) {
	repo := &stubPostRepo{}
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	form := url.Values{"title": {"My post"}, "body": {"Some text"}, "published": {"on"}}
	rr := submitPost(t, h, form, "tok-1", true)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/posts/11111111-2222-3333-4444-555555555555", rr.Header().Get("Location"))

	require.NotNil(t, repo.created)
	assert.Equal(t, "My post", repo.created.Title)
	assert.Equal(t, testAuthorID, repo.created.AuthorID)
	assert.True(t, repo.created.Published)
}

func TestHandleCreate_UncheckedPublishedMeansDraft(t *testing.T) {
	repo := &stubPostRepo{}
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	form := url.Values{"title": {"Draft"}, "body": {"text"}}
	submitPost(t, h, form, "tok-1", true)

	require.NotNil(t, repo.created)
	assert.False(t, repo.created.Published)
}

func TestHandleCreate_ValidationFailureRerendersForm(t *testing.T) {
	repo := &stubPostRepo{}
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	form := url.Values{"title": {""}, "body": {"kept body"}}
	rr := submitPost(t, h, form, "tok-1", true)

	body := rr.Body.String()
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, body, "form-error:")
	assert.Contains(t, body, "kept body") // submitted values survive the round trip
	assert.Nil(t, repo.created, "invalid input must not reach the repository")
}

func TestHandleCreate_BackendFailureRerendersWithGenericMessage(t *testing.T) {
	repo := &stubPostRepo{createErr: apperror.Unavailable("backend request failed", errors.New("refused"))}
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	form := url.Values{"title": {"My post"}, "body": {"text"}}
	rr := submitPost(t, h, form, "tok-1", true)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not save your post")
}

func TestHandleCreate_MissingTokenIsDropped(t *testing.T) {
	repo := &stubPostRepo{}
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	// Form token present but no matching cookie: a replayed submission.
	form := url.Values{"title": {"My post"}, "body": {"text"}}
	rr := submitPost(t, h, form, "tok-1", false)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Nil(t, repo.created, "replayed submission must not reach the repository")
}

func TestHandleCreate_TokenMismatchIsDropped(t *testing.T) {
	repo := &stubPostRepo{}
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(repo), testLogger())
	require.NoError(t, err)

	form := url.Values{"title": {"My post"}, "body": {"text"}, "form_token": {"stale"}}
	req := httptest.NewRequest(http.MethodPost, "/posts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: formTokenCookie, Value: "fresh"})
	req = withSession(req, testAuthorID, "Ada")

	rr := httptest.NewRecorder()
	h.HandleCreate(rr, req)

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Nil(t, repo.created)
}

func TestHandleNewForm_IssuesToken(t *testing.T) {
	h, err := NewPostHandler(writeTestTemplates(t), newPostService(&stubPostRepo{}), testLogger())
	require.NoError(t, err)

	req := withSession(httptest.NewRequest(http.MethodGet, "/posts/new", nil), testAuthorID, "Ada")
	rr := httptest.NewRecorder()
	h.HandleNewForm(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `name="form_token" value="`)

	var tokenCookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == formTokenCookie {
			tokenCookie = c
		}
	}
	require.NotNil(t, tokenCookie, "form token cookie must be set")
	assert.NotEmpty(t, tokenCookie.Value)
	assert.Contains(t, rr.Body.String(), tokenCookie.Value)
}
