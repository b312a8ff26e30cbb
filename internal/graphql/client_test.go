package graphql

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/supablog/internal/apperror"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestClient_Do(t *testing.T) {
	t.Run("sends credentials and document, decodes data", func(t *testing.T) {
		var captured struct {
			apikey string
			auth   string
			body   request
		}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			captured.apikey = r.Header.Get("apikey")
			captured.auth = r.Header.Get("Authorization")
			_ = json.NewDecoder(r.Body).Decode(&captured.body)

			_, _ = w.Write([]byte(`{"data":{"greeting":"hello"}}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "anon-key", testLogger())

		var out struct {
			Greeting string `json:"greeting"`
		}
		err := c.Do(context.Background(), "query Greet { greeting }",
			map[string]any{"limit": 5}, &out)

		assert.NoError(t, err)
		assert.Equal(t, "hello", out.Greeting)
		assert.Equal(t, "anon-key", captured.apikey)
		assert.Equal(t, "Bearer anon-key", captured.auth)
		assert.Equal(t, "query Greet { greeting }", captured.body.Query)
		assert.Equal(t, float64(5), captured.body.Variables["limit"])
	})

	t.Run("endpoint path is /graphql/v1 under the base URL", func(t *testing.T) {
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_, _ = w.Write([]byte(`{"data":{}}`))
		}))
		defer srv.Close()

		// Trailing slash on the base URL must not double up.
		c := NewClient(srv.URL+"/", "anon-key", testLogger())
		err := c.Do(context.Background(), "query {}", nil, nil)

		assert.NoError(t, err)
		assert.Equal(t, "/graphql/v1", path)
	})

	t.Run("errors array becomes ErrUnavailable with backend message", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"errors":[{"message":"duplicate key value violates unique constraint"}]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "anon-key", testLogger())
		err := c.Do(context.Background(), "mutation {}", nil, nil)

		assert.Error(t, err)
		assert.True(t, errors.Is(err, apperror.ErrUnavailable))
		assert.Contains(t, err.Error(), "duplicate key")
	})

	t.Run("401 status becomes ErrUnauthorized", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "bad-key", testLogger())
		err := c.Do(context.Background(), "query {}", nil, nil)

		assert.True(t, errors.Is(err, apperror.ErrUnauthorized))
		assert.False(t, errors.Is(err, apperror.ErrUnavailable))
	})

	t.Run("non-2xx status becomes ErrUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "anon-key", testLogger())
		err := c.Do(context.Background(), "query {}", nil, nil)

		assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	})

	t.Run("transport failure becomes ErrUnavailable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close() // immediately — every request now fails to connect

		c := NewClient(srv.URL, "anon-key", testLogger())
		err := c.Do(context.Background(), "query {}", nil, nil)

		assert.True(t, errors.Is(err, apperror.ErrUnavailable))
	})
}
