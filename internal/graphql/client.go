// Package graphql is the backend client: a small typed wrapper around the
// hosted backend's GraphQL endpoint.
//
// The backend exposes its Postgres tables through a GraphQL layer at
// {baseURL}/graphql/v1. Every request is a POST carrying a static query
// document plus variables, authenticated by two headers that never change
// for the lifetime of the process:
//
//	apikey:        <anon key>
//	Authorization: Bearer <anon key>
//
// The client is stateless and safe for concurrent use — one instance is
// created at startup and shared by every repository.
//
// WHY NOT A GRAPHQL LIBRARY?
// The entire surface is a handful of static documents with flat variables.
// A schema-aware client would bring codegen and reflection for three
// queries; a thin Do() over net/http keeps the wire format visible and the
// error taxonomy (transport vs backend-reported) explicit.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/supablog/internal/apperror"
)

// Client executes GraphQL documents against a single endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient builds a Client for the backend at baseURL.
// baseURL is the project root (e.g. "https://xyz.supabase.co"); the GraphQL
// endpoint lives under /graphql/v1.
func NewClient(baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		endpoint: strings.TrimRight(baseURL, "/") + "/graphql/v1",
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
		logger:   logger,
	}
}

// request is the wire format of a GraphQL POST body.
type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// responseError is one entry of the "errors" array the backend returns for
// constraint violations, malformed documents, and the like.
type responseError struct {
	Message string `json:"message"`
}

// envelope is the standard GraphQL response wrapper. Data stays raw until we
// know the request succeeded, then it is decoded into the caller's type.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []responseError `json:"errors"`
}

// Do executes one GraphQL document and decodes the "data" object into out.
//
// ERROR TAXONOMY:
//   - transport failure (DNS, refused connection, timeout) → apperror.ErrUnavailable
//   - non-2xx HTTP status → apperror.ErrUnavailable
//   - backend-reported failure (non-empty "errors" array) → apperror.ErrUnavailable,
//     with the backend's first message preserved for display
//
// Callers never retry — a failed call surfaces immediately as an error state.
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("graphql: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("graphql: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("backend request failed", slog.String("error", err.Error()))
		return apperror.Unavailable("backend request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The anon key was rejected. This is a deployment problem, not an
		// outage — keep it distinct from ErrUnavailable so it maps to 401.
		c.logger.Error("backend rejected credentials")
		return apperror.Unauthorized("backend rejected the request credentials")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("backend returned non-success status",
			slog.Int("status", resp.StatusCode),
		)
		return apperror.Unavailable(
			fmt.Sprintf("backend returned status %d", resp.StatusCode), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return apperror.Unavailable("decoding backend response", err)
	}

	if len(env.Errors) > 0 {
		// The backend executed the request and rejected it (constraint
		// violation, bad variable, ...). Keep its message — the views
		// display it as the error string.
		c.logger.Error("backend reported an error",
			slog.String("message", env.Errors[0].Message),
		)
		return apperror.Unavailable(env.Errors[0].Message, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperror.Unavailable("decoding backend data", err)
	}
	return nil
}
