package auth

import (
	"context"
	"net/http"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session JWT.
const SessionCookie = "token"

// contextKey is an unexported type used for context keys in this package.
// Using a package-private type prevents collisions: only this package can
// create a key of this type, so only this package can read or write the
// session in a request context.
type contextKey string

const sessionKey contextKey = "session"

// RequireUser enforces authentication on gated pages.
//
// It reads the JWT from the session cookie, validates it, and stores the
// Session in the request context. An anonymous or invalid visitor is
// redirected to signInPath before any page markup is written — the gated
// form is never partially rendered for them.
func RequireUser(tokens *TokenService, signInPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := extractSession(r, tokens)
			if err != nil {
				http.Redirect(w, r, signInPath, http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUserAPI is the JSON variant: 401 instead of a redirect.
func RequireUserAPI(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := extractSession(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","message":"valid authentication required"}`))
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalUser extracts the session if a valid token is present but never
// blocks the request. The listing page uses it to pick between the
// "Create New Post" and "Login to Create Post" call-to-action — that check
// is informational only and must not block rendering.
func OptionalUser(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session, err := extractSession(r, tokens); err == nil {
				r = r.WithContext(context.WithValue(r.Context(), sessionKey, session))
			}
			// Always continue — anonymous is fine here.
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFromContext retrieves the authenticated session from the request
// context. Returns (Session{}, false) for anonymous requests.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey).(Session)
	return session, ok && session.UserID != ""
}

// extractSession reads the session cookie and validates the JWT inside it.
func extractSession(r *http.Request, tokens *TokenService) (Session, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		// http.ErrNoCookie — not an error, just anonymous
		return Session{}, err
	}

	return tokens.Validate(cookie.Value)
}
