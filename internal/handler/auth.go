package handler

import (
	"log/slog"
	"net/http"

	"github.com/rs/xid"
	"golang.org/x/oauth2"

	"github.com/sakif/supablog/internal/auth"
	"github.com/sakif/supablog/internal/service"
)

const (
	stateCookie    = "oauth_state"
	verifierCookie = "oauth_verifier"
)

// AuthHandler drives the hosted sign-in flow and session lifecycle.
//
//   - HandleSignIn   → send the browser to the auth service's authorize page
//   - HandleCallback → exchange the code, provision the author, issue the session
//   - HandleLogout   → clear the session cookie
type AuthHandler struct {
	provider      *auth.Provider
	sessions      *service.AuthService
	redirectAfter string
	logger        *slog.Logger
}

func NewAuthHandler(provider *auth.Provider, sessions *service.AuthService, redirectAfter string, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		provider:      provider,
		sessions:      sessions,
		redirectAfter: redirectAfter,
		logger:        logger,
	}
}

// HandleSignIn starts the OAuth flow.
//
// HTTP: GET /auth/sign-in
//
// Two short-lived cookies carry the flow's secrets across the round trip to
// the auth service: a random state (CSRF check on callback) and the PKCE
// verifier whose challenge goes in the authorize URL. Both are HttpOnly with
// a 10-minute expiry.
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	verifier := oauth2.GenerateVerifier()

	for name, value := range map[string]string{
		stateCookie:    state,
		verifierCookie: verifier,
	} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    value,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, h.provider.AuthURL(state, verifier), http.StatusTemporaryRedirect)
}

// HandleCallback completes the sign-in.
//
// HTTP: GET /auth/callback?code=xxx&state=yyy
//
// Flow:
//  1. Verify the state parameter against the cookie, then clear both flow cookies
//  2. Exchange the code for an access token (with the PKCE verifier)
//  3. Fetch the signed-in identity from the auth service
//  4. Provision the author row and mint the session cookie
//  5. Redirect into the app
//
// Steps 1 and 2 are fatal on failure. Steps 3 and 4 are best effort: if the
// identity fetch fails the user lands back on the home page signed out, and
// provisioning failures are absorbed by the service layer.
func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || r.URL.Query().Get("state") != state.Value {
		h.logger.Warn("auth callback: state mismatch or missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	verifier, err := r.Cookie(verifierCookie)
	if err != nil || verifier.Value == "" {
		h.logger.Warn("auth callback: missing PKCE verifier cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Both cookies are single-use.
	for _, name := range []string{stateCookie, verifierCookie} {
		http.SetCookie(w, &http.Cookie{Name: name, Value: "", Path: "/", MaxAge: -1})
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: authorization denied", slog.String("error", errParam))
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	token, err := h.provider.Exchange(r.Context(), code, verifier.Value)
	if err != nil {
		h.logger.Error("auth callback: code exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	identity, err := h.provider.FetchIdentity(r.Context(), token)
	if err != nil {
		// The user did authenticate, we just could not learn who they are.
		// Send them home signed out rather than showing an error page.
		h.logger.Error("auth callback: identity fetch failed", slog.String("error", err.Error()))
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	result, err := h.sessions.LoginOrProvision(r.Context(), identity)
	if err != nil {
		h.logger.Error("auth callback: session issue failed",
			slog.String("userID", identity.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user signed in",
		slog.String("userID", result.Session.UserID),
		slog.String("name", result.Session.Name),
	)

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable behind HTTPS
	})

	http.Redirect(w, r, h.redirectAfter, http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
//
// POST rather than GET: logout changes state, and a GET would be open to
// CSRF and link prefetching. The JWT itself stays valid until expiry; only
// the browser's copy is deleted.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}
