package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// Identity is the portion of the auth service's /user response we care
// about. The service returns a much larger object — we only unmarshal the
// fields the application reads.
type Identity struct {
	ID       string `json:"id"`    // the auth service's UUID for this principal — stable
	Email    string `json:"email"` // may be empty if the upstream provider hides it
	FullName string // user_metadata.full_name
	Name     string // user_metadata.name
}

// ProvisionName is the display name written to the author row on first
// sign-in: profile full name, else the email local-part, else "Anonymous".
func (u *Identity) ProvisionName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if at := strings.Index(u.Email, "@"); at > 0 {
		return u.Email[:at]
	}
	return "Anonymous"
}

// DisplayName is the cosmetic "posting as" label shown on the create form:
// full name → name → email → "Anonymous". It is never sent to the backend.
func (u *Identity) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return "Anonymous"
	}
}

// Provider wraps golang.org/x/oauth2 for the managed auth service's
// Authorization Code flow.
//
// AUTHORIZATION CODE FLOW (with PKCE):
// 1. Your server redirects the user to the auth service's authorize endpoint
//    with a state value and a code challenge derived from a random verifier.
// 2. The user signs in with the upstream identity provider.
// 3. The auth service redirects back to your callback URL with a short-lived "code".
// 4. Your server exchanges the code (plus the original verifier) for a
//    session token — server-to-server, so the token never touches the browser.
// 5. Your server uses the session token to fetch the signed-in identity.
//
// The auth service exposes OAuth-shaped endpoints under /auth/v1, so the
// standard oauth2 machinery applies; the only quirk is the apikey header it
// wants on every call, injected by apikeyTransport below.
type Provider struct {
	config   *oauth2.Config
	userURL  string
	upstream string // upstream identity provider name, e.g. "github"
	apiKey   string
}

// NewProvider builds a Provider for the auth service rooted at baseURL.
// callbackURL must exactly match the redirect URL registered with the
// service. upstream names which identity provider the sign-in page uses.
func NewProvider(baseURL, apiKey, callbackURL, upstream string) *Provider {
	base := strings.TrimRight(baseURL, "/")
	return &Provider{
		config: &oauth2.Config{
			RedirectURL: callbackURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  base + "/auth/v1/authorize",
				TokenURL: base + "/auth/v1/token",
			},
		},
		userURL:  base + "/auth/v1/user",
		upstream: upstream,
		apiKey:   apiKey,
	}
}

// AuthURL returns the URL to redirect the browser to for authorization.
//
// STATE PARAMETER:
// The state is a random string we generate and store in a cookie before
// redirecting. When the service calls back, we verify the returned state
// matches our cookie — this prevents CSRF on the callback.
//
// The verifier is the PKCE secret; only its S256 challenge goes in the URL.
func (p *Provider) AuthURL(state, verifier string) string {
	return p.config.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("provider", p.upstream),
	)
}

// Exchange trades the authorization code (plus the PKCE verifier saved
// before the redirect) for a session token. A failure here is fatal to the
// callback request — there is no session to build without it.
func (p *Provider) Exchange(ctx context.Context, code, verifier string) (*oauth2.Token, error) {
	token, err := p.config.Exchange(p.withAPIKey(ctx), code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging code: %w", err)
	}
	return token, nil
}

// FetchIdentity asks the auth service who the session token belongs to.
// Callers treat a failure here as best-effort: the login redirect proceeds,
// only author provisioning and the session cookie are skipped.
func (p *Provider) FetchIdentity(ctx context.Context, token *oauth2.Token) (*Identity, error) {
	// oauth2.Config.Client returns an *http.Client that adds the
	// "Authorization: Bearer <token>" header to every request.
	client := p.config.Client(p.withAPIKey(ctx), token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: building user request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: calling user endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: user endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Metadata struct {
			FullName string `json:"full_name"`
			Name     string `json:"name"`
		} `json:"user_metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("auth: decoding user response: %w", err)
	}

	if payload.ID == "" {
		return nil, fmt.Errorf("auth: user endpoint returned no identity")
	}

	return &Identity{
		ID:       payload.ID,
		Email:    payload.Email,
		FullName: payload.Metadata.FullName,
		Name:     payload.Metadata.Name,
	}, nil
}

// withAPIKey plants an HTTP client that stamps the service's apikey header
// on every request. oauth2 picks the client out of the context, so both the
// token exchange and the user fetch go through it.
func (p *Provider) withAPIKey(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{
		Transport: &apikeyTransport{key: p.apiKey},
		Timeout:   15 * time.Second,
	})
}

// apikeyTransport adds the auth service's required apikey header to every
// outgoing request, delegating the rest to the default transport.
type apikeyTransport struct {
	key string
}

func (t *apikeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("apikey", t.key)
	return http.DefaultTransport.RoundTrip(clone)
}
