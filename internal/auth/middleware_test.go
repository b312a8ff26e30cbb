package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// sessionProbe is a terminal handler that records what the middleware put in
// the request context.
type sessionProbe struct {
	called  bool
	session Session
	ok      bool
}

func (p *sessionProbe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.called = true
		p.session, p.ok = SessionFromContext(r.Context())
	})
}

func TestRequireUser_AnonymousIsRedirected(t *testing.T) {
	ts := newTestTokenService(t)
	probe := &sessionProbe{}
	h := RequireUser(ts, "/auth/sign-in")(probe.handler())

	req := httptest.NewRequest(http.MethodGet, "/posts/new", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if probe.called {
		t.Error("gated handler ran for an anonymous request")
	}
	if rr.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusSeeOther)
	}
	if loc := rr.Header().Get("Location"); loc != "/auth/sign-in" {
		t.Errorf("Location = %q, want %q", loc, "/auth/sign-in")
	}
}

func TestRequireUser_ValidCookiePassesSession(t *testing.T) {
	ts := newTestTokenService(t)
	probe := &sessionProbe{}
	h := RequireUser(ts, "/auth/sign-in")(probe.handler())

	token, err := ts.Generate(testSession())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/posts/new", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if !probe.called {
		t.Fatal("gated handler did not run for a signed-in request")
	}
	if !probe.ok || probe.session != testSession() {
		t.Errorf("session in context = %+v (ok=%v), want %+v", probe.session, probe.ok, testSession())
	}
}

func TestRequireUserAPI_AnonymousGets401(t *testing.T) {
	ts := newTestTokenService(t)
	probe := &sessionProbe{}
	h := RequireUserAPI(ts)(probe.handler())

	req := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if probe.called {
		t.Error("gated handler ran for an anonymous request")
	}
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestOptionalUser_NeverBlocks(t *testing.T) {
	ts := newTestTokenService(t)

	t.Run("anonymous continues without a session", func(t *testing.T) {
		probe := &sessionProbe{}
		h := OptionalUser(ts)(probe.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		h.ServeHTTP(httptest.NewRecorder(), req)

		if !probe.called {
			t.Fatal("handler did not run for an anonymous request")
		}
		if probe.ok {
			t.Error("anonymous request should not carry a session")
		}
	})

	t.Run("garbage cookie continues without a session", func(t *testing.T) {
		probe := &sessionProbe{}
		h := OptionalUser(ts)(probe.handler())

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "garbage"})
		h.ServeHTTP(httptest.NewRecorder(), req)

		if !probe.called {
			t.Fatal("handler did not run despite the invalid cookie")
		}
		if probe.ok {
			t.Error("invalid cookie should not produce a session")
		}
	})

	t.Run("valid cookie attaches the session", func(t *testing.T) {
		probe := &sessionProbe{}
		h := OptionalUser(ts)(probe.handler())

		token, _ := ts.Generate(testSession())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		h.ServeHTTP(httptest.NewRecorder(), req)

		if !probe.ok || probe.session.UserID != testSession().UserID {
			t.Errorf("session = %+v (ok=%v), want signed-in session", probe.session, probe.ok)
		}
	})
}

func TestIdentityNames(t *testing.T) {
	tests := []struct {
		name          string
		identity      Identity
		wantProvision string
		wantDisplay   string
	}{
		{
			name:          "full name wins everywhere",
			identity:      Identity{FullName: "Ada Lovelace", Name: "ada", Email: "ada@example.com"},
			wantProvision: "Ada Lovelace",
			wantDisplay:   "Ada Lovelace",
		},
		{
			name:          "provisioning falls back to email local-part",
			identity:      Identity{Email: "ada@example.com"},
			wantProvision: "ada",
			wantDisplay:   "ada@example.com",
		},
		{
			name:          "display prefers metadata name over email",
			identity:      Identity{Name: "ada", Email: "ada@example.com"},
			wantProvision: "ada",
			wantDisplay:   "ada",
		},
		{
			name:          "nothing at all is Anonymous",
			identity:      Identity{},
			wantProvision: "Anonymous",
			wantDisplay:   "Anonymous",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.identity.ProvisionName(); got != tt.wantProvision {
				t.Errorf("ProvisionName() = %q, want %q", got, tt.wantProvision)
			}
			if got := tt.identity.DisplayName(); got != tt.wantDisplay {
				t.Errorf("DisplayName() = %q, want %q", got, tt.wantDisplay)
			}
		})
	}
}
