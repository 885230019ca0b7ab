package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// fakeGitHub stands in for both the OAuth token endpoint and the REST
// API the exchange talks to.
type fakeGitHub struct {
	user       string // JSON for /user
	emails     string // JSON for /user/emails
	failToken  bool
	failUser   bool
	seenBearer string
}

func (f *fakeGitHub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if f.failToken {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"gho_testtoken","token_type":"bearer"}`)
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		f.seenBearer = r.Header.Get("Authorization")
		if f.failUser {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.user)
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, f.emails)
	})
	return mux
}

func newTestProvider(t *testing.T, fake *fakeGitHub) (*GitHubProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	p := NewGitHubProvider(GitHubConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:3000/api/auth/github/callback",
		AuthURL:      srv.URL + "/login/oauth/authorize",
		TokenURL:     srv.URL + "/login/oauth/access_token",
		APIBaseURL:   srv.URL,
	})
	return p, srv
}

func TestGitHubAuthorizeURL(t *testing.T) {
	p, srv := newTestProvider(t, &fakeGitHub{})

	u := p.AuthorizeURL("nonce-123")
	if !strings.HasPrefix(u, srv.URL+"/login/oauth/authorize") {
		t.Errorf("unexpected authorize URL: %s", u)
	}
	if !strings.Contains(u, "state=nonce-123") {
		t.Errorf("authorize URL missing state: %s", u)
	}
	if !strings.Contains(u, "scope=user%3Aemail") {
		t.Errorf("authorize URL missing scope: %s", u)
	}
}

func TestGitHubExchange(t *testing.T) {
	fake := &fakeGitHub{
		user: `{"id":12345,"login":"octocat","name":"Octo Cat","email":"octo@example.com"}`,
	}
	p, _ := newTestProvider(t, fake)

	token, err := p.Exchange(context.Background(), "good-code")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if token != "gho_testtoken" {
		t.Errorf("access token: got %q", token)
	}

	profile, err := p.FetchProfile(context.Background(), token)
	if err != nil {
		t.Fatalf("FetchProfile failed: %v", err)
	}
	if profile.ExternalID != "12345" {
		t.Errorf("external id: got %q want %q", profile.ExternalID, "12345")
	}
	if profile.Login != "octocat" || profile.Name != "Octo Cat" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if profile.Email != "octo@example.com" {
		t.Errorf("email: got %q", profile.Email)
	}
	if fake.seenBearer == "" {
		t.Error("profile fetch should carry the access token")
	}
}

func TestGitHubExchangePrivateEmail(t *testing.T) {
	cases := []struct {
		name   string
		emails string
		want   string
	}{
		{
			name:   "primary verified preferred",
			emails: `[{"email":"old@example.com","primary":false,"verified":true},{"email":"main@example.com","primary":true,"verified":true}]`,
			want:   "main@example.com",
		},
		{
			name:   "any verified as fallback",
			emails: `[{"email":"spare@example.com","primary":false,"verified":true},{"email":"unchecked@example.com","primary":true,"verified":false}]`,
			want:   "spare@example.com",
		},
		{
			name:   "placeholder when nothing verified",
			emails: `[{"email":"unchecked@example.com","primary":true,"verified":false}]`,
			want:   "12345+github@users.noreply.github.com",
		},
		{
			name:   "placeholder when list empty",
			emails: `[]`,
			want:   "12345+github@users.noreply.github.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeGitHub{
				user:   `{"id":12345,"login":"octocat","name":"","email":""}`,
				emails: tc.emails,
			}
			p, _ := newTestProvider(t, fake)

			profile, err := p.FetchProfile(context.Background(), "gho_testtoken")
			if err != nil {
				t.Fatalf("FetchProfile failed: %v", err)
			}
			if profile.Email != tc.want {
				t.Errorf("email: got %q want %q", profile.Email, tc.want)
			}
			// Empty provider name falls back to the login.
			if profile.Name != "octocat" {
				t.Errorf("name fallback: got %q", profile.Name)
			}
		})
	}
}

func TestGitHubExchangeFailures(t *testing.T) {
	t.Run("code rejected", func(t *testing.T) {
		p, _ := newTestProvider(t, &fakeGitHub{failToken: true})
		_, err := p.Exchange(context.Background(), "bad-code")
		if !errors.Is(err, ErrProviderExchange) {
			t.Errorf("expected ErrProviderExchange, got %v", err)
		}
	})

	t.Run("profile fetch fails", func(t *testing.T) {
		p, _ := newTestProvider(t, &fakeGitHub{failUser: true})
		_, err := p.FetchProfile(context.Background(), "gho_testtoken")
		if !errors.Is(err, ErrProviderExchange) {
			t.Errorf("expected ErrProviderExchange, got %v", err)
		}
	})
}
