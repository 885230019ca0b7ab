package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/finza-app/finza/pkg/db/repo/repotest"
	"github.com/finza-app/finza/pkg/kv"
	"github.com/finza-app/finza/pkg/metrics"
)

// fakeProvider skips the network: any non-empty code exchanges into a
// fixed profile.
type fakeProvider struct {
	profile Profile
	fail    bool
}

func (p *fakeProvider) Name() string { return "github" }

func (p *fakeProvider) AuthorizeURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (p *fakeProvider) Exchange(ctx context.Context, code string) (string, error) {
	if p.fail || code == "" {
		return "", ErrProviderExchange
	}
	return "fake-access-token", nil
}

func (p *fakeProvider) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	if accessToken != "fake-access-token" {
		return nil, ErrProviderExchange
	}
	cp := p.profile
	return &cp, nil
}

type testEnv struct {
	svc      *Service
	users    *repotest.UserStore
	sessions *repotest.SessionStore
	provider *fakeProvider
}

func newTestService(t *testing.T, adminEmails ...string) *testEnv {
	t.Helper()
	users := repotest.NewUserStore()
	accounts := repotest.NewAccountStore(users)
	sessions := repotest.NewSessionStore()
	provider := &fakeProvider{profile: *githubProfile()}

	svc := NewService(users, accounts, sessions, kv.NewMemoryStore(), provider, Config{
		Secret:      tokenSecret,
		AccessTTL:   time.Hour,
		SessionTTL:  time.Hour,
		AdminEmails: adminEmails,
	}, metrics.Noop{}, discardLogger())

	return &testEnv{svc: svc, users: users, sessions: sessions, provider: provider}
}

func TestRegister(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "Alice@Example.com", "s3cret-password", "Alice")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email should be normalized, got %q", user.Email)
	}
	if user.Role != models.RoleUser {
		t.Errorf("default role should be USER, got %s", user.Role)
	}
	if user.PasswordHash == "" || user.PasswordHash == "s3cret-password" {
		t.Error("password must be stored hashed")
	}

	_, err = env.svc.Register(ctx, "alice@example.com", "other-password", "Imposter")
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestRegisterBootstrapAdmin(t *testing.T) {
	env := newTestService(t, "root@example.com")
	ctx := context.Background()

	admin, err := env.svc.Register(ctx, "Root@example.com", "s3cret-password", "Root")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("allowlisted email should get ADMIN, got %s", admin.Role)
	}

	user, err := env.svc.Register(ctx, "pleb@example.com", "s3cret-password", "Pleb")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != models.RoleUser {
		t.Errorf("non-listed email should get USER, got %s", user.Role)
	}
}

func TestVerifyEmailPassword(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	if _, err := env.svc.Register(ctx, "alice@example.com", "s3cret-password", "Alice"); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	user, err := env.svc.VerifyEmailPassword(ctx, "alice@example.com", "s3cret-password")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}

	// Unknown email and wrong password are indistinguishable.
	cases := []struct {
		name            string
		email, password string
	}{
		{"wrong password", "alice@example.com", "not-the-password"},
		{"unknown email", "nobody@example.com", "s3cret-password"},
		{"empty password", "alice@example.com", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.VerifyEmailPassword(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredential) {
				t.Errorf("expected ErrInvalidCredential, got %v", err)
			}
		})
	}
}

func TestVerifyEmailPasswordOAuthOnlyAccount(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	// OAuth-created account has no password hash.
	if _, err := env.svc.CompleteOAuth(mustBeginOAuth(t, env.svc, ctx)); err != nil {
		t.Fatalf("CompleteOAuth failed: %v", err)
	}

	_, err := env.svc.VerifyEmailPassword(ctx, env.provider.profile.Email, "anything")
	if !errors.Is(err, ErrInvalidCredential) {
		t.Errorf("passwordless account should fail generically, got %v", err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "alice@example.com", "s3cret-password", "Alice")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	token, expires, err := env.svc.IssueSession(ctx, user, "198.51.100.7", "tests/1.0")
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Error("session expiry should be in the future")
	}

	got, err := env.svc.SessionUser(ctx, token)
	if err != nil {
		t.Fatalf("SessionUser failed: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("session resolved the wrong user: %s", got.ID)
	}

	// An unknown token never resolves.
	if _, err := env.svc.SessionUser(ctx, "forged-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("expected ErrTokenInvalid, got %v", err)
	}

	// Logout is idempotent.
	if err := env.svc.Logout(ctx, token); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if err := env.svc.Logout(ctx, token); err != nil {
		t.Errorf("second Logout should be a no-op, got %v", err)
	}
	if err := env.svc.Logout(ctx, ""); err != nil {
		t.Errorf("Logout without a token should be a no-op, got %v", err)
	}

	if _, err := env.svc.SessionUser(ctx, token); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("revoked session should not resolve, got %v", err)
	}
}

func TestSessionUserGone(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "alice@example.com", "s3cret-password", "Alice")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	token, _, err := env.svc.IssueSession(ctx, user, "", "")
	if err != nil {
		t.Fatalf("IssueSession failed: %v", err)
	}

	env.users.Delete(user.ID)

	if _, err := env.svc.SessionUser(ctx, token); !errors.Is(err, ErrUserGone) {
		t.Errorf("expected ErrUserGone, got %v", err)
	}
	// The dangling row was cleaned up.
	if env.sessions.Count() != 0 {
		t.Errorf("dangling session should be deleted, %d left", env.sessions.Count())
	}
}

func TestRevokeAllSessions(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	user, err := env.svc.Register(ctx, "alice@example.com", "s3cret-password", "Alice")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := env.svc.IssueSession(ctx, user, "", ""); err != nil {
			t.Fatalf("IssueSession failed: %v", err)
		}
	}
	if env.sessions.Count() != 3 {
		t.Fatalf("expected 3 sessions, got %d", env.sessions.Count())
	}

	if err := env.svc.RevokeAllSessions(ctx, user.ID); err != nil {
		t.Fatalf("RevokeAllSessions failed: %v", err)
	}
	if env.sessions.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", env.sessions.Count())
	}
}

// mustBeginOAuth starts a flow and returns the arguments a legitimate
// callback would carry.
func mustBeginOAuth(t *testing.T, svc *Service, ctx context.Context) (context.Context, string, string, string) {
	t.Helper()
	state, _, err := svc.BeginOAuth(ctx)
	if err != nil {
		t.Fatalf("BeginOAuth failed: %v", err)
	}
	return ctx, state, state, "good-code"
}

func TestOAuthFlow(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	state, authorizeURL, err := env.svc.BeginOAuth(ctx)
	if err != nil {
		t.Fatalf("BeginOAuth failed: %v", err)
	}
	if authorizeURL != env.provider.AuthorizeURL(state) {
		t.Errorf("unexpected authorize URL: %s", authorizeURL)
	}

	user, err := env.svc.CompleteOAuth(ctx, state, state, "good-code")
	if err != nil {
		t.Fatalf("CompleteOAuth failed: %v", err)
	}
	if user.Email != env.provider.profile.Email {
		t.Errorf("unexpected user: %+v", user)
	}

	// The nonce is single-use.
	if _, err := env.svc.CompleteOAuth(ctx, state, state, "good-code"); !errors.Is(err, ErrStateMismatch) {
		t.Errorf("replayed state should fail, got %v", err)
	}
}

func TestOAuthStateSingleUseConcurrent(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	state, _, err := env.svc.BeginOAuth(ctx)
	if err != nil {
		t.Fatalf("BeginOAuth failed: %v", err)
	}

	const callbacks = 8
	results := make(chan error, callbacks)
	var wg sync.WaitGroup
	for i := 0; i < callbacks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.CompleteOAuth(ctx, state, state, "good-code")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrStateMismatch):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("exactly one callback should spend the nonce, %d did", succeeded)
	}
}

func TestOAuthStateMismatch(t *testing.T) {
	env := newTestService(t)
	ctx := context.Background()

	state, _, err := env.svc.BeginOAuth(ctx)
	if err != nil {
		t.Fatalf("BeginOAuth failed: %v", err)
	}

	cases := []struct {
		name          string
		cookie, query string
	}{
		{"missing cookie", "", state},
		{"missing query", state, ""},
		{"cookie differs", "other-nonce", state},
		{"unknown nonce", "forged", "forged"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.CompleteOAuth(ctx, tc.cookie, tc.query, "good-code")
			if !errors.Is(err, ErrStateMismatch) {
				t.Errorf("expected ErrStateMismatch, got %v", err)
			}
		})
	}
}

func TestOAuthExchangeFailure(t *testing.T) {
	env := newTestService(t)
	env.provider.fail = true
	ctx := context.Background()

	state, _, err := env.svc.BeginOAuth(ctx)
	if err != nil {
		t.Fatalf("BeginOAuth failed: %v", err)
	}
	_, err = env.svc.CompleteOAuth(ctx, state, state, "bad-code")
	if !errors.Is(err, ErrProviderExchange) {
		t.Errorf("expected ErrProviderExchange, got %v", err)
	}
}

func TestOAuthBootstrapAdmin(t *testing.T) {
	env := newTestService(t, "octo@example.com")
	ctx := context.Background()

	user, err := env.svc.CompleteOAuth(mustBeginOAuth(t, env.svc, ctx))
	if err != nil {
		t.Fatalf("CompleteOAuth failed: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Errorf("allowlisted OAuth email should get ADMIN, got %s", user.Role)
	}
}
