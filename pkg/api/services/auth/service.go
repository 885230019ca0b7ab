package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/finza-app/finza/pkg/db/repo"
	"github.com/finza-app/finza/pkg/kv"
	"github.com/finza-app/finza/pkg/metrics"
	"github.com/google/uuid"
)

const (
	// statePrefix namespaces OAuth state nonces in the kv store.
	statePrefix = "auth:state:"

	// StateTTL bounds how long a started OAuth flow stays redeemable.
	StateTTL = 10 * time.Minute
)

// Config carries the knobs the service needs beyond its collaborators.
type Config struct {
	Secret      []byte
	AccessTTL   time.Duration
	SessionTTL  time.Duration
	AdminEmails []string
}

// Service implements credential verification, token issuance, the
// OAuth login flow, and session lifecycle on top of the repo stores.
type Service struct {
	users    repo.UserStore
	sessions repo.SessionStore
	resolver *Resolver
	states   kv.Store
	provider Provider

	secret      []byte
	accessTTL   time.Duration
	sessionTTL  time.Duration
	adminEmails map[string]struct{}

	metrics metrics.Recorder
	logger  *slog.Logger
}

func NewService(
	users repo.UserStore,
	accounts repo.AccountStore,
	sessions repo.SessionStore,
	states kv.Store,
	provider Provider,
	cfg Config,
	rec metrics.Recorder,
	logger *slog.Logger,
) *Service {
	admins := make(map[string]struct{}, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &Service{
		users:       users,
		sessions:    sessions,
		resolver:    NewResolver(users, accounts, logger),
		states:      states,
		provider:    provider,
		secret:      cfg.Secret,
		accessTTL:   cfg.AccessTTL,
		sessionTTL:  cfg.SessionTTL,
		adminEmails: admins,
		metrics:     rec,
		logger:      logger,
	}
}

// roleFor assigns ADMIN only to allowlisted emails; everyone else
// starts as USER.
func (s *Service) roleFor(email string) models.Role {
	if _, ok := s.adminEmails[strings.ToLower(email)]; ok {
		return models.RoleAdmin
	}
	return models.RoleUser
}

// Register creates a password-backed user. The email's uniqueness is
// enforced by the insert, not a prior lookup, so concurrent registers
// of the same email cannot both succeed.
func (s *Service) Register(ctx context.Context, email, password, name string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		s.metrics.RecordRegistration(false)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(strings.TrimSpace(email)),
		Name:         name,
		PasswordHash: hash,
		Role:         s.roleFor(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		s.metrics.RecordRegistration(false)
		if errors.Is(err, repo.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.metrics.RecordRegistration(true)
	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// VerifyEmailPassword checks an email/password pair. Unknown email,
// OAuth-only account, and wrong password all collapse into
// ErrInvalidCredential so responses cannot be used to enumerate
// accounts; the distinction is only logged.
func (s *Service) VerifyEmailPassword(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || user.PasswordHash == "" {
		// Burn a comparison anyway so the miss costs the same as a
		// wrong password.
		CheckPassword("$2a$12$C6UzMDM.H6dfI/f/IKcEeO7ZverYVmVTqQJPu2B8vX0sVNNJOmDiW", password)
		s.metrics.RecordLogin("email", false)
		s.logger.Info("login failed", "reason", "unknown or passwordless account")
		return nil, ErrInvalidCredential
	}
	if !CheckPassword(user.PasswordHash, password) {
		s.metrics.RecordLogin("email", false)
		s.logger.Info("login failed", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredential
	}

	s.metrics.RecordLogin("email", true)
	return user, nil
}

// IssueAccessToken mints the stateless bearer token for user.
func (s *Service) IssueAccessToken(user *models.User) (string, time.Time, error) {
	expires := time.Now().Add(s.accessTTL)
	token, err := IssueAccessToken(s.secret, user, s.accessTTL)
	return token, expires, err
}

// VerifyAccess validates a stateless token without touching storage.
func (s *Service) VerifyAccess(tokenString string) (*Claims, error) {
	return VerifyAccessToken(s.secret, tokenString)
}

// UserFromClaims resolves the token subject to a live user row.
func (s *Service) UserFromClaims(ctx context.Context, claims *Claims) (*models.User, error) {
	id, err := claims.UserID()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserGone
	}
	return user, nil
}

// UserByID returns the live user row behind an authenticated
// principal, or ErrUserGone when it was deleted after the credential
// was minted.
func (s *Service) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserGone
	}
	return user, nil
}

// IssueSession creates a server-side session and returns the raw opaque
// token. Only its hash is stored.
func (s *Service) IssueSession(ctx context.Context, user *models.User, ip, userAgent string) (string, time.Time, error) {
	token, err := NewSessionToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate session token: %w", err)
	}

	expires := time.Now().Add(s.sessionTTL)
	session := &models.Session{
		TokenHash: HashToken(token),
		UserID:    user.ID,
		ExpiresAt: expires,
		IP:        ip,
		UserAgent: userAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}

	s.metrics.RecordSessionIssued()
	s.logger.Info("session issued", "user_id", user.ID, "expires_at", expires)
	return token, expires, nil
}

// SessionUser resolves a raw session token to its owning user. Absent
// or expired sessions yield ErrTokenInvalid; a session whose user was
// deleted yields ErrUserGone and the dangling session is cleaned up.
func (s *Service) SessionUser(ctx context.Context, token string) (*models.User, error) {
	hash := HashToken(token)
	session, err := s.sessions.FindByTokenHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	if session == nil {
		return nil, ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("find session user: %w", err)
	}
	if user == nil {
		_ = s.sessions.DeleteByTokenHash(ctx, hash)
		return nil, ErrUserGone
	}
	return user, nil
}

// Logout revokes the session behind token. Best-effort: an unknown or
// already-deleted token is not an error, so logout always succeeds from
// the client's point of view.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteByTokenHash(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.metrics.RecordSessionRevoked()
	return nil
}

// RevokeAllSessions deletes every session of a user, e.g. after a
// password change.
func (s *Service) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	if err := s.sessions.DeleteAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	s.metrics.RecordSessionRevoked()
	return nil
}

// BeginOAuth stores a fresh state nonce and returns it together with
// the provider's authorization URL.
func (s *Service) BeginOAuth(ctx context.Context) (state, authorizeURL string, err error) {
	state, err = NewSessionToken()
	if err != nil {
		return "", "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.states.Set(ctx, statePrefix+state, []byte("1"), StateTTL); err != nil {
		return "", "", fmt.Errorf("store state: %w", err)
	}
	return state, s.provider.AuthorizeURL(state), nil
}

// CompleteOAuth finishes the callback leg: the query state must match
// the cookie state and an unconsumed stored nonce, the code must
// exchange cleanly, and the profile is resolved to a local user. The
// nonce is consumed atomically so even concurrent callbacks can only
// spend it once.
func (s *Service) CompleteOAuth(ctx context.Context, cookieState, queryState, code string) (*models.User, error) {
	if queryState == "" || cookieState == "" || queryState != cookieState {
		s.metrics.RecordOAuthFailure("state")
		return nil, ErrStateMismatch
	}
	if _, err := s.states.GetDel(ctx, statePrefix+queryState); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			s.metrics.RecordOAuthFailure("state")
			return nil, ErrStateMismatch
		}
		return nil, fmt.Errorf("consume state: %w", err)
	}

	accessToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.metrics.RecordOAuthFailure("exchange")
		s.logger.Warn("oauth exchange failed", "provider", s.provider.Name(), "error", err)
		return nil, err
	}

	profile, err := s.provider.FetchProfile(ctx, accessToken)
	if err != nil {
		s.metrics.RecordOAuthFailure("profile")
		s.logger.Warn("oauth profile fetch failed", "provider", s.provider.Name(), "error", err)
		return nil, err
	}

	user, err := s.resolver.ResolveExternal(ctx, s.provider.Name(), profile, s.roleFor(profile.Email))
	if err != nil {
		s.metrics.RecordOAuthFailure("resolve")
		s.metrics.RecordLogin(s.provider.Name(), false)
		return nil, err
	}

	s.metrics.RecordLogin(s.provider.Name(), true)
	return user, nil
}
