package iam

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/finza-app/finza/pkg/api/services/auth"
	"github.com/finza-app/finza/pkg/db/models"
)

// IAMService resolves request credentials into a Principal. Both
// credential variants are accepted behind the same resolution: the
// stateless token (Authorization header or auth-token cookie) is
// checked first because it needs no storage round trip, then the
// opaque session-token cookie.
type IAMService struct {
	auth   *auth.Service
	logger *slog.Logger
}

func NewIAMService(authSvc *auth.Service, logger *slog.Logger) *IAMService {
	return &IAMService{auth: authSvc, logger: logger}
}

// Resolve authenticates r and returns its principal, or nil when no
// credential is present or valid. Cookies win over the Authorization
// header. Resolution never writes a response; the caller decides
// whether anonymity is acceptable.
func (s *IAMService) Resolve(r *http.Request) *Principal {
	if c, err := r.Cookie(CookieAuthToken); err == nil && c.Value != "" {
		if p := s.fromAccessToken(c.Value); p != nil {
			return p
		}
	}
	if c, err := r.Cookie(CookieSessionToken); err == nil && c.Value != "" {
		if p := s.fromSessionToken(r, c.Value); p != nil {
			return p
		}
	}
	if token := bearerToken(r); token != "" {
		if p := s.fromAccessToken(token); p != nil {
			return p
		}
	}
	return nil
}

func (s *IAMService) fromAccessToken(token string) *Principal {
	claims, err := s.auth.VerifyAccess(token)
	if err != nil {
		s.logger.Debug("access token rejected", "error", err)
		return nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil
	}
	return &Principal{
		UserID: userID,
		Email:  claims.Email,
		Role:   models.Role(claims.Role),
		Source: SourceToken,
	}
}

func (s *IAMService) fromSessionToken(r *http.Request, token string) *Principal {
	user, err := s.auth.SessionUser(r.Context(), token)
	if err != nil {
		s.logger.Debug("session token rejected", "error", err)
		return nil
	}
	return &Principal{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
		Source: SourceSession,
	}
}

// Middleware attaches the resolved principal to the request context.
// Anonymous requests pass through; route handlers enforce their own
// authentication requirements.
func (s *IAMService) Middleware() func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		r, _ := humachi.Unwrap(ctx)
		if p := s.Resolve(r); p != nil {
			ctx = huma.WithValue(ctx, principalKey, p)
		}
		next(ctx)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
