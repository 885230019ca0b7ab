package iam

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/finza-app/finza/pkg/metrics"
)

const (
	loginPath     = "/auth/login"
	dashboardPath = "/dashboard"
)

// Gate guards the browser-facing page routes. It fails closed: any
// protected request without a resolvable principal is bounced to the
// login page with its credential cookies cleared, so a stale cookie
// cannot keep a browser stuck in a redirect loop.
type Gate struct {
	iam     *IAMService
	metrics metrics.Recorder
	logger  *slog.Logger

	// adminPrefixes are dashboard subtrees requiring the ADMIN role.
	adminPrefixes []string
}

func NewGate(iamSvc *IAMService, rec metrics.Recorder, logger *slog.Logger) *Gate {
	return &Gate{
		iam:     iamSvc,
		metrics: rec,
		logger:  logger,
		adminPrefixes: []string{
			"/dashboard/usuarios",
			"/dashboard/reportes",
		},
	}
}

// Middleware classifies the request path and enforces the route table:
//
//   - /auth/login, /auth/register: public, but an authenticated visitor
//     is sent to the dashboard.
//   - /dashboard and below: principal required.
//   - admin pages: principal with ADMIN role required; others are sent
//     back to the dashboard root, not to login.
//   - everything else passes through untouched.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		principal := g.iam.Resolve(r)
		if principal != nil {
			r = r.WithContext(WithPrincipal(r.Context(), principal))
		}

		switch {
		case path == loginPath || path == "/auth/register":
			if principal != nil {
				g.redirect(w, r, dashboardPath, "already_authenticated")
				return
			}

		case strings.HasPrefix(path, dashboardPath):
			if principal == nil {
				g.clearCredentials(w)
				g.redirect(w, r, loginPath, "unauthenticated")
				return
			}
			if g.adminOnly(path) && !principal.IsAdmin() {
				g.logger.Info("admin page denied",
					"path", path, "user_id", principal.UserID, "role", principal.Role)
				g.redirect(w, r, dashboardPath, "not_admin")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func (g *Gate) adminOnly(path string) bool {
	for _, prefix := range g.adminPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func (g *Gate) redirect(w http.ResponseWriter, r *http.Request, to, reason string) {
	g.metrics.RecordGateRedirect(reason)
	http.Redirect(w, r, to, http.StatusFound)
}

// clearCredentials expires every credential cookie so the browser
// retries login with a clean slate.
func (g *Gate) clearCredentials(w http.ResponseWriter) {
	for _, name := range []string{CookieAuthToken, CookieSessionToken, CookieRole, CookieUserRole} {
		http.SetCookie(w, ClearCookie(name))
	}
}
