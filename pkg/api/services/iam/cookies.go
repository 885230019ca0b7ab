package iam

import (
	"net/http"
	"time"
)

// Cookie names shared by the auth routes and the request gate.
const (
	// CookieAuthToken carries the stateless signed token.
	CookieAuthToken = "auth-token"
	// CookieSessionToken carries the opaque server-side session token.
	CookieSessionToken = "session-token"
	// CookieRole mirrors the principal's role for UI hints only; it is
	// readable by scripts and never trusted server-side.
	CookieRole = "role"
	// CookieUserRole is kept alongside CookieRole for older clients.
	CookieUserRole = "user-role"
	// CookieOAuthState pins the OAuth state nonce to the browser that
	// started the flow.
	CookieOAuthState = "github_oauth_state"
)

// NewCredentialCookie builds an httpOnly Lax cookie for a credential
// token. Secure is set outside dev so local http still works.
func NewCredentialCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// NewHintCookie builds a script-readable cookie mirroring non-secret
// state for the UI.
func NewHintCookie(name, value string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: false,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie builds an expired cookie overwriting name.
func ClearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
