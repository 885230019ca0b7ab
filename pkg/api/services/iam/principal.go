// Package iam resolves the caller's identity from request credentials
// and enforces role-based access on the browser-facing page routes.
package iam

import (
	"context"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/google/uuid"
)

// Source records which credential variant authenticated a request.
type Source string

const (
	// SourceToken means a stateless signed token (header or cookie).
	SourceToken Source = "token"
	// SourceSession means a server-side session looked up in storage.
	SourceSession Source = "session"
)

// Principal is the authenticated caller attached to the request
// context. Handlers never see raw credentials, only this.
type Principal struct {
	UserID uuid.UUID
	Email  string
	Name   string
	Role   models.Role
	Source Source
}

// IsAdmin reports whether the principal may reach admin routes.
func (p *Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

type contextKey struct{}

var principalKey = contextKey{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// FromContext returns the principal attached to ctx, or nil when the
// request was anonymous.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}
