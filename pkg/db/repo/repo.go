// Package repo provides persistence for the auth domain. Interfaces are
// defined here so services can be tested against in-memory fakes; the
// production implementations run on bun/Postgres.
package repo

import (
	"context"
	"errors"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/google/uuid"
)

// ErrEmailTaken is returned when a user insert loses the unique-email
// constraint.
var ErrEmailTaken = errors.New("repo: email already registered")

// ErrAccountExists is returned when an account insert loses the
// (provider, provider_account_id) unique constraint to a concurrent
// writer. Callers re-read and adopt the winner's row.
var ErrAccountExists = errors.New("repo: external account already linked")

// UserStore persists local user identities.
type UserStore interface {
	// Create inserts a user. Returns ErrEmailTaken if the email is
	// already registered, enforced by the unique constraint rather
	// than a prior lookup.
	Create(ctx context.Context, user *models.User) error

	// FindByEmail returns nil, nil when no user has that email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID returns nil, nil when the user no longer exists.
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	// Update persists changed name/email/role fields.
	Update(ctx context.Context, user *models.User) error
}

// AccountStore persists external identity links and the atomic
// create-or-link operation the identity resolver depends on.
type AccountStore interface {
	// FindByProvider returns nil, nil when the external identity is
	// unknown.
	FindByProvider(ctx context.Context, provider, providerAccountID string) (*models.Account, error)

	// Link inserts an account row for an existing user. Returns
	// ErrAccountExists if the pair is already linked.
	Link(ctx context.Context, account *models.Account) error

	// CreateUserWithAccount inserts a user and its account link in one
	// transaction. If the account pair already exists the whole unit
	// rolls back and ErrAccountExists is returned; no user row may
	// survive without its link.
	CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error
}

// SessionStore persists server-side sessions keyed by token hash.
// Expiry is checked at read time; no background sweep exists.
type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error

	// FindByTokenHash returns nil, nil for absent or expired sessions.
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// DeleteByTokenHash is idempotent; deleting an absent token is not
	// an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteAllForUser revokes every session of a user.
	DeleteAllForUser(ctx context.Context, userID uuid.UUID) error
}
