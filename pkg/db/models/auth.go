package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the authorization level carried by users and stateless tokens.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	bun.BaseModel `bun:"table:auth.users,alias:u"`

	ID    uuid.UUID `bun:"type:uuid,default:gen_random_uuid(),pk"`
	Email string    `bun:",unique,notnull"`
	Name  string    `bun:",nullzero"`

	// PasswordHash is empty for OAuth-only accounts.
	PasswordHash string `bun:",nullzero"`

	Role Role `bun:",notnull"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Account links an external OAuth identity to a local user. The
// (provider, provider_account_id) pair is unique: at most one user per
// external identity.
type Account struct {
	bun.BaseModel `bun:"table:auth.accounts,alias:a"`

	ID                uuid.UUID `bun:"type:uuid,default:gen_random_uuid(),pk"`
	Provider          string    `bun:",notnull"`
	ProviderAccountID string    `bun:",notnull"`
	UserID            uuid.UUID `bun:"type:uuid,notnull"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

// Session is a server-held revocable credential. Only the SHA-256 hash
// of the opaque token is stored; the raw token lives in the client's
// cookie. Rows past ExpiresAt are treated as dead at read time.
type Session struct {
	bun.BaseModel `bun:"table:auth.sessions,alias:s"`

	ID        uuid.UUID `bun:"type:uuid,default:gen_random_uuid(),pk"`
	TokenHash string    `bun:",unique,notnull"`
	UserID    uuid.UUID `bun:"type:uuid,notnull"`
	ExpiresAt time.Time `bun:",notnull"`
	IP        string    `bun:",nullzero"`
	UserAgent string    `bun:",nullzero"`

	CreatedAt time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}
