package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/finza-app/finza/pkg/db/repo"
)

// Resolver maps an external OAuth profile onto a local user, creating
// or linking rows as needed. Concurrency is settled by the database's
// unique constraints: a resolver that loses an insert race re-reads and
// adopts the winner's row, so two callbacks for the same external
// identity always converge on one user.
type Resolver struct {
	users    repo.UserStore
	accounts repo.AccountStore
	logger   *slog.Logger
}

func NewResolver(users repo.UserStore, accounts repo.AccountStore, logger *slog.Logger) *Resolver {
	return &Resolver{users: users, accounts: accounts, logger: logger}
}

// ResolveExternal returns the local user owning the external identity.
//
//  1. The identity is already linked: return the owning user.
//  2. A user with the profile's email exists: link the identity to it.
//  3. Otherwise create user and link atomically.
//
// role only applies when a new user is created; linking never changes
// an existing user's role.
func (r *Resolver) ResolveExternal(ctx context.Context, provider string, profile *Profile, role models.Role) (*models.User, error) {
	account, err := r.accounts.FindByProvider(ctx, provider, profile.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if account != nil {
		user, err := r.ownerOf(ctx, account)
		if err != nil {
			return nil, err
		}
		// Keep the display name in step with the provider. Best-effort:
		// a failed refresh never blocks login.
		if profile.Name != "" && user.Name != profile.Name {
			user.Name = profile.Name
			if err := r.users.Update(ctx, user); err != nil {
				r.logger.Warn("profile refresh failed", "user_id", user.ID, "error", err)
			}
		}
		return user, nil
	}

	user, err := r.users.FindByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if user != nil {
		err := r.accounts.Link(ctx, &models.Account{
			Provider:          provider,
			ProviderAccountID: profile.ExternalID,
			UserID:            user.ID,
		})
		if errors.Is(err, repo.ErrAccountExists) {
			// Lost the race to a concurrent callback; adopt its link.
			return r.adoptWinner(ctx, provider, profile.ExternalID)
		}
		if err != nil {
			return nil, fmt.Errorf("link account: %w", err)
		}
		r.logger.Info("linked external identity to existing user",
			"provider", provider, "user_id", user.ID)
		return user, nil
	}

	user = &models.User{
		Email: profile.Email,
		Name:  profile.Name,
		Role:  role,
	}
	account = &models.Account{
		Provider:          provider,
		ProviderAccountID: profile.ExternalID,
	}
	err = r.accounts.CreateUserWithAccount(ctx, user, account)
	if errors.Is(err, repo.ErrAccountExists) {
		return r.adoptWinner(ctx, provider, profile.ExternalID)
	}
	if err != nil {
		return nil, fmt.Errorf("create user with account: %w", err)
	}
	r.logger.Info("created user from external identity",
		"provider", provider, "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (r *Resolver) ownerOf(ctx context.Context, account *models.Account) (*models.User, error) {
	user, err := r.users.FindByID(ctx, account.UserID)
	if err != nil {
		return nil, fmt.Errorf("find account owner: %w", err)
	}
	if user == nil {
		return nil, ErrUserGone
	}
	return user, nil
}

func (r *Resolver) adoptWinner(ctx context.Context, provider, externalID string) (*models.User, error) {
	account, err := r.accounts.FindByProvider(ctx, provider, externalID)
	if err != nil {
		return nil, fmt.Errorf("re-read account: %w", err)
	}
	if account == nil {
		return nil, fmt.Errorf("re-read account: link vanished after conflict")
	}
	return r.ownerOf(ctx, account)
}
