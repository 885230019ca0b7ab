package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/finza-app/finza/pkg/db/repo"
	"github.com/finza-app/finza/pkg/db/repo/repotest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func githubProfile() *Profile {
	return &Profile{
		ExternalID: "12345",
		Login:      "octocat",
		Name:       "Octo Cat",
		Email:      "octo@example.com",
	}
}

func TestResolveExternalCreatesUser(t *testing.T) {
	users := repotest.NewUserStore()
	accounts := repotest.NewAccountStore(users)
	r := NewResolver(users, accounts, discardLogger())
	ctx := context.Background()

	user, err := r.ResolveExternal(ctx, "github", githubProfile(), models.RoleUser)
	if err != nil {
		t.Fatalf("ResolveExternal failed: %v", err)
	}
	if user.Email != "octo@example.com" || user.Role != models.RoleUser {
		t.Errorf("unexpected user: %+v", user)
	}

	account, err := accounts.FindByProvider(ctx, "github", "12345")
	if err != nil {
		t.Fatalf("FindByProvider failed: %v", err)
	}
	if account == nil || account.UserID != user.ID {
		t.Errorf("account link missing or wrong owner: %+v", account)
	}
}

func TestResolveExternalIdempotent(t *testing.T) {
	users := repotest.NewUserStore()
	accounts := repotest.NewAccountStore(users)
	r := NewResolver(users, accounts, discardLogger())
	ctx := context.Background()

	first, err := r.ResolveExternal(ctx, "github", githubProfile(), models.RoleUser)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	second, err := r.ResolveExternal(ctx, "github", githubProfile(), models.RoleUser)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("repeat resolve returned a different user: %s vs %s", first.ID, second.ID)
	}
}

func TestResolveExternalLinksExistingEmail(t *testing.T) {
	users := repotest.NewUserStore()
	accounts := repotest.NewAccountStore(users)
	r := NewResolver(users, accounts, discardLogger())
	ctx := context.Background()

	existing := &models.User{Email: "octo@example.com", Role: models.RoleAdmin, PasswordHash: "x"}
	if err := users.Create(ctx, existing); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}

	user, err := r.ResolveExternal(ctx, "github", githubProfile(), models.RoleUser)
	if err != nil {
		t.Fatalf("ResolveExternal failed: %v", err)
	}
	if user.ID != existing.ID {
		t.Errorf("should link to the existing user, got %s want %s", user.ID, existing.ID)
	}
	// Linking never touches the role.
	if user.Role != models.RoleAdmin {
		t.Errorf("role changed on link: %s", user.Role)
	}
}

func TestResolveExternalRefreshesName(t *testing.T) {
	users := repotest.NewUserStore()
	accounts := repotest.NewAccountStore(users)
	r := NewResolver(users, accounts, discardLogger())
	ctx := context.Background()

	if _, err := r.ResolveExternal(ctx, "github", githubProfile(), models.RoleUser); err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}

	renamed := githubProfile()
	renamed.Name = "Doctor Octopus"
	user, err := r.ResolveExternal(ctx, "github", renamed, models.RoleUser)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if user.Name != "Doctor Octopus" {
		t.Errorf("name not refreshed: %q", user.Name)
	}
}

func TestResolveExternalConcurrent(t *testing.T) {
	users := repotest.NewUserStore()
	accounts := repotest.NewAccountStore(users)
	r := NewResolver(users, accounts, discardLogger())
	ctx := context.Background()

	const n = 8
	results := make([]*models.User, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = r.ResolveExternal(ctx, "github", githubProfile(), models.RoleUser)
		}(i)
	}
	wg.Wait()

	var winner *models.User
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("resolve %d failed: %v", i, errs[i])
		}
		if winner == nil {
			winner = results[i]
		} else if results[i].ID != winner.ID {
			t.Fatalf("divergent users: %s vs %s", results[i].ID, winner.ID)
		}
	}
}

// lostRaceAccounts makes every direct insert lose to a pre-seeded
// winner, forcing the resolver down its conflict re-read path.
type lostRaceAccounts struct {
	*repotest.AccountStore
	hideUntilConflict bool
	conflicted        bool
}

func (s *lostRaceAccounts) FindByProvider(ctx context.Context, provider, id string) (*models.Account, error) {
	if s.hideUntilConflict && !s.conflicted {
		return nil, nil
	}
	return s.AccountStore.FindByProvider(ctx, provider, id)
}

func (s *lostRaceAccounts) Link(ctx context.Context, account *models.Account) error {
	s.conflicted = true
	return repo.ErrAccountExists
}

func (s *lostRaceAccounts) CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	s.conflicted = true
	return repo.ErrAccountExists
}

func TestResolveExternalAdoptsRaceWinner(t *testing.T) {
	users := repotest.NewUserStore()
	inner := repotest.NewAccountStore(users)
	ctx := context.Background()

	// The "winner" created by a concurrent callback.
	winner := &models.User{Email: "octo@example.com", Role: models.RoleUser}
	if err := users.Create(ctx, winner); err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	if err := inner.Link(ctx, &models.Account{Provider: "github", ProviderAccountID: "12345", UserID: winner.ID}); err != nil {
		t.Fatalf("seed link failed: %v", err)
	}

	accounts := &lostRaceAccounts{AccountStore: inner, hideUntilConflict: true}
	r := NewResolver(users, accounts, discardLogger())

	user, err := r.ResolveExternal(ctx, "github", githubProfile(), models.RoleUser)
	if err != nil {
		t.Fatalf("ResolveExternal failed: %v", err)
	}
	if user.ID != winner.ID {
		t.Errorf("loser should adopt the winner's user: got %s want %s", user.ID, winner.ID)
	}
}
