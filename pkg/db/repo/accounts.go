package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/uptrace/bun"
)

// BunAccountStore implements AccountStore on bun/Postgres.
type BunAccountStore struct {
	db *bun.DB
}

func NewBunAccountStore(db *bun.DB) *BunAccountStore {
	return &BunAccountStore{db: db}
}

func (r *BunAccountStore) FindByProvider(ctx context.Context, provider, providerAccountID string) (*models.Account, error) {
	account := new(models.Account)
	err := r.db.NewSelect().
		Model(account).
		Where("provider = ?", provider).
		Where("provider_account_id = ?", providerAccountID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *BunAccountStore) Link(ctx context.Context, account *models.Account) error {
	res, err := r.db.NewInsert().
		Model(account).
		On("CONFLICT (provider, provider_account_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAccountExists
	}
	return nil
}

func (r *BunAccountStore) CreateUserWithAccount(ctx context.Context, user *models.User, account *models.Account) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewInsert().
			Model(user).
			On("CONFLICT (email) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// A concurrent signup claimed the email; adopt that row so
			// the link lands on the existing user.
			if err := tx.NewSelect().Model(user).Where("email = ?", user.Email).Scan(ctx); err != nil {
				return err
			}
		}

		account.UserID = user.ID
		res, err = tx.NewInsert().
			Model(account).
			On("CONFLICT (provider, provider_account_id) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			// Lost the race for this external identity. Roll the user
			// insert back too: never a user without its link.
			return ErrAccountExists
		}
		return nil
	})
}

var _ AccountStore = (*BunAccountStore)(nil)
