package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/finza-app/finza/pkg/db/models"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunUserStore implements UserStore on bun/Postgres.
type BunUserStore struct {
	db *bun.DB
}

func NewBunUserStore(db *bun.DB) *BunUserStore {
	return &BunUserStore{db: db}
}

func (r *BunUserStore) Create(ctx context.Context, user *models.User) error {
	res, err := r.db.NewInsert().
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
		return ErrEmailTaken
	}
	return nil
}

func (r *BunUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("email = ?", email).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *BunUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := new(models.User)
	err := r.db.NewSelect().
		Model(user).
		Where("id = ?", id).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *BunUserStore) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.db.NewUpdate().
		Model(user).
		WherePK().
		Exec(ctx)
	return err
}

var _ UserStore = (*BunUserStore)(nil)
