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

// BunSessionStore implements SessionStore on bun/Postgres.
type BunSessionStore struct {
	db *bun.DB
}

func NewBunSessionStore(db *bun.DB) *BunSessionStore {
	return &BunSessionStore{db: db}
}

func (r *BunSessionStore) Create(ctx context.Context, session *models.Session) error {
	_, err := r.db.NewInsert().
		Model(session).
		Exec(ctx)
	return err
}

func (r *BunSessionStore) FindByTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	session := new(models.Session)
	err := r.db.NewSelect().
		Model(session).
		Where("token_hash = ?", tokenHash).
		Where("expires_at > ?", time.Now()).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *BunSessionStore) DeleteByTokenHash(ctx context.Context, tokenHash string) error {
	_, err := r.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("token_hash = ?", tokenHash).
		Exec(ctx)
	return err
}

func (r *BunSessionStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*models.Session)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	return err
}

var _ SessionStore = (*BunSessionStore)(nil)
