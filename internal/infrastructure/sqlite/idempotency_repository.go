package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillbook-api/internal/domain/repository"
)

type idempotencyRepository struct {
	db *sqlx.DB
}

// NewIdempotencyRepository creates a SQLite-backed idempotency repository
func NewIdempotencyRepository(db *sqlx.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := r.db.GetContext(ctx, &ikey, `
		SELECT id, key, user_id, endpoint, response_code, response_body, created_at, expires_at
		FROM idempotency_keys WHERE key = ? AND user_id = ?`, key, userID)
	if err != nil {
		return nil, noRows(err)
	}
	return &ikey, nil
}

func (r *idempotencyRepository) Reserve(ctx context.Context, ikey *entity.IdempotencyKey) (bool, error) {
	ikey.Prepare(time.Now())
	res, err := r.db.NamedExecContext(ctx, `
		INSERT INTO idempotency_keys(id, key, user_id, endpoint, response_code, response_body, created_at, expires_at)
		VALUES(:id, :key, :user_id, :endpoint, :response_code, :response_body, :created_at, :expires_at)
		ON CONFLICT(user_id, key) DO NOTHING`, ikey)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *idempotencyRepository) Complete(ctx context.Context, id uuid.UUID, code int, body string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_keys SET response_code = ?, response_body = ? WHERE id = ?`, code, body, id)
	return err
}

func (r *idempotencyRepository) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE id = ?`, id)
	return err
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, before int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE expires_at < ?`, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *idempotencyRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE user_id = ?`, userID)
	return err
}
