package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillbook-api/internal/domain/repository"
)

const userColumns = `id, email, password, provider, provider_id, store_name,
  currency_symbol, mobile_prefix, receipt_note, created_at, updated_at`

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a SQLite-backed user repository
func NewUserRepository(db *sqlx.DB) domainRepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	user.Prepare(time.Now())
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO users(`+userColumns+`)
		VALUES(:id, :email, :password, :provider, :provider_id, :store_name,
		  :currency_symbol, :mobile_prefix, :receipt_note, :created_at, :updated_at)`, user)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, noRows(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
	if err != nil {
		return nil, noRows(err)
	}
	return &user, nil
}

func (r *userRepository) GetByProviderID(ctx context.Context, providerID string) (*entity.User, error) {
	var user entity.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE provider_id = ?`, providerID)
	if err != nil {
		return nil, noRows(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateStore(ctx context.Context, id uuid.UUID, storeName string, config entity.StoreConfig) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET store_name = ?, currency_symbol = ?, mobile_prefix = ?,
		  receipt_note = ?, updated_at = ?
		WHERE id = ?`,
		storeName, config.CurrencySymbol, config.MobilePrefix, config.ReceiptNote,
		time.Now().UnixMilli(), id)
	return err
}

func (r *userRepository) LinkProvider(ctx context.Context, id uuid.UUID, providerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET provider_id = ?, updated_at = ? WHERE id = ?`,
		providerID, time.Now().UnixMilli(), id)
	return err
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
