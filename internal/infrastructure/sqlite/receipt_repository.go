package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tillbook-api/internal/domain/repository"
)

const receiptColumns = `id, owner_id, email, customer_name, customer_mobile, items, total, created_at`

type receiptRepository struct {
	db *sqlx.DB
}

// NewReceiptRepository creates a SQLite-backed receipt repository
func NewReceiptRepository(db *sqlx.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) Create(ctx context.Context, receipt *entity.Receipt) error {
	if err := receipt.Prepare(time.Now()); err != nil {
		return err
	}
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO receipts(`+receiptColumns+`)
		VALUES(:id, :owner_id, :email, :customer_name, :customer_mobile, :items, :total, :created_at)`, receipt)
	return err
}

func (r *receiptRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := r.db.GetContext(ctx, &receipt,
		`SELECT `+receiptColumns+` FROM receipts WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return nil, noRows(err)
	}
	return &receipt, nil
}

func (r *receiptRepository) List(ctx context.Context, params *domainRepo.ReceiptFilterParams) ([]entity.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE owner_id = ?`
	args := []interface{}{params.OwnerID}

	if params.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, *params.From)
	}
	if params.To != nil {
		query += ` AND created_at <= ?`
		args = append(args, *params.To)
	}
	query, args = keyset(query, args, params.After)
	if params.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, params.Limit)
	}

	receipts := []entity.Receipt{}
	err := r.db.SelectContext(ctx, &receipts, query, args...)
	return receipts, err
}

func (r *receiptRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM receipts WHERE owner_id = ?`, ownerID)
	return err
}
