package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// DefaultDashboardWindow is the range shown when none is given.
const DefaultDashboardWindow = 24 * time.Hour

// DashboardService provides sales totals
type DashboardService struct {
	receiptRepo repository.ReceiptRepository
	now         func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(receiptRepo repository.ReceiptRepository) *DashboardService {
	return &DashboardService{
		receiptRepo: receiptRepo,
		now:         time.Now,
	}
}

// DashboardStats represents the totals over a date range
type DashboardStats struct {
	From         int64           `json:"from"`
	To           int64           `json:"to"`
	ReceiptCount int             `json:"receiptCount"`
	ItemsCount   int             `json:"itemsCount"`
	TotalSales   decimal.Decimal `json:"totalSales"`
}

// DashboardInput is an inclusive epoch-ms range. Nil ends default to the
// last 24 hours.
type DashboardInput struct {
	OwnerID uuid.UUID
	From    *int64
	To      *int64
}

// GetStats sums the owner's receipts in the range
func (s *DashboardService) GetStats(ctx context.Context, input *DashboardInput) (*DashboardStats, error) {
	now := s.now()
	to := now.UnixMilli()
	if input.To != nil {
		to = *input.To
	}
	from := time.UnixMilli(to).Add(-DefaultDashboardWindow).UnixMilli()
	if input.From != nil {
		from = *input.From
	}
	if from > to {
		return nil, apperror.NewFieldError("from", "Start date must be before end date")
	}

	receipts, err := s.receiptRepo.List(ctx, &repository.ReceiptFilterParams{
		OwnerID: input.OwnerID,
		From:    &from,
		To:      &to,
	})
	if err != nil {
		return nil, unavailable("dashboard receipts", err)
	}

	stats := &DashboardStats{From: from, To: to, TotalSales: decimal.Zero}
	for _, r := range receipts {
		stats.ReceiptCount++
		stats.ItemsCount += r.ItemCount()
		stats.TotalSales = stats.TotalSales.Add(r.Total)
	}
	return stats, nil
}
