package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/domain/ledger"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/email"
	"github.com/sangkips/tillbook-api/pkg/pagination"
)

// ReceiptService handles receipt creation, listing and sharing
type ReceiptService struct {
	receiptRepo  repository.ReceiptRepository
	itemRepo     repository.ItemRepository
	userRepo     repository.UserRepository
	emailService *email.EmailService
}

// NewReceiptService creates a new receipt service
func NewReceiptService(
	receiptRepo repository.ReceiptRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	emailService *email.EmailService,
) *ReceiptService {
	return &ReceiptService{
		receiptRepo:  receiptRepo,
		itemRepo:     itemRepo,
		userRepo:     userRepo,
		emailService: emailService,
	}
}

// Record stores the receipt built in l. The ledger is left as it is; callers
// reset it once the receipt is saved.
func (s *ReceiptService) Record(ctx context.Context, ownerID uuid.UUID, ownerEmail string, l *ledger.Ledger, customerName, customerMobile string) (*entity.Receipt, error) {
	receipt, err := l.ToReceiptPayload(customerName, customerMobile)
	if err != nil {
		return nil, err
	}
	receipt.OwnerID = ownerID
	receipt.Email = ownerEmail

	if err := s.receiptRepo.Create(ctx, receipt); err != nil {
		return nil, unavailable("create receipt", err)
	}
	return receipt, nil
}

// ReceiptLineInput selects an item and its quantity
type ReceiptLineInput struct {
	ItemID   uuid.UUID
	Quantity int
}

// CreateReceiptInput represents the create receipt input
type CreateReceiptInput struct {
	OwnerID        uuid.UUID
	Email          string
	CustomerName   string
	CustomerMobile string
	Lines          []ReceiptLineInput
}

// CreateReceipt builds a receipt from item ids and quantities. Prices are
// read from the inventory now; repeated items are merged into one line.
func (s *ReceiptService) CreateReceipt(ctx context.Context, input *CreateReceiptInput) (*entity.Receipt, error) {
	var fieldErrors []apperror.FieldError
	ids := make([]uuid.UUID, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.Quantity < 1 {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   "items[" + strconv.Itoa(i) + "].quantity",
				Message: "Quantity must be at least 1",
			})
		}
		ids = append(ids, line.ItemID)
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	var items []entity.Item
	if len(ids) > 0 {
		var err error
		items, err = s.itemRepo.GetByIDs(ctx, input.OwnerID, ids)
		if err != nil {
			return nil, unavailable("load receipt items", err)
		}
	}
	byID := make(map[uuid.UUID]*entity.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	l := ledger.New()
	for i, line := range input.Lines {
		item, ok := byID[line.ItemID]
		if !ok {
			fieldErrors = append(fieldErrors, apperror.FieldError{
				Field:   "items[" + strconv.Itoa(i) + "].itemId",
				Message: "Item not found",
			})
			continue
		}
		extra := line.Quantity
		if l.Add(item) {
			extra--
		}
		l.ChangeQuantity(item.ID, extra)
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	return s.Record(ctx, input.OwnerID, input.Email, l, input.CustomerName, input.CustomerMobile)
}

// GetReceipt retrieves one of the owner's receipts
func (s *ReceiptService) GetReceipt(ctx context.Context, ownerID, id uuid.UUID) (*entity.Receipt, error) {
	receipt, err := s.receiptRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, unavailable("get receipt", err)
	}
	if receipt == nil {
		return nil, apperror.NewNotFoundError("Receipt")
	}
	return receipt, nil
}

// ListReceiptsInput holds the cursor and optional date range of a listing
type ListReceiptsInput struct {
	OwnerID uuid.UUID
	Cursor  pagination.CursorParams
	From    *int64
	To      *int64
}

// ListReceipts lists the owner's receipts newest first
func (s *ReceiptService) ListReceipts(ctx context.Context, input *ListReceiptsInput) (*pagination.CursorPaginatedResult[entity.Receipt], error) {
	input.Cursor.Validate()
	after, err := input.Cursor.DecodeCursor()
	if err != nil {
		return nil, apperror.NewBadRequestError("Invalid cursor")
	}

	receipts, err := s.receiptRepo.List(ctx, &repository.ReceiptFilterParams{
		OwnerID: input.OwnerID,
		After:   after,
		Limit:   input.Cursor.Limit + 1,
		From:    input.From,
		To:      input.To,
	})
	if err != nil {
		return nil, unavailable("list receipts", err)
	}

	pag, page := pagination.NewCursorPagination(receipts, input.Cursor.Limit, entity.Receipt.Cursor)
	return pagination.NewCursorPaginatedResult(page, pag), nil
}

// Fetcher is a page source for a Paginator over the owner's receipts.
func (s *ReceiptService) Fetcher(ownerID uuid.UUID) pagination.PageFetcher[entity.Receipt] {
	return func(ctx context.Context, after *pagination.Cursor, limit int) ([]entity.Receipt, error) {
		receipts, err := s.receiptRepo.List(ctx, &repository.ReceiptFilterParams{
			OwnerID: ownerID,
			After:   after,
			Limit:   limit,
		})
		if err != nil {
			return nil, unavailable("list receipts", err)
		}
		return receipts, nil
	}
}

func (s *ReceiptService) formatterFor(ctx context.Context, ownerID uuid.UUID) (*Formatter, error) {
	user, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		return nil, unavailable("get store settings", err)
	}
	if user == nil {
		return nil, apperror.ErrSignedOut
	}
	return FormatterFor(user), nil
}

// ShareOutput is a receipt ready to send by hand. Links are empty when the
// receipt has no customer mobile.
type ShareOutput struct {
	Text        string `json:"text"`
	WhatsAppURL string `json:"whatsappUrl,omitempty"`
	SMSURL      string `json:"smsUrl,omitempty"`
}

// ShareReceipt renders the receipt's share text and links
func (s *ReceiptService) ShareReceipt(ctx context.Context, ownerID, id uuid.UUID) (*ShareOutput, error) {
	receipt, err := s.GetReceipt(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	f, err := s.formatterFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := &ShareOutput{Text: f.Text(receipt)}
	if strings.TrimSpace(receipt.CustomerMobile) != "" {
		if out.WhatsAppURL, err = f.WhatsAppURL(receipt); err != nil {
			return nil, err
		}
		if out.SMSURL, err = f.SMSURL(receipt); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// EmailReceipt sends the receipt to a customer address
func (s *ReceiptService) EmailReceipt(ctx context.Context, ownerID, id uuid.UUID, to string) error {
	to, err := normalizeEmail(to)
	if err != nil {
		return apperror.NewFieldError("email", apperror.ErrInvalidEmail.Message)
	}
	if s.emailService == nil || !s.emailService.IsConfigured() {
		return apperror.NewAppError(503, email.ErrNotConfigured.Error())
	}

	receipt, err := s.GetReceipt(ctx, ownerID, id)
	if err != nil {
		return err
	}
	f, err := s.formatterFor(ctx, ownerID)
	if err != nil {
		return err
	}

	if err := s.emailService.SendReceiptEmail(ctx, to, f.Email(receipt)); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return apperror.NewUnavailableError("Could not send the e-mail. Please try again.", err)
	}
	return nil
}
