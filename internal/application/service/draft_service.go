package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/internal/domain/ledger"
	"github.com/sangkips/tillbook-api/internal/domain/repository"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

// DraftService builds receipts step by step. Each draft holds a ledger that
// is restored, changed and saved back under a per-draft lock.
type DraftService struct {
	draftRepo      repository.DraftRepository
	itemService    *ItemService
	receiptService *ReceiptService
	locks          *keyedMutex
	now            func() time.Time
}

// NewDraftService creates a new draft service
func NewDraftService(
	draftRepo repository.DraftRepository,
	itemService *ItemService,
	receiptService *ReceiptService,
) *DraftService {
	return &DraftService{
		draftRepo:      draftRepo,
		itemService:    itemService,
		receiptService: receiptService,
		locks:          newKeyedMutex(),
		now:            time.Now,
	}
}

// DraftView is a draft with its running total
type DraftView struct {
	ID        uuid.UUID         `json:"id"`
	Lines     []entity.LineItem `json:"lines"`
	Total     decimal.Decimal   `json:"total"`
	ItemCount int               `json:"itemCount"`
	UpdatedAt int64             `json:"updatedAt"`
}

func newDraftView(d *entity.Draft, l *ledger.Ledger) *DraftView {
	lines := l.Lines()
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return &DraftView{
		ID:        d.ID,
		Lines:     lines,
		Total:     l.Total(),
		ItemCount: count,
		UpdatedAt: d.UpdatedAt,
	}
}

// OpenDraft starts an empty draft
func (s *DraftService) OpenDraft(ctx context.Context, ownerID uuid.UUID) (*DraftView, error) {
	d := &entity.Draft{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Lines:     []entity.LineItem{},
		UpdatedAt: s.now().UnixMilli(),
	}
	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, unavailable("save draft", err)
	}
	return newDraftView(d, ledger.New()), nil
}

func (s *DraftService) load(ctx context.Context, ownerID, id uuid.UUID) (*entity.Draft, *ledger.Ledger, error) {
	d, err := s.draftRepo.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, unavailable("get draft", err)
	}
	if d == nil {
		return nil, nil, apperror.NewNotFoundError("Draft")
	}
	return d, ledger.Restore(d.Lines), nil
}

// mutate runs fn on the draft's ledger and saves the result. Nothing is
// saved when fn fails.
func (s *DraftService) mutate(ctx context.Context, ownerID, id uuid.UUID, fn func(*ledger.Ledger) error) (*DraftView, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	d, l, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(l); err != nil {
		return nil, err
	}

	d.Lines = l.Lines()
	d.UpdatedAt = s.now().UnixMilli()
	if err := s.draftRepo.Save(ctx, d); err != nil {
		return nil, unavailable("save draft", err)
	}
	return newDraftView(d, l), nil
}

// GetDraft returns a draft with its total
func (s *DraftService) GetDraft(ctx context.Context, ownerID, id uuid.UUID) (*DraftView, error) {
	d, l, err := s.load(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	return newDraftView(d, l), nil
}

// AddItem selects an inventory item. An item already in the draft is left
// as it is.
func (s *DraftService) AddItem(ctx context.Context, ownerID, id, itemID uuid.UUID) (*DraftView, error) {
	item, err := s.itemService.GetItem(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(l *ledger.Ledger) error {
		l.Add(item)
		return nil
	})
}

// ScanItem selects the item with the scanned barcode
func (s *DraftService) ScanItem(ctx context.Context, ownerID, id uuid.UUID, barcode string) (*DraftView, error) {
	item, err := s.itemService.GetItemByBarcode(ctx, ownerID, barcode)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, ownerID, id, func(l *ledger.Ledger) error {
		l.Add(item)
		return nil
	})
}

// ChangeQuantity moves a line's quantity by delta, never below 1
func (s *DraftService) ChangeQuantity(ctx context.Context, ownerID, id, itemID uuid.UUID, delta int) (*DraftView, error) {
	return s.mutate(ctx, ownerID, id, func(l *ledger.Ledger) error {
		if l.Quantity(itemID) == 0 {
			return apperror.NewNotFoundError("Draft line")
		}
		l.ChangeQuantity(itemID, delta)
		return nil
	})
}

// RemoveItem drops a line. Removing an item that is not selected is a no-op.
func (s *DraftService) RemoveItem(ctx context.Context, ownerID, id, itemID uuid.UUID) (*DraftView, error) {
	return s.mutate(ctx, ownerID, id, func(l *ledger.Ledger) error {
		l.Remove(itemID)
		return nil
	})
}

// ResetDraft clears every line
func (s *DraftService) ResetDraft(ctx context.Context, ownerID, id uuid.UUID) (*DraftView, error) {
	return s.mutate(ctx, ownerID, id, func(l *ledger.Ledger) error {
		l.Reset()
		return nil
	})
}

// DiscardDraft deletes a draft
func (s *DraftService) DiscardDraft(ctx context.Context, ownerID, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	if _, _, err := s.load(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.draftRepo.Delete(ctx, ownerID, id); err != nil {
		return unavailable("delete draft", err)
	}
	return nil
}

// CommitDraftInput names the customer of a draft being committed
type CommitDraftInput struct {
	OwnerID        uuid.UUID
	Email          string
	DraftID        uuid.UUID
	CustomerName   string
	CustomerMobile string
}

// CommitDraft records the draft as a receipt and deletes it. On a validation
// or storage failure the draft is kept unchanged.
func (s *DraftService) CommitDraft(ctx context.Context, input *CommitDraftInput) (*entity.Receipt, error) {
	unlock := s.locks.Lock(input.DraftID)
	defer unlock()

	_, l, err := s.load(ctx, input.OwnerID, input.DraftID)
	if err != nil {
		return nil, err
	}

	receipt, err := s.receiptService.Record(ctx, input.OwnerID, input.Email, l, input.CustomerName, input.CustomerMobile)
	if err != nil {
		return nil, err
	}

	// The receipt exists; a stale draft only lingers until its TTL.
	_ = s.draftRepo.Delete(ctx, input.OwnerID, input.DraftID)
	return receipt, nil
}

// keyedMutex hands out one mutex per key and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*refMutex)}
}

// Lock blocks until key is free and returns its unlock function.
func (k *keyedMutex) Lock(key uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
