// Package ledger accumulates the items selected for one receipt being built
// and keeps its running total.
//
// A Ledger is not safe for concurrent use; callers serialise access.
package ledger

import (
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Ledger holds at most one line per item, in selection order, and a cached
// total equal to the sum of price x quantity over its lines.
type Ledger struct {
	lines []entity.LineItem
	index map[uuid.UUID]int
	total decimal.Decimal
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{index: make(map[uuid.UUID]int)}
}

// Restore rebuilds a ledger from stored lines. Quantities below 1 are raised
// to 1 and repeated item ids keep their first line.
func Restore(lines []entity.LineItem) *Ledger {
	l := New()
	for _, line := range lines {
		if _, ok := l.index[line.ItemID]; ok {
			continue
		}
		if line.Quantity < 1 {
			line.Quantity = 1
		}
		l.index[line.ItemID] = len(l.lines)
		l.lines = append(l.lines, line)
		l.total = l.total.Add(line.Subtotal())
	}
	return l
}

// Add selects an item with quantity 1. Adding an item that is already
// selected does nothing; quantity changes go through ChangeQuantity.
// It reports whether a line was added.
func (l *Ledger) Add(item *entity.Item) bool {
	if _, ok := l.index[item.ID]; ok {
		return false
	}
	line := entity.LineItem{
		ItemID:    item.ID,
		ItemName:  item.ItemName,
		ItemPrice: item.ItemPrice,
		Barcode:   item.Barcode,
		Quantity:  1,
	}
	l.index[item.ID] = len(l.lines)
	l.lines = append(l.lines, line)
	l.total = l.total.Add(line.ItemPrice)
	return true
}

// Remove drops the line for itemID. Unknown ids are ignored.
func (l *Ledger) Remove(itemID uuid.UUID) bool {
	i, ok := l.index[itemID]
	if !ok {
		return false
	}
	l.total = l.total.Sub(l.lines[i].Subtotal())
	l.lines = append(l.lines[:i], l.lines[i+1:]...)
	delete(l.index, itemID)
	for j := i; j < len(l.lines); j++ {
		l.index[l.lines[j].ItemID] = j
	}
	return true
}

// ChangeQuantity moves the quantity of itemID by delta, never below 1 and
// never past math.MaxInt, and returns the change actually applied. The total
// moves by price x applied, so a clamped change cannot make it drift.
// Unknown ids are ignored.
func (l *Ledger) ChangeQuantity(itemID uuid.UUID, delta int) int {
	i, ok := l.index[itemID]
	if !ok {
		return 0
	}
	line := &l.lines[i]
	oldQuantity := line.Quantity
	var newQuantity int
	switch {
	case delta > 0 && oldQuantity > math.MaxInt-delta:
		newQuantity = math.MaxInt
	case delta < 0 && oldQuantity+delta < 1:
		newQuantity = 1
	default:
		newQuantity = oldQuantity + delta
	}
	applied := newQuantity - oldQuantity
	line.Quantity = newQuantity
	l.total = l.total.Add(line.ItemPrice.Mul(decimal.NewFromInt(int64(applied))))
	return applied
}

// Reset clears every line.
func (l *Ledger) Reset() {
	l.lines = nil
	l.index = make(map[uuid.UUID]int)
	l.total = decimal.Zero
}

// Total returns the cached sum of price x quantity.
func (l *Ledger) Total() decimal.Decimal {
	return l.total
}

// Len is the number of distinct items selected.
func (l *Ledger) Len() int {
	return len(l.lines)
}

// Quantity returns the quantity selected for itemID, or 0.
func (l *Ledger) Quantity(itemID uuid.UUID) int {
	if i, ok := l.index[itemID]; ok {
		return l.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the lines in selection order.
func (l *Ledger) Lines() []entity.LineItem {
	return append(make([]entity.LineItem, 0, len(l.lines)), l.lines...)
}

// ToReceiptPayload turns the ledger into an unsaved receipt. The customer
// name must be non-blank and at least one line must be selected; the ledger
// itself is left untouched either way.
func (l *Ledger) ToReceiptPayload(customerName, customerMobile string) (*entity.Receipt, error) {
	customerName = strings.TrimSpace(customerName)
	var fieldErrors []apperror.FieldError
	if customerName == "" {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "customerName", Message: "Customer name is required"})
	}
	if len(l.lines) == 0 {
		fieldErrors = append(fieldErrors, apperror.FieldError{Field: "items", Message: "Select at least one item"})
	}
	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}

	items := make(datatypes.JSONSlice[entity.ReceiptLine], 0, len(l.lines))
	for _, line := range l.lines {
		items = append(items, entity.ReceiptLine{
			ItemName:  line.ItemName,
			ItemPrice: line.ItemPrice,
			Barcode:   line.Barcode,
			Quantity:  line.Quantity,
		})
	}

	return &entity.Receipt{
		CustomerName:   customerName,
		CustomerMobile: strings.TrimSpace(customerMobile),
		Items:          items,
		Total:          entity.RoundMoney(l.total),
	}, nil
}
