package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/pagination"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Receipts"

// ExportService writes an owner's receipts to a spreadsheet
type ExportService struct {
	receiptService *ReceiptService
	pageSize       int
	pageTimeout    time.Duration
}

// NewExportService creates a new export service. Receipts are read in pages
// of pageSize, each bounded by pageTimeout.
func NewExportService(receiptService *ReceiptService, pageSize int, pageTimeout time.Duration) *ExportService {
	if pageSize <= 0 {
		pageSize = pagination.MaxLimit
	}
	return &ExportService{
		receiptService: receiptService,
		pageSize:       pageSize,
		pageTimeout:    pageTimeout,
	}
}

// ExportReceipts returns an XLSX workbook with one row per receipt line,
// newest receipt first.
func (s *ExportService) ExportReceipts(ctx context.Context, ownerID uuid.UUID) ([]byte, error) {
	f, err := s.receiptService.formatterFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	p := pagination.NewPaginator(s.receiptService.Fetcher(ownerID), entity.Receipt.Cursor, pagination.PaginatorOptions{
		PageSize: s.pageSize,
		Timeout:  s.pageTimeout,
	})
	receipts, err := p.Drain(ctx)
	if err != nil {
		if apperror.IsAppError(err) {
			return nil, err
		}
		return nil, apperror.NewUnavailableError("Could not load receipts. Please try again.", err)
	}

	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	header := []interface{}{"Receipt ID", "Date", "Customer", "Mobile", "Item", "Barcode", "Price", "Quantity", "Line Total", "Receipt Total"}
	if err := book.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := book.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := book.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return nil, err
	}

	row := 2
	for _, r := range receipts {
		for _, line := range r.Items {
			price, _ := line.ItemPrice.Float64()
			subtotal, _ := line.Subtotal().Float64()
			total, _ := r.Total.Float64()
			values := []interface{}{
				r.ID.String(), f.Date(r.CreatedAt), r.CustomerName, r.CustomerMobile,
				line.ItemName, line.Barcode, price, line.Quantity, subtotal, total,
			}
			if err := book.SetSheetRow(exportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
				return nil, err
			}
			row++
		}
	}

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
