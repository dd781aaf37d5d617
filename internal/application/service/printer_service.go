package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/printer"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer        printer.Printer
	receiptService *ReceiptService
	charWidth      int
}

// NewPrinterService creates a new printer service.
func NewPrinterService(p printer.Printer, receiptService *ReceiptService, charWidth int) *PrinterService {
	if charWidth <= 0 {
		charWidth = printer.Width58mm
	}
	return &PrinterService{
		printer:        p,
		receiptService: receiptService,
		charWidth:      charWidth,
	}
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus(ctx context.Context) printer.Status {
	return s.printer.Status(ctx)
}

func (s *PrinterService) send(ctx context.Context, data []byte) error {
	if err := s.printer.Print(ctx, data); err != nil {
		if errors.Is(err, printer.ErrNoPrinter) {
			return apperror.NewBadRequestError("No printer is configured")
		}
		return apperror.NewUnavailableError("Printer is not responding. Please check it and try again.", err)
	}
	return nil
}

// PrintReceipt prints one of the owner's receipts.
func (s *PrinterService) PrintReceipt(ctx context.Context, ownerID, receiptID uuid.UUID) error {
	receipt, err := s.receiptService.GetReceipt(ctx, ownerID, receiptID)
	if err != nil {
		return err
	}
	f, err := s.receiptService.formatterFor(ctx, ownerID)
	if err != nil {
		return err
	}

	if err := s.send(ctx, f.ESCPOS(receipt, s.charWidth)); err != nil {
		log.Printf("Printer error (receipt %s): %v", receiptID, err)
		return err
	}
	return nil
}

// TestPrint sends a sample receipt laid out with the owner's settings.
func (s *PrinterService) TestPrint(ctx context.Context, ownerID uuid.UUID) error {
	f, err := s.receiptService.formatterFor(ctx, ownerID)
	if err != nil {
		return err
	}
	sample := &entity.Receipt{
		CustomerName: "Printer Test",
		Items: datatypes.JSONSlice[entity.ReceiptLine]{
			{ItemName: "Test Item 1", ItemPrice: decimal.NewFromInt(10), Quantity: 1},
			{ItemName: "Test Item 2", ItemPrice: decimal.NewFromInt(5), Quantity: 2},
		},
		Total: decimal.NewFromInt(20),
	}
	return s.send(ctx, f.ESCPOS(sample, s.charWidth))
}
