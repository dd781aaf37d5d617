package service

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sangkips/tillbook-api/internal/domain/entity"
	"github.com/sangkips/tillbook-api/pkg/apperror"
	"github.com/sangkips/tillbook-api/pkg/email"
	"github.com/sangkips/tillbook-api/pkg/printer"
	"github.com/shopspring/decimal"
)

// ReceiptDateLayout is how receipt dates are shown to customers.
const ReceiptDateLayout = "02/01/2006, 15:04:05"

// Formatter renders receipts for one store. Every rendering uses the same
// currency symbol, mobile prefix and note.
type Formatter struct {
	storeName string
	config    entity.StoreConfig
	loc       *time.Location
}

// NewFormatter creates a formatter for a store. Blank config fields fall back
// to the defaults.
func NewFormatter(storeName string, config entity.StoreConfig) *Formatter {
	return &Formatter{
		storeName: storeName,
		config:    config.WithDefaults(),
		loc:       time.Local,
	}
}

// FormatterFor is NewFormatter over a user's store settings.
func FormatterFor(user *entity.User) *Formatter {
	return NewFormatter(user.StoreName, user.StoreConfig)
}

// In sets the time zone dates are shown in.
func (f *Formatter) In(loc *time.Location) *Formatter {
	if loc != nil {
		f.loc = loc
	}
	return f
}

// Money formats an amount with the store's currency symbol.
func (f *Formatter) Money(d decimal.Decimal) string {
	return f.config.CurrencySymbol + d.StringFixed(entity.MoneyPlaces)
}

// Date formats an epoch-ms timestamp.
func (f *Formatter) Date(ms int64) string {
	return time.UnixMilli(ms).In(f.loc).Format(ReceiptDateLayout)
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// Text is the plain-text receipt used for sharing.
func (f *Formatter) Text(r *entity.Receipt) string {
	var b strings.Builder
	b.WriteString(f.storeName + " Receipt\n\n")
	b.WriteString("Customer: " + orNA(r.CustomerName) + "\n")
	b.WriteString("Mobile: " + orNA(r.CustomerMobile) + "\n")
	b.WriteString("Date: " + f.Date(r.CreatedAt) + "\n\n")
	b.WriteString("Items:\n")
	for i, line := range r.Items {
		b.WriteString(strconv.Itoa(i+1) + ". " + line.ItemName +
			" - " + f.Money(line.ItemPrice) +
			" x " + strconv.Itoa(line.Quantity) +
			" = " + f.Money(line.Subtotal()) + "\n")
	}
	b.WriteString("\nTotal: " + f.Money(r.Total))
	if note := strings.TrimSpace(f.config.ReceiptNote); note != "" {
		b.WriteString("\n\n" + note)
	}
	return b.String()
}

// queryEscape escapes s for a query value with spaces as %20, which SMS
// apps and wa.me both decode.
func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

func (f *Formatter) mobile(r *entity.Receipt) (string, error) {
	m := digits(r.CustomerMobile)
	if m == "" {
		return "", apperror.NewFieldError("customerMobile", "Customer mobile number is required to share the receipt")
	}
	return m, nil
}

// WhatsAppURL is a wa.me link that opens a chat with the customer and the
// receipt text filled in.
func (f *Formatter) WhatsAppURL(r *entity.Receipt) (string, error) {
	m, err := f.mobile(r)
	if err != nil {
		return "", err
	}
	return "https://wa.me/" + digits(f.config.MobilePrefix) + m + "?text=" + queryEscape(f.Text(r)), nil
}

// SMSURL is an sms: link addressed to the customer with the receipt text as
// the body.
func (f *Formatter) SMSURL(r *entity.Receipt) (string, error) {
	m, err := f.mobile(r)
	if err != nil {
		return "", err
	}
	return "sms:" + f.config.MobilePrefix + m + "?body=" + queryEscape(f.Text(r)), nil
}

// ESCPOS renders the receipt for a thermal printer charWidth columns wide.
func (f *Formatter) ESCPOS(r *entity.Receipt, charWidth int) []byte {
	doc := printer.NewDocument(charWidth)

	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(f.storeName).
		SetFontSize(printer.FontNormal).
		SetBold(false).
		Text("Receipt")

	doc.SetAlign(printer.AlignLeft).
		Separator('-').
		KeyValue("Customer:", orNA(r.CustomerName)).
		KeyValue("Mobile:", orNA(r.CustomerMobile)).
		KeyValue("Date:", f.Date(r.CreatedAt)).
		Separator('-')

	for i, line := range r.Items {
		doc.ItemLine(i+1, line.ItemName, line.Quantity, f.Money(line.ItemPrice), f.Money(line.Subtotal()))
	}

	doc.Separator('-').
		SetBold(true).
		KeyValue("TOTAL:", f.Money(r.Total)).
		SetBold(false).
		Separator('-')

	if note := strings.TrimSpace(f.config.ReceiptNote); note != "" {
		doc.SetAlign(printer.AlignCenter).
			Text(note).
			SetAlign(printer.AlignLeft)
	}

	return doc.Cut().Bytes()
}

// Email is the receipt as e-mail content.
func (f *Formatter) Email(r *entity.Receipt) email.ReceiptEmail {
	lines := make([]email.ReceiptLine, 0, len(r.Items))
	for i, line := range r.Items {
		lines = append(lines, email.ReceiptLine{
			Index:    i + 1,
			Name:     line.ItemName,
			Quantity: line.Quantity,
			Price:    f.Money(line.ItemPrice),
			Total:    f.Money(line.Subtotal()),
		})
	}
	return email.ReceiptEmail{
		StoreName:      f.storeName,
		CustomerName:   r.CustomerName,
		CustomerMobile: r.CustomerMobile,
		Date:           f.Date(r.CreatedAt),
		Lines:          lines,
		Total:          f.Money(r.Total),
		Note:           strings.TrimSpace(f.config.ReceiptNote),
	}
}
