package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func sampleReceipt() ReceiptEmail {
	return ReceiptEmail{
		StoreName:    "Corner <Shop>",
		CustomerName: "Asha",
		Date:         "16/10/2026, 10:00:00",
		Lines: []ReceiptLine{
			{Index: 1, Name: "Tea", Quantity: 2, Price: "₹2.50", Total: "₹5.00"},
		},
		Total: "₹5.00",
		Note:  "Thank you!",
	}
}

func TestSendReceiptEmail(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	svc := NewEmailService(EmailConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		FromName:  "Tillbook",
		FromEmail: "no-reply@example.com",
	}).WithSender(func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	})

	if err := svc.SendReceiptEmail(context.Background(), "asha@example.com", sampleReceipt()); err != nil {
		t.Fatal(err)
	}
	if gotAddr != "smtp.example.com:587" || gotFrom != "no-reply@example.com" || gotTo[0] != "asha@example.com" {
		t.Fatalf("envelope = %s %s %v", gotAddr, gotFrom, gotTo)
	}
	body := string(gotMsg)
	for _, want := range []string{"Mobile: N/A", "₹5.00", "Thank you!", "Corner &lt;Shop&gt;", "Content-Type: text/html"} {
		if !strings.Contains(body, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestSendReceiptEmail_Errors(t *testing.T) {
	unconfigured := NewEmailService(EmailConfig{})
	if err := unconfigured.SendReceiptEmail(context.Background(), "a@example.com", sampleReceipt()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}

	svc := NewEmailService(EmailConfig{SMTPHost: "h", FromEmail: "f@example.com"}).
		WithSender(func(string, smtp.Auth, string, []string, []byte) error { return errors.New("boom") })
	if err := svc.SendReceiptEmail(context.Background(), "not an address", sampleReceipt()); err == nil {
		t.Fatal("invalid recipient accepted")
	}
	if err := svc.SendReceiptEmail(context.Background(), "a@example.com", sampleReceipt()); err == nil {
		t.Fatal("transport error swallowed")
	}
}
