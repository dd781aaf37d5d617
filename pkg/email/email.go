package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/mail"
	"net/smtp"
)

// ErrNotConfigured is returned when no SMTP server is set up.
var ErrNotConfigured = errors.New("email: SMTP is not configured")

// EmailConfig holds SMTP configuration
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromName     string
	FromEmail    string
}

// ReceiptLine is one pre-formatted line of a receipt e-mail.
type ReceiptLine struct {
	Index    int
	Name     string
	Quantity int
	Price    string
	Total    string
}

// ReceiptEmail is the pre-formatted content of a receipt e-mail. Money values
// already carry the store's currency symbol.
type ReceiptEmail struct {
	StoreName      string
	CustomerName   string
	CustomerMobile string
	Date           string
	Lines          []ReceiptLine
	Total          string
	Note           string
}

// SendFunc matches smtp.SendMail.
type SendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailService handles email sending
type EmailService struct {
	config EmailConfig
	send   SendFunc
	tmpl   *template.Template
}

// NewEmailService creates a new email service
func NewEmailService(config EmailConfig) *EmailService {
	return &EmailService{
		config: config,
		send:   smtp.SendMail,
		tmpl:   template.Must(template.New("receipt").Parse(receiptTemplate)),
	}
}

// WithSender replaces the SMTP transport.
func (s *EmailService) WithSender(send SendFunc) *EmailService {
	s.send = send
	return s
}

// IsConfigured reports whether an SMTP server and sender are set.
func (s *EmailService) IsConfigured() bool {
	return s.config.SMTPHost != "" && s.config.FromEmail != ""
}

// SendReceiptEmail e-mails a receipt to a customer
func (s *EmailService) SendReceiptEmail(ctx context.Context, toEmail string, receipt ReceiptEmail) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return fmt.Errorf("email: invalid recipient %q: %w", toEmail, err)
	}

	htmlContent, err := s.RenderReceipt(receipt)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	subject := fmt.Sprintf("Your receipt from %s", receipt.StoreName)
	message := s.buildHTMLEmail(toEmail, subject, htmlContent)

	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sendEmail(toEmail, message)
}

// sendEmail sends an email using SMTP
func (s *EmailService) sendEmail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", s.config.SMTPHost, s.config.SMTPPort)

	var auth smtp.Auth
	if s.config.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, s.config.SMTPHost)
	}

	if err := s.send(addr, auth, s.config.FromEmail, []string{to}, message); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// buildHTMLEmail builds an HTML email message
func (s *EmailService) buildHTMLEmail(to, subject, htmlBody string) []byte {
	from := mail.Address{Name: s.config.FromName, Address: s.config.FromEmail}
	headers := fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n",
		from.String(),
		to,
		mime.QEncoding.Encode("utf-8", subject),
	)

	return []byte(headers + htmlBody)
}

// RenderReceipt renders the receipt e-mail body
func (s *EmailService) RenderReceipt(receipt ReceiptEmail) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, receipt); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// receiptTemplate is the HTML template for receipt emails
const receiptTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.StoreName}} Receipt</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; background-color: #f4f7fa;">
    <table role="presentation" style="width: 100%; border-collapse: collapse;">
        <tr>
            <td style="padding: 40px 0;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; overflow: hidden;">
                    <tr>
                        <td style="background-color: #2f855a; padding: 30px; text-align: center;">
                            <h1 style="color: #ffffff; margin: 0; font-size: 26px;">{{.StoreName}}</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 30px;">
                            <p style="color: #4a5568; font-size: 15px; margin: 0 0 6px 0;">Customer: <strong>{{if .CustomerName}}{{.CustomerName}}{{else}}N/A{{end}}</strong></p>
                            <p style="color: #4a5568; font-size: 15px; margin: 0 0 6px 0;">Mobile: {{if .CustomerMobile}}{{.CustomerMobile}}{{else}}N/A{{end}}</p>
                            <p style="color: #4a5568; font-size: 15px; margin: 0 0 20px 0;">Date: {{.Date}}</p>
                            <table role="presentation" style="width: 100%; border-collapse: collapse; font-size: 14px; color: #1a202c;">
                                <tr style="border-bottom: 1px solid #e2e8f0;">
                                    <th align="left" style="padding: 8px 0;">Item</th>
                                    <th align="right" style="padding: 8px 0;">Qty</th>
                                    <th align="right" style="padding: 8px 0;">Price</th>
                                    <th align="right" style="padding: 8px 0;">Amount</th>
                                </tr>
                                {{range .Lines}}
                                <tr style="border-bottom: 1px solid #edf2f7;">
                                    <td style="padding: 8px 0;">{{.Index}}. {{.Name}}</td>
                                    <td align="right">{{.Quantity}}</td>
                                    <td align="right">{{.Price}}</td>
                                    <td align="right">{{.Total}}</td>
                                </tr>
                                {{end}}
                                <tr>
                                    <td colspan="3" style="padding: 12px 0; font-weight: 600;">Total</td>
                                    <td align="right" style="padding: 12px 0; font-weight: 600;">{{.Total}}</td>
                                </tr>
                            </table>
                            {{if .Note}}<p style="color: #718096; font-size: 14px; margin: 20px 0 0 0;">{{.Note}}</p>{{end}}
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>
`
