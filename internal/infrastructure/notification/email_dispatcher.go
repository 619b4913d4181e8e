package notification

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	appinvoicing "github.com/dormbill/backend/internal/application/invoicing"
	"github.com/dormbill/backend/internal/infrastructure/config"
)

// MethodEmail mails the printed invoice to the tenant
const MethodEmail = "email"

// ErrNoRecipient is returned when the tenant has no email address on file
var ErrNoRecipient = errors.New("tenant has no email address")

// MailSender submits one raw RFC 5322 message
type MailSender interface {
	Send(ctx context.Context, from, to string, message []byte) error
}

// EmailDispatcher prints invoices and mails them as a PDF attachment
type EmailDispatcher struct {
	printer *Printer
	sender  MailSender
	from    string
	now     func() time.Time
}

// NewEmailDispatcher creates a new EmailDispatcher
func NewEmailDispatcher(printer *Printer, sender MailSender, from string) *EmailDispatcher {
	return &EmailDispatcher{printer: printer, sender: sender, from: from, now: time.Now}
}

// Method implements appinvoicing.Dispatcher
func (d *EmailDispatcher) Method() string {
	return MethodEmail
}

// Dispatch prints doc and mails it to the tenant
func (d *EmailDispatcher) Dispatch(ctx context.Context, doc appinvoicing.InvoiceDocument) (appinvoicing.DispatchResult, error) {
	if doc.TenantEmail == "" {
		return appinvoicing.DispatchResult{}, ErrNoRecipient
	}
	pdf, err := d.printer.Print(ctx, doc)
	if err != nil {
		return appinvoicing.DispatchResult{}, err
	}

	msg, err := d.compose(doc, pdf)
	if err != nil {
		return appinvoicing.DispatchResult{}, err
	}
	if err := d.sender.Send(ctx, d.from, doc.TenantEmail, msg); err != nil {
		return appinvoicing.DispatchResult{}, fmt.Errorf("failed to send invoice %s: %w", doc.Invoice.InvoiceNumber, err)
	}
	return appinvoicing.DispatchResult{
		Recipient: doc.TenantEmail,
		Location:  "mailto:" + doc.TenantEmail,
	}, nil
}

// compose builds a multipart/mixed message: a plain text body followed by
// the PDF.
func (d *EmailDispatcher) compose(doc appinvoicing.InvoiceDocument, pdf []byte) ([]byte, error) {
	inv := doc.Invoice
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	subject := fmt.Sprintf("Invoice %s for %s", inv.InvoiceNumber, inv.BillMonth)
	fmt.Fprintf(&buf, "From: %s\r\n", d.from)
	fmt.Fprintf(&buf, "To: %s\r\n", doc.TenantEmail)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", d.now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%s\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, err
	}
	greeting := "Hello"
	if doc.TenantName != "" {
		greeting += " " + doc.TenantName
	}
	fmt.Fprintf(text, "%s,\r\n\r\nYour invoice %s for room %s is attached.\r\n", greeting, inv.InvoiceNumber, doc.RoomName)
	fmt.Fprintf(text, "Amount due: %s, payable by %s.\r\n", inv.Balance.StringFixed(2), inv.DueDate)

	attachment, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"application/pdf"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {fmt.Sprintf("attachment; filename=%q", inv.InvoiceNumber+".pdf")},
	})
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(pdf)
	for len(encoded) > 76 {
		attachment.Write([]byte(encoded[:76] + "\r\n"))
		encoded = encoded[76:]
	}
	attachment.Write([]byte(encoded + "\r\n"))

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ appinvoicing.Dispatcher = (*EmailDispatcher)(nil)

// SMTPSender delivers mail over SMTP, upgrading with STARTTLS when the
// server offers it
type SMTPSender struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

// NewSMTPSender creates a new SMTPSender
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, timeout: 30 * time.Second}
}

// Send implements MailSender
func (s *SMTPSender) Send(ctx context.Context, from, to string, message []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	dialer := &net.Dialer{Timeout: s.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return client.Quit()
}
