package queue

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/vineetmn/spice-outreach/internal/models"
	"github.com/vineetmn/spice-outreach/internal/notifier"
	"github.com/vineetmn/spice-outreach/internal/util"
)

// Settings keys for the email sender.
const (
	SettingSMTPHost     = "smtp_host"
	SettingSMTPPort     = "smtp_port"
	SettingSMTPUsername = "smtp_username"
	SettingSMTPPassword = "smtp_password"
	SettingSMTPFrom     = "smtp_from"
)

// SettingGetter supplies runtime configuration such as SMTP credentials.
type SettingGetter interface {
	Get(key, def string) string
}

// EmailSender delivers outreach email over SMTP. Credentials are read per
// send from the settings store.
type EmailSender struct {
	settings SettingGetter
}

func NewEmailSender(settings SettingGetter) *EmailSender {
	return &EmailSender{settings: settings}
}

func (e *EmailSender) Send(ctx context.Context, contact *models.Contact, subject, body string) error {
	if contact.Email == "" {
		return fmt.Errorf("contact %d has no email address", contact.ID)
	}

	host := e.settings.Get(SettingSMTPHost, "")
	if host == "" {
		return fmt.Errorf("setting %q is not configured", SettingSMTPHost)
	}
	port := e.settings.Get(SettingSMTPPort, "587")
	username := e.settings.Get(SettingSMTPUsername, "")
	password := e.settings.Get(SettingSMTPPassword, "")
	from := e.settings.Get(SettingSMTPFrom, username)

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", contact.Email)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	if err := smtp.SendMail(host+":"+port, auth, from, []string{contact.Email}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", contact.Email, err)
	}
	return nil
}

// WhatsAppSender adapts a notifier transport to the outreach queue.
type WhatsAppSender struct {
	transport notifier.Transport
}

func NewWhatsAppSender(transport notifier.Transport) *WhatsAppSender {
	return &WhatsAppSender{transport: transport}
}

func (w *WhatsAppSender) Send(ctx context.Context, contact *models.Contact, subject, body string) error {
	number := contact.WhatsApp
	if number == "" {
		number = contact.Phone
	}
	if number == "" {
		return fmt.Errorf("contact %d has no whatsapp number", contact.ID)
	}
	return w.transport.Send(ctx, util.NormalizePhone(number), body)
}
