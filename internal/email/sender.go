// Package email sends support ticket notifications over SMTP.
package email

import (
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"smartchat/internal/config"
)

// Sender delivers ticket notification mail to the support inbox.
type Sender struct {
	cfg config.SMTPConfig
}

// NewSender creates a Sender from SMTP configuration.
func NewSender(cfg config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Enabled reports whether outbound mail is configured.
func (s *Sender) Enabled() bool {
	return s.cfg.Enabled && s.cfg.Host != "" && s.cfg.RecipientEmail != ""
}

// SendTicketNotification mails the support inbox about a newly created
// ticket. The caller treats failures as non-fatal: the ticket is already
// stored.
func (s *Sender) SendTicketNotification(userName, userEmail, subject, message string, ticketID uint) error {
	if !s.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}

	var body strings.Builder
	fmt.Fprintf(&body, "From: %s\r\n", s.cfg.SenderEmail)
	fmt.Fprintf(&body, "To: %s\r\n", s.cfg.RecipientEmail)
	fmt.Fprintf(&body, "Subject: New Support Ticket #%d: %s\r\n", ticketID, subject)
	body.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&body, "New Support Ticket #%d\n\n", ticketID)
	fmt.Fprintf(&body, "From: %s\nEmail: %s\nSubject: %s\nDate: %s\n\n", userName, userEmail, subject, time.Now().Format("January 2, 2006 at 3:04 PM"))
	fmt.Fprintf(&body, "Message:\n%s\n\n---\nThis is an automated notification. Please respond to the user at %s\n", message, userEmail)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := smtp.SendMail(addr, auth, s.cfg.SenderEmail, []string{s.cfg.RecipientEmail}, []byte(body.String())); err != nil {
		return fmt.Errorf("failed to send ticket notification: %w", err)
	}
	return nil
}
