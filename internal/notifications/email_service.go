package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"
	"time"

	"busline/pkg/logger"
)

// SMTPConfig holds SMTP configuration
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
	UseTLS    bool
}

func (c SMTPConfig) validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SMTP port must be between 1 and 65535")
	}
	if c.FromEmail == "" {
		return fmt.Errorf("from email is required")
	}
	return nil
}

var emailTemplates = map[Kind]*template.Template{
	KindTicket: template.Must(template.New("ticket").Parse(
		"Hello {{.PassengerName}},\n\nYour ticket {{.BookingRef}} is confirmed.\n" +
			"{{if .ShareURL}}View it at {{.ShareURL}}\n{{end}}" +
			"Show the QR code to the agent when boarding.\n")),
	KindReservationHold: template.Must(template.New("hold").Parse(
		"Hello {{.PassengerName}},\n\nYour seat is reserved under {{.BookingRef}}.\n" +
			"Amount due: {{.AmountDue}}.{{if .Deadline}} Pay before {{.Deadline.Format \"02 Jan 2006 15:04\"}} or the reservation expires.{{end}}\n")),
	KindBookingCancelled: template.Must(template.New("cancelled").Parse(
		"Hello {{.PassengerName}},\n\nBooking {{.BookingRef}} has been cancelled.{{if .Reason}} Reason: {{.Reason}}.{{end}}\n")),
	KindTripCancelled: template.Must(template.New("trip").Parse(
		"Hello {{.PassengerName}},\n\nThe trip {{.TripRef}} for booking {{.BookingRef}} has been cancelled by the operator.\n" +
			"Any amount paid will be refunded.\n")),
}

var emailSubjects = map[Kind]string{
	KindTicket:           "Your bus ticket",
	KindReservationHold:  "Your seat is reserved",
	KindBookingCancelled: "Booking cancelled",
	KindTripCancelled:    "Trip cancelled",
}

// SMTPDeliverer emails notifications to passengers who gave an address.
type SMTPDeliverer struct {
	config SMTPConfig
	log    *logger.Logger
	send   func(to string, message []byte) error
}

func NewSMTPDeliverer(cfg SMTPConfig) (*SMTPDeliverer, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	d := &SMTPDeliverer{config: cfg, log: logger.GetDefault().WithComponent("smtp")}
	d.send = d.sendMail
	return d, nil
}

func (d *SMTPDeliverer) Deliver(ctx context.Context, msg *Message) error {
	if msg.PassengerEmail == "" {
		d.log.Debug("no email for passenger, skipping", "booking_ref", msg.BookingRef, "kind", string(msg.Kind))
		return nil
	}
	subject, body, err := RenderEmail(msg)
	if err != nil {
		return err
	}
	return d.send(msg.PassengerEmail, d.buildMessage(msg.PassengerEmail, subject, body))
}

// RenderEmail returns the subject and plain text body for msg.
func RenderEmail(msg *Message) (string, string, error) {
	tmpl, ok := emailTemplates[msg.Kind]
	if !ok {
		return "", "", fmt.Errorf("no email template for %s", msg.Kind)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", "", fmt.Errorf("failed to render %s email: %w", msg.Kind, err)
	}
	return emailSubjects[msg.Kind] + " - " + msg.BookingRef, buf.String(), nil
}

func (d *SMTPDeliverer) buildMessage(to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", d.config.FromName, d.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

func (d *SMTPDeliverer) sendMail(to string, message []byte) error {
	addr := fmt.Sprintf("%s:%d", d.config.Host, d.config.Port)
	var auth smtp.Auth
	if d.config.Username != "" {
		auth = smtp.PlainAuth("", d.config.Username, d.config.Password, d.config.Host)
	}
	if !d.config.UseTLS {
		return smtp.SendMail(addr, auth, d.config.FromEmail, []string{to}, message)
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Quit()

	if err := client.StartTLS(&tls.Config{ServerName: d.config.Host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err := client.Mail(d.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return w.Close()
}

// LogDeliverer logs what would have been sent. Used when no SMTP server is configured.
type LogDeliverer struct {
	log *logger.Logger
}

func NewLogDeliverer() *LogDeliverer {
	return &LogDeliverer{log: logger.GetDefault().WithComponent("delivery")}
}

func (d *LogDeliverer) Deliver(ctx context.Context, msg *Message) error {
	subject, _, err := RenderEmail(msg)
	if err != nil {
		return err
	}
	d.log.Info("notification delivered", "subject", subject, "phone", msg.PassengerPhone, "email", msg.PassengerEmail)
	return nil
}
