// Package notify mails run reports.
package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"wastenot-e2e/internal/components/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("wastenot/notify")

const report_mailer_send = "mailer.send"

type Config struct {
	Server       string   `json:"server"`
	Port         int      `json:"port"`
	EmailAddress string   `json:"email_address"`
	Password     string   `json:"password"`
	FromName     string   `json:"from_name"`
	To           []string `json:"to"`
}

func (c Config) Enabled() bool {
	return c.Server != "" && len(c.To) > 0
}

func (c Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("notify: server is required")
	}
	if c.Port <= 0 {
		return fmt.Errorf("notify: port must be positive, got %d", c.Port)
	}
	if c.EmailAddress == "" {
		return fmt.Errorf("notify: email_address is required")
	}
	if len(c.To) == 0 {
		return fmt.Errorf("notify: at least one recipient is required")
	}
	return nil
}

type sendFunc func(mail *email.Email, addr string, auth smtp.Auth) error

func sendMail(mail *email.Email, addr string, auth smtp.Auth) error {
	return mail.Send(addr, auth)
}

type Mailer struct {
	config Config
	send   sendFunc
	tel    telemetry.API
}

func NewMailer(config Config, tel telemetry.API) (Mailer, error) {
	err := config.Validate()
	if err != nil {
		return Mailer{}, err
	}
	if config.FromName == "" {
		config.FromName = "WasteNot E2E"
	}
	return Mailer{
		config: config,
		send:   sendMail,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}, nil
}

// Send mails a plain text message to every recipient. Servers that do not
// support AUTH are retried without it.
func (m Mailer) Send(ctx context.Context, subject, body string) error {
	_, span := tracer.Start(ctx, "Send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", m.config.FromName, m.config.EmailAddress)
	mail.To = m.config.To
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", m.config.Server, m.config.Port)
	err := m.send(
		mail,
		addr,
		smtp.PlainAuth("", m.config.EmailAddress, m.config.Password, m.config.Server),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		m.tel.ReportDebug("smtp server has no AUTH, retrying without", addr)
		err = m.send(mail, addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		m.tel.ReportBroken(report_mailer_send, err, addr)
		return err
	}
	return nil
}
