package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/jimlawless/whereami"
	"gopkg.in/gomail.v2"
)

// Sender — транспорт отправки. В проде это *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer собирает HTML-письма администраторам и отправляет их по SMTP.
type SMTPMailer struct {
	sender Sender
	from   string
	logger logger.Logger
}

func NewSMTPMailer(cfg *cfg.MailCfg, logger logger.Logger) *SMTPMailer {
	return NewMailer(gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password), cfg.From, logger)
}

func NewMailer(sender Sender, from string, logger logger.Logger) *SMTPMailer {
	return &SMTPMailer{
		sender: sender,
		from:   from,
		logger: logger,
	}
}

func FirstPurchaseSubject(msg *usecase.FirstPurchaseEmail) string {
	if msg.IsCreator {
		return fmt.Sprintf("First purchase of your product %s", msg.Product.Name)
	}

	return fmt.Sprintf("New first purchase of the product: %s", msg.Product.Name)
}

func DailyReportSubject(msg *usecase.DailyReportEmail) string {
	return fmt.Sprintf("Reporte diario de compras - %s", msg.Report.Date.Format("02/01/2006"))
}

func (s *SMTPMailer) SendFirstPurchase(ctx context.Context, msg *usecase.FirstPurchaseEmail) error {
	return s.send(ctx, msg.Admin.Email, FirstPurchaseSubject(msg), firstPurchaseTmpl, msg)
}

func (s *SMTPMailer) SendDailyReport(ctx context.Context, msg *usecase.DailyReportEmail) error {
	return s.send(ctx, msg.Admin.Email, DailyReportSubject(msg), dailyReportTmpl, msg)
}

func (s *SMTPMailer) send(ctx context.Context, to, subject string, tmpl *template.Template, data any) error {
	if err := ctx.Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.sender.DialAndSend(m); err != nil {
		return &e.NotificationDeliveryError{Recipient: to, Err: err}
	}

	s.logger.Debugf("Mail %q sent to %s", subject, to)
	return nil
}
