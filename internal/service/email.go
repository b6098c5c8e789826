package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// MailSender delivers one rendered plain-text message.
type MailSender interface {
	Send(ctx context.Context, to, toName, subject, body string) error
}

type smtpSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewSMTPSender(cfg config.SMTPConfig, from string) MailSender {
	return &smtpSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.User,
		password: cfg.Password,
		from:     from,
	}
}

func (s *smtpSender) Send(ctx context.Context, to, toName, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetAddressHeader("To", to, toName)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.host, s.port, s.username, s.password)

	logger.ExternalServiceCall("smtp", "DialAndSend", "to", to)
	err := d.DialAndSend(m)
	logger.ExternalServiceResult("smtp", "DialAndSend", err)
	if err != nil {
		return fmt.Errorf("failed to send email via gomail: %w", err)
	}
	return nil
}

type sendGridSender struct {
	apiKey    string
	fromEmail string
	fromName  string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) MailSender {
	return &sendGridSender{apiKey: apiKey, fromEmail: fromEmail, fromName: fromName}
}

func (s *sendGridSender) Send(ctx context.Context, to, toName, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail(toName, to)
	message := mail.NewSingleEmail(from, subject, recipient, body, "")

	client := sendgrid.NewSendClient(s.apiKey)
	logger.ExternalServiceCall("sendgrid", "Send", "to", to)
	response, err := client.Send(message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "Send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "Send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "Send", nil, "status", response.StatusCode)
	return nil
}

// logSender only logs messages. Used in development.
type logSender struct{}

func NewLogSender() MailSender {
	return logSender{}
}

func (logSender) Send(ctx context.Context, to, toName, subject, body string) error {
	logger.InfoContext(ctx, "Email (log provider)", "to", to, "subject", subject, "body", body)
	return nil
}

// NewMailSender picks the sender configured in cfg.Provider.
func NewMailSender(cfg config.EmailConfig) (MailSender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg.SMTP, cfg.From), nil
	case "sendgrid":
		return NewSendGridSender(cfg.SendGrid.APIKey, cfg.From, cfg.FromName), nil
	case "log", "":
		return NewLogSender(), nil
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Provider)
	}
}

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New(name + ".subject").Parse(subject)),
		body:    template.Must(template.New(name + ".body").Parse(body)),
	}
}

const signature = "\n\nBest regards,\nThe {{.AppName}} Team"

var emailTemplates = map[string]emailTemplate{
	"welcome": mustTemplate("welcome",
		`Welcome to {{.AppName}}`,
		`Hello {{.Name}},

Your account has been created.{{if .Pending}} A member of our team will validate it shortly; you will be notified by email once it is reviewed.{{else}} You can start browsing equipment right away.{{end}}`+signature),

	"account_decision": mustTemplate("account_decision",
		`Your {{.AppName}} account was {{if .Approved}}approved{{else}}rejected{{end}}`,
		`Hello {{.Name}},

{{if .Approved}}Your landlord account has been approved. You can now publish equipment.{{else}}Your landlord account was not approved.{{if .Reason}}

Reason: {{.Reason}}{{end}}{{end}}`+signature),

	"listing_decision": mustTemplate("listing_decision",
		`Listing "{{.Title}}" {{if .Approved}}approved{{else}}rejected{{end}}`,
		`Hello {{.Name}},

{{if .Approved}}Your listing "{{.Title}}" is now live and available for rental.{{else}}Your listing "{{.Title}}" was rejected by our moderators.

Reason: {{.Reason}}{{end}}`+signature),

	"edit_decision": mustTemplate("edit_decision",
		`Changes to "{{.Title}}" {{if .Approved}}approved{{else}}rejected{{end}}`,
		`Hello {{.Name}},

{{if .Approved}}The changes you proposed to "{{.Title}}" were approved and are now published.{{else}}The changes you proposed to "{{.Title}}" were rejected.

Reason: {{.Reason}}{{end}}`+signature),

	"rental_request": mustTemplate("rental_request",
		`New rental request {{.Reference}}`,
		`Hello {{.Name}},

{{.RenterName}} wants to rent "{{.Title}}" (reference {{.Reference}}) for a total of {{.Total}}.
Please approve or reject the request from your dashboard.`+signature),

	"rental_status": mustTemplate("rental_status",
		`Rental {{.Reference}} is now {{.Status}}`,
		`Hello {{.Name}},

The rental {{.Reference}} of "{{.Title}}" is now {{.Status}}.{{if .Note}}

Note: {{.Note}}{{end}}`+signature),

	"receipt_decision": mustTemplate("receipt_decision",
		`Payment receipt for {{.Reference}} {{if .Approved}}approved{{else}}rejected{{end}}`,
		`Hello {{.Name}},

{{if .Approved}}Your payment receipt for rental {{.Reference}} was approved. The rental is now paid.{{else}}Your payment receipt for rental {{.Reference}} was rejected. Please upload a valid receipt.{{if .Reason}}

Reason: {{.Reason}}{{end}}{{end}}`+signature),
}

type emailService struct {
	sender  MailSender
	appName string
}

func NewEmailService(sender MailSender, appName string) EmailService {
	if appName == "" {
		appName = "EquipRent"
	}
	return &emailService{sender: sender, appName: appName}
}

func (s *emailService) send(ctx context.Context, tmpl, to, name string, data map[string]any) error {
	t, ok := emailTemplates[tmpl]
	if !ok {
		return fmt.Errorf("unknown email template %q", tmpl)
	}
	data["AppName"] = s.appName
	data["Name"] = name

	var subject, body bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return fmt.Errorf("failed to render %s subject: %w", tmpl, err)
	}
	if err := t.body.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render %s body: %w", tmpl, err)
	}
	return s.sender.Send(ctx, to, name, strings.TrimSpace(subject.String()), body.String())
}

func (s *emailService) SendWelcome(ctx context.Context, to, name string, pendingValidation bool) error {
	return s.send(ctx, "welcome", to, name, map[string]any{"Pending": pendingValidation})
}

func (s *emailService) SendAccountDecision(ctx context.Context, to, name string, approved bool, reason string) error {
	return s.send(ctx, "account_decision", to, name, map[string]any{"Approved": approved, "Reason": reason})
}

func (s *emailService) SendListingDecision(ctx context.Context, to, name, title string, approved bool, reason string) error {
	return s.send(ctx, "listing_decision", to, name, map[string]any{"Title": title, "Approved": approved, "Reason": reason})
}

func (s *emailService) SendEditDecision(ctx context.Context, to, name, title string, approved bool, reason string) error {
	return s.send(ctx, "edit_decision", to, name, map[string]any{"Title": title, "Approved": approved, "Reason": reason})
}

func (s *emailService) SendRentalRequest(ctx context.Context, to, ownerName, renterName, title, reference string, total decimal.Decimal) error {
	return s.send(ctx, "rental_request", to, ownerName, map[string]any{
		"RenterName": renterName,
		"Title":      title,
		"Reference":  reference,
		"Total":      total.StringFixed(2),
	})
}

func (s *emailService) SendRentalStatus(ctx context.Context, to, name, title, reference string, status domain.RentalStatus, note string) error {
	return s.send(ctx, "rental_status", to, name, map[string]any{
		"Title":     title,
		"Reference": reference,
		"Status":    strings.ToLower(string(status)),
		"Note":      note,
	})
}

func (s *emailService) SendReceiptDecision(ctx context.Context, to, name, reference string, approved bool, reason string) error {
	return s.send(ctx, "receipt_decision", to, name, map[string]any{"Reference": reference, "Approved": approved, "Reason": reason})
}
