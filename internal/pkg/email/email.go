package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/pinnacle-hris/payroll-engine/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

// EmailService defines the interface for sending emails
type EmailService interface {
	SendPayslip(ctx context.Context, p PayslipEmail) error
}

type emailServiceImpl struct {
	cfg       config.SMTPConfig
	mailer    Mailer
	templates *template.Template
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig, mailer Mailer) (EmailService, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	return &emailServiceImpl{
		cfg:       cfg,
		mailer:    mailer,
		templates: tmpl,
	}, nil
}

type PayslipEmail struct {
	To           string
	EmployeeName string
	MonthName    string
	Year         int
	NetPayable   string
	PDF          []byte
	PDFName      string
}

// PayslipSubject is the subject line of a payslip email.
func PayslipSubject(employeeName, monthName string, year int) string {
	return fmt.Sprintf("Pay Slip for %s - %s %d", employeeName, monthName, year)
}

// SendPayslip sends the payslip PDF to the employee
func (s *emailServiceImpl) SendPayslip(ctx context.Context, p PayslipEmail) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, "payslip.html", p); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	msg := Message{
		From:     s.cfg.From,
		FromName: s.cfg.FromName,
		To:       []string{p.To},
		Subject:  PayslipSubject(p.EmployeeName, p.MonthName, p.Year),
		HTML:     body.String(),
	}
	if len(p.PDF) > 0 {
		msg.Attachments = []Attachment{{Filename: p.PDFName, ContentType: "application/pdf", Content: p.PDF}}
	}
	return s.mailer.Send(ctx, msg)
}
