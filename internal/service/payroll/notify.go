package payroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/payroll"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/email"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/pdf"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/storage"
)

// EmailPayslip implements payroll.PayrollService. The payslip itself is never changed by a
// failed send.
func (s *PayrollServiceImpl) EmailPayslip(ctx context.Context, id string) error {
	p, err := s.payslips.GetByID(ctx, id)
	if err != nil {
		return err
	}
	emp, err := s.employees.GetByID(ctx, p.EmployeeID)
	if err != nil {
		return err
	}
	if emp.PersonalEmail == nil || *emp.PersonalEmail == "" {
		return fmt.Errorf("%w: %s", payroll.ErrNoEmailAddress, emp.ID)
	}

	doc, err := s.storePDF(ctx, p)
	if err != nil {
		return err
	}

	monthName := time.Month(p.Month).String()
	err = s.emailService.SendPayslip(ctx, email.PayslipEmail{
		To:           *emp.PersonalEmail,
		EmployeeName: p.EmployeeName,
		MonthName:    monthName,
		Year:         p.Year,
		NetPayable:   p.NetPayable.StringFixed(2),
		PDF:          doc,
		PDFName:      fmt.Sprintf("payslip-%s-%04d-%02d.pdf", emp.ID, p.Year, p.Month),
	})
	if err != nil {
		return fmt.Errorf("failed to send payslip email: %w", err)
	}

	if err := s.payslips.MarkEmailed(ctx, p.ID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to mark payslip emailed: %w", err)
	}
	slog.Info("payslip emailed", "payslip_id", p.ID, "employee_id", emp.ID)
	return nil
}

// PayslipPDF implements payroll.PayrollService. A submitted payslip reuses its stored
// document; drafts are rendered again since they may have been regenerated.
func (s *PayrollServiceImpl) PayslipPDF(ctx context.Context, id string) ([]byte, error) {
	p, err := s.payslips.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status == payroll.StatusSubmitted && p.PDFKey != nil {
		doc, err := s.download(ctx, *p.PDFKey)
		if err == nil {
			return doc, nil
		}
		if !errors.Is(err, storage.ErrFileNotFound) {
			return nil, err
		}
	}
	return s.storePDF(ctx, p)
}

func (s *PayrollServiceImpl) storePDF(ctx context.Context, p payroll.Payslip) ([]byte, error) {
	doc, err := pdf.RenderPayslip(p)
	if err != nil {
		return nil, fmt.Errorf("failed to render payslip pdf: %w", err)
	}
	key := storage.PayslipPDFKey(p.Year, p.Month, p.ID)
	if _, err := s.storage.Upload(ctx, bytes.NewReader(doc), key, "application/pdf"); err != nil {
		return nil, fmt.Errorf("failed to store payslip pdf: %w", err)
	}
	if err := s.payslips.SetPDFKey(ctx, p.ID, key); err != nil {
		return nil, fmt.Errorf("failed to save payslip pdf key: %w", err)
	}
	return doc, nil
}

func (s *PayrollServiceImpl) download(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
