package payroll

import (
	"context"
	"time"
)

type PayslipRepository interface {
	// GetByID returns the payslip with its line items, or ErrPayslipNotFound.
	GetByID(ctx context.Context, id string) (Payslip, error)

	// GetForUpdate returns the payslip of an employee-month, or nil, locking it for the
	// surrounding transaction.
	GetForUpdate(ctx context.Context, employeeID string, year, month int) (*Payslip, error)

	Create(ctx context.Context, p Payslip) (Payslip, error)

	// UpdateHeader overwrites every header field of a draft payslip.
	UpdateHeader(ctx context.Context, p Payslip) error

	// ReplaceLineItems deletes the payslip's line items and inserts items.
	ReplaceLineItems(ctx context.Context, payslipID string, items []LineItem) error

	// Submit locks a draft payslip. A submitted payslip fails with ErrPayslipSubmitted.
	Submit(ctx context.Context, id string) error

	// SumLatesForgiven adds up LatesForgiven of the employee's payslips for months starting in [from, to).
	SumLatesForgiven(ctx context.Context, employeeID string, from, to time.Time) (int, error)

	SetPDFKey(ctx context.Context, id string, key string) error
	MarkEmailed(ctx context.Context, id string, at time.Time) error
}
