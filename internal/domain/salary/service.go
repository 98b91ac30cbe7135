package salary

import "context"

type EncashmentService interface {
	// Eligible lists active employees whose leave encashment can be generated for year/month.
	Eligible(ctx context.Context, year, month int) ([]EligibleEmployee, error)
	Generate(ctx context.Context, req GenerateEncashmentRequest) (GenerateEncashmentResponse, error)
	// ListDue returns encashments whose next encashment date falls in year/month.
	ListDue(ctx context.Context, year, month int) ([]EncashmentResponse, error)
}

type RecurringService interface {
	Schedule(ctx context.Context, req ScheduleRequest) (ScheduleResponse, error)
}
