package attendance

import "context"

type AttendanceService interface {
	// Preview extracts and reconciles uploaded files without writing anything.
	Preview(ctx context.Context, req ImportRequest) (PreviewResponse, error)
	Validate(ctx context.Context, req RecordsRequest) (ValidateResponse, error)
	// Commit queues the insert of the valid rows and returns the job id.
	Commit(ctx context.Context, req RecordsRequest) (CommitResponse, error)
	Export(ctx context.Context, req RecordsRequest) ([]byte, error)
	Correct(ctx context.Context, req CorrectionRequest) (RecordRow, error)
	ApproveSelfAttendance(ctx context.Context, req SelfAttendanceRequest) (SelfAttendanceResponse, error)
}
