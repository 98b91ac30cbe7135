package job

import (
	"context"
	"encoding/json"
)

type JobRunRepository interface {
	Create(ctx context.Context, run JobRun) (JobRun, error)
	GetByID(ctx context.Context, id string) (JobRun, error)
	MarkRunning(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	Finish(ctx context.Context, id string, status Status, details json.RawMessage, errMsg *string) error
}
