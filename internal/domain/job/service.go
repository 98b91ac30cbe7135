package job

import "context"

// JobService exposes the state of background runs.
type JobService interface {
	Get(ctx context.Context, id string) (JobRunResponse, error)
}
