package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
)

type JobRunRepository struct {
	mu   sync.RWMutex
	runs map[string]job.JobRun
}

func NewJobRunRepository() *JobRunRepository {
	return &JobRunRepository{runs: make(map[string]job.JobRun)}
}

func (r *JobRunRepository) Create(ctx context.Context, run job.JobRun) (job.JobRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return run, nil
}

func (r *JobRunRepository) GetByID(ctx context.Context, id string) (job.JobRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return job.JobRun{}, job.ErrJobNotFound
	}
	return run, nil
}

func (r *JobRunRepository) MarkRunning(ctx context.Context, id string) error {
	return r.update(id, func(run *job.JobRun) {
		now := time.Now().UTC()
		run.Status = job.StatusRunning
		run.StartedAt = &now
	})
}

func (r *JobRunRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.update(id, func(run *job.JobRun) { run.Progress = progress })
}

func (r *JobRunRepository) Finish(ctx context.Context, id string, status job.Status, details json.RawMessage, errMsg *string) error {
	return r.update(id, func(run *job.JobRun) {
		now := time.Now().UTC()
		run.Status = status
		run.Details = details
		run.Error = errMsg
		run.CompletedAt = &now
		if status == job.StatusCompleted {
			run.Progress = 100
		}
	})
}

func (r *JobRunRepository) update(id string, fn func(run *job.JobRun)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return job.ErrJobNotFound
	}
	fn(&run)
	r.runs[id] = run
	return nil
}
