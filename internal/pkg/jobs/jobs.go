package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
)

var ErrQueueFull = errors.New("job queue full")

// Progress reports done out of total units of work.
type Progress func(done, total int)

// Func is the body of a deferred job. Its return value is stored as the run details.
type Func func(ctx context.Context, progress Progress) (any, error)

type queued struct {
	id      string
	jobType string
	fn      Func
}

// Runner executes jobs on a single background worker and records every run in job_runs.
type Runner struct {
	runs  job.JobRunRepository
	queue chan queued
	wg    sync.WaitGroup
}

func NewRunner(runs job.JobRunRepository, size int) *Runner {
	if size <= 0 {
		size = 128
	}
	return &Runner{runs: runs, queue: make(chan queued, size)}
}

// Start runs the worker until ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	r.wg.Add(1)
	go r.worker(ctx)
}

// Wait blocks until the worker has exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Enqueue records a queued run and hands fn to the worker. It never blocks on the job itself.
func (r *Runner) Enqueue(ctx context.Context, jobType string, fn Func) (string, error) {
	run, err := r.runs.Create(ctx, job.JobRun{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      jobType,
		Status:    job.StatusQueued,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to record job run: %w", err)
	}

	select {
	case r.queue <- queued{id: run.ID, jobType: jobType, fn: fn}:
		return run.ID, nil
	default:
		slog.Warn("job queue full", "job_type", jobType, "job_id", run.ID)
		msg := ErrQueueFull.Error()
		if err := r.runs.Finish(ctx, run.ID, job.StatusFailed, nil, &msg); err != nil {
			slog.Warn("job run update failed", "job_id", run.ID, "error", err)
		}
		return "", ErrQueueFull
	}
}

// RunNow executes fn synchronously, still recording the run.
func (r *Runner) RunNow(ctx context.Context, jobType string, fn Func) (string, any, error) {
	run, err := r.runs.Create(ctx, job.JobRun{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      jobType,
		Status:    job.StatusQueued,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to record job run: %w", err)
	}
	details, err := r.runJob(ctx, queued{id: run.ID, jobType: jobType, fn: fn})
	return run.ID, details, err
}

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case q := <-r.queue:
			if _, err := r.runJob(ctx, q); err != nil {
				slog.Warn("job run failed", "job_type", q.jobType, "job_id", q.id, "error", err)
			}
		}
	}
}

func (r *Runner) runJob(ctx context.Context, q queued) (any, error) {
	if err := r.runs.MarkRunning(ctx, q.id); err != nil {
		slog.Warn("job run update failed", "job_id", q.id, "error", err)
	}
	slog.Info("job started", "job_type", q.jobType, "job_id", q.id)
	start := time.Now()

	last := -1
	progress := func(done, total int) {
		if total <= 0 {
			return
		}
		pct := done * 100 / total
		if pct == last {
			return
		}
		last = pct
		if err := r.runs.UpdateProgress(ctx, q.id, pct); err != nil {
			slog.Warn("job progress update failed", "job_id", q.id, "error", err)
		}
	}

	details, err := q.fn(ctx, progress)

	status := job.StatusCompleted
	var errMsg *string
	if err != nil {
		status = job.StatusFailed
		msg := err.Error()
		errMsg = &msg
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "job_id", q.id, "error", marshalErr)
		detailsJSON = []byte("{}")
	}
	if updErr := r.runs.Finish(ctx, q.id, status, detailsJSON, errMsg); updErr != nil {
		slog.Warn("job run update failed", "job_id", q.id, "error", updErr)
	}
	slog.Info("job finished", "job_type", q.jobType, "job_id", q.id, "status", status, "duration", time.Since(start))
	return details, err
}

// Get returns the recorded state of a run.
func (r *Runner) Get(ctx context.Context, id string) (job.JobRunResponse, error) {
	run, err := r.runs.GetByID(ctx, id)
	if err != nil {
		return job.JobRunResponse{}, err
	}
	return job.ToResponse(run), nil
}
