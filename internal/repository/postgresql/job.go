package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pinnacle-hris/payroll-engine/internal/domain/job"
	"github.com/pinnacle-hris/payroll-engine/internal/pkg/database"
)

type jobRunRepositoryImpl struct {
	db *database.DB
}

func NewJobRunRepository(db *database.DB) job.JobRunRepository {
	return &jobRunRepositoryImpl{db: db}
}

// Create implements job.JobRunRepository.
func (r *jobRunRepositoryImpl) Create(ctx context.Context, run job.JobRun) (job.JobRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO job_runs (id, type, status, progress, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query, run.ID, run.Type, run.Status, run.Progress, nullJSON(run.Details)).Scan(&run.CreatedAt)
	if err != nil {
		return job.JobRun{}, fmt.Errorf("failed to create job run: %w", err)
	}
	return run, nil
}

// GetByID implements job.JobRunRepository.
func (r *jobRunRepositoryImpl) GetByID(ctx context.Context, id string) (job.JobRun, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, type, status, progress, details, error, created_at, started_at, completed_at
		FROM job_runs
		WHERE id = $1
	`

	var (
		run     job.JobRun
		details []byte
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Type, &run.Status, &run.Progress, &details, &run.Error,
		&run.CreatedAt, &run.StartedAt, &run.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.JobRun{}, job.ErrJobNotFound
		}
		return job.JobRun{}, fmt.Errorf("failed to get job run with id %s: %w", id, err)
	}
	if len(details) > 0 {
		run.Details = json.RawMessage(details)
	}
	return run, nil
}

// MarkRunning implements job.JobRunRepository.
func (r *jobRunRepositoryImpl) MarkRunning(ctx context.Context, id string) error {
	return r.exec(ctx, id, `UPDATE job_runs SET status = $1, started_at = NOW() WHERE id = $2`, job.StatusRunning, id)
}

// UpdateProgress implements job.JobRunRepository.
func (r *jobRunRepositoryImpl) UpdateProgress(ctx context.Context, id string, progress int) error {
	return r.exec(ctx, id, `UPDATE job_runs SET progress = $1 WHERE id = $2`, progress, id)
}

// Finish implements job.JobRunRepository.
func (r *jobRunRepositoryImpl) Finish(ctx context.Context, id string, status job.Status, details json.RawMessage, errMsg *string) error {
	query := `
		UPDATE job_runs
		SET status = $1, details = $2, error = $3, completed_at = NOW(),
			progress = CASE WHEN $1 = 'completed' THEN 100 ELSE progress END
		WHERE id = $4
	`
	return r.exec(ctx, id, query, status, nullJSON(details), errMsg, id)
}

func (r *jobRunRepositoryImpl) exec(ctx context.Context, id, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update job run with id %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// nullJSON keeps empty details as SQL NULL rather than an invalid JSONB value.
func nullJSON(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
