// internal/repository/job_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"receipt-service/internal/database"
	"receipt-service/internal/model"
)

// jobRepository implements JobRepository over Postgres
type jobRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *database.DB, logger *zap.Logger) JobRepository {
	return &jobRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new print job record
func (r *jobRepository) Create(ctx context.Context, job *model.PrintJob) error {
	query := `
		INSERT INTO print_jobs (
			id, status, receipt, paper_profile, command_count,
			started_at, connection_type, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.Status, job.Receipt, job.PaperProfile,
		job.CommandCount, job.StartedAt, job.ConnectionType, job.CreatedAt,
	)

	if err != nil {
		r.logger.Error("Failed to create print job", zap.Error(err))
		return fmt.Errorf("failed to create print job: %w", err)
	}

	return nil
}

// GetByID retrieves a print job by ID
func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PrintJob, error) {
	query := `
		SELECT id, status, receipt, paper_profile, command_count,
			   failed_command, error_kind, error_message,
			   started_at, completed_at, duration_ms, connection_type, created_at
		FROM print_jobs WHERE id = $1
	`

	job := &model.PrintJob{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.Status, &job.Receipt, &job.PaperProfile,
		&job.CommandCount, &job.FailedCommand, &job.ErrorKind, &job.ErrorMessage,
		&job.StartedAt, &job.CompletedAt, &job.DurationMs, &job.ConnectionType,
		&job.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("print job not found with id: %s", id)
		}
		return nil, fmt.Errorf("failed to get print job: %w", err)
	}

	return job, nil
}

// Update records the outcome of a print job
func (r *jobRepository) Update(ctx context.Context, job *model.PrintJob) error {
	query := `
		UPDATE print_jobs SET
			status = $2, command_count = $3, failed_command = $4,
			error_kind = $5, error_message = $6, completed_at = $7, duration_ms = $8
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		job.ID, job.Status, job.CommandCount, job.FailedCommand,
		job.ErrorKind, job.ErrorMessage, job.CompletedAt, job.DurationMs,
	)

	if err != nil {
		return fmt.Errorf("failed to update print job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("print job not found with id: %s", job.ID)
	}

	return nil
}

// List returns recent jobs, newest first
func (r *jobRepository) List(ctx context.Context, limit, offset int) ([]*model.PrintJob, error) {
	query := `
		SELECT id, status, receipt, paper_profile, command_count,
			   failed_command, error_kind, error_message,
			   started_at, completed_at, duration_ms, connection_type, created_at
		FROM print_jobs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list print jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.PrintJob
	for rows.Next() {
		job := &model.PrintJob{}
		err := rows.Scan(
			&job.ID, &job.Status, &job.Receipt, &job.PaperProfile,
			&job.CommandCount, &job.FailedCommand, &job.ErrorKind, &job.ErrorMessage,
			&job.StartedAt, &job.CompletedAt, &job.DurationMs, &job.ConnectionType,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan print job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate print jobs: %w", err)
	}

	return jobs, nil
}

// DeleteOlderThan removes journal entries past the retention window
func (r *jobRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	query := `DELETE FROM print_jobs WHERE created_at < now() - ($1 || ' days')::interval`

	result, err := r.db.ExecContext(ctx, query, days)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old print jobs: %w", err)
	}

	return result.RowsAffected()
}
