// Package db provides optional PostgreSQL persistence of job runs and
// delivered attachments. The collector works without it; when DATABASE_URL is
// unset, history is simply not recorded.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/brokerops/statement-collector/internal/carrier"
	"github.com/brokerops/statement-collector/internal/storage"
)

// ErrNotFound is returned when a job run does not exist.
var ErrNotFound = errors.New("job run not found")

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// JobRun is one recorded collection job.
type JobRun struct {
	JobID           string     `json:"job_id"`
	CarrierSlug     string     `json:"carrier_slug"`
	Status          string     `json:"status"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	AttachmentCount int        `json:"attachment_count"`
	CreatedAt       time.Time  `json:"created_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateJobRun records a newly accepted job.
func (s *Store) CreateJobRun(ctx context.Context, jobID string, slug carrier.Slug) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_runs (job_id, carrier_slug, status)
		 VALUES ($1, $2, 'running')
		 ON CONFLICT (job_id) DO UPDATE SET carrier_slug = $2, status = 'running', created_at = NOW(), completed_at = NULL`,
		jobID, string(slug),
	)
	if err != nil {
		return fmt.Errorf("failed to create job run: %w", err)
	}
	return nil
}

// CompleteJobRun records a job's terminal status.
func (s *Store) CompleteJobRun(ctx context.Context, jobID, status, failureReason, notes string, attachmentCount int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_runs
		 SET status = $1, failure_reason = $2, notes = $3, attachment_count = $4, completed_at = NOW()
		 WHERE job_id = $5`,
		status, failureReason, notes, attachmentCount, jobID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete job run: %w", err)
	}
	return nil
}

// SaveAttachment records one delivered attachment for a job.
func (s *Store) SaveAttachment(ctx context.Context, jobID string, att storage.Attachment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO job_attachments (id, job_id, public_id, format, url, title, etag)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (job_id, public_id) DO UPDATE SET format = $4, url = $5, title = $6, etag = $7`,
		uuid.New(), jobID, att.PublicID, att.Format, att.URL, att.Title, att.Etag,
	)
	if err != nil {
		return fmt.Errorf("failed to save attachment: %w", err)
	}
	return nil
}

// GetJobRun returns one recorded job run.
func (s *Store) GetJobRun(ctx context.Context, jobID string) (*JobRun, error) {
	var run JobRun
	err := s.pool.QueryRow(ctx,
		`SELECT job_id, carrier_slug, status,
		        COALESCE(failure_reason, ''), COALESCE(notes, ''),
		        attachment_count, created_at, completed_at
		 FROM job_runs WHERE job_id = $1`,
		jobID,
	).Scan(&run.JobID, &run.CarrierSlug, &run.Status, &run.FailureReason,
		&run.Notes, &run.AttachmentCount, &run.CreatedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job run: %w", err)
	}
	return &run, nil
}
