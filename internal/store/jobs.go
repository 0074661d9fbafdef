package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const jobColumns = "local_id, server_id, title, location, budget, description, created_at, updated_at, dirty, user_id"

// CreateJob inserts a new dirty job with a fresh local id and enqueues the
// matching create mutation in the same transaction.
func (s *Store) CreateJob(ctx context.Context, input NewJob) (*Job, error) {
	job := &Job{
		LocalID:     uuid.NewString(),
		Title:       input.Title,
		Location:    input.Location,
		Budget:      input.Budget,
		Description: input.Description,
		UserID:      input.UserID,
		CreatedAt:   nowMillis(),
		Dirty:       true,
	}
	job.UpdatedAt = job.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create job: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO jobs (local_id, server_id, title, location, budget, description, created_at, updated_at, dirty, user_id)
         VALUES (?, NULL, ?, ?, ?, ?, ?, ?, 1, ?)`,
		job.LocalID, job.Title, job.Location, job.Budget, job.Description,
		job.CreatedAt, job.UpdatedAt, job.UserID,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	if err := enqueueTx(ctx, tx, ActionCreateJob, jobPayloadFrom(job)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create job: %w", err)
	}
	return job, nil
}

// UpdateJob replaces the job's updatable fields, marks it dirty, and enqueues
// an update mutation carrying the full replay payload.
func (s *Store) UpdateJob(ctx context.Context, localID string, update JobUpdate) (*Job, error) {
	job, err := s.GetJob(ctx, localID)
	if err != nil {
		return nil, err
	}

	job.Title = update.Title
	job.Location = update.Location
	job.Budget = update.Budget
	job.Description = update.Description
	job.UpdatedAt = nowMillis()
	job.Dirty = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update job: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE jobs SET title = ?, location = ?, budget = ?, description = ?, updated_at = ?, dirty = 1
         WHERE local_id = ?`,
		job.Title, job.Location, job.Budget, job.Description, job.UpdatedAt, job.LocalID,
	); err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}

	if err := enqueueTx(ctx, tx, ActionUpdateJob, jobPayloadFrom(job)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update job: %w", err)
	}
	return job, nil
}

// DeleteJob removes the job row immediately and enqueues a delete mutation
// capturing the server mapping known at delete time. Deleting a job the server
// has never seen still enqueues; the push phase treats that as success.
func (s *Store) DeleteJob(ctx context.Context, localID string) error {
	job, err := s.GetJob(ctx, localID)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete job: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	payload := DeleteJobPayload{LocalID: job.LocalID, ServerID: job.ServerID}
	if err := enqueueTx(ctx, tx, ActionDeleteJob, payload); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete job: %w", err)
	}
	return nil
}

// GetJob fetches a job by local id.
func (s *Store) GetJob(ctx context.Context, localID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE local_id = ?`, localID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("job %s: %w", localID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// FindJob fetches a job by local id, returning nil without error when absent.
func (s *Store) FindJob(ctx context.Context, localID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE local_id = ?`, localID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	return job, nil
}

// ListJobs returns all jobs ordered newest-first.
func (s *Store) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkJobSynced clears the dirty flag after server acknowledgment.
func (s *Store) MarkJobSynced(ctx context.Context, localID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE jobs SET dirty = 0 WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("mark job synced: %w", err)
	}
	return nil
}

// SetJobServerID records the server mapping and clears dirty atomically.
// An empty server id is rejected; an existing mapping is never erased.
func (s *Store) SetJobServerID(ctx context.Context, localID, serverID string) error {
	if serverID == "" {
		return errors.New("server id must not be empty")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET server_id = ?, dirty = 0 WHERE local_id = ?`,
		serverID, localID,
	); err != nil {
		return fmt.Errorf("set job server id: %w", err)
	}
	return nil
}

// BackfillJobServerID records a server mapping discovered during pull without
// touching the dirty flag, and only when no mapping exists yet.
func (s *Store) BackfillJobServerID(ctx context.Context, localID, serverID string) error {
	if serverID == "" {
		return errors.New("server id must not be empty")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET server_id = ? WHERE local_id = ? AND server_id IS NULL`,
		serverID, localID,
	); err != nil {
		return fmt.Errorf("backfill job server id: %w", err)
	}
	return nil
}

// ReplaceJobFromServer inserts or overwrites a job row with authoritative
// server state. The resulting row is clean. Used by the pull phase for new
// rows and for clean rows whose fields the server wins.
func (s *Store) ReplaceJobFromServer(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (local_id, server_id, title, location, budget, description, created_at, updated_at, dirty, user_id)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)
         ON CONFLICT(local_id) DO UPDATE SET
             server_id = excluded.server_id,
             title = excluded.title,
             location = excluded.location,
             budget = excluded.budget,
             description = excluded.description,
             created_at = excluded.created_at,
             updated_at = excluded.updated_at,
             dirty = 0,
             user_id = excluded.user_id`,
		job.LocalID, nullableString(job.ServerID), job.Title, job.Location, job.Budget,
		job.Description, job.CreatedAt, job.UpdatedAt, job.UserID,
	); err != nil {
		return fmt.Errorf("replace job from server: %w", err)
	}
	return nil
}

func jobPayloadFrom(job *Job) JobPayload {
	return JobPayload{
		LocalID:     job.LocalID,
		Title:       job.Title,
		Location:    job.Location,
		Budget:      job.Budget,
		Description: job.Description,
		UserID:      job.UserID,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
	}
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		job      Job
		serverID sql.NullString
		dirty    int
	)
	if err := scanner.Scan(
		&job.LocalID,
		&serverID,
		&job.Title,
		&job.Location,
		&job.Budget,
		&job.Description,
		&job.CreatedAt,
		&job.UpdatedAt,
		&dirty,
		&job.UserID,
	); err != nil {
		return nil, err
	}
	job.ServerID = serverID.String
	job.Dirty = dirty != 0
	return &job, nil
}
