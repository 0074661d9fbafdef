package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const videoColumns = "local_id, server_id, job_local_id, file_ref, status, retry_count, error_message, created_at, updated_at"

// AddVideo inserts a pending video attachment and enqueues the matching
// upload mutation in the same transaction.
func (s *Store) AddVideo(ctx context.Context, jobLocalID, fileRef string) (*Video, error) {
	if _, err := s.GetJob(ctx, jobLocalID); err != nil {
		return nil, err
	}

	video := &Video{
		LocalID:    uuid.NewString(),
		JobLocalID: jobLocalID,
		FileRef:    fileRef,
		Status:     VideoPending,
		CreatedAt:  nowMillis(),
	}
	video.UpdatedAt = video.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin add video: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO videos (local_id, server_id, job_local_id, file_ref, status, retry_count, error_message, created_at, updated_at)
         VALUES (?, NULL, ?, ?, ?, 0, NULL, ?, ?)`,
		video.LocalID, video.JobLocalID, video.FileRef, string(video.Status),
		video.CreatedAt, video.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	payload := VideoPayload{
		LocalID:    video.LocalID,
		JobLocalID: video.JobLocalID,
		FileRef:    video.FileRef,
		CreatedAt:  video.CreatedAt,
	}
	if err := enqueueTx(ctx, tx, ActionUploadVideo, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit add video: %w", err)
	}
	return video, nil
}

// GetVideo fetches a video by local id.
func (s *Store) GetVideo(ctx context.Context, localID string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE local_id = ?`, localID)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", localID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// FindVideo fetches a video by local id, returning nil without error when absent.
func (s *Store) FindVideo(ctx context.Context, localID string) (*Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE local_id = ?`, localID)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find video: %w", err)
	}
	return video, nil
}

// VideosByJob returns a job's videos ordered newest-first.
func (s *Store) VideosByJob(ctx context.Context, jobLocalID string) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE job_local_id = ? ORDER BY created_at DESC`, jobLocalID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()
	return collectVideos(rows)
}

// PendingVideosByJob returns a job's videos that have not finished uploading.
func (s *Store) PendingVideosByJob(ctx context.Context, jobLocalID string) ([]*Video, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE job_local_id = ? AND status != ? ORDER BY created_at DESC`,
		jobLocalID, string(VideoUploaded))
	if err != nil {
		return nil, fmt.Errorf("list pending videos: %w", err)
	}
	defer rows.Close()
	return collectVideos(rows)
}

// MarkVideoUploading flips the video into the uploading state so the UI can
// show an in-flight attempt.
func (s *Store) MarkVideoUploading(ctx context.Context, localID string) error {
	if _, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = ?, error_message = NULL, updated_at = ? WHERE local_id = ?`,
		string(VideoUploading), nowMillis(), localID,
	); err != nil {
		return fmt.Errorf("mark video uploading: %w", err)
	}
	return nil
}

// MarkVideoUploaded records a completed upload with its server mapping.
func (s *Store) MarkVideoUploaded(ctx context.Context, localID, serverID string) error {
	if serverID == "" {
		return errors.New("server id must not be empty")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = ?, server_id = ?, error_message = NULL, updated_at = ? WHERE local_id = ?`,
		string(VideoUploaded), serverID, nowMillis(), localID,
	); err != nil {
		return fmt.Errorf("mark video uploaded: %w", err)
	}
	return nil
}

// RecordVideoFailure increments the retry counter, stores the failure message,
// and moves the video to failed once the counter reaches cap, otherwise back
// to pending for the next trigger. The updated row is returned.
func (s *Store) RecordVideoFailure(ctx context.Context, localID, message string, cap int) (*Video, error) {
	video, err := s.GetVideo(ctx, localID)
	if err != nil {
		return nil, err
	}

	video.RetryCount++
	video.ErrorMessage = message
	video.Status = VideoPending
	if video.RetryCount >= cap {
		video.Status = VideoFailed
	}
	video.UpdatedAt = nowMillis()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = ?, retry_count = ?, error_message = ?, updated_at = ? WHERE local_id = ?`,
		string(video.Status), video.RetryCount, nullableString(video.ErrorMessage),
		video.UpdatedAt, video.LocalID,
	); err != nil {
		return nil, fmt.Errorf("record video failure: %w", err)
	}
	return video, nil
}

// RetryVideo is the user-initiated escape from the failed state. The status
// returns to pending and the retry counter resets so the upload can traverse
// the full attempt budget again.
func (s *Store) RetryVideo(ctx context.Context, localID string) (*Video, error) {
	video, err := s.GetVideo(ctx, localID)
	if err != nil {
		return nil, err
	}
	if video.Status != VideoFailed {
		return nil, fmt.Errorf("video %s is %s; only failed videos can be retried", localID, video.Status)
	}

	video.Status = VideoPending
	video.RetryCount = 0
	video.ErrorMessage = ""
	video.UpdatedAt = nowMillis()

	if _, err := s.db.ExecContext(ctx,
		`UPDATE videos SET status = ?, retry_count = 0, error_message = NULL, updated_at = ? WHERE local_id = ?`,
		string(video.Status), video.UpdatedAt, video.LocalID,
	); err != nil {
		return nil, fmt.Errorf("retry video: %w", err)
	}
	return video, nil
}

func collectVideos(rows *sql.Rows) ([]*Video, error) {
	var videos []*Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

func scanVideo(scanner interface{ Scan(dest ...any) error }) (*Video, error) {
	var (
		video    Video
		serverID sql.NullString
		errMsg   sql.NullString
		status   string
	)
	if err := scanner.Scan(
		&video.LocalID,
		&serverID,
		&video.JobLocalID,
		&video.FileRef,
		&status,
		&video.RetryCount,
		&errMsg,
		&video.CreatedAt,
		&video.UpdatedAt,
	); err != nil {
		return nil, err
	}
	video.ServerID = serverID.String
	video.ErrorMessage = errMsg.String
	video.Status = VideoStatus(status)
	return &video, nil
}
