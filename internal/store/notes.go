package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

const noteColumns = "local_id, server_id, job_local_id, content, created_at, updated_at, dirty"

// CreateNote inserts a new dirty note referencing the parent job by local id
// and enqueues the matching create mutation in the same transaction.
func (s *Store) CreateNote(ctx context.Context, jobLocalID, content string) (*Note, error) {
	if _, err := s.GetJob(ctx, jobLocalID); err != nil {
		return nil, err
	}

	note := &Note{
		LocalID:    uuid.NewString(),
		JobLocalID: jobLocalID,
		Content:    content,
		CreatedAt:  nowMillis(),
		Dirty:      true,
	}
	note.UpdatedAt = note.CreatedAt

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create note: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO notes (local_id, server_id, job_local_id, content, created_at, updated_at, dirty)
         VALUES (?, NULL, ?, ?, ?, ?, 1)`,
		note.LocalID, note.JobLocalID, note.Content, note.CreatedAt, note.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	if err := enqueueTx(ctx, tx, ActionCreateNote, notePayloadFrom(note)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create note: %w", err)
	}
	return note, nil
}

// UpdateNote replaces the note content, marks it dirty, and enqueues an update
// mutation carrying the full replay payload.
func (s *Store) UpdateNote(ctx context.Context, localID, content string) (*Note, error) {
	note, err := s.GetNote(ctx, localID)
	if err != nil {
		return nil, err
	}

	note.Content = content
	note.UpdatedAt = nowMillis()
	note.Dirty = true

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update note: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE notes SET content = ?, updated_at = ?, dirty = 1 WHERE local_id = ?`,
		note.Content, note.UpdatedAt, note.LocalID,
	); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	if err := enqueueTx(ctx, tx, ActionUpdateNote, notePayloadFrom(note)); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update note: %w", err)
	}
	return note, nil
}

// DeleteNote removes the note row immediately and enqueues a delete mutation
// capturing the identifiers and parent mapping known at delete time.
func (s *Store) DeleteNote(ctx context.Context, localID string) error {
	note, err := s.GetNote(ctx, localID)
	if err != nil {
		return err
	}

	var jobServerID string
	if job, err := s.FindJob(ctx, note.JobLocalID); err != nil {
		return err
	} else if job != nil {
		jobServerID = job.ServerID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete note: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	payload := DeleteNotePayload{
		LocalID:     note.LocalID,
		ServerID:    note.ServerID,
		JobLocalID:  note.JobLocalID,
		JobServerID: jobServerID,
	}
	if err := enqueueTx(ctx, tx, ActionDeleteNote, payload); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete note: %w", err)
	}
	return nil
}

// GetNote fetches a note by local id.
func (s *Store) GetNote(ctx context.Context, localID string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE local_id = ?`, localID)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %s: %w", localID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	return note, nil
}

// FindNote fetches a note by local id, returning nil without error when absent.
func (s *Store) FindNote(ctx context.Context, localID string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes WHERE local_id = ?`, localID)
	note, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find note: %w", err)
	}
	return note, nil
}

// NotesByJob returns a job's notes ordered newest-first.
func (s *Store) NotesByJob(ctx context.Context, jobLocalID string) ([]*Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE job_local_id = ? ORDER BY created_at DESC`, jobLocalID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []*Note
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// MarkNoteSynced clears the dirty flag after server acknowledgment.
func (s *Store) MarkNoteSynced(ctx context.Context, localID string) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE notes SET dirty = 0 WHERE local_id = ?`, localID); err != nil {
		return fmt.Errorf("mark note synced: %w", err)
	}
	return nil
}

// SetNoteServerID records the server mapping and clears dirty atomically.
func (s *Store) SetNoteServerID(ctx context.Context, localID, serverID string) error {
	if serverID == "" {
		return errors.New("server id must not be empty")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE notes SET server_id = ?, dirty = 0 WHERE local_id = ?`,
		serverID, localID,
	); err != nil {
		return fmt.Errorf("set note server id: %w", err)
	}
	return nil
}

// BackfillNoteServerID records a server mapping discovered during pull without
// touching the dirty flag, and only when no mapping exists yet.
func (s *Store) BackfillNoteServerID(ctx context.Context, localID, serverID string) error {
	if serverID == "" {
		return errors.New("server id must not be empty")
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE notes SET server_id = ? WHERE local_id = ? AND server_id IS NULL`,
		serverID, localID,
	); err != nil {
		return fmt.Errorf("backfill note server id: %w", err)
	}
	return nil
}

// ReplaceNoteFromServer inserts or overwrites a note row with authoritative
// server state. The resulting row is clean.
func (s *Store) ReplaceNoteFromServer(ctx context.Context, note *Note) error {
	if note == nil {
		return errors.New("note is nil")
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (local_id, server_id, job_local_id, content, created_at, updated_at, dirty)
         VALUES (?, ?, ?, ?, ?, ?, 0)
         ON CONFLICT(local_id) DO UPDATE SET
             server_id = excluded.server_id,
             content = excluded.content,
             created_at = excluded.created_at,
             updated_at = excluded.updated_at,
             dirty = 0`,
		note.LocalID, nullableString(note.ServerID), note.JobLocalID, note.Content,
		note.CreatedAt, note.UpdatedAt,
	); err != nil {
		return fmt.Errorf("replace note from server: %w", err)
	}
	return nil
}

func notePayloadFrom(note *Note) NotePayload {
	return NotePayload{
		LocalID:    note.LocalID,
		JobLocalID: note.JobLocalID,
		Content:    note.Content,
		CreatedAt:  note.CreatedAt,
		UpdatedAt:  note.UpdatedAt,
	}
}

func scanNote(scanner interface{ Scan(dest ...any) error }) (*Note, error) {
	var (
		note     Note
		serverID sql.NullString
		dirty    int
	)
	if err := scanner.Scan(
		&note.LocalID,
		&serverID,
		&note.JobLocalID,
		&note.Content,
		&note.CreatedAt,
		&note.UpdatedAt,
		&dirty,
	); err != nil {
		return nil, err
	}
	note.ServerID = serverID.String
	note.Dirty = dirty != 0
	return &note, nil
}
