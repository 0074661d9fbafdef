package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// enqueueTx appends a mutation inside the caller's transaction so the entity
// write and its replay record are durable together.
func enqueueTx(ctx context.Context, tx *sql.Tx, action Action, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", action, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO mutation_queue (action, payload, created_at) VALUES (?, ?, ?)`,
		string(action), string(encoded), nowMillis(),
	); err != nil {
		return fmt.Errorf("enqueue %s: %w", action, err)
	}
	return nil
}

// Drain returns a snapshot of all pending mutations in enqueue order. Items
// enqueued after the snapshot is taken are not included.
func (s *Store) Drain(ctx context.Context) ([]Mutation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, action, payload, created_at FROM mutation_queue ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("drain mutation queue: %w", err)
	}
	defer rows.Close()

	var items []Mutation
	for rows.Next() {
		var (
			item    Mutation
			action  string
			payload string
		)
		if err := rows.Scan(&item.Seq, &action, &payload, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		item.Action = Action(action)
		item.Payload = json.RawMessage(payload)
		items = append(items, item)
	}
	return items, rows.Err()
}

// RemoveMutation deletes a queue item by sequence id. Removing an id that is
// already gone is a no-op.
func (s *Store) RemoveMutation(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM mutation_queue WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("remove mutation %d: %w", seq, err)
	}
	return nil
}

// ClearQueue removes all pending mutations and returns the number removed.
func (s *Store) ClearQueue(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM mutation_queue`)
	if err != nil {
		return 0, fmt.Errorf("clear mutation queue: %w", err)
	}
	return res.RowsAffected()
}

// QueueLength returns the number of pending mutations.
func (s *Store) QueueLength(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM mutation_queue`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count mutation queue: %w", err)
	}
	return count, nil
}

// Status aggregates unpushed local state for status displays.
func (s *Store) Status(ctx context.Context) (SyncStatus, error) {
	var status SyncStatus
	queries := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(1) FROM mutation_queue`, &status.QueueLength},
		{`SELECT COUNT(1) FROM jobs WHERE dirty = 1`, &status.DirtyJobs},
		{`SELECT COUNT(1) FROM notes WHERE dirty = 1`, &status.DirtyNotes},
		{`SELECT COUNT(1) FROM videos WHERE status IN ('pending', 'uploading')`, &status.PendingVideos},
		{`SELECT COUNT(1) FROM videos WHERE status = 'failed'`, &status.FailedVideos},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return SyncStatus{}, fmt.Errorf("sync status: %w", err)
		}
	}
	return status, nil
}
