package engine

import (
	"context"
	"fmt"

	"jobsync/internal/api"
	"jobsync/internal/logging"
	"jobsync/internal/store"
)

// pull fetches the server's job list and reconciles it into the local store
// under the dirty-wins rule: server state overwrites clean rows, dirty rows
// keep their content but gain the server-id mapping, unknown records insert
// as clean rows. Absence from the response is never treated as a remote
// delete.
func (e *Engine) pull(ctx context.Context) error {
	records, err := e.client.ListJobs(ctx)
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}

	var applied int
	for _, record := range records {
		if err := e.reconcileJob(ctx, record); err != nil {
			// Reconciliation failures are local storage errors; one record
			// must not poison the rest of the pull.
			e.logger.Error("reconcile job failed",
				logging.String(logging.FieldServerID, record.ID),
				logging.Error(err),
			)
			continue
		}
		applied++
	}

	e.logger.Info("pull phase complete",
		logging.Int("records", len(records)),
		logging.Int("applied", applied),
	)
	return nil
}

func (e *Engine) reconcileJob(ctx context.Context, record api.JobRecord) error {
	// The server echoes the client id for records this device created. A
	// record born elsewhere has none; its server id becomes the local key.
	localID := record.ClientID
	if localID == "" {
		localID = record.ID
	}

	job, err := e.store.FindJob(ctx, localID)
	if err != nil {
		return err
	}

	switch {
	case job == nil:
		if err := e.store.ReplaceJobFromServer(ctx, jobFromRecord(localID, record, "")); err != nil {
			return err
		}
	case !job.Dirty:
		// Server is authoritative for clean rows.
		if err := e.store.ReplaceJobFromServer(ctx, jobFromRecord(localID, record, job.UserID)); err != nil {
			return err
		}
	default:
		// Local wins while a push is outstanding, but the mapping is still
		// backfilled so future pushes can address the correct parent.
		if job.ServerID == "" && record.ID != "" {
			if err := e.store.BackfillJobServerID(ctx, localID, record.ID); err != nil {
				return err
			}
		}
	}

	for _, noteRecord := range record.Notes {
		if err := e.reconcileNote(ctx, localID, noteRecord); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) reconcileNote(ctx context.Context, jobLocalID string, record api.NoteRecord) error {
	localID := record.ClientID
	if localID == "" {
		localID = record.ID
	}

	note, err := e.store.FindNote(ctx, localID)
	if err != nil {
		return err
	}

	switch {
	case note == nil:
		return e.store.ReplaceNoteFromServer(ctx, &store.Note{
			LocalID:    localID,
			ServerID:   record.ID,
			JobLocalID: jobLocalID,
			Content:    record.Content,
			CreatedAt:  record.CreatedAt,
			UpdatedAt:  record.UpdatedAt,
		})
	case !note.Dirty:
		return e.store.ReplaceNoteFromServer(ctx, &store.Note{
			LocalID:    localID,
			ServerID:   record.ID,
			JobLocalID: note.JobLocalID,
			Content:    record.Content,
			CreatedAt:  record.CreatedAt,
			UpdatedAt:  record.UpdatedAt,
		})
	default:
		if note.ServerID == "" && record.ID != "" {
			return e.store.BackfillNoteServerID(ctx, localID, record.ID)
		}
	}
	return nil
}

func jobFromRecord(localID string, record api.JobRecord, fallbackUserID string) *store.Job {
	userID := record.UserID
	if userID == "" {
		userID = fallbackUserID
	}
	return &store.Job{
		LocalID:     localID,
		ServerID:    record.ID,
		Title:       record.Title,
		Location:    record.Location,
		Budget:      record.Budget,
		Description: record.Description,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
		UserID:      userID,
	}
}
