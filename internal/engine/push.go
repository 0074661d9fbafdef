package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobsync/internal/api"
	"jobsync/internal/logging"
	"jobsync/internal/store"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeSkipped
	outcomeFailed
)

// push drains a snapshot of the mutation queue in family order: job mutations
// first, then notes, then videos, FIFO within each family. Processing jobs
// first maximizes the chance that dependent items resolve their parent server
// id on the same pass; it is a heuristic, not a correctness guarantee.
func (e *Engine) push(ctx context.Context) error {
	items, err := e.store.Drain(ctx)
	if err != nil {
		return fmt.Errorf("drain queue: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	ordered := orderByFamily(items)

	var pushed, skipped, failed int
	for _, item := range ordered {
		itemLogger := e.logger.With(
			logging.Int64(logging.FieldSeq, item.Seq),
			logging.String(logging.FieldAction, string(item.Action)),
		)

		result, err := e.processItem(ctx, itemLogger, item)
		switch result {
		case outcomeSuccess:
			pushed++
			if err := e.store.RemoveMutation(ctx, item.Seq); err != nil {
				return err
			}
		case outcomeSkipped:
			skipped++
			itemLogger.Debug("mutation skipped; parent not yet resolvable")
		case outcomeFailed:
			// One item's exhaustion never blocks subsequent items. The item
			// stays queued and retries on the next trigger.
			failed++
			itemLogger.Warn("mutation push exhausted retries", logging.Error(err))
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	e.logger.Info("push phase complete",
		logging.Int("pushed", pushed),
		logging.Int("skipped", skipped),
		logging.Int("failed", failed),
	)
	return nil
}

// orderByFamily groups items job-family first, then notes, then videos,
// preserving FIFO order within each family.
func orderByFamily(items []store.Mutation) []store.Mutation {
	ordered := make([]store.Mutation, 0, len(items))
	for _, family := range []store.Family{store.FamilyJob, store.FamilyNote, store.FamilyVideo} {
		for _, item := range items {
			if item.Action.Family() == family {
				ordered = append(ordered, item)
			}
		}
	}
	return ordered
}

func (e *Engine) processItem(ctx context.Context, logger *slog.Logger, item store.Mutation) (outcome, error) {
	switch item.Action {
	case store.ActionCreateJob:
		return e.pushCreateJob(ctx, item)
	case store.ActionUpdateJob:
		return e.pushUpdateJob(ctx, item)
	case store.ActionDeleteJob:
		return e.pushDeleteJob(ctx, item)
	case store.ActionCreateNote:
		return e.pushCreateNote(ctx, item)
	case store.ActionUpdateNote:
		return e.pushUpdateNote(ctx, item)
	case store.ActionDeleteNote:
		return e.pushDeleteNote(ctx, item)
	case store.ActionUploadVideo:
		return e.pushUploadVideo(ctx, logger, item)
	default:
		// Unknown actions are unrecoverable; dropping them beats wedging the
		// queue head forever.
		logger.Error("unknown mutation action; dropping item")
		return outcomeSuccess, nil
	}
}

func (e *Engine) pushCreateJob(ctx context.Context, item store.Mutation) (outcome, error) {
	payload, err := item.DecodeJob()
	if err != nil {
		return outcomeFailed, err
	}

	var record *api.JobRecord
	attemptErr := e.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		record, err = e.client.CreateJob(ctx, jobRequestFrom(payload))
		return err
	})
	if attemptErr != nil {
		return outcomeFailed, attemptErr
	}

	if err := e.store.SetJobServerID(ctx, payload.LocalID, record.ID); err != nil {
		return outcomeFailed, err
	}
	return outcomeSuccess, nil
}

func (e *Engine) pushUpdateJob(ctx context.Context, item store.Mutation) (outcome, error) {
	payload, err := item.DecodeJob()
	if err != nil {
		return outcomeFailed, err
	}

	// Address by server id when the mapping exists; otherwise the local id
	// doubles as the idempotency key the server understands.
	jobID := payload.LocalID
	if job, err := e.store.FindJob(ctx, payload.LocalID); err != nil {
		return outcomeFailed, err
	} else if job != nil && job.ServerID != "" {
		jobID = job.ServerID
	}

	attemptErr := e.policy.Do(ctx, func(ctx context.Context) error {
		_, err := e.client.UpdateJob(ctx, jobID, jobRequestFrom(payload))
		return err
	})
	if attemptErr != nil {
		return outcomeFailed, attemptErr
	}

	if err := e.store.MarkJobSynced(ctx, payload.LocalID); err != nil {
		return outcomeFailed, err
	}
	return outcomeSuccess, nil
}

func (e *Engine) pushDeleteJob(ctx context.Context, item store.Mutation) (outcome, error) {
	payload, err := item.DecodeDeleteJob()
	if err != nil {
		return outcomeFailed, err
	}

	jobID := payload.ServerID
	if jobID == "" {
		jobID = payload.LocalID
	}

	attemptErr := e.policy.Do(ctx, func(ctx context.Context) error {
		err := e.client.DeleteJob(ctx, jobID)
		// Deleting something the server never saw is success, not error.
		if errors.Is(err, api.ErrNotFound) {
			return nil
		}
		return err
	})
	if attemptErr != nil {
		return outcomeFailed, attemptErr
	}
	return outcomeSuccess, nil
}

func (e *Engine) pushCreateNote(ctx context.Context, item store.Mutation) (outcome, error) {
	payload, err := item.DecodeNote()
	if err != nil {
		return outcomeFailed, err
	}

	// Create operations are attempted even with an unresolved parent: the
	// local job id is an idempotency key the server understands.
	jobID := payload.JobLocalID
	if job, err := e.store.FindJob(ctx, payload.JobLocalID); err != nil {
		return outcomeFailed, err
	} else if job != nil && job.ServerID != "" {
		jobID = job.ServerID
	}

	var record *api.NoteRecord
	attemptErr := e.policy.Do(ctx, func(ctx context.Context) error {
		var err error
		record, err = e.client.CreateNote(ctx, jobID, noteRequestFrom(payload))
		return err
	})
	if attemptErr != nil {
		return outcomeFailed, attemptErr
	}

	if err := e.store.SetNoteServerID(ctx, payload.LocalID, record.ID); err != nil {
		return outcomeFailed, err
	}
	return outcomeSuccess, nil
}

func (e *Engine) pushUpdateNote(ctx context.Context, item store.Mutation) (outcome, error) {
	payload, err := item.DecodeNote()
	if err != nil {
		return outcomeFailed, err
	}

	note, err := e.store.FindNote(ctx, payload.LocalID)
	if err != nil {
		return outcomeFailed, err
	}
	if note == nil {
		// Row was deleted after the update was enqueued; the delete mutation
		// behind this item supersedes it.
		return outcomeSuccess, nil
	}
	if note.ServerID == "" {
		// The update addresses a server-side note that does not exist yet.
		// Left queued until the create ahead of it lands.
		return outcomeSkipped, nil
	}

	job, err := e.store.FindJob(ctx, payload.JobLocalID)
	if err != nil {
		return outcomeFailed, err
	}
	if job == nil || job.ServerID == "" {
		return outcomeSkipped, nil
	}

	attemptErr := e.policy.Do(ctx, func(ctx context.Context) error {
		_, err := e.client.UpdateNote(ctx, job.ServerID, note.ServerID, noteRequestFrom(payload))
		return err
	})
	if attemptErr != nil {
		return outcomeFailed, attemptErr
	}

	if err := e.store.MarkNoteSynced(ctx, payload.LocalID); err != nil {
		return outcomeFailed, err
	}
	return outcomeSuccess, nil
}

func (e *Engine) pushDeleteNote(ctx context.Context, item store.Mutation) (outcome, error) {
	payload, err := item.DecodeDeleteNote()
	if err != nil {
		return outcomeFailed, err
	}

	if payload.ServerID == "" {
		// The note never reached the server; nothing remote to delete.
		return outcomeSuccess, nil
	}

	jobServerID := payload.JobServerID
	if job, err := e.store.FindJob(ctx, payload.JobLocalID); err != nil {
		return outcomeFailed, err
	} else if job != nil && job.ServerID != "" {
		jobServerID = job.ServerID
	}
	if jobServerID == "" {
		return outcomeSkipped, nil
	}

	attemptErr := e.policy.Do(ctx, func(ctx context.Context) error {
		err := e.client.DeleteNote(ctx, jobServerID, payload.ServerID)
		if errors.Is(err, api.ErrNotFound) {
			return nil
		}
		return err
	})
	if attemptErr != nil {
		return outcomeFailed, attemptErr
	}
	return outcomeSuccess, nil
}

func jobRequestFrom(payload store.JobPayload) api.JobRequest {
	return api.JobRequest{
		ClientID:    payload.LocalID,
		Title:       payload.Title,
		Location:    payload.Location,
		Budget:      payload.Budget,
		Description: payload.Description,
		CreatedAt:   payload.CreatedAt,
		UpdatedAt:   payload.UpdatedAt,
	}
}

func noteRequestFrom(payload store.NotePayload) api.NoteRequest {
	return api.NoteRequest{
		ClientID:  payload.LocalID,
		Content:   payload.Content,
		CreatedAt: payload.CreatedAt,
		UpdatedAt: payload.UpdatedAt,
	}
}
