package engine

import (
	"context"
	"log/slog"

	"jobsync/internal/api"
	"jobsync/internal/logging"
	"jobsync/internal/store"
)

// pushUploadVideo runs one upload attempt for a pending video. Unlike the
// record mutations, uploads make a single attempt per trigger: the bounded
// counter lives on the video row (retry_count against the cap), and the
// engine relies on the next external trigger rather than busy-looping a
// binary payload.
func (e *Engine) pushUploadVideo(ctx context.Context, logger *slog.Logger, item store.Mutation) (outcome, error) {
	payload, err := item.DecodeVideo()
	if err != nil {
		return outcomeFailed, err
	}

	video, err := e.store.FindVideo(ctx, payload.LocalID)
	if err != nil {
		return outcomeFailed, err
	}
	if video == nil {
		// Row deleted since enqueue; nothing left to upload.
		return outcomeSuccess, nil
	}

	switch video.Status {
	case store.VideoUploaded:
		return outcomeSuccess, nil
	case store.VideoFailed:
		// Terminal until the user explicitly retries.
		return outcomeSkipped, nil
	}

	// Uploads require a resolved parent; there is no idempotency-key fallback
	// for the multipart endpoint.
	job, err := e.store.FindJob(ctx, video.JobLocalID)
	if err != nil {
		return outcomeFailed, err
	}
	if job == nil || job.ServerID == "" {
		return outcomeSkipped, nil
	}

	if err := e.store.MarkVideoUploading(ctx, video.LocalID); err != nil {
		return outcomeFailed, err
	}

	record, uploadErr := e.client.UploadVideo(ctx, api.VideoUpload{
		ClientID: video.LocalID,
		JobID:    job.ServerID,
		FilePath: video.FileRef,
	})
	if uploadErr != nil {
		updated, recordErr := e.store.RecordVideoFailure(ctx, video.LocalID, uploadErr.Error(), e.videoCap)
		if recordErr != nil {
			return outcomeFailed, recordErr
		}
		if updated.Status == store.VideoFailed {
			logger.Warn("video upload reached retry cap",
				logging.String(logging.FieldLocalID, video.LocalID),
				logging.Int("retry_count", updated.RetryCount),
				logging.Error(uploadErr),
			)
		}
		return outcomeFailed, uploadErr
	}

	if err := e.store.MarkVideoUploaded(ctx, video.LocalID, record.ID); err != nil {
		return outcomeFailed, err
	}
	logger.Info("video uploaded",
		logging.String(logging.FieldLocalID, video.LocalID),
		logging.String(logging.FieldServerID, record.ID),
	)
	return outcomeSuccess, nil
}
