package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Job is a locally stored job record. LocalID is the client-generated primary
// key and idempotency token; ServerID is empty until the first successful push.
type Job struct {
	LocalID     string
	ServerID    string
	Title       string
	Location    string
	Budget      float64
	Description string
	CreatedAt   int64
	UpdatedAt   int64
	Dirty       bool
	UserID      string
}

// Note is a locally stored note. JobLocalID always references the parent job
// in local-id space; translation to a server id happens only at push time.
type Note struct {
	LocalID    string
	ServerID   string
	JobLocalID string
	Content    string
	CreatedAt  int64
	UpdatedAt  int64
	Dirty      bool
}

// VideoStatus is the upload lifecycle state of a video.
type VideoStatus string

const (
	VideoPending   VideoStatus = "pending"
	VideoUploading VideoStatus = "uploading"
	VideoUploaded  VideoStatus = "uploaded"
	VideoFailed    VideoStatus = "failed"
)

// ParseVideoStatus converts a string into a known VideoStatus.
func ParseVideoStatus(value string) (VideoStatus, bool) {
	normalized := VideoStatus(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case VideoPending, VideoUploading, VideoUploaded, VideoFailed:
		return normalized, true
	}
	return "", false
}

// Video is a locally stored video attachment awaiting upload.
type Video struct {
	LocalID      string
	ServerID     string
	JobLocalID   string
	FileRef      string
	Status       VideoStatus
	RetryCount   int
	ErrorMessage string
	CreatedAt    int64
	UpdatedAt    int64
}

// Action identifies a mutation queue operation. The set is closed: every
// action carries exactly one payload type, decoded by the matching method on
// Mutation.
type Action string

const (
	ActionCreateJob   Action = "create_job"
	ActionUpdateJob   Action = "update_job"
	ActionDeleteJob   Action = "delete_job"
	ActionCreateNote  Action = "create_note"
	ActionUpdateNote  Action = "update_note"
	ActionDeleteNote  Action = "delete_note"
	ActionUploadVideo Action = "upload_video"
)

// Family groups actions by entity so the push phase can order job mutations
// ahead of dependent note and video mutations.
type Family int

const (
	FamilyJob Family = iota
	FamilyNote
	FamilyVideo
)

// Family returns the entity family an action belongs to.
func (a Action) Family() Family {
	switch a {
	case ActionCreateJob, ActionUpdateJob, ActionDeleteJob:
		return FamilyJob
	case ActionCreateNote, ActionUpdateNote, ActionDeleteNote:
		return FamilyNote
	default:
		return FamilyVideo
	}
}

// Mutation is one pending outbound operation. Seq defines FIFO order; the
// payload is immutable once enqueued.
type Mutation struct {
	Seq       int64
	Action    Action
	Payload   json.RawMessage
	CreatedAt int64
}

// JobPayload carries everything needed to replay a job create or update.
type JobPayload struct {
	LocalID     string  `json:"local_id"`
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	Budget      float64 `json:"budget"`
	Description string  `json:"description"`
	UserID      string  `json:"user_id"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// DeleteJobPayload captures the identifiers of a deleted job. ServerID is the
// mapping known at delete time and may be empty for never-pushed jobs.
type DeleteJobPayload struct {
	LocalID  string `json:"local_id"`
	ServerID string `json:"server_id,omitempty"`
}

// NotePayload carries everything needed to replay a note create or update.
// JobLocalID stays in local-id space; the push phase resolves it.
type NotePayload struct {
	LocalID    string `json:"local_id"`
	JobLocalID string `json:"job_local_id"`
	Content    string `json:"content"`
	CreatedAt  int64  `json:"created_at"`
	UpdatedAt  int64  `json:"updated_at"`
}

// DeleteNotePayload captures the identifiers of a deleted note, including the
// parent mapping known at delete time so replay never re-reads the (deleted)
// row.
type DeleteNotePayload struct {
	LocalID     string `json:"local_id"`
	ServerID    string `json:"server_id,omitempty"`
	JobLocalID  string `json:"job_local_id"`
	JobServerID string `json:"job_server_id,omitempty"`
}

// VideoPayload identifies a video pending upload. The binary payload lives on
// disk at FileRef; upload state lives on the video row.
type VideoPayload struct {
	LocalID    string `json:"local_id"`
	JobLocalID string `json:"job_local_id"`
	FileRef    string `json:"file_ref"`
	CreatedAt  int64  `json:"created_at"`
}

// DecodeJob decodes the payload of a create_job or update_job mutation.
func (m Mutation) DecodeJob() (JobPayload, error) {
	var p JobPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return JobPayload{}, fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return p, nil
}

// DecodeDeleteJob decodes the payload of a delete_job mutation.
func (m Mutation) DecodeDeleteJob() (DeleteJobPayload, error) {
	var p DeleteJobPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return DeleteJobPayload{}, fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return p, nil
}

// DecodeNote decodes the payload of a create_note or update_note mutation.
func (m Mutation) DecodeNote() (NotePayload, error) {
	var p NotePayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return NotePayload{}, fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return p, nil
}

// DecodeDeleteNote decodes the payload of a delete_note mutation.
func (m Mutation) DecodeDeleteNote() (DeleteNotePayload, error) {
	var p DeleteNotePayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return DeleteNotePayload{}, fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return p, nil
}

// DecodeVideo decodes the payload of an upload_video mutation.
func (m Mutation) DecodeVideo() (VideoPayload, error) {
	var p VideoPayload
	if err := json.Unmarshal(m.Payload, &p); err != nil {
		return VideoPayload{}, fmt.Errorf("decode %s payload: %w", m.Action, err)
	}
	return p, nil
}

// NewJob holds the caller-supplied fields for job creation.
type NewJob struct {
	Title       string
	Location    string
	Budget      float64
	Description string
	UserID      string
}

// JobUpdate enumerates every updatable job field. Updates always replace the
// full field set; there is no partial patch path.
type JobUpdate struct {
	Title       string
	Location    string
	Budget      float64
	Description string
}

// SyncStatus summarizes unpushed local state for status displays.
type SyncStatus struct {
	QueueLength   int
	DirtyJobs     int
	DirtyNotes    int
	PendingVideos int
	FailedVideos  int
}
