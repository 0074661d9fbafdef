package api

// JobRequest is the outbound body for job create and update calls. ClientID is
// the client-generated idempotency token; the server treats a duplicate as
// "already created" and returns the existing record.
type JobRequest struct {
	ClientID    string  `json:"client_id"`
	Title       string  `json:"title"`
	Location    string  `json:"location"`
	Budget      float64 `json:"budget"`
	Description string  `json:"description"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
}

// JobRecord is a job as the server reports it, echoing the original client id
// so pull reconciliation can match local rows.
type JobRecord struct {
	ID          string       `json:"id"`
	ClientID    string       `json:"client_id"`
	Title       string       `json:"title"`
	Location    string       `json:"location"`
	Budget      float64      `json:"budget"`
	Description string       `json:"description"`
	UserID      string       `json:"user_id"`
	CreatedAt   int64        `json:"created_at"`
	UpdatedAt   int64        `json:"updated_at"`
	Notes       []NoteRecord `json:"notes,omitempty"`
}

// NoteRequest is the outbound body for note create and update calls.
type NoteRequest struct {
	ClientID  string `json:"client_id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// NoteRecord is a note as the server reports it.
type NoteRecord struct {
	ID        string `json:"id"`
	ClientID  string `json:"client_id"`
	JobID     string `json:"job_id"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

// VideoUpload describes a multipart video upload. JobID must be the parent's
// server id; uploads are deferred until the mapping exists.
type VideoUpload struct {
	ClientID string
	JobID    string
	FilePath string
}

// VideoRecord is the server acknowledgment of a video upload.
type VideoRecord struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	JobID    string `json:"job_id"`
}
