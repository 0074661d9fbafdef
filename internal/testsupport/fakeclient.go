package testsupport

import (
	"context"
	"fmt"
	"sync"

	"jobsync/internal/api"
)

// FakeClient is an in-memory api.Client for engine tests. It mirrors the
// server contract the engine relies on: client ids act as idempotency keys,
// identifier parameters accept either server ids or client ids, and failures
// can be scripted per operation.
type FakeClient struct {
	mu sync.Mutex

	jobs      map[string]*api.JobRecord  // server id -> record
	jobsByCID map[string]string          // client id -> server id
	notes     map[string]*api.NoteRecord // server id -> record
	notesByCID map[string]string
	videos    map[string]*api.VideoRecord

	nextID   int
	failures map[string][]error
	Calls    map[string]int
}

// NewFakeClient returns an empty fake server.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		jobs:       make(map[string]*api.JobRecord),
		jobsByCID:  make(map[string]string),
		notes:      make(map[string]*api.NoteRecord),
		notesByCID: make(map[string]string),
		videos:     make(map[string]*api.VideoRecord),
		failures:   make(map[string][]error),
		Calls:      make(map[string]int),
	}
}

// FailNext scripts the next n calls to op to return err. Op names match the
// Client method names ("CreateJob", "UploadVideo", ...).
func (f *FakeClient) FailNext(op string, n int, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := 0; i < n; i++ {
		f.failures[op] = append(f.failures[op], err)
	}
}

// SeedJob installs a server-side job record, as if another device created it.
// Nested notes are indexed as server notes.
func (f *FakeClient) SeedJob(record api.JobRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := record
	copied.Notes = nil
	f.jobs[record.ID] = &copied
	if record.ClientID != "" {
		f.jobsByCID[record.ClientID] = record.ID
	}
	for _, note := range record.Notes {
		stored := note
		stored.JobID = record.ID
		f.notes[note.ID] = &stored
		if note.ClientID != "" {
			f.notesByCID[note.ClientID] = note.ID
		}
	}
}

// JobCount reports how many jobs the fake server holds.
func (f *FakeClient) JobCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.jobs)
}

// Job returns the stored record for a server or client id.
func (f *FakeClient) Job(id string) (api.JobRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	record := f.resolveJob(id)
	if record == nil {
		return api.JobRecord{}, false
	}
	out := *record
	out.Notes = nil
	for _, note := range f.notes {
		if note.JobID == record.ID {
			out.Notes = append(out.Notes, *note)
		}
	}
	return out, true
}

func (f *FakeClient) begin(op string) error {
	f.Calls[op]++
	queue := f.failures[op]
	if len(queue) == 0 {
		return nil
	}
	err := queue[0]
	f.failures[op] = queue[1:]
	return err
}

func (f *FakeClient) allocate(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *FakeClient) resolveJob(id string) *api.JobRecord {
	if record, ok := f.jobs[id]; ok {
		return record
	}
	if serverID, ok := f.jobsByCID[id]; ok {
		return f.jobs[serverID]
	}
	return nil
}

func (f *FakeClient) resolveNote(id string) *api.NoteRecord {
	if record, ok := f.notes[id]; ok {
		return record
	}
	if serverID, ok := f.notesByCID[id]; ok {
		return f.notes[serverID]
	}
	return nil
}

func (f *FakeClient) CreateJob(ctx context.Context, req api.JobRequest) (*api.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateJob"); err != nil {
		return nil, err
	}

	if serverID, ok := f.jobsByCID[req.ClientID]; ok {
		record := *f.jobs[serverID]
		return &record, nil
	}
	record := &api.JobRecord{
		ID:          f.allocate("srv-job"),
		ClientID:    req.ClientID,
		Title:       req.Title,
		Location:    req.Location,
		Budget:      req.Budget,
		Description: req.Description,
		CreatedAt:   req.CreatedAt,
		UpdatedAt:   req.UpdatedAt,
	}
	f.jobs[record.ID] = record
	f.jobsByCID[req.ClientID] = record.ID
	out := *record
	return &out, nil
}

func (f *FakeClient) UpdateJob(ctx context.Context, jobID string, req api.JobRequest) (*api.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateJob"); err != nil {
		return nil, err
	}

	record := f.resolveJob(jobID)
	if record == nil {
		return nil, api.ErrNotFound
	}
	record.Title = req.Title
	record.Location = req.Location
	record.Budget = req.Budget
	record.Description = req.Description
	record.UpdatedAt = req.UpdatedAt
	out := *record
	return &out, nil
}

func (f *FakeClient) DeleteJob(ctx context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteJob"); err != nil {
		return err
	}

	record := f.resolveJob(jobID)
	if record == nil {
		return api.ErrNotFound
	}
	delete(f.jobs, record.ID)
	delete(f.jobsByCID, record.ClientID)
	for id, note := range f.notes {
		if note.JobID == record.ID {
			delete(f.notes, id)
			delete(f.notesByCID, note.ClientID)
		}
	}
	return nil
}

func (f *FakeClient) ListJobs(ctx context.Context) ([]api.JobRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("ListJobs"); err != nil {
		return nil, err
	}

	records := make([]api.JobRecord, 0, len(f.jobs))
	for _, job := range f.jobs {
		record := *job
		record.Notes = nil
		for _, note := range f.notes {
			if note.JobID == job.ID {
				record.Notes = append(record.Notes, *note)
			}
		}
		records = append(records, record)
	}
	return records, nil
}

func (f *FakeClient) CreateNote(ctx context.Context, jobID string, req api.NoteRequest) (*api.NoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateNote"); err != nil {
		return nil, err
	}

	job := f.resolveJob(jobID)
	if job == nil {
		return nil, api.ErrNotFound
	}
	if serverID, ok := f.notesByCID[req.ClientID]; ok {
		record := *f.notes[serverID]
		return &record, nil
	}
	record := &api.NoteRecord{
		ID:        f.allocate("srv-note"),
		ClientID:  req.ClientID,
		JobID:     job.ID,
		Content:   req.Content,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
	f.notes[record.ID] = record
	f.notesByCID[req.ClientID] = record.ID
	out := *record
	return &out, nil
}

func (f *FakeClient) UpdateNote(ctx context.Context, jobID, noteID string, req api.NoteRequest) (*api.NoteRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateNote"); err != nil {
		return nil, err
	}

	record := f.resolveNote(noteID)
	if record == nil {
		return nil, api.ErrNotFound
	}
	record.Content = req.Content
	record.UpdatedAt = req.UpdatedAt
	out := *record
	return &out, nil
}

func (f *FakeClient) DeleteNote(ctx context.Context, jobID, noteID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteNote"); err != nil {
		return err
	}

	record := f.resolveNote(noteID)
	if record == nil {
		return api.ErrNotFound
	}
	delete(f.notes, record.ID)
	delete(f.notesByCID, record.ClientID)
	return nil
}

func (f *FakeClient) UploadVideo(ctx context.Context, upload api.VideoUpload) (*api.VideoRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UploadVideo"); err != nil {
		return nil, err
	}

	job := f.resolveJob(upload.JobID)
	if job == nil {
		return nil, api.ErrNotFound
	}
	record := &api.VideoRecord{
		ID:       f.allocate("srv-video"),
		ClientID: upload.ClientID,
		JobID:    job.ID,
	}
	f.videos[record.ID] = record
	out := *record
	return &out, nil
}

var _ api.Client = (*FakeClient)(nil)
