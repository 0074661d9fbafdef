package engine_test

import (
	"context"
	"testing"

	"jobsync/internal/api"
	"jobsync/internal/config"
	"jobsync/internal/engine"
	"jobsync/internal/logging"
	"jobsync/internal/network"
	"jobsync/internal/store"
	"jobsync/internal/testsupport"
)

type fixture struct {
	cfg    *config.Config
	store  *store.Store
	client *testsupport.FakeClient
	engine *engine.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := testsupport.NewFakeClient()
	eng := engine.New(cfg, st, client, nil, logging.NewNop())
	return &fixture{cfg: cfg, store: st, client: client, engine: eng}
}

func (f *fixture) sync(t *testing.T) {
	t.Helper()
	if err := f.engine.Sync(context.Background(), network.TriggerManual); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
}

func (f *fixture) queueLength(t *testing.T) int {
	t.Helper()
	length, err := f.store.QueueLength(context.Background())
	if err != nil {
		t.Fatalf("QueueLength failed: %v", err)
	}
	return length
}

func TestSyncPushesCreateAndMapsServerID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Pipe relining")
	f.sync(t)

	if f.queueLength(t) != 0 {
		t.Fatal("expected queue drained after successful push")
	}
	synced, err := f.store.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if synced.ServerID == "" || synced.Dirty {
		t.Fatalf("expected mapped clean job, got %#v", synced)
	}
	remote, ok := f.client.Job(job.LocalID)
	if !ok || remote.Title != "Pipe relining" {
		t.Fatalf("server missing pushed job: %#v", remote)
	}
}

func TestPushRetriesTransientFailuresWithinRun(t *testing.T) {
	f := newFixture(t)

	testsupport.MustCreateJob(t, f.store, "Flaky network job")
	f.client.FailNext("CreateJob", 2, api.ErrTransport)

	f.sync(t)

	if f.client.Calls["CreateJob"] != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.client.Calls["CreateJob"])
	}
	if f.queueLength(t) != 0 {
		t.Fatal("expected queue drained after retry success")
	}
}

func TestExhaustedItemRetriesNextRunWithoutDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Eventually consistent")
	f.client.FailNext("CreateJob", 3, api.ErrTransport)

	f.sync(t)
	if f.queueLength(t) != 1 {
		t.Fatal("expected item to stay queued after exhausting the run budget")
	}

	f.sync(t)
	if f.queueLength(t) != 0 {
		t.Fatal("expected second run to drain the queue")
	}
	if f.client.JobCount() != 1 {
		t.Fatalf("replay must not duplicate the job, server has %d", f.client.JobCount())
	}
	synced, err := f.store.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if synced.ServerID == "" {
		t.Fatal("expected server mapping after second run")
	}
}

func TestFailingItemDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)

	testsupport.MustCreateJob(t, f.store, "Job one")
	testsupport.MustCreateJob(t, f.store, "Job two")
	f.client.FailNext("CreateJob", 3, api.ErrTransport)

	f.sync(t)

	if f.client.JobCount() != 1 {
		t.Fatalf("expected the second job to push despite the first failing, server has %d", f.client.JobCount())
	}
	if f.queueLength(t) != 1 {
		t.Fatalf("expected only the failed item queued, got %d", f.queueLength(t))
	}
}

func TestNotePushesAfterParentInSameRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Parent job")
	note, err := f.store.CreateNote(ctx, job.LocalID, "check permits")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	f.sync(t)

	if f.queueLength(t) != 0 {
		t.Fatal("expected job and note both pushed in one run")
	}
	syncedNote, err := f.store.GetNote(ctx, note.LocalID)
	if err != nil {
		t.Fatalf("GetNote failed: %v", err)
	}
	if syncedNote.ServerID == "" || syncedNote.Dirty {
		t.Fatalf("expected mapped clean note, got %#v", syncedNote)
	}
}

func TestNoteUpdateWaitsForCreateThenLands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Slow parent")
	note, err := f.store.CreateNote(ctx, job.LocalID, "v1")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if _, err := f.store.UpdateNote(ctx, note.LocalID, "v2"); err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}

	// First run: every remote call fails, everything stays queued.
	f.client.FailNext("CreateJob", 3, api.ErrTransport)
	f.sync(t)
	if f.queueLength(t) != 3 {
		t.Fatalf("expected all mutations still queued, got %d", f.queueLength(t))
	}

	f.sync(t)
	if f.queueLength(t) != 0 {
		t.Fatalf("expected second run to drain everything, got %d", f.queueLength(t))
	}

	remote, ok := f.client.Job(job.LocalID)
	if !ok || len(remote.Notes) != 1 {
		t.Fatalf("unexpected server state: %#v", remote)
	}
	if remote.Notes[0].Content != "v2" {
		t.Fatalf("expected the update to land, got %q", remote.Notes[0].Content)
	}
}

func TestDeleteNeverPushedJobSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Short-lived")
	if err := f.store.DeleteJob(ctx, job.LocalID); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}

	f.sync(t)

	if f.queueLength(t) != 0 {
		t.Fatal("expected create and delete both resolved")
	}
	if f.client.JobCount() != 0 {
		t.Fatalf("expected no job left on server, got %d", f.client.JobCount())
	}
}

func TestPullInsertsJobsFromOtherDevices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.client.SeedJob(api.JobRecord{
		ID:     "srv-remote-1",
		Title:  "Created elsewhere",
		UserID: "user-2",
		Notes: []api.NoteRecord{
			{ID: "srv-remote-note", Content: "remote note"},
		},
	})

	f.sync(t)

	job, err := f.store.GetJob(ctx, "srv-remote-1")
	if err != nil {
		t.Fatalf("expected pulled job keyed by server id: %v", err)
	}
	if job.Title != "Created elsewhere" || job.Dirty {
		t.Fatalf("unexpected pulled job: %#v", job)
	}
	notes, err := f.store.NotesByJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("NotesByJob failed: %v", err)
	}
	if len(notes) != 1 || notes[0].Content != "remote note" {
		t.Fatalf("expected pulled note, got %#v", notes)
	}
}

func TestPullDirtyLocalWinsOverServer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "v1")
	f.sync(t)

	if _, err := f.store.UpdateJob(ctx, job.LocalID, store.JobUpdate{Title: "v2 local"}); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}
	f.client.FailNext("UpdateJob", 3, api.ErrTransport)

	// Push exhausts; pull still sees the stale server copy.
	f.sync(t)

	local, err := f.store.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if local.Title != "v2 local" || !local.Dirty {
		t.Fatalf("dirty local edit must survive the pull: %#v", local)
	}

	f.sync(t)
	remote, ok := f.client.Job(job.LocalID)
	if !ok || remote.Title != "v2 local" {
		t.Fatalf("local edit should land once the push succeeds: %#v", remote)
	}
}

func TestPullServerWinsWhenClean(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "v1")
	f.sync(t)

	synced, err := f.store.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if _, err := f.client.UpdateJob(ctx, synced.ServerID, api.JobRequest{
		ClientID: job.LocalID,
		Title:    "edited on another device",
	}); err != nil {
		t.Fatalf("remote update failed: %v", err)
	}

	f.sync(t)

	local, err := f.store.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if local.Title != "edited on another device" || local.Dirty {
		t.Fatalf("server state should overwrite the clean row: %#v", local)
	}
}

func TestVideoUploadsAfterParentMapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Video job")
	video, err := f.store.AddVideo(ctx, job.LocalID, "/tmp/site.mp4")
	if err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	f.sync(t)

	uploaded, err := f.store.GetVideo(ctx, video.LocalID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if uploaded.Status != store.VideoUploaded || uploaded.ServerID == "" {
		t.Fatalf("expected uploaded video, got %#v", uploaded)
	}
	if f.queueLength(t) != 0 {
		t.Fatal("expected upload mutation removed")
	}
}

func TestVideoSkippedWhileParentUnresolved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Unmapped parent")
	video, err := f.store.AddVideo(ctx, job.LocalID, "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	f.client.FailNext("CreateJob", 3, api.ErrTransport)
	f.sync(t)

	pending, err := f.store.GetVideo(ctx, video.LocalID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if pending.Status != store.VideoPending || pending.RetryCount != 0 {
		t.Fatalf("skipped upload must not consume the attempt budget: %#v", pending)
	}
	if f.client.Calls["UploadVideo"] != 0 {
		t.Fatal("no upload should be attempted without a parent mapping")
	}

	f.sync(t)
	uploaded, err := f.store.GetVideo(ctx, video.LocalID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if uploaded.Status != store.VideoUploaded {
		t.Fatalf("expected upload once the parent resolved, got %s", uploaded.Status)
	}
}

func TestVideoFailsAtCapAndRecoversOnUserRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, f.store, "Cursed upload")
	f.sync(t)

	video, err := f.store.AddVideo(ctx, job.LocalID, "/tmp/cursed.mp4")
	if err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}
	f.client.FailNext("UploadVideo", 3, api.ErrTransport)

	// One attempt per trigger; the third failure hits the cap.
	for attempt := 1; attempt <= 3; attempt++ {
		f.sync(t)
		current, err := f.store.GetVideo(ctx, video.LocalID)
		if err != nil {
			t.Fatalf("GetVideo failed: %v", err)
		}
		if current.RetryCount != attempt {
			t.Fatalf("attempt %d: retry count %d", attempt, current.RetryCount)
		}
	}

	failed, err := f.store.GetVideo(ctx, video.LocalID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if failed.Status != store.VideoFailed {
		t.Fatalf("expected failed at cap, got %s", failed.Status)
	}

	// Further triggers must not hammer the failed upload.
	f.sync(t)
	if f.client.Calls["UploadVideo"] != 3 {
		t.Fatalf("failed video must not be re-attempted, got %d calls", f.client.Calls["UploadVideo"])
	}

	if _, err := f.store.RetryVideo(ctx, video.LocalID); err != nil {
		t.Fatalf("RetryVideo failed: %v", err)
	}
	f.sync(t)

	uploaded, err := f.store.GetVideo(ctx, video.LocalID)
	if err != nil {
		t.Fatalf("GetVideo failed: %v", err)
	}
	if uploaded.Status != store.VideoUploaded {
		t.Fatalf("expected upload after user retry, got %s", uploaded.Status)
	}
}

func TestUnauthorizedAbortsWithoutRetries(t *testing.T) {
	f := newFixture(t)

	testsupport.MustCreateJob(t, f.store, "Bad token")
	f.client.FailNext("CreateJob", 1, api.ErrUnauthorized)

	f.sync(t)

	if f.client.Calls["CreateJob"] != 1 {
		t.Fatalf("credential failures must not be retried, got %d calls", f.client.Calls["CreateJob"])
	}
	if f.queueLength(t) != 1 {
		t.Fatal("item should stay queued for after re-authentication")
	}
}

func TestSyncSkipsWhileOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := testsupport.NewFakeClient()
	eng := engine.New(cfg, st, client, func() bool { return false }, logging.NewNop())

	testsupport.MustCreateJob(t, st, "Offline job")
	if err := eng.Sync(context.Background(), network.TriggerManual); err != nil {
		t.Fatalf("offline sync should be a clean no-op: %v", err)
	}

	if client.Calls["CreateJob"] != 0 || client.Calls["ListJobs"] != 0 {
		t.Fatal("no remote calls expected while offline")
	}
	length, err := st.QueueLength(context.Background())
	if err != nil {
		t.Fatalf("QueueLength failed: %v", err)
	}
	if length != 1 {
		t.Fatal("queue must be untouched while offline")
	}
}

func TestOfflineEditsFlushOnReconnect(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	client := testsupport.NewFakeClient()
	observer := network.NewObserver()
	eng := engine.NewWithObserver(cfg, st, client, observer, logging.NewNop())
	ctx := context.Background()

	observer.SetOnline(false)

	job := testsupport.MustCreateJob(t, st, "Offline burst")
	if _, err := st.CreateNote(ctx, job.LocalID, "queued offline"); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if err := eng.Sync(ctx, network.TriggerManual); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if client.JobCount() != 0 {
		t.Fatal("nothing should reach the server while offline")
	}

	observer.SetOnline(true)
	if err := eng.Sync(ctx, network.TriggerOnline); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if client.JobCount() != 1 {
		t.Fatalf("queued work should flush on reconnect, server has %d", client.JobCount())
	}
	length, err := st.QueueLength(ctx)
	if err != nil {
		t.Fatalf("QueueLength failed: %v", err)
	}
	if length != 0 {
		t.Fatalf("expected empty queue after reconnect, got %d", length)
	}
}
