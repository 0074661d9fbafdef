package store_test

import (
	"context"
	"errors"
	"testing"

	"jobsync/internal/store"
	"jobsync/internal/testsupport"
)

func TestCreateJobEnqueuesMutation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job, err := st.CreateJob(ctx, store.NewJob{Title: "Kitchen remodel", Location: "Bergen", Budget: 25000})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if job.LocalID == "" {
		t.Fatal("expected local id to be assigned")
	}
	if !job.Dirty {
		t.Fatal("expected new job to be dirty")
	}

	fetched, err := st.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Title != "Kitchen remodel" || fetched.ServerID != "" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}

	items, err := st.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(items) != 1 || items[0].Action != store.ActionCreateJob {
		t.Fatalf("unexpected queue contents: %#v", items)
	}
	payload, err := items[0].DecodeJob()
	if err != nil {
		t.Fatalf("DecodeJob failed: %v", err)
	}
	if payload.LocalID != job.LocalID || payload.Title != job.Title {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}

func TestUpdateJobReplacesFieldsAndEnqueues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Roof repair")
	updated, err := st.UpdateJob(ctx, job.LocalID, store.JobUpdate{
		Title:    "Roof replacement",
		Location: job.Location,
		Budget:   40000,
	})
	if err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}
	if updated.Title != "Roof replacement" || updated.Budget != 40000 {
		t.Fatalf("unexpected updated job: %#v", updated)
	}

	items, err := st.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected create and update mutations, got %d", len(items))
	}
	if items[1].Action != store.ActionUpdateJob {
		t.Fatalf("expected update_job second, got %s", items[1].Action)
	}
	payload, err := items[1].DecodeJob()
	if err != nil {
		t.Fatalf("DecodeJob failed: %v", err)
	}
	if payload.Title != "Roof replacement" {
		t.Fatalf("update payload should carry the full replay state: %#v", payload)
	}
}

func TestUpdateMissingJobReturnsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.UpdateJob(context.Background(), "missing", store.JobUpdate{Title: "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteJobCapturesServerMappingAndCascades(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Fence install")
	if err := st.SetJobServerID(ctx, job.LocalID, "srv-77"); err != nil {
		t.Fatalf("SetJobServerID failed: %v", err)
	}
	note, err := st.CreateNote(ctx, job.LocalID, "measure twice")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	if err := st.DeleteJob(ctx, job.LocalID); err != nil {
		t.Fatalf("DeleteJob failed: %v", err)
	}

	if _, err := st.GetJob(ctx, job.LocalID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected job row gone, got %v", err)
	}
	found, err := st.FindNote(ctx, note.LocalID)
	if err != nil {
		t.Fatalf("FindNote failed: %v", err)
	}
	if found != nil {
		t.Fatal("expected note row to cascade with job delete")
	}

	items, err := st.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	last := items[len(items)-1]
	if last.Action != store.ActionDeleteJob {
		t.Fatalf("expected delete_job last, got %s", last.Action)
	}
	payload, err := last.DecodeDeleteJob()
	if err != nil {
		t.Fatalf("DecodeDeleteJob failed: %v", err)
	}
	if payload.ServerID != "srv-77" {
		t.Fatalf("delete payload should capture the server mapping: %#v", payload)
	}
}

func TestDrainPreservesEnqueueOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Deck build")
	if _, err := st.CreateNote(ctx, job.LocalID, "order lumber"); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if _, err := st.UpdateJob(ctx, job.LocalID, store.JobUpdate{Title: "Deck rebuild"}); err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	items, err := st.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	want := []store.Action{store.ActionCreateJob, store.ActionCreateNote, store.ActionUpdateJob}
	if len(items) != len(want) {
		t.Fatalf("expected %d mutations, got %d", len(want), len(items))
	}
	for i, action := range want {
		if items[i].Action != action {
			t.Fatalf("position %d: expected %s, got %s", i, action, items[i].Action)
		}
		if i > 0 && items[i].Seq <= items[i-1].Seq {
			t.Fatalf("sequence numbers must increase: %#v", items)
		}
	}
}

func TestRemoveMutationIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustCreateJob(t, st, "Garage door")
	items, err := st.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if err := st.RemoveMutation(ctx, items[0].Seq); err != nil {
		t.Fatalf("RemoveMutation failed: %v", err)
	}
	if err := st.RemoveMutation(ctx, items[0].Seq); err != nil {
		t.Fatalf("second RemoveMutation should be a no-op: %v", err)
	}

	length, err := st.QueueLength(ctx)
	if err != nil {
		t.Fatalf("QueueLength failed: %v", err)
	}
	if length != 0 {
		t.Fatalf("expected empty queue, got %d", length)
	}
}

func TestClearQueueReportsRemovedCount(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.MustCreateJob(t, st, "Job A")
	testsupport.MustCreateJob(t, st, "Job B")

	removed, err := st.ClearQueue(ctx)
	if err != nil {
		t.Fatalf("ClearQueue failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
}

func TestSetJobServerIDClearsDirty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Driveway pour")
	if err := st.SetJobServerID(ctx, job.LocalID, "srv-1"); err != nil {
		t.Fatalf("SetJobServerID failed: %v", err)
	}

	fetched, err := st.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.ServerID != "srv-1" || fetched.Dirty {
		t.Fatalf("expected mapped clean job, got %#v", fetched)
	}

	if err := st.SetJobServerID(ctx, job.LocalID, ""); err == nil {
		t.Fatal("expected error for empty server id")
	}
}

func TestBackfillJobServerIDKeepsDirtyAndExistingMapping(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Siding")
	if err := st.BackfillJobServerID(ctx, job.LocalID, "srv-9"); err != nil {
		t.Fatalf("BackfillJobServerID failed: %v", err)
	}

	fetched, err := st.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.ServerID != "srv-9" {
		t.Fatalf("expected backfilled mapping, got %#v", fetched)
	}
	if !fetched.Dirty {
		t.Fatal("backfill must not clear the dirty flag")
	}

	if err := st.BackfillJobServerID(ctx, job.LocalID, "srv-other"); err != nil {
		t.Fatalf("BackfillJobServerID failed: %v", err)
	}
	fetched, err = st.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.ServerID != "srv-9" {
		t.Fatal("backfill must never overwrite an existing mapping")
	}
}

func TestReplaceJobFromServerProducesCleanRow(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Old title")
	replacement := *job
	replacement.Title = "Server title"
	replacement.ServerID = "srv-3"
	if err := st.ReplaceJobFromServer(ctx, &replacement); err != nil {
		t.Fatalf("ReplaceJobFromServer failed: %v", err)
	}

	fetched, err := st.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fetched.Title != "Server title" || fetched.ServerID != "srv-3" || fetched.Dirty {
		t.Fatalf("expected clean server-state row, got %#v", fetched)
	}
}

func TestCreateNoteRequiresParentJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	_, err := st.CreateNote(context.Background(), "missing-job", "content")
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestDeleteNoteCapturesParentMapping(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Painting")
	if err := st.SetJobServerID(ctx, job.LocalID, "srv-job-5"); err != nil {
		t.Fatalf("SetJobServerID failed: %v", err)
	}
	note, err := st.CreateNote(ctx, job.LocalID, "prime first")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if err := st.SetNoteServerID(ctx, note.LocalID, "srv-note-5"); err != nil {
		t.Fatalf("SetNoteServerID failed: %v", err)
	}

	if err := st.DeleteNote(ctx, note.LocalID); err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}

	items, err := st.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	last := items[len(items)-1]
	payload, err := last.DecodeDeleteNote()
	if err != nil {
		t.Fatalf("DecodeDeleteNote failed: %v", err)
	}
	if payload.ServerID != "srv-note-5" || payload.JobServerID != "srv-job-5" {
		t.Fatalf("delete payload should capture both mappings: %#v", payload)
	}
}

func TestVideoFailureCountsTowardCap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Site survey")
	video, err := st.AddVideo(ctx, job.LocalID, "/tmp/site.mp4")
	if err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}
	if video.Status != store.VideoPending {
		t.Fatalf("expected pending video, got %s", video.Status)
	}

	for attempt := 1; attempt <= 3; attempt++ {
		updated, err := st.RecordVideoFailure(ctx, video.LocalID, "connection reset", 3)
		if err != nil {
			t.Fatalf("RecordVideoFailure failed: %v", err)
		}
		if updated.RetryCount != attempt {
			t.Fatalf("attempt %d: retry count %d", attempt, updated.RetryCount)
		}
		if attempt < 3 && updated.Status != store.VideoPending {
			t.Fatalf("attempt %d: expected pending, got %s", attempt, updated.Status)
		}
		if attempt == 3 && updated.Status != store.VideoFailed {
			t.Fatalf("expected failed at cap, got %s", updated.Status)
		}
	}
}

func TestRetryVideoResetsAttemptBudget(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Walkthrough")
	video, err := st.AddVideo(ctx, job.LocalID, "/tmp/walk.mp4")
	if err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}

	if _, err := st.RetryVideo(ctx, video.LocalID); err == nil {
		t.Fatal("expected error retrying a video that is not failed")
	}

	if _, err := st.RecordVideoFailure(ctx, video.LocalID, "timeout", 1); err != nil {
		t.Fatalf("RecordVideoFailure failed: %v", err)
	}

	retried, err := st.RetryVideo(ctx, video.LocalID)
	if err != nil {
		t.Fatalf("RetryVideo failed: %v", err)
	}
	if retried.Status != store.VideoPending || retried.RetryCount != 0 || retried.ErrorMessage != "" {
		t.Fatalf("expected reset pending video, got %#v", retried)
	}
}

func TestStatusAggregatesUnpushedState(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.MustCreateJob(t, st, "Status job")
	if _, err := st.CreateNote(ctx, job.LocalID, "note"); err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	video, err := st.AddVideo(ctx, job.LocalID, "/tmp/a.mp4")
	if err != nil {
		t.Fatalf("AddVideo failed: %v", err)
	}
	if _, err := st.RecordVideoFailure(ctx, video.LocalID, "boom", 1); err != nil {
		t.Fatalf("RecordVideoFailure failed: %v", err)
	}

	status, err := st.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.QueueLength != 3 {
		t.Fatalf("expected 3 queued mutations, got %d", status.QueueLength)
	}
	if status.DirtyJobs != 1 || status.DirtyNotes != 1 {
		t.Fatalf("unexpected dirty counts: %#v", status)
	}
	if status.PendingVideos != 0 || status.FailedVideos != 1 {
		t.Fatalf("unexpected video counts: %#v", status)
	}
}

func TestReopenPreservesQueue(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	job, err := first.CreateJob(ctx, store.NewJob{Title: "Persist me"})
	if err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	items, err := second.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(items) != 1 || items[0].Action != store.ActionCreateJob {
		t.Fatalf("queue should survive restart: %#v", items)
	}
	fetched, err := second.GetJob(ctx, job.LocalID)
	if err != nil {
		t.Fatalf("GetJob after reopen failed: %v", err)
	}
	if !fetched.Dirty {
		t.Fatal("dirty flag should survive restart")
	}
}
