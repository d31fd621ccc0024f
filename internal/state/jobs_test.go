package state

import (
	"errors"
	"testing"
	"time"

	"github.com/ShayCichocki/sot/pkg/models"
)

func newJob(id string, started time.Time) *Job {
	return &Job{ID: id, Query: "List 3 tips", Mode: models.ModeParallel, StartedAt: started}
}

func TestStartAndFinishJob(t *testing.T) {
	db := setupTestDB(t)
	started := time.Now().Add(-2 * time.Second)

	j := newJob("6f1c2a40-0000-4000-8000-000000000001", started)
	if err := db.StartJob(j); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	got, err := db.GetJob(j.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != JobRunning {
		t.Errorf("Status = %q, want running", got.Status)
	}

	j.Status = JobPartial
	j.Partial = true
	j.Duration = 1500 * time.Millisecond
	j.OutputTokens = 321
	j.Sections = []models.Section{
		{Index: 1, Label: "A", Status: models.StatusSuccess, Body: "alpha"},
		{Index: 2, Label: "B", Status: models.StatusError, Body: "[point failed: Timeout]", ErrorKind: models.ErrorKindTimeout},
	}
	if err := db.FinishJob(j); err != nil {
		t.Fatalf("FinishJob failed: %v", err)
	}

	got, err = db.GetJob(j.ID)
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Status != JobPartial || !got.Partial {
		t.Errorf("got status %q partial %v, want partial", got.Status, got.Partial)
	}
	if got.PointCount != 2 {
		t.Errorf("PointCount = %d, want 2", got.PointCount)
	}
	if got.Duration != 1500*time.Millisecond {
		t.Errorf("Duration = %v, want 1.5s", got.Duration)
	}
	if got.OutputTokens != 321 {
		t.Errorf("OutputTokens = %d, want 321", got.OutputTokens)
	}
	if got.FinishedAt == nil {
		t.Error("FinishedAt should be set")
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if len(got.Sections) != 2 {
		t.Fatalf("Sections = %d, want 2", len(got.Sections))
	}
	if got.Sections[1].ErrorKind != models.ErrorKindTimeout {
		t.Errorf("section 2 kind = %q, want Timeout", got.Sections[1].ErrorKind)
	}
	if got.Sections[0].ErrorKind != "" {
		t.Errorf("section 1 kind = %q, want empty", got.Sections[0].ErrorKind)
	}
}

func TestFinishJob_Unknown(t *testing.T) {
	db := setupTestDB(t)

	err := db.FinishJob(&Job{ID: "missing", Status: JobFailed})
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestFinishJob_FailedWithoutSections(t *testing.T) {
	db := setupTestDB(t)
	j := newJob("job-failed", time.Now())
	if err := db.StartJob(j); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	j.Status = JobFailed
	j.Error = "decomposition produced no points"
	if err := db.FinishJob(j); err != nil {
		t.Fatalf("FinishJob failed: %v", err)
	}

	got, err := db.GetJob("job-failed")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if got.Error != j.Error {
		t.Errorf("Error = %q, want %q", got.Error, j.Error)
	}
	if len(got.Sections) != 0 {
		t.Errorf("Sections = %d, want 0", len(got.Sections))
	}
}

func TestGetJob_Prefix(t *testing.T) {
	db := setupTestDB(t)
	now := time.Now()
	for _, id := range []string{"abc111", "abc222", "def333"} {
		if err := db.StartJob(newJob(id, now)); err != nil {
			t.Fatalf("StartJob failed: %v", err)
		}
	}

	got, err := db.GetJob("def")
	if err != nil {
		t.Fatalf("GetJob(prefix) failed: %v", err)
	}
	if got.ID != "def333" {
		t.Errorf("ID = %q, want def333", got.ID)
	}

	if _, err := db.GetJob("abc"); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("err = %v, want ErrAmbiguousID", err)
	}

	if _, err := db.GetJob("zzz"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("err = %v, want ErrJobNotFound", err)
	}
}

func TestGetJob_PrefixIsLiteral(t *testing.T) {
	db := setupTestDB(t)
	if err := db.StartJob(newJob("abc111", time.Now())); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	for _, prefix := range []string{"", "%", "_", "a%", "ab_"} {
		if _, err := db.GetJob(prefix); !errors.Is(err, ErrJobNotFound) {
			t.Errorf("GetJob(%q) err = %v, want ErrJobNotFound", prefix, err)
		}
	}
}

func TestListJobs_NewestFirst(t *testing.T) {
	db := setupTestDB(t)
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		if err := db.StartJob(newJob(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("StartJob failed: %v", err)
		}
	}

	jobs, err := db.ListJobs(2)
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("len = %d, want 2", len(jobs))
	}
	if jobs[0].ID != "new" || jobs[1].ID != "mid" {
		t.Errorf("order = [%s %s], want [new mid]", jobs[0].ID, jobs[1].ID)
	}
}

func TestPurgeOldJobs(t *testing.T) {
	db := setupTestDB(t)
	old := newJob("old", time.Now().Add(-48*time.Hour))
	if err := db.StartJob(old); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	old.Status = JobCompleted
	old.Sections = []models.Section{{Index: 1, Label: "A", Status: models.StatusSuccess, Body: "x"}}
	if err := db.FinishJob(old); err != nil {
		t.Fatalf("FinishJob failed: %v", err)
	}
	if err := db.StartJob(newJob("recent", time.Now())); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	n, err := db.PurgeOldJobs(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldJobs failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}

	var points int
	if err := db.QueryRow("SELECT COUNT(*) FROM points").Scan(&points); err != nil {
		t.Fatalf("count points: %v", err)
	}
	if points != 0 {
		t.Errorf("points of purged job should cascade, got %d", points)
	}
}

func TestMarkInterrupted(t *testing.T) {
	db := setupTestDB(t)
	if err := db.StartJob(newJob("stale", time.Now().Add(-time.Hour))); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}
	if err := db.StartJob(newJob("live", time.Now())); err != nil {
		t.Fatalf("StartJob failed: %v", err)
	}

	n, err := db.MarkInterrupted(10 * time.Minute)
	if err != nil {
		t.Fatalf("MarkInterrupted failed: %v", err)
	}
	if n != 1 {
		t.Errorf("updated %d, want 1", n)
	}

	stale, _ := db.GetJob("stale")
	if stale.Status != JobInterrupted {
		t.Errorf("stale status = %q, want interrupted", stale.Status)
	}
	if stale.Error == "" {
		t.Error("interrupted job should carry an explanation")
	}
	live, _ := db.GetJob("live")
	if live.Status != JobRunning {
		t.Errorf("live status = %q, want running", live.Status)
	}
}
