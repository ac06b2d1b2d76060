package recorder

import (
	"context"
	"strings"
	"testing"
	"time"
)

func newTestRecorder(t *testing.T) *SqliteRecorder {
	t.Helper()
	rec, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("failed to create recorder: %v", err)
	}
	t.Cleanup(func() { rec.Close() })
	return rec
}

func record(t *testing.T, rec *SqliteRecorder, a Attempt) SavedAttempt {
	t.Helper()
	saved, err := rec.RecordAttempt(context.Background(), a)
	if err != nil {
		t.Fatalf("RecordAttempt failed: %v", err)
	}
	return saved
}

func TestVersionsMonotonicPerFingerprint(t *testing.T) {
	rec := newTestRecorder(t)

	a := Attempt{Task: "get patient example", Code: "v1", Success: false, ErrorClass: "Undefined"}
	s1 := record(t, rec, a)
	a.Code = "v2"
	s2 := record(t, rec, a)
	a.Code = "v3"
	s3 := record(t, rec, a)

	if s1.Version != 1 || s2.Version != 2 || s3.Version != 3 {
		t.Errorf("expected versions 1,2,3 got %d,%d,%d", s1.Version, s2.Version, s3.Version)
	}
	if s1.Fingerprint != s2.Fingerprint {
		t.Error("same task must share a fingerprint")
	}

	other := record(t, rec, Attempt{Task: "another task", Code: "x", Success: true})
	if other.Version != 1 {
		t.Errorf("new fingerprint starts at version 1, got %d", other.Version)
	}
	if other.Fingerprint == s1.Fingerprint {
		t.Error("different tasks must not share a fingerprint")
	}
}

func TestBestVersionAlwaysAdvancesToNewestSuccess(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()
	task := "get patient example"
	fp := Fingerprint(task)

	record(t, rec, Attempt{Task: task, Code: "v1", Success: false, ErrorClass: "Undefined"})
	if _, ok := rec.BestVersion(ctx, fp); ok {
		t.Error("no best version before a success")
	}

	record(t, rec, Attempt{Task: task, Code: "v2", Success: true})
	if v, ok := rec.BestVersion(ctx, fp); !ok || v != 2 {
		t.Errorf("expected best version 2, got %d (ok=%v)", v, ok)
	}

	record(t, rec, Attempt{Task: task, Code: "v3", Success: false, ErrorClass: "Panic"})
	if v, _ := rec.BestVersion(ctx, fp); v != 2 {
		t.Errorf("failure must not move the best version, got %d", v)
	}

	record(t, rec, Attempt{Task: task, Code: "v4", Success: true})
	if v, _ := rec.BestVersion(ctx, fp); v != 4 {
		t.Errorf("best version must advance to the newest success, got %d", v)
	}
}

func TestPatternCodeFreezesAfterLearningWindow(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()
	task := "print hello"

	codes := []string{"first", "second", "third", "fourth"}
	for _, code := range codes {
		record(t, rec, Attempt{Task: task, Code: code, Success: true})
	}

	// The first three successes kept updating the fragment; the fourth
	// arrived after the window closed and was ignored.
	got, ok := rec.BestPattern(ctx, task)
	if !ok {
		t.Fatal("expected a learned pattern")
	}
	if got != "third" {
		t.Errorf("expected frozen fragment %q, got %q", "third", got)
	}
}

func TestBestPatternRequiresASuccess(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	record(t, rec, Attempt{Task: "t", Code: "bad", Success: false, ErrorClass: "Panic"})
	if _, ok := rec.BestPattern(ctx, "t"); ok {
		t.Error("failures alone must not produce a pattern")
	}
	if _, ok := rec.BestPattern(ctx, "never seen"); ok {
		t.Error("unknown task must not produce a pattern")
	}
}

func TestErrorFixLearnedFromRecovery(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()
	task := "get patient example"

	record(t, rec, Attempt{Task: task, Code: "broken", Success: false, ErrorClass: "Undefined", ErrorMessage: "undefined: foo"})
	record(t, rec, Attempt{Task: task, Code: "fixed", Success: true, PrevErrorClass: "Undefined"})

	fix, ok := rec.ErrorFix(ctx, "Undefined")
	if !ok {
		t.Fatal("expected a learned fix for Undefined")
	}
	if fix != "fixed" {
		t.Errorf("expected the recovering code as the fix, got %q", fix)
	}

	if _, ok := rec.ErrorFix(ctx, "Timeout"); ok {
		t.Error("unknown class must not produce a fix")
	}
}

func TestBoundedColumnLengths(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	longTask := strings.Repeat("t", maxTaskLen+100)
	longCode := strings.Repeat("c", maxCodeLen+100)
	record(t, rec, Attempt{Task: longTask, Code: longCode, Success: true, Duration: time.Second})

	rows, err := rec.RecentAttempts(ctx, 1)
	if err != nil {
		t.Fatalf("RecentAttempts failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if len(rows[0].Task) != maxTaskLen {
		t.Errorf("expected task truncated to %d, got %d", maxTaskLen, len(rows[0].Task))
	}

	// Retrieval keys truncate the same way, so the pattern is reachable.
	if _, ok := rec.BestPattern(ctx, longTask); !ok {
		t.Error("expected pattern reachable under the truncated key")
	}
}

func TestRecentAttemptsNewestFirst(t *testing.T) {
	rec := newTestRecorder(t)
	ctx := context.Background()

	record(t, rec, Attempt{RunID: "r1", Task: "a", Code: "1", Success: false, ErrorClass: "Panic"})
	record(t, rec, Attempt{RunID: "r2", Task: "b", Code: "2", Success: true})

	rows, err := rec.RecentAttempts(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAttempts failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Task != "b" || rows[1].Task != "a" {
		t.Errorf("expected newest first, got %q then %q", rows[0].Task, rows[1].Task)
	}
	if !rows[0].Success || rows[1].Success {
		t.Error("success flags not preserved")
	}
}

func TestFingerprintStable(t *testing.T) {
	if Fingerprint("task") != Fingerprint("task") {
		t.Error("fingerprint must be stable")
	}
	if Fingerprint("task") == Fingerprint("other task") {
		t.Error("different tasks must fingerprint differently")
	}
	if len(Fingerprint("task")) != 12 {
		t.Errorf("expected 12-char fingerprint, got %d", len(Fingerprint("task")))
	}
}

func TestArtifactWrittenOnRecord(t *testing.T) {
	rec := newTestRecorder(t).WithArtifacts(t.TempDir())

	saved := record(t, rec, Attempt{Task: "print hello world", Code: "func main() {}", Success: true})
	if saved.FilePath == "" {
		t.Fatal("expected artifact path on saved attempt")
	}
	if !strings.Contains(saved.FilePath, saved.Fingerprint) {
		t.Errorf("expected fingerprint in artifact name, got %s", saved.FilePath)
	}
	if !strings.HasSuffix(saved.FilePath, "_v1.go") {
		t.Errorf("expected version suffix in artifact name, got %s", saved.FilePath)
	}
}
