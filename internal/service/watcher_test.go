package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// waitFor polls cond until it holds or timeout passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %v", timeout)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func scan(t *testing.T, w *Watcher) []ImportResult {
	t.Helper()
	results, err := w.Scan(background)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	return results
}

func TestWatcher_Scan(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	w := NewWatcher(newTestImporter(t, db), db, dir, time.Second, discardLogger())

	writeRun(t, dir, "a.tcx", runStart, 500, 2000, 150)
	writeFile(t, dir, "readme.txt", "ignored")

	results := scan(t, w)
	if len(results) != 1 || results[0].Status != StatusImported {
		t.Fatalf("first scan = %+v, want one imported", results)
	}

	// Known files are not offered again
	if results := scan(t, w); len(results) != 0 {
		t.Errorf("second scan = %+v, want none", results)
	}

	writeRun(t, dir, "b.tcx", runStart.AddDate(0, 0, 1), 600, 2000, 150)
	results = scan(t, w)
	if len(results) != 1 || results[0].Path != filepath.Join(dir, "b.tcx") {
		t.Errorf("third scan = %+v, want b.tcx", results)
	}

	if n := countWorkouts(t, db); n != 2 {
		t.Errorf("CountWorkouts = %d, want 2", n)
	}
}

func TestWatcher_RetriesFailedFileOnlyAfterChange(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	w := NewWatcher(newTestImporter(t, db), db, dir, time.Second, discardLogger())

	path := writeFile(t, dir, "late.tcx", "<TrainingCenterDatabase>")

	results := scan(t, w)
	if len(results) != 1 || results[0].Status != StatusFailed {
		t.Fatalf("first scan = %+v, want one failed", results)
	}
	if results := scan(t, w); len(results) != 0 {
		t.Errorf("unchanged file was retried: %+v", results)
	}

	// The device finishes writing the file
	if err := os.WriteFile(path, []byte(runTCX(runStart, 500, 2000, 150)), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	results = scan(t, w)
	if len(results) != 1 || results[0].Status != StatusImported {
		t.Errorf("scan after change = %+v, want one imported", results)
	}
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	db := openTestDB(t)
	dir := filepath.Join(t.TempDir(), "Archivos")
	w := NewWatcher(newTestImporter(t, db), db, dir, 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(background)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, time.Second, func() bool {
		_, err := os.Stat(dir)
		return err == nil
	})

	// Move the file in whole so a scan never sees it half written
	staged := writeRun(t, t.TempDir(), "a.tcx", runStart, 500, 2000, 150)
	if err := os.Rename(staged, filepath.Join(dir, "a.tcx")); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	waitFor(t, 5*time.Second, func() bool {
		n, err := db.CountWorkouts()
		return err == nil && n == 1
	})

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}
