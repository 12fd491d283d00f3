package qcmpipeline

import (
	"path/filepath"
	"sync"
	"testing"
)

func TestProgressWriterWritesSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "progress.json")
	pw, err := NewProgressWriter(path, "run-1")
	if err != nil {
		t.Fatal(err)
	}

	pw.Update(200, 50, 45, 5, 120)

	var snap progressSnapshot
	if err := LoadJSON(path, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.RunID != "run-1" {
		t.Errorf("run_id = %q", snap.RunID)
	}
	if snap.ProgressPercent != 25 {
		t.Errorf("progress_percent = %v, want 25", snap.ProgressPercent)
	}
	if snap.SuccessRate != 90 {
		t.Errorf("success_rate = %v, want 90", snap.SuccessRate)
	}
	if snap.Generated != 120 {
		t.Errorf("qcms_generated = %d", snap.Generated)
	}
}

func TestProgressWriterZeroTotals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	pw, err := NewProgressWriter(path, "run-2")
	if err != nil {
		t.Fatal(err)
	}

	pw.Update(0, 0, 0, 0, 0)

	var snap progressSnapshot
	if err := LoadJSON(path, &snap); err != nil {
		t.Fatal(err)
	}
	if snap.ProgressPercent != 0 || snap.SuccessRate != 0 {
		t.Errorf("zero-work snapshot = %+v", snap)
	}
}

func TestProgressWriterConcurrentUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	pw, err := NewProgressWriter(path, "run-3")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			pw.Update(20, n, n, 0, n*3)
		}(i + 1)
	}
	wg.Wait()

	// Whatever update landed last, the file must hold complete JSON.
	var snap progressSnapshot
	if err := LoadJSON(path, &snap); err != nil {
		t.Fatalf("progress file not valid JSON after concurrent updates: %v", err)
	}
	if snap.TotalChunks != 20 {
		t.Errorf("total_chunks = %d", snap.TotalChunks)
	}
}
