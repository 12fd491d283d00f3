package qcmpipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// ProgressWriter maintains a progress file updated as generation workers
// complete units of work. Writes are serialized by a mutex so concurrent
// workers never interleave partial JSON; this is operator bookkeeping, not
// corpus state.
type ProgressWriter struct {
	mu    sync.Mutex
	path  string
	runID string
}

// NewProgressWriter creates a progress writer for the given run. The parent
// directory is created eagerly so a failing first update is a setup error,
// not a mid-run surprise.
func NewProgressWriter(path, runID string) (*ProgressWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create progress directory: %w", err)
	}
	return &ProgressWriter{path: path, runID: runID}, nil
}

// progressSnapshot is the JSON shape of the progress file.
type progressSnapshot struct {
	RunID            string    `json:"run_id"`
	TotalChunks      int       `json:"total_chunks"`
	CompletedChunks  int       `json:"completed_chunks"`
	SuccessfulChunks int       `json:"successful_chunks"`
	FailedChunks     int       `json:"failed_chunks"`
	Generated        int       `json:"qcms_generated"`
	ProgressPercent  float64   `json:"progress_percent"`
	SuccessRate      float64   `json:"success_rate"`
	LastUpdate       time.Time `json:"last_update"`
}

// Update rewrites the progress file with the current counters. Write errors
// are swallowed: losing a progress tick must never fail the run.
func (pw *ProgressWriter) Update(total, completed, successful, failed, generated int) {
	pw.mu.Lock()
	defer pw.mu.Unlock()

	snap := progressSnapshot{
		RunID:            pw.runID,
		TotalChunks:      total,
		CompletedChunks:  completed,
		SuccessfulChunks: successful,
		FailedChunks:     failed,
		Generated:        generated,
		LastUpdate:       time.Now(),
	}
	if total > 0 {
		snap.ProgressPercent = float64(completed) / float64(total) * 100
	}
	if completed > 0 {
		snap.SuccessRate = float64(successful) / float64(completed) * 100
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(pw.path, data, 0644)
}
