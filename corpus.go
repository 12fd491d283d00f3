package qcmpipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// CorpusFile is the wrapper shape written by every stage: the question list
// plus run metadata and stage-specific stats.
type CorpusFile struct {
	GeneratedAt       time.Time      `json:"generated_at"`
	Version           string         `json:"version,omitempty"`
	TotalQuestions    int            `json:"total_questions"`
	Stats             map[string]any `json:"stats,omitempty"`
	Questions         []*Question    `json:"questions"`
	RejectedQuestions []*Question    `json:"rejected_questions,omitempty"`
}

// LoadCorpus reads a corpus file that is either a bare JSON array of
// questions or a CorpusFile wrapper. The shape is resolved once here; every
// later stage works on the normalized question slice.
func LoadCorpus(path string) ([]*Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus %s: %w", path, err)
	}

	var questions []*Question
	if err := json.Unmarshal(data, &questions); err == nil {
		return questions, nil
	}

	var wrapper CorpusFile
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("corpus %s is neither a question array nor a wrapper object: %w", path, err)
	}
	return wrapper.Questions, nil
}

// SaveCorpus writes questions as a CorpusFile wrapper, creating parent
// directories as needed. Stats may be nil.
func SaveCorpus(path string, questions []*Question, stats map[string]any) error {
	return saveCorpusFile(path, &CorpusFile{
		GeneratedAt:    time.Now(),
		TotalQuestions: len(questions),
		Stats:          stats,
		Questions:      questions,
	})
}

// SavePartitioned writes an accepted/rejected partition in one wrapper so the
// rejected side stays inspectable next to the corpus it was cut from.
func SavePartitioned(path string, accepted, rejected []*Question, stats map[string]any) error {
	return saveCorpusFile(path, &CorpusFile{
		GeneratedAt:       time.Now(),
		TotalQuestions:    len(accepted),
		Stats:             stats,
		Questions:         accepted,
		RejectedQuestions: rejected,
	})
}

func saveCorpusFile(path string, file *CorpusFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write corpus %s: %w", path, err)
	}
	return nil
}

// LoadJSON reads an arbitrary JSON mapping file (keywords, thresholds,
// profiles) into out.
func LoadJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// SaveJSON writes v as indented JSON, creating parent directories as needed.
func SaveJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
