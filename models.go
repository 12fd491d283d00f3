package qcmpipeline

import (
	"fmt"
	"strings"
)

// Question represents a single multiple-choice question (QCM) at any point of
// the pipeline. Fields are populated progressively: the generator fills the
// content and provenance fields, the scorers add quality signals, the
// validator adds the lifecycle flags. A stage never removes fields set by an
// earlier stage.
type Question struct {
	ID            string   `json:"id,omitempty"`
	ChunkID       string   `json:"chunk_id,omitempty"`
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"` // 0-based index
	Explanation   string   `json:"explanation"`
	SourceContext string   `json:"source_context,omitempty"`

	ModuleID   string `json:"module_id,omitempty"`
	Difficulty string `json:"difficulty,omitempty"` // easy, medium, hard
	Mode       string `json:"mode,omitempty"`       // revision, entrainement, concours

	SourcePDF string `json:"source_pdf,omitempty"`
	Page      int    `json:"page,omitempty"`

	// Quality signals, populated by the scorers.
	BiomedicalScore     float64 `json:"biomedical_score,omitempty"`
	BiomedicalThreshold float64 `json:"biomedical_threshold,omitempty"`
	ContextScore        float64 `json:"context_score,omitempty"`
	KeywordsOverlap     float64 `json:"keywords_overlap,omitempty"`
	AlignmentScore      float64 `json:"alignment_score,omitempty"`

	// Lifecycle flags.
	Rejected               bool     `json:"rejected,omitempty"`
	RejectionReasons       []string `json:"rejection_reasons,omitempty"`
	Refined                bool     `json:"refined,omitempty"`
	CorrectedAutomatically bool     `json:"corrected_automatically,omitempty"`
	PageVerified           bool     `json:"page_verified,omitempty"`
}

// Difficulty buckets.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Pedagogical modes derived from the final corpus.
const (
	ModeRevision     = "revision"
	ModeEntrainement = "entrainement"
	ModeConcours     = "concours"
)

// ModuleUnknown is the fallback topic for questions whose module could not be
// resolved. It has its own seed centroid and threshold.
const ModuleUnknown = "unknown"

// KnownModules is the closed set of topic tags used for scoring, thresholding
// and exam weighting. Any other module_id resolves to ModuleUnknown.
var KnownModules = []string{
	"bases_physio",
	"respiratoire",
	"cardio",
	"neuro",
	"pharma_generaux",
	"pharma_locaux",
	"pharma_opioides",
	"pharma_curares",
	"alr",
	"ventilation",
	"transfusion",
	"reanimation",
	"douleur",
	"infectio",
	"monitorage",
	"pediatrie",
	"legislation",
	ModuleUnknown,
}

// IsKnownModule reports whether id belongs to the closed module set.
func IsKnownModule(id string) bool {
	for _, m := range KnownModules {
		if m == id {
			return true
		}
	}
	return false
}

// Module returns the question's module id, normalized to ModuleUnknown when
// absent or outside the closed set.
func (q *Question) Module() string {
	if q.ModuleID == "" || !IsKnownModule(q.ModuleID) {
		return ModuleUnknown
	}
	return q.ModuleID
}

// Key returns the identity key used by the consolidator: the explicit id when
// present, otherwise the chunk id. Empty when the question carries neither.
func (q *Question) Key() string {
	if q.ID != "" {
		return q.ID
	}
	return q.ChunkID
}

// ScoredText returns the text submitted to embedding-based scorers: the
// question stem concatenated with its explanation.
func (q *Question) ScoredText() string {
	return strings.TrimSpace(q.Text + " " + q.Explanation)
}

// ValidateFormat checks the structural invariants every question must satisfy
// before entering the validated corpus: exactly 4 distinct non-empty options,
// a correct answer index in [0,3], and non-empty text and explanation.
func (q *Question) ValidateFormat() error {
	if len(q.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(q.Options))
	}
	seen := make(map[string]bool, 4)
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			return fmt.Errorf("option %d is empty", i)
		}
		if seen[opt] {
			return fmt.Errorf("duplicate option %q", opt)
		}
		seen[opt] = true
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer > 3 {
		return fmt.Errorf("correctAnswer %d out of range [0,3]", q.CorrectAnswer)
	}
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("empty question text")
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return fmt.Errorf("empty explanation")
	}
	return nil
}

// Clone returns a deep copy of the question. Mode views copy questions so
// that annotating one view never mutates another.
func (q *Question) Clone() *Question {
	c := *q
	c.Options = append([]string(nil), q.Options...)
	c.RejectionReasons = append([]string(nil), q.RejectionReasons...)
	return &c
}

// Chunk is a bounded span of source text extracted from a document. Chunks
// ground both generation and context-fidelity scoring.
type Chunk struct {
	ChunkID   string `json:"chunk_id"`
	Text      string `json:"text"`
	SourcePDF string `json:"source_pdf,omitempty"`
	PageStart int    `json:"page_start,omitempty"`
	PageEnd   int    `json:"page_end,omitempty"`
}

// ModuleProfile aggregates per-topic configuration: the adaptive biomedical
// threshold and the sampling weight used by the exam composer. Absent topics
// fall back to the global defaults.
type ModuleProfile struct {
	BiomedicalThreshold float64 `json:"biomedical_threshold,omitempty"`
	ExamWeight          float64 `json:"exam_weight,omitempty"`
}

// Exam is a derived, read-only view over the concours pool: a fixed-size
// weighted sample across modules and difficulty buckets.
type Exam struct {
	ExamID          string             `json:"exam_id"`
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	DurationMinutes int                `json:"duration_minutes"`
	QuestionCount   int                `json:"question_count"`
	QuestionIDs     []string           `json:"question_ids"`
	ModuleWeights   map[string]float64 `json:"module_weights"`
	DifficultyShare map[string]float64 `json:"difficulty_distribution"`
	Questions       []*Question        `json:"questions"`
}
