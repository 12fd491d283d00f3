package qcmpipeline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// CorpusDB is the SQLite archive the quiz application reads from. The
// publish stage writes the final corpus and the assembled exams here
// wholesale; the pipeline itself never reads it back.
type CorpusDB struct {
	db *sql.DB
}

// OpenCorpusDB opens (or creates) the archive database.
func OpenCorpusDB(dbPath string) (*CorpusDB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &CorpusDB{db: db}, nil
}

// Close closes the database connection.
func (cdb *CorpusDB) Close() error {
	return cdb.db.Close()
}

// CreateTables creates the archive schema if it does not exist.
func (cdb *CorpusDB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			key TEXT PRIMARY KEY,
			chunk_id TEXT,
			module_id TEXT NOT NULL,
			difficulty TEXT,
			mode TEXT,
			text TEXT NOT NULL,
			options TEXT NOT NULL,
			correct_answer INTEGER NOT NULL,
			explanation TEXT NOT NULL,
			source_context TEXT,
			source_pdf TEXT,
			page INTEGER,
			biomedical_score REAL,
			context_score REAL,
			keywords_overlap REAL,
			refined INTEGER NOT NULL DEFAULT 0,
			corrected INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS exams (
			exam_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			duration_minutes INTEGER NOT NULL,
			question_count INTEGER NOT NULL,
			question_ids TEXT NOT NULL,
			module_weights TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS publish_runs (
			run_id TEXT PRIMARY KEY,
			published_at DATETIME NOT NULL,
			total_questions INTEGER NOT NULL,
			total_exams INTEGER NOT NULL,
			version TEXT
		)`,
	}

	for _, query := range queries {
		if _, err := cdb.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// PublishQuestions replaces the questions table content with the given
// corpus, inside one transaction so the app never reads a half-written
// archive.
func (cdb *CorpusDB) PublishQuestions(questions []*Question) error {
	tx, err := cdb.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM questions"); err != nil {
		return fmt.Errorf("failed to clear questions: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO questions
		(key, chunk_id, module_id, difficulty, mode, text, options, correct_answer,
		 explanation, source_context, source_pdf, page,
		 biomedical_score, context_score, keywords_overlap, refined, corrected)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, q := range questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to marshal options for %s: %w", q.Key(), err)
		}
		_, err = stmt.Exec(
			q.Key(), q.ChunkID, q.Module(), q.Difficulty, q.Mode,
			q.Text, string(options), q.CorrectAnswer,
			q.Explanation, q.SourceContext, q.SourcePDF, q.Page,
			q.BiomedicalScore, q.ContextScore, q.KeywordsOverlap,
			boolToInt(q.Refined), boolToInt(q.CorrectedAutomatically),
		)
		if err != nil {
			return fmt.Errorf("failed to insert question %s: %w", q.Key(), err)
		}
	}
	return tx.Commit()
}

// PublishExams replaces the exams table content with the given exams.
func (cdb *CorpusDB) PublishExams(exams []*Exam) error {
	tx, err := cdb.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM exams"); err != nil {
		return fmt.Errorf("failed to clear exams: %w", err)
	}

	for _, exam := range exams {
		questionIDs, err := json.Marshal(exam.QuestionIDs)
		if err != nil {
			return fmt.Errorf("failed to marshal question ids for %s: %w", exam.ExamID, err)
		}
		weights, err := json.Marshal(exam.ModuleWeights)
		if err != nil {
			return fmt.Errorf("failed to marshal weights for %s: %w", exam.ExamID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO exams (exam_id, title, description, duration_minutes, question_count, question_ids, module_weights)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			exam.ExamID, exam.Title, exam.Description, exam.DurationMinutes,
			exam.QuestionCount, string(questionIDs), string(weights),
		)
		if err != nil {
			return fmt.Errorf("failed to insert exam %s: %w", exam.ExamID, err)
		}
	}
	return tx.Commit()
}

// RecordPublishRun writes the audit row for one publish invocation.
func (cdb *CorpusDB) RecordPublishRun(runID, version string, totalQuestions, totalExams int) error {
	_, err := cdb.db.Exec(
		"INSERT INTO publish_runs (run_id, published_at, total_questions, total_exams, version) VALUES (?, ?, ?, ?, ?)",
		runID, time.Now(), totalQuestions, totalExams, version,
	)
	if err != nil {
		return fmt.Errorf("failed to record publish run: %w", err)
	}
	return nil
}

// CountQuestions returns the number of archived questions.
func (cdb *CorpusDB) CountQuestions() (int, error) {
	var count int
	if err := cdb.db.QueryRow("SELECT COUNT(*) FROM questions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count questions: %w", err)
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
