package main

import (
	"flag"
	"path/filepath"

	"github.com/google/uuid"

	"qcmpipeline"
)

func main() {
	var (
		inputFile = flag.String("in", "", "Final consolidated corpus file (required)")
		examsDir  = flag.String("exams-dir", "", "Directory of exam JSON files (optional)")
		dbPath    = flag.String("db", "data/corpus.db", "SQLite archive path")
		version   = flag.String("version", "", "Corpus version tag recorded with the run")
		verbose   = flag.Bool("verbose", false, "Enable debug output")
	)
	flag.Parse()

	qcmpipeline.SetupLogging(*verbose)
	log := qcmpipeline.Log

	if *inputFile == "" {
		log.Fatal().Msg("-in is required")
	}

	questions, err := qcmpipeline.LoadCorpus(*inputFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load corpus")
	}

	// The archive only ever receives format-valid questions.
	for _, q := range questions {
		if err := q.ValidateFormat(); err != nil {
			log.Fatal().Err(err).Str("question", q.Key()).Msg("corpus contains an invalid question, refusing to publish")
		}
	}

	var exams []*qcmpipeline.Exam
	if *examsDir != "" {
		files, err := filepath.Glob(filepath.Join(*examsDir, "*.json"))
		if err != nil {
			log.Fatal().Err(err).Msg("failed to scan exams directory")
		}
		for _, file := range files {
			var exam qcmpipeline.Exam
			if err := qcmpipeline.LoadJSON(file, &exam); err != nil {
				log.Fatal().Err(err).Str("file", file).Msg("failed to load exam")
			}
			exams = append(exams, &exam)
		}
	}

	db, err := qcmpipeline.OpenCorpusDB(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open archive")
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema")
	}
	if err := db.PublishQuestions(questions); err != nil {
		log.Fatal().Err(err).Msg("failed to publish questions")
	}
	if err := db.PublishExams(exams); err != nil {
		log.Fatal().Err(err).Msg("failed to publish exams")
	}

	runID := uuid.NewString()
	if err := db.RecordPublishRun(runID, *version, len(questions), len(exams)); err != nil {
		log.Fatal().Err(err).Msg("failed to record publish run")
	}

	count, err := db.CountQuestions()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to verify archive")
	}
	log.Info().
		Str("run_id", runID).
		Int("questions", count).
		Int("exams", len(exams)).
		Str("db", *dbPath).
		Msg("publish complete")
}
