package main

import (
	"flag"
	"math/rand"
	"path/filepath"
	"time"

	"qcmpipeline"
)

func main() {
	var (
		inputFile    = flag.String("in", "", "Consolidated corpus file (required)")
		outputDir    = flag.String("out-dir", "data/questions", "Output directory for mode files")
		examsDir     = flag.String("exams-dir", "data/exams", "Output directory for exam files")
		profilesFile = flag.String("profiles", "", "Per-module profile file (weights for the mixed exam)")
		seed         = flag.Int64("seed", 0, "Random seed for exam sampling (0 uses current time)")
		skipExams    = flag.Bool("skip-exams", false, "Only write the mode views")
		verbose      = flag.Bool("verbose", false, "Enable debug output")
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
	log.Info().Int("questions", len(questions)).Msg("corpus loaded")

	modes := qcmpipeline.ComposeModes(questions)
	for _, mode := range []string{qcmpipeline.ModeRevision, qcmpipeline.ModeEntrainement, qcmpipeline.ModeConcours} {
		path := filepath.Join(*outputDir, mode+".json")
		if err := qcmpipeline.SaveCorpus(path, modes[mode], nil); err != nil {
			log.Fatal().Err(err).Str("mode", mode).Msg("failed to write mode file")
		}
		log.Info().Str("mode", mode).Int("questions", len(modes[mode])).Str("out", path).Msg("mode written")
	}

	if *skipExams {
		return
	}

	profiles, err := qcmpipeline.LoadModuleProfiles(*profilesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load profiles")
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	log.Info().Int64("seed", *seed).Msg("exam sampling seed")

	pool := modes[qcmpipeline.ModeConcours]
	fallback := profiles.ExamWeights()
	for _, cfg := range qcmpipeline.DefaultExamConfigs {
		exam, err := qcmpipeline.BuildExam(cfg, pool, fallback, qcmpipeline.ExamSplit, rng)
		if err != nil {
			log.Fatal().Err(err).Str("exam", cfg.ExamID).Msg("failed to build exam")
		}
		path := filepath.Join(*examsDir, exam.ExamID+".json")
		if err := qcmpipeline.SaveJSON(path, exam); err != nil {
			log.Fatal().Err(err).Str("exam", exam.ExamID).Msg("failed to write exam")
		}
		log.Info().
			Str("exam", exam.ExamID).
			Int("questions", exam.QuestionCount).
			Str("out", path).
			Msg("exam written")
	}
}
