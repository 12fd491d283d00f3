package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"qcmpipeline"
)

func main() {
	var (
		inputFile    = flag.String("in", "", "Input corpus file (required)")
		modulesDir   = flag.String("modules", "", "Directory of extracted module JSON files (required)")
		keywordsFile = flag.String("keywords", "", "Keywords file from qcmindex (required)")
		profilesFile = flag.String("profiles", "", "Per-module profile file (optional, defaults applied)")
		outputFile   = flag.String("out", "data/questions/validated.json", "Output corpus file (accepted + rejected)")
		contextThr   = flag.Float64("context-threshold", qcmpipeline.DefaultContextThreshold, "Global context score threshold")
		keywordsThr  = flag.Float64("keywords-threshold", qcmpipeline.DefaultKeywordsThreshold, "Global keywords overlap threshold")
		minValidated = flag.Int("min-validated", 2000, "Soft gate: minimum validated count (0 disables)")
		maxRejection = flag.Float64("max-rejection-rate", 0.20, "Soft gate: maximum rejection rate (0 disables)")
		apiKey       = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY)")
		timeout      = flag.Duration("timeout", 2*time.Hour, "Overall run timeout")
		verbose      = flag.Bool("verbose", false, "Enable debug output")
	)
	flag.Parse()

	_ = godotenv.Load()
	qcmpipeline.SetupLogging(*verbose)
	log := qcmpipeline.Log

	if *inputFile == "" || *modulesDir == "" || *keywordsFile == "" {
		log.Fatal().Msg("-in, -modules and -keywords are required")
	}
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal().Msg("OpenAI API key is required: use -api-key or set OPENAI_API_KEY")
		}
	}

	questions, err := qcmpipeline.LoadCorpus(*inputFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load corpus")
	}
	log.Info().Int("questions", len(questions)).Msg("corpus loaded")

	chunks, err := qcmpipeline.LoadChunkIndex(*modulesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load modules")
	}

	keywords := qcmpipeline.KeywordIndex{}
	if err := qcmpipeline.LoadJSON(*keywordsFile, &keywords); err != nil {
		log.Fatal().Err(err).Msg("failed to load keywords")
	}

	profiles, err := qcmpipeline.LoadModuleProfiles(*profilesFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load profiles")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Building the scoring context embeds the seed sentences; an unavailable
	// embedding backend fails here, before any question is touched.
	embedder := qcmpipeline.NewOpenAIEmbedder(*apiKey)
	scoring, err := qcmpipeline.NewScoringContext(ctx, embedder, chunks, keywords)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build scoring context")
	}

	if err := scoring.ScoreAll(ctx, questions, profiles); err != nil {
		log.Fatal().Err(err).Msg("scoring failed")
	}

	cfg := qcmpipeline.ValidatorConfig{
		ContextThreshold:  *contextThr,
		KeywordsThreshold: *keywordsThr,
		Profiles:          profiles,
		MinValidated:      *minValidated,
		MaxRejectionRate:  *maxRejection,
	}
	accepted, rejected, stats := qcmpipeline.Validate(questions, cfg)
	gatesMet := qcmpipeline.ReportValidation(stats, cfg)

	coverage := chunks.Coverage(accepted)
	for module, cs := range coverage {
		log.Info().Str("module", module).
			Int("covered", cs.CoveredChunks).
			Int("total", cs.TotalChunks).
			Float64("percent", cs.Percent()).
			Msg("chunk coverage")
	}

	// The output is written even when the gates fail, so the operator can
	// inspect the partition and decide how to proceed.
	err = qcmpipeline.SavePartitioned(*outputFile, accepted, rejected, map[string]any{
		"validation": stats,
		"coverage":   coverage,
		"thresholds": map[string]float64{
			"context_score":    *contextThr,
			"keywords_overlap": *keywordsThr,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write output")
	}
	log.Info().Str("out", *outputFile).Msg("validated corpus saved")

	if !gatesMet {
		os.Exit(1)
	}
}
