package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"qcmpipeline"
)

func main() {
	var (
		modulesDir   = flag.String("modules", "", "Directory of extracted module JSON files (required)")
		keywordsFile = flag.String("keywords", "", "Keywords file from qcmindex (optional, improves prompts)")
		outputFile   = flag.String("out", "data/questions/generated_raw.json", "Output corpus file")
		perChunk     = flag.Int("per-chunk", 3, "Questions to request per chunk")
		workers      = flag.Int("workers", qcmpipeline.DefaultWorkers, "Concurrent generation requests")
		model        = flag.String("model", "", "Chat model (default: GPT-4o)")
		apiKey       = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY)")
		targeted     = flag.String("targeted", "", "Targeted regeneration: module=count[,module=count...]")
		progressFile = flag.String("progress", "logs/generation_progress.json", "Progress file updated during the run")
		timeout      = flag.Duration("timeout", 2*time.Hour, "Overall run timeout")
		verbose      = flag.Bool("verbose", false, "Enable debug output")
	)
	flag.Parse()

	_ = godotenv.Load()
	qcmpipeline.SetupLogging(*verbose)
	log := qcmpipeline.Log

	if *modulesDir == "" {
		log.Fatal().Msg("-modules is required")
	}
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal().Msg("OpenAI API key is required: use -api-key or set OPENAI_API_KEY")
		}
	}

	chunks, err := qcmpipeline.LoadChunkIndex(*modulesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load modules")
	}
	log.Info().Int("chunks", chunks.Len()).Msg("modules loaded")

	keywords := qcmpipeline.KeywordIndex{}
	if *keywordsFile != "" {
		if err := qcmpipeline.LoadJSON(*keywordsFile, &keywords); err != nil {
			log.Fatal().Err(err).Msg("failed to load keywords")
		}
	}

	runID := uuid.NewString()
	progress, err := qcmpipeline.NewProgressWriter(*progressFile, runID)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up progress file")
	}

	maker := qcmpipeline.NewQuestionMaker(*apiKey, *model)
	generator := qcmpipeline.NewBatchGenerator(maker, chunks, keywords, *workers, progress)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var questions []*qcmpipeline.Question
	var stats *qcmpipeline.GenerationStats
	if *targeted != "" {
		counts, err := parseTargeted(*targeted)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid -targeted value")
		}
		questions, stats, err = generator.GenerateTargeted(ctx, counts, *perChunk)
		if err != nil {
			log.Fatal().Err(err).Msg("targeted generation failed")
		}
	} else {
		questions, stats, err = generator.GenerateAll(ctx, *perChunk, nil)
		if err != nil {
			log.Fatal().Err(err).Msg("batch generation failed")
		}
	}

	err = qcmpipeline.SaveCorpus(*outputFile, questions, map[string]any{
		"run_id":     runID,
		"generation": stats,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write output")
	}
	log.Info().Int("questions", len(questions)).Str("out", *outputFile).Msg("generation saved")
}

// parseTargeted parses "module=count,module=count" into a count map.
func parseTargeted(s string) (map[string]int, error) {
	counts := make(map[string]int)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("expected module=count, got %q", pair)
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid count in %q", pair)
		}
		counts[parts[0]] = n
	}
	return counts, nil
}
