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
		inputFile  = flag.String("in", "", "Validated corpus file (required)")
		outputFile = flag.String("out", "data/questions/refined.json", "Output file: refined questions only")
		model      = flag.String("model", "", "Chat model (default: GPT-4o)")
		apiKey     = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY)")
		timeout    = flag.Duration("timeout", 2*time.Hour, "Overall run timeout")
		verbose    = flag.Bool("verbose", false, "Enable debug output")
	)
	flag.Parse()

	_ = godotenv.Load()
	qcmpipeline.SetupLogging(*verbose)
	log := qcmpipeline.Log

	if *inputFile == "" {
		log.Fatal().Msg("-in is required")
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

	weak, kept := qcmpipeline.SelectForRefinement(questions)
	log.Info().
		Int("total", len(questions)).
		Int("weak", len(weak)).
		Int("kept", len(kept)).
		Msg("refinement selection")

	if len(weak) == 0 {
		log.Info().Msg("nothing to refine")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	refiner := qcmpipeline.NewRefiner(*apiKey, *model)
	results, refined := refiner.RefineAll(ctx, weak)
	log.Info().Int("refined", refined).Int("unchanged", len(weak)-refined).Msg("refinement complete")

	// Only the refinement outputs are written; they re-enter the pipeline
	// through qcmscore and then qcmconsolidate as an override stream.
	err = qcmpipeline.SaveCorpus(*outputFile, results, map[string]any{
		"refined_count": refined,
		"selected":      len(weak),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write output")
	}
	log.Info().Str("out", *outputFile).Msg("refined questions saved")
}
