package main

import (
	"flag"

	"qcmpipeline"
)

func main() {
	var (
		modulesDir = flag.String("modules", "", "Directory of extracted module JSON files (required)")
		outputFile = flag.String("out", "data/keywords.json", "Output keywords file")
		verbose    = flag.Bool("verbose", false, "Enable debug output")
	)
	flag.Parse()

	qcmpipeline.SetupLogging(*verbose)
	log := qcmpipeline.Log

	if *modulesDir == "" {
		log.Fatal().Msg("-modules is required")
	}

	chunks, err := qcmpipeline.LoadChunkIndex(*modulesDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load modules")
	}
	log.Info().Int("chunks", chunks.Len()).Msg("modules loaded")

	keywords := qcmpipeline.BuildKeywordIndex(chunks)
	if err := qcmpipeline.SaveJSON(*outputFile, keywords); err != nil {
		log.Fatal().Err(err).Msg("failed to write keywords file")
	}

	log.Info().Int("modules", len(keywords)).Str("out", *outputFile).Msg("keyword index written")
}
