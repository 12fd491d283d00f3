package main

import (
	"flag"
	"strings"

	"qcmpipeline"
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string     { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	var overrides stringList
	var (
		baselineFile    = flag.String("in", "", "Baseline corpus file (required)")
		outputFile      = flag.String("out", "data/questions/compiled.json", "Output consolidated corpus")
		policyFlag      = flag.String("policy", "first-wins", "Dedup policy: first-wins, best-score-wins, last-wins")
		correctionsFile = flag.String("corrections", "", "Bug-report corrections file (optional)")
		nearDupFile     = flag.String("near-dup-report", "", "Write advisory near-duplicate report here (optional)")
		verbose         = flag.Bool("verbose", false, "Enable debug output")
	)
	flag.Var(&overrides, "override", "Override corpus file (repeatable): refined or targeted batches")
	flag.Parse()

	qcmpipeline.SetupLogging(*verbose)
	log := qcmpipeline.Log

	if *baselineFile == "" {
		log.Fatal().Msg("-in is required")
	}
	policy, err := qcmpipeline.ParseMergePolicy(*policyFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid -policy")
	}

	baseline, err := qcmpipeline.LoadCorpus(*baselineFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load baseline")
	}
	log.Info().Int("questions", len(baseline)).Msg("baseline loaded")

	var overrideStreams [][]*qcmpipeline.Question
	for _, path := range overrides {
		stream, err := qcmpipeline.LoadCorpus(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("failed to load override stream")
		}
		log.Info().Int("questions", len(stream)).Str("file", path).Msg("override stream loaded")
		overrideStreams = append(overrideStreams, stream)
	}

	merged, mergeStats := qcmpipeline.Merge(baseline, overrideStreams...)
	log.Info().
		Int("baseline", mergeStats.Baseline).
		Int("replaced", mergeStats.Replaced).
		Int("added", mergeStats.Added).
		Int("unchanged", mergeStats.Unchanged).
		Int("total", mergeStats.Total).
		Msg("merge complete")

	unique, removed := qcmpipeline.Deduplicate(merged, policy)
	log.Info().Int("removed", removed).Str("policy", policy.String()).Msg("deduplication complete")

	// Format-invalid entries must not reach the compiled corpus.
	valid := unique[:0:len(unique)]
	invalid := 0
	for _, q := range unique {
		if err := q.ValidateFormat(); err != nil {
			invalid++
			log.Debug().Err(err).Str("question", q.Key()).Msg("dropping invalid question")
			continue
		}
		valid = append(valid, q)
	}
	if invalid > 0 {
		log.Warn().Int("invalid", invalid).Msg("format-invalid questions excluded")
	}

	qcmpipeline.ClassifyAll(valid)
	flags := qcmpipeline.CheckBalance(valid, qcmpipeline.ConsolidationSplit)
	for _, f := range flags {
		log.Warn().
			Str("module", f.ModuleID).
			Str("difficulty", f.Difficulty).
			Float64("share", f.Share).
			Float64("target", f.Target).
			Msg("difficulty imbalance, consider targeted regeneration")
	}

	var correctionStats qcmpipeline.CorrectionStats
	if *correctionsFile != "" {
		corrections, err := qcmpipeline.LoadCorrections(*correctionsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load corrections")
		}
		correctionStats = qcmpipeline.ApplyCorrections(valid, corrections)
		log.Info().
			Int("applied", correctionStats.Applied).
			Int("unmatched", correctionStats.Unmatched).
			Int("invalid", correctionStats.Invalid).
			Msg("corrections applied")
	}

	if *nearDupFile != "" {
		pairs := qcmpipeline.FindNearDuplicates(valid)
		if err := qcmpipeline.SaveJSON(*nearDupFile, pairs); err != nil {
			log.Fatal().Err(err).Msg("failed to write near-duplicate report")
		}
		log.Info().Int("pairs", len(pairs)).Str("out", *nearDupFile).Msg("near-duplicate report written")
	}

	err = qcmpipeline.SaveCorpus(*outputFile, valid, map[string]any{
		"merge":              mergeStats,
		"duplicates_removed": removed,
		"invalid_removed":    invalid,
		"imbalance_flags":    flags,
		"corrections":        correctionStats,
		"policy":             policy.String(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to write output")
	}
	log.Info().Int("questions", len(valid)).Str("out", *outputFile).Msg("consolidated corpus saved")
}
