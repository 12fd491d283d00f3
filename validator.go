package qcmpipeline

import (
	"sort"
)

// Rejection reason names. They name the failing signal exactly, so operators
// can re-tune one threshold or one generation prompt without re-scoring.
const (
	ReasonBiomedicalScore = "biomedical_score"
	ReasonContextScore    = "context_score"
	ReasonKeywordsOverlap = "keywords_overlap"
	ReasonInvalidFormat   = "invalid_format"
)

// ValidatorConfig carries the thresholds applied by one validation run.
type ValidatorConfig struct {
	ContextThreshold  float64
	KeywordsThreshold float64
	Profiles          ModuleProfiles

	// Soft operational gates reflected in the stage's exit status.
	MinValidated     int
	MaxRejectionRate float64
}

// DefaultValidatorConfig returns the standard production thresholds.
func DefaultValidatorConfig(profiles ModuleProfiles) ValidatorConfig {
	return ValidatorConfig{
		ContextThreshold:  DefaultContextThreshold,
		KeywordsThreshold: DefaultKeywordsThreshold,
		Profiles:          profiles,
		MinValidated:      2000,
		MaxRejectionRate:  0.20,
	}
}

// ValidationStats summarizes one validation run.
type ValidationStats struct {
	Total            int                        `json:"total"`
	Passed           int                        `json:"passed"`
	Rejected         int                        `json:"rejected"`
	RejectionReasons map[string]int             `json:"rejection_reasons"`
	ByModule         map[string]*ModuleValStats `json:"by_module"`
}

// ModuleValStats counts validation outcomes for one module.
type ModuleValStats struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Rejected int `json:"rejected"`
}

// RejectionRate returns the rejected share in [0,1].
func (vs *ValidationStats) RejectionRate() float64 {
	if vs.Total == 0 {
		return 0
	}
	return float64(vs.Rejected) / float64(vs.Total)
}

// Validate partitions candidates into accepted and rejected streams. A
// candidate passes iff all three signals clear their thresholds; rejection
// annotates the exact failing signals. Candidates with an invalid structure
// are rejected locally with ReasonInvalidFormat, never propagated as a fatal
// error. Nothing is ever dropped: every input lands in one of the two
// output slices.
func Validate(questions []*Question, cfg ValidatorConfig) (accepted, rejected []*Question, stats *ValidationStats) {
	stats = &ValidationStats{
		Total:            len(questions),
		RejectionReasons: make(map[string]int),
		ByModule:         make(map[string]*ModuleValStats),
	}

	for _, q := range questions {
		module := q.Module()
		ms := stats.ByModule[module]
		if ms == nil {
			ms = &ModuleValStats{}
			stats.ByModule[module] = ms
		}
		ms.Total++

		reasons := evaluate(q, cfg)
		for _, r := range reasons {
			stats.RejectionReasons[r]++
		}

		if len(reasons) > 0 {
			q.Rejected = true
			q.RejectionReasons = reasons
			rejected = append(rejected, q)
			stats.Rejected++
			ms.Rejected++
			Log.Debug().Str("question", q.Key()).Strs("reasons", reasons).Msg("rejected")
		} else {
			q.Rejected = false
			q.RejectionReasons = nil
			accepted = append(accepted, q)
			stats.Passed++
			ms.Passed++
		}
	}
	return accepted, rejected, stats
}

// evaluate returns the failing signal names for q, empty when q passes.
func evaluate(q *Question, cfg ValidatorConfig) []string {
	if err := q.ValidateFormat(); err != nil {
		return []string{ReasonInvalidFormat}
	}

	var reasons []string
	threshold := cfg.Profiles.BiomedicalThreshold(q.Module())
	if q.BiomedicalThreshold > 0 {
		threshold = q.BiomedicalThreshold
	}
	if q.BiomedicalScore < threshold {
		reasons = append(reasons, ReasonBiomedicalScore)
	}
	if q.ContextScore < cfg.ContextThreshold {
		reasons = append(reasons, ReasonContextScore)
	}
	if q.KeywordsOverlap < cfg.KeywordsThreshold {
		reasons = append(reasons, ReasonKeywordsOverlap)
	}
	return reasons
}

// ReportValidation logs the stage summary and returns whether the soft gates
// were met. A shortfall logs actionable suggestions but never suppresses the
// output files; the caller reflects the result in the process exit status.
func ReportValidation(stats *ValidationStats, cfg ValidatorConfig) bool {
	Log.Info().
		Int("total", stats.Total).
		Int("passed", stats.Passed).
		Int("rejected", stats.Rejected).
		Float64("rejection_rate", stats.RejectionRate()).
		Msg("validation complete")

	for _, reason := range sortedKeys(stats.RejectionReasons) {
		Log.Info().Str("reason", reason).Int("count", stats.RejectionReasons[reason]).Msg("rejection reason")
	}
	for _, module := range sortedModuleKeys(stats.ByModule) {
		ms := stats.ByModule[module]
		Log.Info().Str("module", module).Int("passed", ms.Passed).Int("total", ms.Total).Msg("module breakdown")
	}

	ok := true
	if cfg.MinValidated > 0 && stats.Passed < cfg.MinValidated {
		ok = false
		Log.Warn().
			Int("passed", stats.Passed).
			Int("target", cfg.MinValidated).
			Msg("validated count below target: lower thresholds or regenerate weak modules")
	}
	if cfg.MaxRejectionRate > 0 && stats.RejectionRate() >= cfg.MaxRejectionRate {
		ok = false
		Log.Warn().
			Float64("rejection_rate", stats.RejectionRate()).
			Float64("max", cfg.MaxRejectionRate).
			Msg("rejection rate too high: lower context/keywords thresholds or improve generation prompts")
	}
	return ok
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedModuleKeys(m map[string]*ModuleValStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
