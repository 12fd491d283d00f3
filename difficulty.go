package qcmpipeline

import (
	"math"
	"sort"
	"strings"
)

// ClassifyDifficulty buckets a question from its context score and the word
// count of its explanation. The rule is a pure function of those two values,
// so reclassifying an already-classified question with unchanged scores
// always yields the same label.
func ClassifyDifficulty(contextScore float64, explanationWords int) string {
	switch {
	case contextScore > 0.9 && explanationWords > 40:
		return DifficultyHard
	case contextScore < 0.65 || explanationWords < 20:
		return DifficultyEasy
	default:
		return DifficultyMedium
	}
}

// ClassifyAll assigns (or reassigns) the difficulty of every question.
func ClassifyAll(questions []*Question) {
	for _, q := range questions {
		q.Difficulty = ClassifyDifficulty(q.ContextScore, len(strings.Fields(q.Explanation)))
	}
}

// DifficultySplit is a target distribution over the three buckets. Shares
// are fractions summing to 1.
type DifficultySplit struct {
	Easy   float64
	Medium float64
	Hard   float64
}

// Target distributions used at different pipeline stages.
var (
	ConsolidationSplit = DifficultySplit{Easy: 0.40, Medium: 0.40, Hard: 0.20}
	ExamSplit          = DifficultySplit{Easy: 0.30, Medium: 0.50, Hard: 0.20}
)

// share returns the target fraction for a bucket.
func (ds DifficultySplit) share(difficulty string) float64 {
	switch difficulty {
	case DifficultyEasy:
		return ds.Easy
	case DifficultyMedium:
		return ds.Medium
	case DifficultyHard:
		return ds.Hard
	}
	return 0
}

// ImbalanceFlag marks one module bucket whose share deviates from target by
// more than the tolerance.
type ImbalanceFlag struct {
	ModuleID   string  `json:"module_id"`
	Difficulty string  `json:"difficulty"`
	Share      float64 `json:"share"`
	Target     float64 `json:"target"`
}

// rebalance tolerance in share points.
const imbalanceTolerance = 0.15

// minModuleSizeForRebalance skips modules too small for shares to be
// meaningful.
const minModuleSizeForRebalance = 10

// CheckBalance flags, per module with at least 10 questions, every bucket
// whose share deviates from the target split by more than 15 points. The
// check is advisory: it never resamples or relabels, it tells the operator
// which modules need targeted regeneration.
func CheckBalance(questions []*Question, target DifficultySplit) []ImbalanceFlag {
	byModule := make(map[string]map[string]int)
	totals := make(map[string]int)
	for _, q := range questions {
		module := q.Module()
		if byModule[module] == nil {
			byModule[module] = make(map[string]int)
		}
		byModule[module][q.Difficulty]++
		totals[module]++
	}

	modules := make([]string, 0, len(byModule))
	for module := range byModule {
		modules = append(modules, module)
	}
	sort.Strings(modules)

	var flags []ImbalanceFlag
	for _, module := range modules {
		total := totals[module]
		if total < minModuleSizeForRebalance {
			continue
		}
		for _, difficulty := range []string{DifficultyEasy, DifficultyMedium, DifficultyHard} {
			share := float64(byModule[module][difficulty]) / float64(total)
			want := target.share(difficulty)
			if math.Abs(share-want) > imbalanceTolerance {
				flags = append(flags, ImbalanceFlag{
					ModuleID:   module,
					Difficulty: difficulty,
					Share:      round4(share),
					Target:     want,
				})
			}
		}
	}
	return flags
}
