package qcmpipeline

import (
	"fmt"
	"strings"
)

// Correction is one operator-confirmed fix from bug-report analysis, keyed to
// the question it amends. Empty fields leave the corresponding question field
// untouched.
type Correction struct {
	QuestionKey   string   `json:"question_key"`
	Category      string   `json:"category,omitempty"`
	Text          string   `json:"text,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer *int     `json:"correctAnswer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`
}

// CorrectionStats reports one correction pass.
type CorrectionStats struct {
	Applied   int `json:"applied"`
	Unmatched int `json:"unmatched"`
	Invalid   int `json:"invalid"`
}

// ApplyCorrections applies fixes onto the corpus in place, by question key.
// A correction whose result would violate the format invariants is skipped
// and counted, never applied. Corrected questions carry the
// corrected_automatically flag so later audits can trace them.
func ApplyCorrections(questions []*Question, corrections []Correction) CorrectionStats {
	byKey := make(map[string]*Question, len(questions))
	for _, q := range questions {
		if key := q.Key(); key != "" {
			byKey[key] = q
		}
	}

	stats := CorrectionStats{}
	for _, c := range corrections {
		q, ok := byKey[c.QuestionKey]
		if !ok {
			stats.Unmatched++
			Log.Warn().Str("question", c.QuestionKey).Msg("correction targets unknown question")
			continue
		}

		candidate := q.Clone()
		if strings.TrimSpace(c.Text) != "" {
			candidate.Text = c.Text
		}
		if len(c.Options) > 0 {
			candidate.Options = append([]string(nil), c.Options...)
		}
		if c.CorrectAnswer != nil {
			candidate.CorrectAnswer = *c.CorrectAnswer
		}
		if strings.TrimSpace(c.Explanation) != "" {
			candidate.Explanation = c.Explanation
		}

		if err := candidate.ValidateFormat(); err != nil {
			stats.Invalid++
			Log.Warn().Err(err).Str("question", c.QuestionKey).Msg("correction would break format, skipped")
			continue
		}

		*q = *candidate
		q.CorrectedAutomatically = true
		stats.Applied++
	}
	return stats
}

// LoadCorrections reads a corrections file: either a bare array or an object
// with a corrections key.
func LoadCorrections(path string) ([]Correction, error) {
	var corrections []Correction
	if err := LoadJSON(path, &corrections); err == nil {
		return corrections, nil
	}

	var wrapper struct {
		Corrections []Correction `json:"corrections"`
	}
	if err := LoadJSON(path, &wrapper); err != nil {
		return nil, fmt.Errorf("corrections file %s has an unrecognized shape: %w", path, err)
	}
	return wrapper.Corrections, nil
}
