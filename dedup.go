package qcmpipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// MergePolicy selects which variant survives when two questions share an
// identity key. A pipeline invocation picks one policy and applies it
// uniformly; mixing policies within a stage is what made the source scripts
// drift apart.
type MergePolicy int

const (
	// FirstWins keeps the earliest-seen variant (reproducible given stable
	// input order).
	FirstWins MergePolicy = iota
	// BestScoreWins keeps the variant with the highest biomedical score.
	BestScoreWins
	// LastWins keeps the latest-seen variant.
	LastWins
)

// ParseMergePolicy maps a CLI flag value to a policy.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch strings.ToLower(s) {
	case "first", "first-wins":
		return FirstWins, nil
	case "best", "best-score", "best-score-wins":
		return BestScoreWins, nil
	case "last", "last-wins":
		return LastWins, nil
	}
	return FirstWins, fmt.Errorf("unknown merge policy %q", s)
}

func (p MergePolicy) String() string {
	switch p {
	case BestScoreWins:
		return "best-score-wins"
	case LastWins:
		return "last-wins"
	default:
		return "first-wins"
	}
}

// IdentityKey returns the stable content digest that detects duplicate
// candidates: sha256 over the normalized text, the sorted option set and the
// module id. Sorting the options first makes the key insensitive to option
// ordering. A question without options cannot share a key with anything; it
// gets a unique self key so it is never silently merged.
func IdentityKey(q *Question) string {
	if len(q.Options) == 0 {
		return "invalid:" + q.Key() + ":" + normalizeText(q.Text)
	}

	options := append([]string(nil), q.Options...)
	sort.Strings(options)

	input := normalizeText(q.Text) + "|" + strings.Join(options, "|") + "|" + q.ModuleID
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// normalizeText lowercases and collapses whitespace so trivially reformatted
// duplicates hash identically.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// Deduplicate collapses questions sharing an identity key down to one
// survivor chosen by policy. Output preserves the input order of the
// surviving entries, so the operation is idempotent: running it on its own
// output changes nothing.
func Deduplicate(questions []*Question, policy MergePolicy) (unique []*Question, removed int) {
	index := make(map[string]int)

	for _, q := range questions {
		key := IdentityKey(q)
		at, seen := index[key]
		if !seen {
			index[key] = len(unique)
			unique = append(unique, q)
			continue
		}

		removed++
		switch policy {
		case BestScoreWins:
			if q.BiomedicalScore > unique[at].BiomedicalScore {
				unique[at] = q
			}
		case LastWins:
			unique[at] = q
		}
	}
	return unique, removed
}

// NearDuplicatePair records two distinct-key questions in the same module
// whose token sets overlap at or above the report threshold.
type NearDuplicatePair struct {
	KeyA       string  `json:"key_a"`
	KeyB       string  `json:"key_b"`
	ModuleID   string  `json:"module_id"`
	Similarity float64 `json:"similarity"`
}

// nearDuplicateThreshold is the Jaccard similarity above which two questions
// are flagged as likely rewordings of each other.
const nearDuplicateThreshold = 0.85

// FindNearDuplicates reports likely rewordings that exact-hash dedup cannot
// catch. The report is advisory: nothing is removed here, the operator
// decides whether to regenerate or drop flagged entries.
func FindNearDuplicates(questions []*Question) []NearDuplicatePair {
	byModule := make(map[string][]*Question)
	for _, q := range questions {
		byModule[q.Module()] = append(byModule[q.Module()], q)
	}

	var pairs []NearDuplicatePair
	for module, qs := range byModule {
		sets := make([]map[string]bool, len(qs))
		for i, q := range qs {
			sets[i] = TokenSet(q.Text)
		}
		for i := 0; i < len(qs); i++ {
			for j := i + 1; j < len(qs); j++ {
				sim := jaccard(sets[i], sets[j])
				if sim >= nearDuplicateThreshold {
					pairs = append(pairs, NearDuplicatePair{
						KeyA:       qs[i].Key(),
						KeyB:       qs[j].Key(),
						ModuleID:   module,
						Similarity: round4(sim),
					})
				}
			}
		}
	}
	return pairs
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
