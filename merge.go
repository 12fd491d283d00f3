package qcmpipeline

// MergeStats reports what one consolidation pass did, for auditability.
type MergeStats struct {
	Baseline  int `json:"baseline"`
	Replaced  int `json:"replaced"`
	Added     int `json:"added"`
	Unchanged int `json:"unchanged"`
	Total     int `json:"total"`
}

// Merge consolidates one or more override streams (refined versions,
// targeted regeneration batches) into a baseline corpus. Matching is strictly
// key-based (id, falling back to chunk_id): a baseline entry whose key
// appears in an override is replaced in place, an override entry with a new
// key is appended, and everything else is preserved unchanged. Positional
// matching is deliberately absent; replacing by index silently misaligns
// corpora of different lengths.
//
// When one override stream carries several variants for the same key, the
// variants are consumed in order: each successive baseline entry with that
// key takes the next variant. Leftover variants are appended.
func Merge(baseline []*Question, overrides ...[]*Question) ([]*Question, MergeStats) {
	stats := MergeStats{Baseline: len(baseline)}

	pending := make(map[string][]*Question)
	var orderedKeys []string
	for _, stream := range overrides {
		for _, q := range stream {
			// Keyless entries match nothing in the baseline and are simply
			// appended as new.
			key := q.Key()
			if _, seen := pending[key]; !seen {
				orderedKeys = append(orderedKeys, key)
			}
			pending[key] = append(pending[key], q)
		}
	}

	merged := make([]*Question, 0, len(baseline))
	for _, orig := range baseline {
		key := orig.Key()
		if variants := pending[key]; key != "" && len(variants) > 0 {
			merged = append(merged, variants[0])
			pending[key] = variants[1:]
			stats.Replaced++
		} else {
			merged = append(merged, orig)
			stats.Unchanged++
		}
	}

	// Override entries whose key was absent from the baseline (or left over
	// after all baseline occurrences were replaced) are appended in stream
	// order.
	for _, key := range orderedKeys {
		for _, q := range pending[key] {
			merged = append(merged, q)
			stats.Added++
		}
		delete(pending, key)
	}

	stats.Total = len(merged)
	return merged, stats
}
