package qcmpipeline

import (
	"fmt"
	"testing"
)

func mergeQuestion(id, text string) *Question {
	return &Question{
		ID:            id,
		Text:          text,
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: 0,
		Explanation:   "Explication.",
		ModuleID:      "cardio",
	}
}

func TestMergeReplacesAndAppendsByKey(t *testing.T) {
	baseline := make([]*Question, 0, 100)
	for i := 0; i < 100; i++ {
		baseline = append(baseline, mergeQuestion(fmt.Sprintf("q%03d", i), "texte original"))
	}

	// 10 overrides: 5 matching existing keys, 5 new.
	var overrides []*Question
	for i := 0; i < 5; i++ {
		overrides = append(overrides, mergeQuestion(fmt.Sprintf("q%03d", i*10), "texte raffiné"))
	}
	for i := 0; i < 5; i++ {
		overrides = append(overrides, mergeQuestion(fmt.Sprintf("new%d", i), "texte nouveau"))
	}

	merged, stats := Merge(baseline, overrides)

	if stats.Baseline != 100 || stats.Replaced != 5 || stats.Added != 5 || stats.Unchanged != 95 {
		t.Errorf("stats = %+v, want 100 baseline / 5 replaced / 5 added / 95 unchanged", stats)
	}
	if len(merged) != 105 || stats.Total != 105 {
		t.Fatalf("merged size = %d (stats.Total %d), want 105", len(merged), stats.Total)
	}

	// Replaced entries keep their baseline position and carry the override text.
	if merged[0].Text != "texte raffiné" {
		t.Errorf("merged[0].Text = %q, want replacement text", merged[0].Text)
	}
	if merged[1].Text != "texte original" {
		t.Errorf("merged[1].Text = %q, want baseline text", merged[1].Text)
	}
	// New keys are appended at the end in stream order.
	if merged[100].ID != "new0" || merged[104].ID != "new4" {
		t.Errorf("appended order broken: %s ... %s", merged[100].ID, merged[104].ID)
	}
}

func TestMergeNeverDropsUnmatchedBaseline(t *testing.T) {
	baseline := []*Question{
		mergeQuestion("a", "un"),
		mergeQuestion("b", "deux"),
		mergeQuestion("c", "trois"),
	}
	overrides := []*Question{mergeQuestion("zz", "quatre")}

	merged, stats := Merge(baseline, overrides)
	if len(merged) != 4 {
		t.Fatalf("merged size = %d, want 4", len(merged))
	}
	if stats.Unchanged != 3 || stats.Added != 1 || stats.Replaced != 0 {
		t.Errorf("stats = %+v", stats)
	}
	for i, want := range []string{"a", "b", "c", "zz"} {
		if merged[i].ID != want {
			t.Errorf("merged[%d].ID = %s, want %s", i, merged[i].ID, want)
		}
	}
}

func TestMergeConsumesDuplicateKeyVariantsInOrder(t *testing.T) {
	baseline := []*Question{
		mergeQuestion("dup", "premier original"),
		mergeQuestion("dup", "second original"),
	}
	overrides := []*Question{
		mergeQuestion("dup", "premier raffiné"),
		mergeQuestion("dup", "second raffiné"),
		mergeQuestion("dup", "troisième raffiné"),
	}

	merged, stats := Merge(baseline, overrides)
	if len(merged) != 3 {
		t.Fatalf("merged size = %d, want 3", len(merged))
	}
	if merged[0].Text != "premier raffiné" || merged[1].Text != "second raffiné" {
		t.Errorf("variants not consumed in order: %q, %q", merged[0].Text, merged[1].Text)
	}
	if merged[2].Text != "troisième raffiné" || stats.Added != 1 {
		t.Errorf("leftover variant not appended: %q (stats %+v)", merged[2].Text, stats)
	}
}

func TestMergeFallsBackToChunkKey(t *testing.T) {
	base := mergeQuestion("", "original")
	base.ChunkID = "cardio_007"
	over := mergeQuestion("", "raffiné")
	over.ChunkID = "cardio_007"

	merged, stats := Merge([]*Question{base}, []*Question{over})
	if len(merged) != 1 || stats.Replaced != 1 {
		t.Fatalf("chunk-id fallback did not match: %d entries, stats %+v", len(merged), stats)
	}
	if merged[0].Text != "raffiné" {
		t.Errorf("merged[0].Text = %q", merged[0].Text)
	}
}

func TestMergeKeylessOverridesAreAppended(t *testing.T) {
	base := mergeQuestion("", "original sans clé")
	over := mergeQuestion("", "autre sans clé")

	merged, stats := Merge([]*Question{base}, []*Question{over})
	if len(merged) != 2 || stats.Replaced != 0 || stats.Added != 1 {
		t.Errorf("keyless entries must never replace: %d entries, stats %+v", len(merged), stats)
	}
}
