package qcmpipeline

import "testing"

func dedupQuestion(id, text string, options []string, moduleID string) *Question {
	return &Question{
		ID:            id,
		Text:          text,
		Options:       options,
		CorrectAnswer: 0,
		Explanation:   "Explication.",
		ModuleID:      moduleID,
	}
}

func TestIdentityKeyIgnoresOptionOrder(t *testing.T) {
	a := dedupQuestion("q1", "Quel est le curare de référence ?", []string{"Atracurium", "Rocuronium", "Suxaméthonium", "Cisatracurium"}, "pharma_curares")
	b := dedupQuestion("q2", "Quel est le curare de référence ?", []string{"Suxaméthonium", "Cisatracurium", "Atracurium", "Rocuronium"}, "pharma_curares")

	if IdentityKey(a) != IdentityKey(b) {
		t.Error("option order must not change the identity key")
	}
}

func TestIdentityKeyNormalizesTextAndSeparatesModules(t *testing.T) {
	a := dedupQuestion("q1", "Quel  est \tle seuil transfusionnel ?", []string{"A", "B", "C", "D"}, "transfusion")
	b := dedupQuestion("q2", "quel est le seuil transfusionnel ?", []string{"A", "B", "C", "D"}, "transfusion")
	c := dedupQuestion("q3", "quel est le seuil transfusionnel ?", []string{"A", "B", "C", "D"}, "reanimation")

	if IdentityKey(a) != IdentityKey(b) {
		t.Error("case and whitespace must not change the identity key")
	}
	if IdentityKey(a) == IdentityKey(c) {
		t.Error("same text in a different module must produce a different key")
	}
}

func TestIdentityKeyMissingOptionsIsSelfUnique(t *testing.T) {
	a := dedupQuestion("q1", "Question incomplète", nil, "cardio")
	b := dedupQuestion("q2", "Question incomplète", nil, "cardio")

	if IdentityKey(a) == IdentityKey(b) {
		t.Error("questions without options must never collide with each other")
	}
	if IdentityKey(a) != IdentityKey(a) {
		t.Error("identity key must be stable across calls")
	}
}

func TestDeduplicateRemovesExactDuplicates(t *testing.T) {
	a := dedupQuestion("q1", "Texte identique", []string{"A", "B", "C", "D"}, "cardio")
	b := dedupQuestion("q2", "Texte identique", []string{"A", "B", "C", "D"}, "cardio")
	c := dedupQuestion("q3", "Texte différent", []string{"A", "B", "C", "D"}, "cardio")

	unique, removed := Deduplicate([]*Question{a, b, c}, FirstWins)
	if len(unique) != 2 || removed != 1 {
		t.Fatalf("got %d unique, %d removed, want 2/1", len(unique), removed)
	}
	if unique[0].ID != "q1" || unique[1].ID != "q3" {
		t.Errorf("first-wins order broken: %s, %s", unique[0].ID, unique[1].ID)
	}
}

func TestDeduplicatePolicies(t *testing.T) {
	mk := func(id string, score float64) *Question {
		q := dedupQuestion(id, "Texte identique", []string{"A", "B", "C", "D"}, "cardio")
		q.BiomedicalScore = score
		return q
	}

	tests := []struct {
		policy MergePolicy
		wantID string
	}{
		{FirstWins, "q1"},
		{BestScoreWins, "q2"},
		{LastWins, "q3"},
	}
	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			in := []*Question{mk("q1", 0.3), mk("q2", 0.9), mk("q3", 0.5)}
			unique, removed := Deduplicate(in, tt.policy)
			if len(unique) != 1 || removed != 2 {
				t.Fatalf("got %d unique, %d removed", len(unique), removed)
			}
			if unique[0].ID != tt.wantID {
				t.Errorf("survivor = %s, want %s", unique[0].ID, tt.wantID)
			}
		})
	}
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	in := []*Question{
		dedupQuestion("q1", "Texte identique", []string{"A", "B", "C", "D"}, "cardio"),
		dedupQuestion("q2", "Texte identique", []string{"A", "B", "C", "D"}, "cardio"),
		dedupQuestion("q3", "Autre texte", []string{"A", "B", "C", "D"}, "neuro"),
	}
	first, _ := Deduplicate(in, FirstWins)
	second, removed := Deduplicate(first, FirstWins)
	if removed != 0 {
		t.Errorf("second pass removed %d questions, want 0", removed)
	}
	if len(second) != len(first) {
		t.Errorf("second pass changed length: %d -> %d", len(first), len(second))
	}
}

func TestParseMergePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    MergePolicy
		wantErr bool
	}{
		{"first-wins", FirstWins, false},
		{"best-score-wins", BestScoreWins, false},
		{"last-wins", LastWins, false},
		{"random", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMergePolicy(tt.in)
		if tt.wantErr != (err != nil) {
			t.Errorf("ParseMergePolicy(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseMergePolicy(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFindNearDuplicatesStaysWithinModule(t *testing.T) {
	a := dedupQuestion("q1", "quelle dose de propofol pour induction chez adulte sain", []string{"A", "B", "C", "D"}, "pharma_generaux")
	b := dedupQuestion("q2", "quelle dose de propofol pour une induction chez un adulte sain", []string{"E", "F", "G", "H"}, "pharma_generaux")
	c := dedupQuestion("q3", "quelle dose de propofol pour induction chez adulte sain", []string{"A", "B", "C", "D"}, "pediatrie")

	pairs := FindNearDuplicates([]*Question{a, b, c})
	if len(pairs) != 1 {
		t.Fatalf("got %d near-duplicate pairs, want 1", len(pairs))
	}
	if pairs[0].KeyA != "q1" || pairs[0].KeyB != "q2" {
		t.Errorf("unexpected pair: %+v", pairs[0])
	}
	if pairs[0].ModuleID != "pharma_generaux" {
		t.Errorf("pair module = %s, want pharma_generaux", pairs[0].ModuleID)
	}
	if pairs[0].Similarity < nearDuplicateThreshold {
		t.Errorf("reported similarity %v below threshold", pairs[0].Similarity)
	}
}
