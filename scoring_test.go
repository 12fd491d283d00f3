package qcmpipeline

import (
	"context"
	"errors"
	"testing"
)

// fakeEmbedder returns fixed vectors per text, defaulting to a unit vector on
// the first axis, and counts how often each text was embedded.
type fakeEmbedder struct {
	vectors map[string][]float32
	calls   map[string]int
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.calls != nil {
			f.calls[text]++
		}
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float32{1, 0, 0}
		}
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("backend unavailable")
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 0, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if got < tt.want-1e-6 || got > tt.want+1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewScoringContextFailsWhenSeedsCannotEmbed(t *testing.T) {
	if _, err := NewScoringContext(context.Background(), failingEmbedder{}, nil, nil); err == nil {
		t.Fatal("seed embedding failure must abort context construction")
	}
}

func TestBiomedicalScoreUsesModuleCentroid(t *testing.T) {
	fake := &fakeEmbedder{vectors: map[string][]float32{}}
	for _, seed := range BiomedicalSeeds["cardio"] {
		fake.vectors[seed] = []float32{0, 1, 0}
	}

	sc, err := NewScoringContext(context.Background(), fake, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	aligned := &Question{ModuleID: "cardio", Text: "texte aligné", Explanation: "expl"}
	fake.vectors[aligned.ScoredText()] = []float32{0, 1, 0}
	score, err := sc.BiomedicalScore(context.Background(), aligned)
	if err != nil {
		t.Fatal(err)
	}
	if score < 0.999 {
		t.Errorf("aligned question scored %v against its centroid, want ~1", score)
	}

	misaligned := &Question{ModuleID: "cardio", Text: "texte orthogonal", Explanation: "expl"}
	fake.vectors[misaligned.ScoredText()] = []float32{1, 0, 0}
	score, err = sc.BiomedicalScore(context.Background(), misaligned)
	if err != nil {
		t.Fatal(err)
	}
	if score > 0.001 {
		t.Errorf("orthogonal question scored %v, want ~0", score)
	}
}

func TestBiomedicalScoreFallsBackToUnknownCentroid(t *testing.T) {
	fake := &fakeEmbedder{vectors: map[string][]float32{}}
	for _, seed := range BiomedicalSeeds[ModuleUnknown] {
		fake.vectors[seed] = []float32{0, 0, 1}
	}

	sc, err := NewScoringContext(context.Background(), fake, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	q := &Question{ModuleID: "pas_un_module", Text: "texte", Explanation: "expl"}
	fake.vectors[q.ScoredText()] = []float32{0, 0, 1}
	score, err := sc.BiomedicalScore(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if score < 0.999 {
		t.Errorf("unknown-module question scored %v against the unknown centroid, want ~1", score)
	}
}

func TestContextScoreAgainstSourceChunk(t *testing.T) {
	chunkText := "La précharge dépend du retour veineux."
	idx := &ChunkIndex{
		chunks: map[string]*Chunk{
			"cardio_001": {ChunkID: "cardio_001", Text: chunkText},
		},
		modules: map[string]*ModuleDocument{},
	}

	fake := &fakeEmbedder{vectors: map[string][]float32{}, calls: map[string]int{}}
	fake.vectors[chunkText] = []float32{0, 1, 0}

	sc, err := NewScoringContext(context.Background(), fake, idx, nil)
	if err != nil {
		t.Fatal(err)
	}

	q := &Question{ChunkID: "cardio_001", Text: "question fidèle", Explanation: "expl"}
	fake.vectors[q.ScoredText()] = []float32{0, 1, 0}

	score, err := sc.ContextScore(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if score < 0.999 {
		t.Errorf("chunk-faithful question scored %v, want ~1", score)
	}

	// The chunk embedding is cached after the first call.
	if _, err := sc.ContextScore(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	if fake.calls[chunkText] != 1 {
		t.Errorf("chunk embedded %d times, want 1", fake.calls[chunkText])
	}
}

func TestContextScoreMissingChunkIsZeroNotError(t *testing.T) {
	idx := &ChunkIndex{chunks: map[string]*Chunk{}, modules: map[string]*ModuleDocument{}}
	sc, err := NewScoringContext(context.Background(), &fakeEmbedder{}, idx, nil)
	if err != nil {
		t.Fatal(err)
	}

	for _, q := range []*Question{
		{ChunkID: "", Text: "sans chunk"},
		{ChunkID: "inconnu_999", Text: "chunk inconnu"},
	} {
		score, err := sc.ContextScore(context.Background(), q)
		if err != nil {
			t.Errorf("ContextScore(%q) returned error: %v", q.ChunkID, err)
		}
		if score != 0 {
			t.Errorf("ContextScore(%q) = %v, want 0", q.ChunkID, score)
		}
	}
}

func TestKeywordsOverlap(t *testing.T) {
	q := &Question{
		Text:        "Quelle dose de propofol pour un curare non dépolarisant ?",
		Explanation: "Le propofol est un hypnotique.",
	}

	tests := []struct {
		name     string
		keywords []string
		want     float64
	}{
		{"half present", []string{"propofol", "curare", "halogéné", "rémifentanil"}, 0.5},
		{"none present", []string{"halogéné", "rémifentanil"}, 0},
		{"empty list", nil, 0},
		{"duplicates counted once", []string{"propofol", "Propofol", "halogéné"}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeywordsOverlap(q, tt.keywords); got != tt.want {
				t.Errorf("KeywordsOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreAllEnrichesInPlace(t *testing.T) {
	fake := &fakeEmbedder{vectors: map[string][]float32{}}
	sc, err := NewScoringContext(context.Background(), fake, nil, KeywordIndex{
		"cardio": {ModuleKeywords: []string{"précharge", "postcharge"}},
	})
	if err != nil {
		t.Fatal(err)
	}

	q := &Question{ModuleID: "cardio", Text: "La précharge cardiaque", Explanation: "expl"}
	profiles := ModuleProfiles{"cardio": {BiomedicalThreshold: 0.08}}

	if err := sc.ScoreAll(context.Background(), []*Question{q}, profiles); err != nil {
		t.Fatal(err)
	}
	if q.BiomedicalScore == 0 {
		t.Error("biomedical score not set")
	}
	if q.BiomedicalThreshold != 0.08 {
		t.Errorf("threshold = %v, want the profile value 0.08", q.BiomedicalThreshold)
	}
	if q.KeywordsOverlap != 0.5 {
		t.Errorf("keywords overlap = %v, want 0.5", q.KeywordsOverlap)
	}
}
