package qcmpipeline

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// ScoringContext holds everything the scorers need for one run: the embedding
// backend, the per-module seed centroids, the chunk embedding cache and the
// keyword index. It is built once and passed through calls; nothing here is
// mutated after NewScoringContext except the lazily filled chunk cache.
type ScoringContext struct {
	embedder  Embedder
	centroids map[string][]float32
	chunks    *ChunkIndex
	chunkVecs map[string][]float32
	keywords  KeywordIndex
}

// NewScoringContext embeds the seed sentences of every module and caches the
// resulting centroids. An embedding backend failure here is fatal: scores
// gate all downstream filtering, so a silent zero-score run must not start.
func NewScoringContext(ctx context.Context, embedder Embedder, chunks *ChunkIndex, keywords KeywordIndex) (*ScoringContext, error) {
	moduleIDs := make([]string, 0, len(BiomedicalSeeds))
	for moduleID := range BiomedicalSeeds {
		moduleIDs = append(moduleIDs, moduleID)
	}
	sort.Strings(moduleIDs)

	centroids := make(map[string][]float32, len(moduleIDs))
	for _, moduleID := range moduleIDs {
		vectors, err := embedder.Embed(ctx, BiomedicalSeeds[moduleID])
		if err != nil {
			return nil, fmt.Errorf("failed to embed seeds for module %s: %w", moduleID, err)
		}
		centroids[moduleID] = meanVector(vectors)
	}

	return &ScoringContext{
		embedder:  embedder,
		centroids: centroids,
		chunks:    chunks,
		chunkVecs: make(map[string][]float32),
		keywords:  keywords,
	}, nil
}

// BiomedicalScore returns the cosine similarity between the question's
// text+explanation embedding and its module's seed centroid, falling back to
// the unknown centroid for unrecognized modules.
func (sc *ScoringContext) BiomedicalScore(ctx context.Context, q *Question) (float64, error) {
	centroid, ok := sc.centroids[q.Module()]
	if !ok {
		centroid = sc.centroids[ModuleUnknown]
	}

	vectors, err := sc.embedder.Embed(ctx, []string{q.ScoredText()})
	if err != nil {
		return 0, fmt.Errorf("failed to embed question %s: %w", q.Key(), err)
	}
	return CosineSimilarity(vectors[0], centroid), nil
}

// ContextScore returns the cosine similarity between the question and its
// source chunk. A missing or unknown chunk_id yields 0: the candidate is
// unanchored to the corpus, which is a legitimate low score, not an error.
func (sc *ScoringContext) ContextScore(ctx context.Context, q *Question) (float64, error) {
	if q.ChunkID == "" || sc.chunks == nil {
		return 0, nil
	}
	chunk := sc.chunks.Lookup(q.ChunkID)
	if chunk == nil {
		return 0, nil
	}

	chunkVec, ok := sc.chunkVecs[q.ChunkID]
	if !ok {
		vectors, err := sc.embedder.Embed(ctx, []string{chunk.Text})
		if err != nil {
			return 0, fmt.Errorf("failed to embed chunk %s: %w", q.ChunkID, err)
		}
		chunkVec = vectors[0]
		sc.chunkVecs[q.ChunkID] = chunkVec
	}

	vectors, err := sc.embedder.Embed(ctx, []string{q.ScoredText()})
	if err != nil {
		return 0, fmt.Errorf("failed to embed question %s: %w", q.Key(), err)
	}
	return CosineSimilarity(vectors[0], chunkVec), nil
}

// KeywordsOverlap returns the fraction of the module's keyword list present
// in the question's tokens, or 0 when the module has no keyword list.
func (sc *ScoringContext) KeywordsOverlap(q *Question) float64 {
	return KeywordsOverlap(q, sc.keywords.ModuleList(q.Module()))
}

// KeywordsOverlap computes |question tokens ∩ module keywords| divided by
// |module keywords|.
func KeywordsOverlap(q *Question, moduleKeywords []string) float64 {
	if len(moduleKeywords) == 0 {
		return 0
	}

	tokens := TokenSet(q.ScoredText())
	distinct := make(map[string]bool, len(moduleKeywords))
	matched := 0
	for _, kw := range moduleKeywords {
		lower := lowerKeyword(kw)
		if distinct[lower] {
			continue
		}
		distinct[lower] = true
		if tokens[lower] {
			matched++
		}
	}
	return float64(matched) / float64(len(distinct))
}

func lowerKeyword(kw string) string {
	toks := Tokenize(kw)
	if len(toks) == 1 {
		return toks[0]
	}
	// Multi-word or stopword-only keywords fall back to raw lowercase form.
	return kw
}

// ScoreAll enriches every question in place with all three signals. The
// embedding backend failing mid-run aborts the stage; partial score files
// would silently skew the validator.
func (sc *ScoringContext) ScoreAll(ctx context.Context, questions []*Question, profiles ModuleProfiles) error {
	for i, q := range questions {
		bio, err := sc.BiomedicalScore(ctx, q)
		if err != nil {
			return err
		}
		cs, err := sc.ContextScore(ctx, q)
		if err != nil {
			return err
		}

		q.BiomedicalScore = round4(bio)
		q.BiomedicalThreshold = profiles.BiomedicalThreshold(q.Module())
		q.ContextScore = round4(cs)
		q.KeywordsOverlap = round4(sc.KeywordsOverlap(q))

		if (i+1)%100 == 0 {
			Log.Info().Int("scored", i+1).Int("total", len(questions)).Msg("scoring progress")
		}
	}
	return nil
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
