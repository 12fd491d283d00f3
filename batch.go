package qcmpipeline

import (
	"context"
	"sync"
)

// minChunkLength skips chunks too short to ground a factual question.
const minChunkLength = 100

// DefaultWorkers bounds the number of concurrent generation requests, to
// respect the generation service's capacity.
const DefaultWorkers = 4

// BatchGenerator fans generation out over all chunks of the loaded modules
// and fans the results back into a single candidate list. Workers never share
// mutable state: each produces an independent result for its chunk, merged
// only after all workers complete.
type BatchGenerator struct {
	maker    *QuestionMaker
	chunks   *ChunkIndex
	keywords KeywordIndex
	workers  int
	progress *ProgressWriter
}

// NewBatchGenerator creates a batch generator. workers <= 0 selects the
// default pool size; progress may be nil.
func NewBatchGenerator(maker *QuestionMaker, chunks *ChunkIndex, keywords KeywordIndex, workers int, progress *ProgressWriter) *BatchGenerator {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &BatchGenerator{
		maker:    maker,
		chunks:   chunks,
		keywords: keywords,
		workers:  workers,
		progress: progress,
	}
}

// chunkJob is one unit of work: generate perChunk candidates for one chunk.
type chunkJob struct {
	moduleID string
	chunk    *Chunk
	keywords []string
	perChunk int
}

// GenerationStats summarizes one generation run.
type GenerationStats struct {
	TotalChunks      int `json:"total_chunks"`
	SuccessfulChunks int `json:"successful_chunks"`
	FailedChunks     int `json:"failed_chunks"`
	SkippedChunks    int `json:"skipped_chunks"`
	Generated        int `json:"generated"`
}

// GenerateAll generates candidates for every chunk of every module. A chunk
// whose generation exhausts its retries contributes zero candidates and is
// logged; the run continues. Only modules listed in only are processed when
// the filter is non-empty.
func (bg *BatchGenerator) GenerateAll(ctx context.Context, perChunk int, only map[string]bool) ([]*Question, *GenerationStats, error) {
	var jobs []chunkJob
	stats := &GenerationStats{}

	for moduleID, doc := range bg.chunks.Modules() {
		if len(only) > 0 && !only[moduleID] {
			continue
		}
		moduleKeywords := bg.keywords.ModuleList(moduleID)
		for _, section := range doc.Sections {
			for _, chunk := range section.Chunks {
				if len(chunk.Text) < minChunkLength {
					stats.SkippedChunks++
					continue
				}
				kws := moduleKeywords
				if entry, ok := bg.keywords[moduleID]; ok {
					if chunkKws := entry.ChunkKeywords[chunk.ChunkID]; len(chunkKws) > 0 {
						kws = chunkKws
					}
				}
				jobs = append(jobs, chunkJob{
					moduleID: moduleID,
					chunk:    chunk,
					keywords: kws,
					perChunk: perChunk,
				})
			}
		}
	}
	stats.TotalChunks = len(jobs)

	Log.Info().
		Int("chunks", len(jobs)).
		Int("workers", bg.workers).
		Int("per_chunk", perChunk).
		Msg("starting batch generation")

	questions := bg.run(ctx, jobs, stats)

	Log.Info().
		Int("generated", stats.Generated).
		Int("successful_chunks", stats.SuccessfulChunks).
		Int("failed_chunks", stats.FailedChunks).
		Int("skipped_chunks", stats.SkippedChunks).
		Msg("batch generation complete")
	return questions, stats, ctx.Err()
}

// run executes the jobs on a fixed-size worker pool and merges the results
// after all workers are done.
func (bg *BatchGenerator) run(ctx context.Context, jobs []chunkJob, stats *GenerationStats) []*Question {
	jobCh := make(chan chunkJob)
	results := make(chan []*Question)

	var wg sync.WaitGroup
	var mu sync.Mutex // guards stats and progress updates

	completed := 0
	for w := 0; w < bg.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobCh {
				generated, err := bg.maker.GenerateForChunk(ctx, job.moduleID, job.chunk, job.keywords, job.perChunk)

				mu.Lock()
				completed++
				if err != nil {
					stats.FailedChunks++
					Log.Warn().Err(err).Str("chunk", job.chunk.ChunkID).Msg("chunk generation abandoned")
				} else {
					stats.SuccessfulChunks++
					stats.Generated += len(generated)
				}
				if bg.progress != nil {
					bg.progress.Update(stats.TotalChunks, completed, stats.SuccessfulChunks, stats.FailedChunks, stats.Generated)
				}
				mu.Unlock()

				if len(generated) > 0 {
					results <- generated
				}
			}
		}()
	}

	go func() {
		defer close(jobCh)
		for _, job := range jobs {
			select {
			case jobCh <- job:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []*Question
	for batch := range results {
		all = append(all, batch...)
	}
	return all
}

// GenerateTargeted generates extra candidates for specific underrepresented
// modules: counts maps module id to the number of additional questions
// wanted. The same per-chunk path is used, restricted to those modules and
// stopping once each module's count is reached.
func (bg *BatchGenerator) GenerateTargeted(ctx context.Context, counts map[string]int, perChunk int) ([]*Question, *GenerationStats, error) {
	only := make(map[string]bool, len(counts))
	for moduleID := range counts {
		only[moduleID] = true
	}

	generated, stats, err := bg.GenerateAll(ctx, perChunk, only)
	if err != nil {
		return nil, stats, err
	}

	// Trim each module down to its requested count, keeping generation order.
	kept := make([]*Question, 0, len(generated))
	perModule := make(map[string]int)
	for _, q := range generated {
		if perModule[q.Module()] >= counts[q.Module()] {
			continue
		}
		perModule[q.Module()]++
		kept = append(kept, q)
	}
	stats.Generated = len(kept)
	return kept, stats, nil
}
