package qcmpipeline

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ModuleDocument is one extracted module file: the topic's sections with
// their text chunks, as produced by the PDF extraction stage.
type ModuleDocument struct {
	ModuleID string    `json:"module_id"`
	Title    string    `json:"title,omitempty"`
	Sections []Section `json:"sections"`
}

// Section groups the chunks extracted under one heading.
type Section struct {
	Title  string   `json:"title,omitempty"`
	Chunks []*Chunk `json:"chunks"`
}

// ChunkIndex maps chunk_id to its chunk across all loaded modules. It backs
// both generation (grounding context) and context-fidelity scoring.
type ChunkIndex struct {
	chunks  map[string]*Chunk
	modules map[string]*ModuleDocument
}

// LoadChunkIndex reads every module JSON file in dir and builds the chunk
// index. An empty or missing directory is fatal to the caller: continuing
// without source chunks would corrupt every downstream count.
func LoadChunkIndex(dir string) (*ChunkIndex, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan modules directory %s: %w", dir, err)
	}

	idx := &ChunkIndex{
		chunks:  make(map[string]*Chunk),
		modules: make(map[string]*ModuleDocument),
	}

	for _, file := range files {
		stem := strings.TrimSuffix(filepath.Base(file), ".json")
		if stem == "reclassification_proposals" {
			continue
		}

		var doc ModuleDocument
		if err := LoadJSON(file, &doc); err != nil {
			return nil, err
		}
		if doc.ModuleID == "" {
			doc.ModuleID = stem
		}

		idx.modules[doc.ModuleID] = &doc
		for _, section := range doc.Sections {
			for _, chunk := range section.Chunks {
				idx.chunks[chunk.ChunkID] = chunk
			}
		}
	}

	if len(idx.chunks) == 0 {
		return nil, fmt.Errorf("no chunks found in %s", dir)
	}
	return idx, nil
}

// Lookup returns the chunk for id, or nil when unknown.
func (ci *ChunkIndex) Lookup(id string) *Chunk {
	return ci.chunks[id]
}

// Len returns the number of indexed chunks.
func (ci *ChunkIndex) Len() int {
	return len(ci.chunks)
}

// Modules returns the loaded module documents keyed by module id.
func (ci *ChunkIndex) Modules() map[string]*ModuleDocument {
	return ci.modules
}

// Coverage reports, per module, how many of its chunks are referenced by at
// least one question in the corpus.
func (ci *ChunkIndex) Coverage(questions []*Question) map[string]CoverageStats {
	covered := make(map[string]bool)
	for _, q := range questions {
		if q.ChunkID != "" {
			covered[q.ChunkID] = true
		}
	}

	stats := make(map[string]CoverageStats)
	for moduleID, doc := range ci.modules {
		s := CoverageStats{}
		for _, section := range doc.Sections {
			for _, chunk := range section.Chunks {
				s.TotalChunks++
				if covered[chunk.ChunkID] {
					s.CoveredChunks++
				}
			}
		}
		stats[moduleID] = s
	}
	return stats
}

// CoverageStats counts covered chunks for one module.
type CoverageStats struct {
	TotalChunks   int `json:"total_chunks"`
	CoveredChunks int `json:"covered_chunks"`
}

// Percent returns the covered share in [0,100].
func (cs CoverageStats) Percent() float64 {
	if cs.TotalChunks == 0 {
		return 0
	}
	return float64(cs.CoveredChunks) / float64(cs.TotalChunks) * 100
}
