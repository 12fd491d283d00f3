package qcmpipeline

import (
	"sort"
	"strings"
	"unicode"
)

// ModuleKeywords holds the salient terms computed for one module: the
// aggregated module-level list plus the per-chunk lists.
type ModuleKeywords struct {
	ModuleKeywords []string            `json:"module_keywords"`
	ChunkKeywords  map[string][]string `json:"chunk_keywords,omitempty"`
}

// KeywordIndex maps module id to its keyword lists, as stored in the keywords
// file shared between the indexer, the generator and the lexical scorer.
type KeywordIndex map[string]*ModuleKeywords

const (
	topKeywordsPerChunk  = 10
	topKeywordsPerModule = 50
	minTokenLength       = 3
)

// stopwords dropped during tokenization: French function words plus terms so
// frequent in the source corpus that they carry no topical signal.
var stopwords = map[string]bool{
	"le": true, "la": true, "les": true, "un": true, "une": true, "des": true,
	"de": true, "du": true, "et": true, "ou": true, "est": true, "sont": true,
	"ont": true, "pour": true, "dans": true, "par": true, "avec": true,
	"sur": true, "lors": true, "selon": true, "via": true, "pas": true,
	"plus": true, "aux": true, "ces": true, "cette": true, "son": true,
	"ses": true, "qui": true, "que": true, "dont": true, "comme": true,
	"patient": true, "patients": true, "cas": true, "fait": true,
	"permet": true, "doit": true, "peut": true, "fois": true, "niveau": true,
	"ainsi": true, "donc": true, "notamment": true,
}

// Tokenize lowercases text, strips punctuation and drops stopwords and short
// tokens. The same tokenizer feeds the keyword indexer, the lexical-overlap
// scorer and the near-duplicate report, so their vocabularies agree.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTokenLength || stopwords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the distinct tokens of text.
func TokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range Tokenize(text) {
		set[tok] = true
	}
	return set
}

// BuildKeywordIndex computes per-chunk and per-module salient terms by token
// frequency over the extracted chunks. Chunk lists keep the top 10 terms,
// module lists the top 50 aggregated across all of the module's chunks.
func BuildKeywordIndex(idx *ChunkIndex) KeywordIndex {
	result := make(KeywordIndex)

	for moduleID, doc := range idx.Modules() {
		moduleCounts := make(map[string]int)
		chunkKeywords := make(map[string][]string)

		for _, section := range doc.Sections {
			for _, chunk := range section.Chunks {
				counts := make(map[string]int)
				for _, tok := range Tokenize(chunk.Text) {
					counts[tok]++
					moduleCounts[tok]++
				}
				chunkKeywords[chunk.ChunkID] = topTokens(counts, topKeywordsPerChunk)
			}
		}

		result[moduleID] = &ModuleKeywords{
			ModuleKeywords: topTokens(moduleCounts, topKeywordsPerModule),
			ChunkKeywords:  chunkKeywords,
		}
	}
	return result
}

// ModuleList returns the module-level keyword list for moduleID, or nil when
// the module has no entry.
func (ki KeywordIndex) ModuleList(moduleID string) []string {
	if entry, ok := ki[moduleID]; ok {
		return entry.ModuleKeywords
	}
	return nil
}

// topTokens returns the n highest-frequency tokens, ties broken
// alphabetically for deterministic output.
func topTokens(counts map[string]int, n int) []string {
	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		return tokens[i] < tokens[j]
	})
	if len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}
