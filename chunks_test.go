package qcmpipeline

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModuleFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadChunkIndex(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "cardio.json", `{
		"module_id": "cardio",
		"title": "Cardiologie",
		"sections": [
			{"title": "Hémodynamique", "chunks": [
				{"chunk_id": "cardio_001", "text": "La précharge dépend du retour veineux.", "source_pdf": "cardio.pdf", "page_start": 12, "page_end": 12},
				{"chunk_id": "cardio_002", "text": "La postcharge dépend des résistances systémiques."}
			]}
		]
	}`)
	writeModuleFile(t, dir, "neuro.json", `{
		"sections": [
			{"chunks": [{"chunk_id": "neuro_001", "text": "La pression de perfusion cérébrale."}]}
		]
	}`)
	// Marker file produced by the classifier, must be skipped.
	writeModuleFile(t, dir, "reclassification_proposals.json", `{"proposals": []}`)

	idx, err := LoadChunkIndex(dir)
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 3 {
		t.Errorf("indexed %d chunks, want 3", idx.Len())
	}

	chunk := idx.Lookup("cardio_001")
	if chunk == nil || chunk.SourcePDF != "cardio.pdf" || chunk.PageStart != 12 {
		t.Errorf("Lookup(cardio_001) = %+v", chunk)
	}
	if idx.Lookup("absent") != nil {
		t.Error("Lookup on unknown id must be nil")
	}

	// Files without an explicit module_id fall back to the file stem.
	if idx.Modules()["neuro"] == nil {
		t.Error("neuro module not indexed under its file stem")
	}
}

func TestLoadChunkIndexEmptyDirIsError(t *testing.T) {
	if _, err := LoadChunkIndex(t.TempDir()); err == nil {
		t.Fatal("a directory with no chunks must be an error")
	}
}

func TestCoverage(t *testing.T) {
	dir := t.TempDir()
	writeModuleFile(t, dir, "cardio.json", `{
		"module_id": "cardio",
		"sections": [{"chunks": [
			{"chunk_id": "cardio_001", "text": "a"},
			{"chunk_id": "cardio_002", "text": "b"},
			{"chunk_id": "cardio_003", "text": "c"},
			{"chunk_id": "cardio_004", "text": "d"}
		]}]
	}`)

	idx, err := LoadChunkIndex(dir)
	if err != nil {
		t.Fatal(err)
	}

	questions := []*Question{
		{ID: "q1", ChunkID: "cardio_001"},
		{ID: "q2", ChunkID: "cardio_001"},
		{ID: "q3", ChunkID: "cardio_003"},
		{ID: "q4", ChunkID: ""},
	}
	stats := idx.Coverage(questions)

	cardio := stats["cardio"]
	if cardio.TotalChunks != 4 || cardio.CoveredChunks != 2 {
		t.Errorf("coverage = %+v, want 2/4", cardio)
	}
	if cardio.Percent() != 50 {
		t.Errorf("Percent() = %v, want 50", cardio.Percent())
	}
	if (CoverageStats{}).Percent() != 0 {
		t.Error("empty module percent must be 0")
	}
}
