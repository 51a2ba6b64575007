package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeParsedDoc(t *testing.T, parsingsDir, stem string, doc ParsedDocument) {
	t.Helper()
	path := filepath.Join(parsingsDir, "markdown", stem+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, writeJSON(path, doc))
}

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewStore(filepath.Join(dir, "index", "knowledge.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestStore_IndexAndSearch(t *testing.T) {
	store, dir := openTestStore(t)
	parsingsDir := filepath.Join(dir, "parsings")

	writeParsedDoc(t, parsingsDir, "architecture", ParsedDocument{
		OriginalPath: "docs/architecture.md",
		Title:        "Architecture",
		Concepts:     []string{"DataEngine"},
		Content:      "The DataEngine coordinates indexing and retrieval across the pipeline.",
		ContentHash:  "hash-a",
	})
	writeParsedDoc(t, parsingsDir, "deploy", ParsedDocument{
		OriginalPath: "docs/deploy.md",
		Title:        "Deployment Guide",
		Concepts:     []string{"DataEngine", "SafetyChecks"},
		Content:      "Deployments are gated on quality audits.",
		ContentHash:  "hash-b",
	})

	stats, err := store.IndexDocuments(parsingsDir, "2026-08-31T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 0, stats.Skipped)

	results, err := store.Search("indexing", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "docs/architecture.md", results[0].Path)
	assert.Contains(t, results[0].Snippet, "indexing")

	results, err = store.Search("DEPLOYMENT", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Deployment Guide", results[0].Title)

	results, err = store.Search("nonexistent", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_IncrementalIndexing(t *testing.T) {
	store, dir := openTestStore(t)
	parsingsDir := filepath.Join(dir, "parsings")

	doc := ParsedDocument{
		OriginalPath: "docs/overview.md",
		Title:        "Overview",
		Content:      "Initial content.",
		ContentHash:  "hash-1",
	}
	writeParsedDoc(t, parsingsDir, "overview", doc)

	stats, err := store.IndexDocuments(parsingsDir, "2026-08-31T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	// Unchanged hash is skipped on the next run.
	stats, err = store.IndexDocuments(parsingsDir, "2026-08-31T01:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 1, stats.Skipped)

	doc.Content = "Updated content with more detail."
	doc.ContentHash = "hash-2"
	writeParsedDoc(t, parsingsDir, "overview", doc)

	stats, err = store.IndexDocuments(parsingsDir, "2026-08-31T02:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	results, err := store.Search("updated", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	documents, _, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, documents, "reindexing must not duplicate documents")
}

func TestStore_ConceptDocuments(t *testing.T) {
	store, dir := openTestStore(t)
	parsingsDir := filepath.Join(dir, "parsings")

	writeParsedDoc(t, parsingsDir, "a", ParsedDocument{
		OriginalPath: "docs/a.md", Title: "A", Concepts: []string{"DataEngine"},
		Content: "a", ContentHash: "ha",
	})
	writeParsedDoc(t, parsingsDir, "b", ParsedDocument{
		OriginalPath: "docs/b.md", Title: "B", Concepts: []string{"DataEngine", "VectorStore"},
		Content: "b", ContentHash: "hb",
	})

	_, err := store.IndexDocuments(parsingsDir, "2026-08-31T00:00:00Z")
	require.NoError(t, err)

	paths, err := store.ConceptDocuments("DataEngine")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md", "docs/b.md"}, paths)

	paths, err = store.ConceptDocuments("Unknown")
	require.NoError(t, err)
	assert.Empty(t, paths)

	documents, concepts, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, documents)
	assert.Equal(t, 2, concepts)
}

func TestSnippet(t *testing.T) {
	long := "prefix The quick brown fox jumps over the lazy dog and keeps running through a very long meadow toward the distant horizon line."
	got := snippet(long, "lazy dog")
	assert.Contains(t, got, "lazy dog")
	assert.Contains(t, got, "...")

	assert.Equal(t, "short text", snippet("short text", "zzz"))
}
