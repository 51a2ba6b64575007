package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeEmbeddingFixture(t *testing.T, inputDir string) {
	t.Helper()
	docs := []ParsedDocument{
		{
			OriginalPath: "docs/pipeline.md",
			Title:        "Pipeline",
			Concepts:     []string{"DataEngine"},
			Content:      "deployment pipeline quality gates staging",
		},
		{
			OriginalPath: "docs/audits.md",
			Title:        "Audits",
			Concepts:     []string{"DataEngine", "QualityGate"},
			Content:      "quality audits gate deployment staging pipeline",
		},
		{
			OriginalPath: "docs/graphs.md",
			Title:        "Graphs",
			Concepts:     []string{},
			Content:      "entity relationship extraction cypher graphml",
		},
	}
	for _, doc := range docs {
		stem := filepath.Base(doc.OriginalPath)
		stem = stem[:len(stem)-len(".md")]
		path := filepath.Join(inputDir, "parsings", "markdown", stem+".json")
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, writeJSON(path, doc))
	}

	structured := map[string]any{
		"original_path": "config.yml",
		"data":          map[string]any{"name": "background", "vectors": true},
	}
	structuredPath := filepath.Join(inputDir, "parsings", "structured", "config.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(structuredPath), 0o755))
	require.NoError(t, writeJSON(structuredPath, structured))
}

func TestEmbeddingGenerator_GenerateAll(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeEmbeddingFixture(t, inputDir)

	generator := NewEmbeddingGenerator(inputDir, outputDir, 500, zap.NewNop())
	require.NoError(t, generator.GenerateAll())

	data, err := os.ReadFile(filepath.Join(outputDir, "tfidf_embeddings.json"))
	require.NoError(t, err)
	var embeddings Embeddings
	require.NoError(t, json.Unmarshal(data, &embeddings))

	assert.Equal(t, "tfidf", embeddings.Method)
	assert.Equal(t, 4, embeddings.DocumentCount, "three markdown plus one structured document")
	require.Len(t, embeddings.Vectors, 4)
	require.Len(t, embeddings.Documents, 4)
	assert.Equal(t, len(embeddings.FeatureNames), embeddings.VocabularySize)
	// Markdown parsings come first in filename order, then structured ones.
	assert.Equal(t, "Audits", embeddings.Documents[0].Title)
	assert.Equal(t, "markdown", embeddings.Documents[0].Type)
	assert.Equal(t, "structured", embeddings.Documents[3].Type)
	assert.Equal(t, "config", embeddings.Documents[3].Title)

	for _, vec := range embeddings.Vectors {
		assert.Len(t, vec, embeddings.VocabularySize)
	}
}

func TestEmbeddingGenerator_Similarities(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeEmbeddingFixture(t, inputDir)

	generator := NewEmbeddingGenerator(inputDir, outputDir, 500, zap.NewNop())
	require.NoError(t, generator.GenerateAll())

	data, err := os.ReadFile(filepath.Join(outputDir, "document_similarities.json"))
	require.NoError(t, err)
	var out struct {
		SimilarityMatrix     [][]float64          `json:"similarity_matrix"`
		DocumentSimilarities []DocumentSimilarity `json:"document_similarities"`
		Threshold            float64              `json:"threshold"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	require.Len(t, out.SimilarityMatrix, 4)
	assert.Equal(t, 0.1, out.Threshold)

	// Audit and pipeline docs share vocabulary; the graph doc shares none.
	audits := out.DocumentSimilarities[0]
	assert.Equal(t, "Audits", audits.DocumentTitle)
	require.NotEmpty(t, audits.SimilarDocuments)
	assert.Equal(t, "Pipeline", audits.SimilarDocuments[0].Title)
	for _, similar := range audits.SimilarDocuments {
		assert.Greater(t, similar.Similarity, 0.1)
		assert.NotEqual(t, "Graphs", similar.Title)
	}
}

func TestEmbeddingGenerator_ConceptEmbeddings(t *testing.T) {
	inputDir := t.TempDir()
	outputDir := t.TempDir()
	writeEmbeddingFixture(t, inputDir)

	generator := NewEmbeddingGenerator(inputDir, outputDir, 500, zap.NewNop())
	require.NoError(t, generator.GenerateAll())

	data, err := os.ReadFile(filepath.Join(outputDir, "concept_embeddings.json"))
	require.NoError(t, err)
	var out struct {
		ConceptVectors   map[string][]float64 `json:"concept_vectors"`
		ConceptDocuments map[string][]int     `json:"concept_documents"`
		TotalConcepts    int                  `json:"total_concepts"`
	}
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, 2, out.TotalConcepts)
	assert.Equal(t, []int{0, 2}, out.ConceptDocuments["DataEngine"])
	assert.Equal(t, []int{0}, out.ConceptDocuments["QualityGate"])
	require.Contains(t, out.ConceptVectors, "DataEngine")
	assert.NotEmpty(t, out.ConceptVectors["DataEngine"])
}

func TestEmbeddingGenerator_EmptyCorpus(t *testing.T) {
	outputDir := t.TempDir()
	generator := NewEmbeddingGenerator(t.TempDir(), outputDir, 500, zap.NewNop())
	require.NoError(t, generator.GenerateAll())

	_, err := os.Stat(filepath.Join(outputDir, "tfidf_embeddings.json"))
	assert.True(t, os.IsNotExist(err), "no vector files for an empty corpus")

	data, err := os.ReadFile(filepath.Join(outputDir, "embedding_metadata.json"))
	require.NoError(t, err)
	var meta map[string]any
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, float64(0), meta["document_count"])
}
