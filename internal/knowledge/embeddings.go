package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// similarityThreshold filters out near-zero document similarities.
const similarityThreshold = 0.1

// DocumentMeta describes one embedded document.
type DocumentMeta struct {
	Source   string   `json:"source"`
	Title    string   `json:"title"`
	Type     string   `json:"type"`
	Concepts []string `json:"concepts"`
}

// Embeddings is the tfidf_embeddings.json payload.
type Embeddings struct {
	Vectors        [][]float64    `json:"vectors"`
	FeatureNames   []string       `json:"feature_names"`
	Documents      []DocumentMeta `json:"documents"`
	Method         string         `json:"method"`
	VocabularySize int            `json:"vocabulary_size"`
	DocumentCount  int            `json:"document_count"`
}

// SimilarDocument is one entry in a document's nearest-neighbor list.
type SimilarDocument struct {
	Index      int     `json:"index"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// DocumentSimilarity is one document's neighbor list.
type DocumentSimilarity struct {
	DocumentIndex    int               `json:"document_index"`
	DocumentTitle    string            `json:"document_title"`
	SimilarDocuments []SimilarDocument `json:"similar_documents"`
}

// EmbeddingGenerator builds TF-IDF vectors, similarity matrices and
// concept embeddings from the processed parsings.
type EmbeddingGenerator struct {
	inputDir  string
	outputDir string
	vec       *Vectorizer
	logger    *zap.Logger
}

// NewEmbeddingGenerator reads parsings under inputDir and writes vector
// artifacts to outputDir.
func NewEmbeddingGenerator(inputDir, outputDir string, maxFeatures int, logger *zap.Logger) *EmbeddingGenerator {
	return &EmbeddingGenerator{
		inputDir:  inputDir,
		outputDir: outputDir,
		vec:       NewVectorizer(maxFeatures),
		logger:    logger,
	}
}

// GenerateAll produces tfidf_embeddings.json, document_similarities.json,
// concept_embeddings.json and embedding_metadata.json. A corpus with no
// documents yields no vector files, only the metadata.
func (g *EmbeddingGenerator) GenerateAll() error {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	documents, metadata, err := g.loadDocuments()
	if err != nil {
		return err
	}

	if len(documents) > 0 {
		vectors := g.vec.FitTransform(documents)
		embeddings := &Embeddings{
			Vectors:        vectors,
			FeatureNames:   g.vec.FeatureNames(),
			Documents:      metadata,
			Method:         "tfidf",
			VocabularySize: len(g.vec.FeatureNames()),
			DocumentCount:  len(documents),
		}
		if err := writeJSON(filepath.Join(g.outputDir, "tfidf_embeddings.json"), embeddings); err != nil {
			return err
		}

		if err := g.writeSimilarities(embeddings); err != nil {
			return err
		}
		if err := g.writeConceptEmbeddings(embeddings); err != nil {
			return err
		}
	} else {
		g.logger.Warn("no documents found for embedding")
	}

	meta := map[string]any{
		"document_count":    len(documents),
		"embedding_methods": []string{"tfidf", "cosine_similarity"},
		"features": map[string]any{
			"max_features": g.vec.MaxFeatures,
			"ngram_range":  []int{1, 2},
			"stop_words":   "english",
		},
		"files_generated": []string{
			"tfidf_embeddings.json",
			"document_similarities.json",
			"concept_embeddings.json",
			"embedding_metadata.json",
		},
	}
	if err := writeJSON(filepath.Join(g.outputDir, "embedding_metadata.json"), meta); err != nil {
		return err
	}

	g.logger.Info("embedding generation complete",
		zap.Int("documents", len(documents)),
		zap.Int("vocabulary", len(g.vec.FeatureNames())))
	return nil
}

func (g *EmbeddingGenerator) loadDocuments() ([]string, []DocumentMeta, error) {
	var documents []string
	var metadata []DocumentMeta

	markdownDir := filepath.Join(g.inputDir, "parsings", "markdown")
	files, err := findByExt(markdownDir, ".json")
	if err != nil {
		return nil, nil, err
	}
	for _, path := range files {
		doc, err := loadParsed(path)
		if err != nil {
			g.logger.Warn("skipping unreadable parsing", zap.String("file", path), zap.Error(err))
			continue
		}
		rel, _ := filepath.Rel(g.inputDir, path)
		documents = append(documents, doc.Content)
		metadata = append(metadata, DocumentMeta{
			Source:   filepath.ToSlash(rel),
			Title:    doc.Title,
			Type:     "markdown",
			Concepts: doc.Concepts,
		})
	}

	structuredDir := filepath.Join(g.inputDir, "parsings", "structured")
	files, err = findByExt(structuredDir, ".json")
	if err != nil {
		return nil, nil, err
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var structured struct {
			Data any `json:"data"`
		}
		if err := json.Unmarshal(data, &structured); err != nil {
			g.logger.Warn("skipping malformed structured parsing", zap.String("file", path), zap.Error(err))
			continue
		}
		rel, _ := filepath.Rel(g.inputDir, path)
		documents = append(documents, structuredToText(structured.Data))
		metadata = append(metadata, DocumentMeta{
			Source:   filepath.ToSlash(rel),
			Title:    strings.TrimSuffix(filepath.Base(path), ".json"),
			Type:     "structured",
			Concepts: []string{},
		})
	}

	return documents, metadata, nil
}

// structuredToText flattens arbitrary decoded YAML/JSON into a token stream
// for embedding: keys and leaf values only, structure discarded.
func structuredToText(data any) string {
	var parts []string
	var walk func(any)
	walk = func(node any) {
		switch val := node.(type) {
		case map[string]any:
			keys := make([]string, 0, len(val))
			for key := range val {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				parts = append(parts, key)
				walk(val[key])
			}
		case []any:
			for _, item := range val {
				walk(item)
			}
		case nil:
		default:
			parts = append(parts, fmt.Sprint(val))
		}
	}
	walk(data)
	return strings.Join(parts, " ")
}

func (g *EmbeddingGenerator) writeSimilarities(embeddings *Embeddings) error {
	matrix := CosineSimilarity(embeddings.Vectors)

	similarities := make([]DocumentSimilarity, len(matrix))
	for i, row := range matrix {
		type scored struct {
			idx int
			sim float64
		}
		others := make([]scored, 0, len(row)-1)
		for j, sim := range row {
			if j != i {
				others = append(others, scored{j, sim})
			}
		}
		sort.Slice(others, func(a, b int) bool {
			if others[a].sim != others[b].sim {
				return others[a].sim > others[b].sim
			}
			return others[a].idx < others[b].idx
		})
		if len(others) > 5 {
			others = others[:5]
		}

		similar := []SimilarDocument{}
		for _, o := range others {
			if o.sim > similarityThreshold {
				similar = append(similar, SimilarDocument{
					Index:      o.idx,
					Title:      embeddings.Documents[o.idx].Title,
					Similarity: o.sim,
				})
			}
		}
		similarities[i] = DocumentSimilarity{
			DocumentIndex:    i,
			DocumentTitle:    embeddings.Documents[i].Title,
			SimilarDocuments: similar,
		}
	}

	out := map[string]any{
		"similarity_matrix":     matrix,
		"document_similarities": similarities,
		"method":                "cosine_similarity",
		"threshold":             similarityThreshold,
	}
	return writeJSON(filepath.Join(g.outputDir, "document_similarities.json"), out)
}

func (g *EmbeddingGenerator) writeConceptEmbeddings(embeddings *Embeddings) error {
	conceptDocs := map[string][]int{}
	for i, meta := range embeddings.Documents {
		for _, concept := range meta.Concepts {
			conceptDocs[concept] = append(conceptDocs[concept], i)
		}
	}

	conceptVectors := map[string][]float64{}
	for concept, indices := range conceptDocs {
		vecs := make([][]float64, len(indices))
		for i, idx := range indices {
			vecs[i] = embeddings.Vectors[idx]
		}
		conceptVectors[concept] = MeanVector(vecs)
	}

	out := map[string]any{
		"concept_vectors":   conceptVectors,
		"concept_documents": conceptDocs,
		"total_concepts":    len(conceptDocs),
		"method":            "document_cooccurrence",
	}
	return writeJSON(filepath.Join(g.outputDir, "concept_embeddings.json"), out)
}
