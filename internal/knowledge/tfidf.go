package knowledge

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Vectorizer turns a corpus into TF-IDF vectors over a bounded vocabulary
// of unigrams and bigrams. Inverse document frequency is smoothed and the
// vectors are L2-normalized, so cosine similarity is a plain dot product.
type Vectorizer struct {
	MaxFeatures int

	featureNames []string
	featureIndex map[string]int
	idf          []float64
}

// NewVectorizer returns a Vectorizer capped at maxFeatures vocabulary terms.
func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = 1000
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

var tokenPattern = regexp.MustCompile(`[a-z0-9]+`)

// englishStopwords is a compact stopword list; tokens on it never enter
// the vocabulary, alone or inside a bigram.
var englishStopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"he": true, "in": true, "is": true, "it": true, "its": true, "of": true,
	"on": true, "or": true, "that": true, "the": true, "this": true, "to": true,
	"was": true, "were": true, "will": true, "with": true, "not": true,
	"but": true, "they": true, "their": true, "we": true, "our": true,
	"you": true, "your": true, "all": true, "can": true, "do": true, "if": true,
	"into": true, "no": true, "so": true, "than": true, "then": true,
	"there": true, "these": true, "through": true, "when": true, "which": true,
	"who": true, "more": true, "also": true, "just": true, "only": true,
	"other": true, "some": true, "such": true, "what": true, "while": true,
}

func tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) > 1 && !englishStopwords[token] {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// terms expands tokens into unigrams plus adjacent bigrams.
func terms(tokens []string) []string {
	out := make([]string, 0, len(tokens)*2)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}

// FitTransform builds the vocabulary from the corpus and returns one
// normalized TF-IDF vector per document.
func (v *Vectorizer) FitTransform(documents []string) [][]float64 {
	docTerms := make([][]string, len(documents))
	corpusCounts := map[string]int{}
	docFreq := map[string]int{}

	for i, doc := range documents {
		docTerms[i] = terms(tokenize(doc))
		seen := map[string]bool{}
		for _, term := range docTerms[i] {
			corpusCounts[term]++
			if !seen[term] {
				seen[term] = true
				docFreq[term]++
			}
		}
	}

	// Keep the most frequent terms; ties break alphabetically so the
	// vocabulary is stable across runs.
	candidates := make([]string, 0, len(corpusCounts))
	for term := range corpusCounts {
		candidates = append(candidates, term)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if corpusCounts[candidates[i]] != corpusCounts[candidates[j]] {
			return corpusCounts[candidates[i]] > corpusCounts[candidates[j]]
		}
		return candidates[i] < candidates[j]
	})
	if len(candidates) > v.MaxFeatures {
		candidates = candidates[:v.MaxFeatures]
	}
	sort.Strings(candidates)

	v.featureNames = candidates
	v.featureIndex = make(map[string]int, len(candidates))
	for i, term := range candidates {
		v.featureIndex[term] = i
	}

	n := float64(len(documents))
	v.idf = make([]float64, len(candidates))
	for i, term := range candidates {
		// Smoothed idf, never zero, so rare terms still contribute.
		v.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	vectors := make([][]float64, len(documents))
	for i, ts := range docTerms {
		vectors[i] = v.vectorize(ts)
	}
	return vectors
}

func (v *Vectorizer) vectorize(docTerms []string) []float64 {
	vec := make([]float64, len(v.featureNames))
	for _, term := range docTerms {
		if idx, ok := v.featureIndex[term]; ok {
			vec[idx]++
		}
	}
	var norm float64
	for i := range vec {
		vec[i] *= v.idf[i]
		norm += vec[i] * vec[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// FeatureNames returns the fitted vocabulary in index order.
func (v *Vectorizer) FeatureNames() []string {
	return v.featureNames
}

// CosineSimilarity computes the pairwise similarity matrix for a set of
// L2-normalized vectors.
func CosineSimilarity(vectors [][]float64) [][]float64 {
	matrix := make([][]float64, len(vectors))
	for i := range vectors {
		matrix[i] = make([]float64, len(vectors))
		for j := range vectors {
			matrix[i][j] = dot(vectors[i], vectors[j])
		}
	}
	return matrix
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// MeanVector averages a set of equal-length vectors.
func MeanVector(vectors [][]float64) []float64 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i, val := range vec {
			mean[i] += val
		}
	}
	for i := range mean {
		mean[i] /= float64(len(vectors))
	}
	return mean
}
