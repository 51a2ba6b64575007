package knowledge

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vectorNorm(vec []float64) float64 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	return math.Sqrt(sum)
}

func TestVectorizer_Defaults(t *testing.T) {
	assert.Equal(t, 1000, NewVectorizer(0).MaxFeatures)
	assert.Equal(t, 1000, NewVectorizer(-5).MaxFeatures)
	assert.Equal(t, 50, NewVectorizer(50).MaxFeatures)
}

func TestVectorizer_FitTransform(t *testing.T) {
	vec := NewVectorizer(100)
	vectors := vec.FitTransform([]string{
		"apple banana",
		"apple cherry",
	})

	require.Len(t, vectors, 2)
	features := vec.FeatureNames()
	assert.Equal(t, []string{"apple", "apple banana", "apple cherry", "banana", "cherry"}, features,
		"vocabulary holds unigrams and bigrams, sorted")

	for i, v := range vectors {
		require.Len(t, v, len(features))
		assert.InDelta(t, 1.0, vectorNorm(v), 1e-9, "vector %d is L2 normalized", i)
	}

	// The shared term carries less weight than document-specific terms.
	idx := map[string]int{}
	for i, name := range features {
		idx[name] = i
	}
	assert.Less(t, vectors[0][idx["apple"]], vectors[0][idx["banana"]])
	assert.Zero(t, vectors[0][idx["cherry"]])
}

func TestVectorizer_StopwordsAndShortTokens(t *testing.T) {
	vec := NewVectorizer(100)
	vec.FitTransform([]string{"the quick fox is a b fast"})

	features := vec.FeatureNames()
	assert.NotContains(t, features, "the")
	assert.NotContains(t, features, "is")
	assert.NotContains(t, features, "a")
	assert.NotContains(t, features, "b")
	assert.Contains(t, features, "quick")
	assert.Contains(t, features, "fox")
}

func TestVectorizer_MaxFeaturesCap(t *testing.T) {
	vec := NewVectorizer(2)
	vec.FitTransform([]string{
		"alpha alpha alpha beta beta gamma",
	})
	// Ties break alphabetically, so the repeated bigram beats "beta".
	assert.Equal(t, []string{"alpha", "alpha alpha"}, vec.FeatureNames())
}

func TestVectorizer_Determinism(t *testing.T) {
	corpus := []string{
		"deployment pipeline quality gates",
		"knowledge graph entity extraction",
		"quality audits gate the deployment",
	}
	first := NewVectorizer(100)
	second := NewVectorizer(100)
	if diff := cmp.Diff(first.FitTransform(corpus), second.FitTransform(corpus)); diff != "" {
		t.Errorf("vectors differ between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.FeatureNames(), second.FeatureNames())
}

func TestCosineSimilarity(t *testing.T) {
	vec := NewVectorizer(100)
	vectors := vec.FitTransform([]string{
		"apple banana orchard",
		"apple banana orchard",
		"unrelated topic entirely",
	})

	matrix := CosineSimilarity(vectors)
	require.Len(t, matrix, 3)
	assert.InDelta(t, 1.0, matrix[0][0], 1e-9)
	assert.InDelta(t, 1.0, matrix[0][1], 1e-9, "identical documents are maximally similar")
	assert.InDelta(t, 0.0, matrix[0][2], 1e-9, "disjoint documents are orthogonal")
	assert.Equal(t, matrix[1][0], matrix[0][1])
}

func TestMeanVector(t *testing.T) {
	mean := MeanVector([][]float64{{1, 3}, {3, 5}})
	assert.Equal(t, []float64{2, 4}, mean)

	assert.Nil(t, MeanVector(nil))
}
