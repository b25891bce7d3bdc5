package coverage

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/siherrmann/fmcover/embed"
	"github.com/siherrmann/fmcover/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitVector returns a 2-dimensional unit vector at the given angle, so the
// cosine similarity of two vectors is exactly the cosine of their angle delta.
func unitVector(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

// fixedEmbedder returns an embedder mapping each known text to a fixed vector
// and failing for unknown texts.
func fixedEmbedder(vectors map[string][]float32) embed.EmbedFunc {
	return func(text string) ([]float32, error) {
		vector, ok := vectors[text]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", text)
		}
		return vector, nil
	}
}

// identityEmbedder embeds every text deterministically from its content, so
// identical strings have similarity 1 and most distinct strings are dissimilar.
func identityEmbedder() embed.EmbedFunc {
	return func(text string) ([]float32, error) {
		angle := 0.0
		for i, r := range text {
			angle += float64(r) * float64(i+1) * 0.01
		}
		return unitVector(math.Mod(angle, 2*math.Pi)), nil
	}
}

func TestScoreEmptyInputs(t *testing.T) {
	engine := NewEngine(model.DefaultCoverageConfig(), identityEmbedder(), nil)

	t.Run("Empty reference scores 0 for any candidate", func(t *testing.T) {
		score, err := engine.Score(nil, []model.Node{{Name: "Storage"}})
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("Empty candidate scores 0 through the normal path", func(t *testing.T) {
		score, err := engine.Score([]model.Node{{Name: "Storage"}}, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("Both empty scores 0", func(t *testing.T) {
		score, err := engine.Score(nil, nil)
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})
}

func TestScoreSelfCoverage(t *testing.T) {
	nodes := []model.Node{
		{Name: "Storage"},
		{Name: "Cache", Parent: "Storage"},
		{Name: "Replication", Parent: "Storage"},
	}

	t.Run("Identical sequences reach 100 with full node weight", func(t *testing.T) {
		config := model.DefaultCoverageConfig()
		config.FeatureWeight = 1
		config.ParentWeight = 0
		engine := NewEngine(config, identityEmbedder(), nil)

		score, err := engine.Score(nodes, nodes)
		require.NoError(t, err)
		assert.Equal(t, 100.0, score)
	})

	t.Run("Root nodes cap below 100 under default weights", func(t *testing.T) {
		// A root node has no parent term, so its best combined score is
		// FeatureWeight even against itself.
		engine := NewEngine(model.DefaultCoverageConfig(), identityEmbedder(), nil)

		score, err := engine.Score([]model.Node{{Name: "Storage"}}, []model.Node{{Name: "Storage"}})
		require.NoError(t, err)
		assert.Equal(t, 90.0, score)
	})
}

func TestScoreDeterminism(t *testing.T) {
	reference := []model.Node{
		{Name: "Storage"},
		{Name: "Cache", Parent: "Storage"},
	}
	candidate := []model.Node{
		{Name: "Persistence"},
		{Name: "Caching", Parent: "Persistence"},
		{Name: "Sharding", Parent: "Persistence"},
	}
	engine := NewEngine(model.DefaultCoverageConfig(), identityEmbedder(), nil)

	first, err := engine.Score(reference, candidate)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := engine.Score(reference, candidate)
		require.NoError(t, err)
		assert.Equal(t, first, again, "score must be identical across repeated calls")
	}
}

func TestScoreRange(t *testing.T) {
	engine := NewEngine(model.DefaultCoverageConfig(), identityEmbedder(), nil)

	reference := []model.Node{
		{Name: "Alpha"},
		{Name: "Beta", Parent: "Alpha"},
		{Name: "Gamma", Parent: "Alpha"},
		{Name: "Delta", Parent: "Beta"},
	}
	candidate := []model.Node{
		{Name: "Alpha"},
		{Name: "Epsilon", Parent: "Alpha"},
		{Name: "Beta", Parent: "Epsilon"},
	}

	score, err := engine.Score(reference, candidate)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestScoreNoisyOR(t *testing.T) {
	// One reference node with two valid matches of combined scores 0.6 and
	// 0.5: coverage must be 1-(1-0.6)(1-0.5)=0.8, not max or sum.
	vectors := map[string][]float32{
		"Ref":  unitVector(0),
		"Near": unitVector(math.Acos(0.6)),
		"Far":  unitVector(math.Acos(0.5)),
	}
	config := model.DefaultCoverageConfig()
	config.FeatureWeight = 1
	config.ParentWeight = 0
	engine := NewEngine(config, fixedEmbedder(vectors), nil)

	reference := []model.Node{{Name: "Ref"}}
	candidate := []model.Node{{Name: "Near"}, {Name: "Far"}}

	report, err := engine.ScoreDetailed(reference, candidate)
	require.NoError(t, err)
	require.Len(t, report.Nodes, 1)
	require.Len(t, report.Nodes[0].Matches, 2)

	assert.InDelta(t, 0.8, report.Nodes[0].Coverage, 1e-4)
	assert.InDelta(t, 80.0, report.Score, 0.01)
}

func TestScoreNoMatchBelowThreshold(t *testing.T) {
	vectors := map[string][]float32{
		"Persistence":    unitVector(0),
		"UnrelatedThing": unitVector(math.Acos(0.1)),
	}
	engine := NewEngine(model.DefaultCoverageConfig(), fixedEmbedder(vectors), nil)

	report, err := engine.ScoreDetailed(
		[]model.Node{{Name: "Persistence"}},
		[]model.Node{{Name: "UnrelatedThing"}},
	)
	require.NoError(t, err)
	require.Len(t, report.Nodes, 1)

	assert.False(t, report.Nodes[0].Covered())
	assert.Equal(t, 0.0, report.Nodes[0].Coverage)
	assert.Equal(t, 0.0, report.Score)
}

func TestScoreThresholdMonotonicity(t *testing.T) {
	reference := []model.Node{
		{Name: "Storage"},
		{Name: "Cache", Parent: "Storage"},
	}
	candidate := []model.Node{
		{Name: "Persistence"},
		{Name: "Caching", Parent: "Persistence"},
	}

	previous := math.MaxFloat64
	for _, threshold := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		config := model.DefaultCoverageConfig()
		config.SimilarityThreshold = threshold
		engine := NewEngine(config, identityEmbedder(), nil)

		score, err := engine.Score(reference, candidate)
		require.NoError(t, err)
		assert.LessOrEqual(t, score, previous, "raising the threshold must never increase the score")
		previous = score
	}
}

func TestScoreTopKMonotonicity(t *testing.T) {
	vectors := map[string][]float32{
		"Ref": unitVector(0),
		"A":   unitVector(math.Acos(0.9)),
		"B":   unitVector(math.Acos(0.7)),
		"C":   unitVector(math.Acos(0.5)),
		"D":   unitVector(math.Acos(0.4)),
	}
	reference := []model.Node{{Name: "Ref"}}
	candidate := []model.Node{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}

	previous := -1.0
	for topK := 1; topK <= 5; topK++ {
		config := model.DefaultCoverageConfig()
		config.FeatureWeight = 1
		config.ParentWeight = 0
		config.TopK = topK
		engine := NewEngine(config, fixedEmbedder(vectors), nil)

		score, err := engine.Score(reference, candidate)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, score, previous, "increasing top_k must never decrease the score")
		previous = score
	}
}

func TestScoreWeightExtremes(t *testing.T) {
	// With the parent weight at 0 the score must be independent of parent
	// names entirely.
	config := model.DefaultCoverageConfig()
	config.FeatureWeight = 1
	config.ParentWeight = 0
	engine := NewEngine(config, identityEmbedder(), nil)

	reference := []model.Node{
		{Name: "Storage"},
		{Name: "Cache", Parent: "Storage"},
		{Name: "Replication", Parent: "Storage"},
	}
	candidate := []model.Node{
		{Name: "Storage"},
		{Name: "Cache", Parent: "Storage"},
		{Name: "Replication", Parent: "Cache"},
	}
	permuted := []model.Node{
		{Name: "Storage", Parent: "Replication"},
		{Name: "Cache"},
		{Name: "Replication", Parent: "Storage"},
	}

	original, err := engine.Score(reference, candidate)
	require.NoError(t, err)

	shuffled, err := engine.Score(reference, permuted)
	require.NoError(t, err)

	assert.Equal(t, original, shuffled)
}

func TestScoreEndToEnd(t *testing.T) {
	// Two reference nodes, each with a single counterpart above the
	// threshold. The child match gains a parent similarity contribution.
	storage := 0.0
	persistence := math.Acos(0.7)
	cache := 2.0
	caching := cache - math.Acos(0.8)

	vectors := map[string][]float32{
		"Storage":     unitVector(storage),
		"Persistence": unitVector(persistence),
		"Cache":       unitVector(cache),
		"Caching":     unitVector(caching),
	}
	engine := NewEngine(model.DefaultCoverageConfig(), fixedEmbedder(vectors), nil)

	reference := []model.Node{
		{Name: "Storage"},
		{Name: "Cache", Parent: "Storage"},
	}
	candidate := []model.Node{
		{Name: "Persistence"},
		{Name: "Caching", Parent: "Persistence"},
	}

	report, err := engine.ScoreDetailed(reference, candidate)
	require.NoError(t, err)
	require.Len(t, report.Nodes, 2)

	// Storage row: only Persistence qualifies, combined = 0.9*0.7 = 0.63.
	require.Len(t, report.Nodes[0].Matches, 1)
	assert.Equal(t, "Persistence", report.Nodes[0].Matches[0].Candidate)
	assert.InDelta(t, 0.63, report.Nodes[0].Matches[0].Combined, 1e-3)
	assert.InDelta(t, 0.63, report.Nodes[0].Coverage, 1e-3)

	// Cache row: only Caching qualifies, combined = 0.9*0.8 + 0.1*0.7 = 0.79.
	require.Len(t, report.Nodes[1].Matches, 1)
	assert.Equal(t, "Caching", report.Nodes[1].Matches[0].Candidate)
	assert.InDelta(t, 0.79, report.Nodes[1].Matches[0].Combined, 1e-3)
	assert.InDelta(t, 0.79, report.Nodes[1].Coverage, 1e-3)

	// Final score: mean of the two coverages times 100.
	assert.InDelta(t, 71.0, report.Score, 0.1)
}

func TestScoreTieBreakKeepsCandidateOrder(t *testing.T) {
	// Three candidates with identical vectors produce identical combined
	// scores. The top-k selection must keep original candidate order.
	same := unitVector(math.Acos(0.8))
	vectors := map[string][]float32{
		"Ref":    unitVector(0),
		"First":  same,
		"Second": same,
		"Third":  same,
	}
	config := model.DefaultCoverageConfig()
	config.FeatureWeight = 1
	config.ParentWeight = 0
	config.TopK = 2
	engine := NewEngine(config, fixedEmbedder(vectors), nil)

	report, err := engine.ScoreDetailed(
		[]model.Node{{Name: "Ref"}},
		[]model.Node{{Name: "First"}, {Name: "Second"}, {Name: "Third"}},
	)
	require.NoError(t, err)
	require.Len(t, report.Nodes, 1)
	require.Len(t, report.Nodes[0].Matches, 2)

	assert.Equal(t, "First", report.Nodes[0].Matches[0].Candidate)
	assert.Equal(t, "Second", report.Nodes[0].Matches[1].Candidate)
}

func TestScoreUnresolvedParentContributesZero(t *testing.T) {
	// The candidate parent never appears as a node name, it is still
	// embedded from the parent set, so it resolves. A reference root node
	// against a parented candidate must skip the parent term entirely.
	vectors := map[string][]float32{
		"Ref":   unitVector(0),
		"Match": unitVector(math.Acos(0.8)),
		"Ghost": unitVector(0),
	}
	engine := NewEngine(model.DefaultCoverageConfig(), fixedEmbedder(vectors), nil)

	report, err := engine.ScoreDetailed(
		[]model.Node{{Name: "Ref"}},
		[]model.Node{{Name: "Match", Parent: "Ghost"}},
	)
	require.NoError(t, err)
	require.Len(t, report.Nodes, 1)
	require.Len(t, report.Nodes[0].Matches, 1)

	match := report.Nodes[0].Matches[0]
	assert.Equal(t, 0.0, match.ParentSimilarity)
	assert.InDelta(t, 0.72, match.Combined, 1e-3)
}

func TestScoreEmbedderFailurePropagates(t *testing.T) {
	vectors := map[string][]float32{
		"Known": unitVector(0),
	}
	engine := NewEngine(model.DefaultCoverageConfig(), fixedEmbedder(vectors), nil)

	_, err := engine.Score(
		[]model.Node{{Name: "Known"}},
		[]model.Node{{Name: "Unknown"}},
	)
	require.Error(t, err)

	var unavailable *embed.UnavailableError
	assert.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "Unknown", unavailable.Text)
}

func TestScoreDetailedReportMetadata(t *testing.T) {
	engine := NewEngine(model.DefaultCoverageConfig(), identityEmbedder(), nil)

	report, err := engine.ScoreDetailed(
		[]model.Node{{Name: "Storage"}},
		[]model.Node{{Name: "Storage"}},
	)
	require.NoError(t, err)

	assert.Equal(t, "coverage_recall", report.Metric)
	assert.NotEqual(t, report.RID.String(), "00000000-0000-0000-0000-000000000000")
	assert.False(t, report.CreatedAt.IsZero())
	assert.Equal(t, engine.Config(), report.Config)
}
