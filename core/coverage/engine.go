// Package coverage scores how well a generated feature model node sequence
// semantically covers a human-authored reference sequence.
//
// For every reference node the engine computes a weighted combination of node
// name similarity and parent name similarity against every candidate node,
// keeps the top-k candidates above a similarity threshold and combines them
// into a per-node coverage value via noisy-OR. The final score is the mean
// per-node coverage expressed in [0,100].
package coverage

import (
	"io"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/fmcover/embed"
	"github.com/siherrmann/fmcover/helper"
	"github.com/siherrmann/fmcover/model"
)

// Engine computes semantic coverage scores. It holds only configuration and
// the injected embedder, all per-call state is local to one Score invocation,
// so concurrent calls on one Engine are safe.
type Engine struct {
	config   model.CoverageConfig
	embedder embed.EmbedFunc
	log      *slog.Logger
}

// NewEngine creates a new coverage engine with the given configuration and
// embedder. A nil logger disables logging.
func NewEngine(config model.CoverageConfig, embedder embed.EmbedFunc, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		config:   config,
		embedder: embedder,
		log:      logger,
	}
}

// Config returns the engine configuration
func (e *Engine) Config() model.CoverageConfig {
	return e.config
}

// Score computes the coverage of the candidate node sequence over the
// reference sequence. Returns a score in [0,100], rounded to 2 decimals.
// An empty reference sequence scores 0.
func (e *Engine) Score(reference, candidate []model.Node) (float64, error) {
	report, err := e.ScoreDetailed(reference, candidate)
	if err != nil {
		return 0, err
	}
	return report.Score, nil
}

// ScoreDetailed computes the coverage score and returns the full report with
// the valid matches and sub-scores per reference node. The per-node detail is
// a diagnostic channel and carries no semantics back into the score.
func (e *Engine) ScoreDetailed(reference, candidate []model.Node) (*model.CoverageReport, error) {
	report := &model.CoverageReport{
		RID:       uuid.New(),
		Metric:    "coverage_recall",
		Config:    e.config,
		CreatedAt: time.Now().UTC(),
	}

	// Coverage of an empty reference set is a defined degenerate result,
	// not an error.
	if len(reference) == 0 {
		return report, nil
	}

	refCache := embed.NewCache(e.embedder)
	candCache := embed.NewCache(e.embedder)

	// Embed each distinct node name and each distinct non-empty parent name
	// once per set, before any comparison.
	if err := refCache.EmbedAll(model.Names(reference)); err != nil {
		return nil, helper.NewError("embed reference set", err)
	}
	if err := refCache.EmbedAll(model.ParentNames(reference)); err != nil {
		return nil, helper.NewError("embed reference parents", err)
	}
	if err := candCache.EmbedAll(model.Names(candidate)); err != nil {
		return nil, helper.NewError("embed candidate set", err)
	}
	if err := candCache.EmbedAll(model.ParentNames(candidate)); err != nil {
		return nil, helper.NewError("embed candidate parents", err)
	}

	// One reference row at a time, the full matrix is never materialized.
	total := 0.0
	for _, ref := range reference {
		nodeCoverage := e.scoreRow(ref, candidate, refCache, candCache)
		total += nodeCoverage.Coverage
		report.Nodes = append(report.Nodes, nodeCoverage)

		if nodeCoverage.Covered() {
			e.log.Debug("Reference node covered",
				slog.String("reference", ref.Name),
				slog.Int("matches", len(nodeCoverage.Matches)),
				slog.Float64("coverage", nodeCoverage.Coverage))
		} else {
			e.log.Debug("Reference node has no adequate coverage",
				slog.String("reference", ref.Name))
		}
	}

	report.Score = round2(total / float64(len(reference)) * 100)

	e.log.Info("Coverage score computed",
		slog.Float64("score", report.Score),
		slog.Int("reference_nodes", len(reference)),
		slog.Int("candidate_nodes", len(candidate)))

	return report, nil
}

// scoreRow computes the combined similarity of one reference node against all
// candidates and reduces it to the per-node coverage.
func (e *Engine) scoreRow(ref model.Node, candidate []model.Node, refCache, candCache *embed.Cache) model.NodeCoverage {
	refVector, _ := refCache.Get(ref.Name)

	matches := make([]model.Match, 0, len(candidate))
	for _, cand := range candidate {
		candVector, _ := candCache.Get(cand.Name)
		nodeSim := embed.CosineSimilarity(refVector, candVector)

		// An unresolved parent contributes 0, it does not drop the
		// parent term from the weighted sum.
		parentSim := 0.0
		if ref.HasParent() && cand.HasParent() {
			refParent, okRef := refCache.Get(ref.Parent)
			candParent, okCand := candCache.Get(cand.Parent)
			if okRef && okCand {
				parentSim = embed.CosineSimilarity(refParent, candParent)
			}
		}

		combined := e.config.FeatureWeight*nodeSim + e.config.ParentWeight*parentSim

		matches = append(matches, model.Match{
			Candidate:        cand.Name,
			CandidateParent:  cand.Parent,
			Combined:         combined,
			NodeSimilarity:   nodeSim,
			ParentSimilarity: parentSim,
		})
	}

	// Stable sort: ties keep original candidate order.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Combined > matches[j].Combined
	})

	topK := e.config.TopK
	if topK > len(matches) {
		topK = len(matches)
	}
	if topK < 0 {
		topK = 0
	}

	// Noisy-OR over the valid matches: every match above the threshold is an
	// independent partial vote that the reference node is covered.
	var valid []model.Match
	remainder := 1.0
	for _, match := range matches[:topK] {
		if match.Combined >= e.config.SimilarityThreshold {
			valid = append(valid, match)
			remainder *= 1 - match.Combined
		}
	}

	coverage := 0.0
	if len(valid) > 0 {
		coverage = 1 - remainder
	}

	return model.NodeCoverage{
		Reference: ref.Name,
		Parent:    ref.Parent,
		Matches:   valid,
		Coverage:  coverage,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
