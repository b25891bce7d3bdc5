// Package fmcover scores how well an automatically generated feature model
// semantically covers a human-authored reference model.
package fmcover

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/fmcover/core/coverage"
	"github.com/siherrmann/fmcover/core/extract"
	"github.com/siherrmann/fmcover/core/wellformed"
	"github.com/siherrmann/fmcover/database"
	"github.com/siherrmann/fmcover/embed"
	"github.com/siherrmann/fmcover/helper"
	"github.com/siherrmann/fmcover/model"
	loadSql "github.com/siherrmann/fmcover/sql"
)

// Evaluator ties together node extraction, embedding and coverage scoring
type Evaluator struct {
	Config     model.CoverageConfig
	Engine     *coverage.Engine
	Embeddings *database.EmbeddingsDBHandler // Optional persistent embedding cache
	// Embedding backend
	embedder embed.EmbedFunc
	db       *helper.Database
	// Logging
	log *slog.Logger
}

// NewEvaluator creates an Evaluator with the default local sentence
// transformer embedder for the configured model
func NewEvaluator(config model.CoverageConfig) (*Evaluator, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	embedder, err := embed.DefaultEmbedder(config.ModelName)
	if err != nil {
		return nil, helper.NewError("create default embedder", err)
	}

	return NewEvaluatorWithEmbedder(config, embedder, logger), nil
}

// NewEvaluatorWithEmbedder creates an Evaluator with an injected embedding
// backend. Any backend works as long as identical inputs yield identical
// vectors for a fixed model configuration.
func NewEvaluatorWithEmbedder(config model.CoverageConfig, embedder embed.EmbedFunc, logger *slog.Logger) *Evaluator {
	return &Evaluator{
		Config:   config,
		Engine:   coverage.NewEngine(config, embedder, logger),
		embedder: embedder,
		log:      logger,
	}
}

// UseDatabaseCache wires a persistent postgres-backed embedding cache in
// front of the embedding backend. Embeddings computed in earlier runs are
// reused across Evaluator instances.
func (e *Evaluator) UseDatabaseCache(dbConfig *helper.DatabaseConfiguration, embeddingDim int) error {
	db := helper.NewDatabase("fmcover", dbConfig, e.log)
	if err := loadSql.Init(db.Instance); err != nil {
		return helper.NewError("initialize database extensions", err)
	}

	embeddings, err := database.NewEmbeddingsDBHandler(db, embeddingDim, false)
	if err != nil {
		return helper.NewError("create embeddings handler", err)
	}

	e.db = db
	e.Embeddings = embeddings
	e.embedder = embed.CachedEmbedder(embeddings, e.Config.ModelName, e.embedder)
	e.Engine = coverage.NewEngine(e.Config, e.embedder, e.log)

	return nil
}

// Score computes the coverage of the candidate node sequence over the
// reference sequence
func (e *Evaluator) Score(reference, candidate []model.Node) (float64, error) {
	return e.Engine.Score(reference, candidate)
}

// ScoreFiles extracts both feature model XML files and computes the coverage
// of the candidate model over the reference model
func (e *Evaluator) ScoreFiles(referencePath, candidatePath string) (*model.CoverageReport, error) {
	reference, err := extract.ExtractFile(referencePath)
	if err != nil {
		return nil, helper.NewError("extract reference model", err)
	}

	candidate, err := extract.ExtractFile(candidatePath)
	if err != nil {
		return nil, helper.NewError("extract candidate model", err)
	}

	e.log.Info("Extracted feature models",
		slog.Int("reference_nodes", len(reference)),
		slog.Int("candidate_nodes", len(candidate)))

	report, err := e.Engine.ScoreDetailed(reference, candidate)
	if err != nil {
		return nil, err
	}

	report.Reference = referencePath
	report.Candidate = candidatePath

	return report, nil
}

// ValidateFile checks a feature model file for well-formedness
func (e *Evaluator) ValidateFile(path string) (*wellformed.Result, error) {
	result, err := wellformed.ValidateFile(path)
	if err != nil {
		return nil, helper.NewError("validate feature model", err)
	}

	if !result.OK {
		e.log.Warn("Feature model is not well-formed",
			slog.String("path", path),
			slog.Int("errors", len(result.Errors)))
	}

	return result, nil
}

// Close closes the database connection of the persistent cache, if any
func (e *Evaluator) Close() error {
	if e.db != nil && e.db.Instance != nil {
		return e.db.Instance.Close()
	}
	return nil
}

// CoverageScore is a convenience function scoring two feature model files
// with the given config and the default embedder
func CoverageScore(referencePath, candidatePath string, config model.CoverageConfig) (float64, error) {
	evaluator, err := NewEvaluator(config)
	if err != nil {
		return 0, err
	}
	defer evaluator.Close()

	report, err := evaluator.ScoreFiles(referencePath, candidatePath)
	if err != nil {
		return 0, err
	}
	if report == nil {
		return 0, fmt.Errorf("no report produced")
	}

	return report.Score, nil
}
