package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/fmcover/helper"
	loadSql "github.com/siherrmann/fmcover/sql"
)

// EmbeddingsDBHandlerFunctions defines the interface for embedding cache
// database operations.
type EmbeddingsDBHandlerFunctions interface {
	UpsertEmbedding(modelName string, text string, embedding []float32) error
	SelectEmbedding(modelName string, text string) ([]float32, bool, error)
	DeleteEmbeddings(modelName string) error
	CountEmbeddings(modelName string) (int, error)
}

// EmbeddingsDBHandler handles the persistent embedding cache. Rows are keyed
// by (model name, text), so the same text embedded by different models never
// collides.
type EmbeddingsDBHandler struct {
	db *helper.Database
}

// NewEmbeddingsDBHandler creates a new embeddings database handler.
// It loads the embedding-related SQL functions and creates the cache table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEmbeddingsDBHandler(db *helper.Database, embeddingDim int, force bool) (*EmbeddingsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	embeddingsDbHandler := &EmbeddingsDBHandler{
		db: db,
	}

	err := loadSql.LoadEmbeddingsSql(embeddingsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load embeddings sql", err)
	}

	err = embeddingsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EmbeddingsDBHandler")

	return embeddingsDbHandler, nil
}

// CreateTable creates the 'embeddings' table in the database.
// If the table already exists, it does not create it again.
func (h *EmbeddingsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_embeddings($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing embeddings table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table embeddings")

	return nil
}

// UpsertEmbedding inserts or replaces the cached embedding for a text
func (h *EmbeddingsDBHandler) UpsertEmbedding(modelName string, text string, embedding []float32) error {
	_, err := h.db.Instance.Exec(
		`SELECT upsert_embedding($1, $2, $3)`,
		modelName,
		text,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return helper.NewError("upsert embedding", err)
	}
	return nil
}

// SelectEmbedding returns the cached embedding for a text.
// A cache miss is reported via found=false, not as an error.
func (h *EmbeddingsDBHandler) SelectEmbedding(modelName string, text string) ([]float32, bool, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_embedding($1, $2)`,
		modelName,
		text,
	)

	var vector pgvector.Vector
	err := row.Scan(&vector)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, helper.NewError("select embedding", err)
	}

	return vector.Slice(), true, nil
}

// DeleteEmbeddings removes all cached embeddings of a model
func (h *EmbeddingsDBHandler) DeleteEmbeddings(modelName string) error {
	_, err := h.db.Instance.Exec(`SELECT delete_embeddings($1)`, modelName)
	if err != nil {
		return helper.NewError("delete embeddings", err)
	}

	h.db.Logger.Info("Deleted cached embeddings", slog.String("model_name", modelName))

	return nil
}

// CountEmbeddings returns the number of cached embeddings of a model
func (h *EmbeddingsDBHandler) CountEmbeddings(modelName string) (int, error) {
	row := h.db.Instance.QueryRow(`SELECT count_embeddings($1)`, modelName)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, helper.NewError("count embeddings", err)
	}
	return count, nil
}
