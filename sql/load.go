package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed embeddings.sql
var embeddingsSQL string

// Function lists for verification
var EmbeddingsFunctions = []string{
	"init_embeddings",
	"upsert_embedding",
	"select_embedding",
	"delete_embeddings",
	"count_embeddings",
}

// Init creates the required database extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error creating extensions: %w", err)
	}
	return nil
}

// LoadEmbeddingsSql loads the embedding cache SQL functions.
// If force is false and all functions already exist, nothing is reloaded.
func LoadEmbeddingsSql(db *sql.DB, force bool) error {
	if !force && functionsExist(db, EmbeddingsFunctions) {
		return nil
	}

	_, err := db.Exec(embeddingsSQL)
	if err != nil {
		return fmt.Errorf("error loading embeddings sql: %w", err)
	}

	log.Println("Loaded embeddings SQL functions")

	return nil
}

// functionsExist checks whether all given functions are present in pg_proc
func functionsExist(db *sql.DB, names []string) bool {
	for _, name := range names {
		var exists bool
		err := db.QueryRow(
			`SELECT EXISTS (SELECT 1 FROM pg_proc WHERE proname = $1)`,
			name,
		).Scan(&exists)
		if err != nil || !exists {
			return false
		}
	}
	return true
}
