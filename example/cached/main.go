package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/fmcover"
	"github.com/siherrmann/fmcover/helper"
	"github.com/siherrmann/fmcover/model"
)

// This example scores the same pair of feature models twice with a
// postgres-backed embedding cache. The second run reuses every embedding
// from the first one.
func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	config := model.DefaultCoverageConfig()
	evaluator, err := fmcover.NewEvaluator(config)
	if err != nil {
		log.Fatalf("Failed to create evaluator: %v", err)
	}
	defer evaluator.Close()

	// all-mpnet-base-v2 produces 768-dimensional embeddings
	if err := evaluator.UseDatabaseCache(dbConfig, 768); err != nil {
		log.Fatalf("Failed to set up embedding cache: %v", err)
	}

	reference := []model.Node{
		{Name: "Storage"},
		{Name: "Cache", Parent: "Storage"},
		{Name: "Replication", Parent: "Storage"},
	}
	candidate := []model.Node{
		{Name: "Persistence"},
		{Name: "Caching", Parent: "Persistence"},
	}

	for run := 1; run <= 2; run++ {
		score, err := evaluator.Score(reference, candidate)
		if err != nil {
			log.Fatalf("Failed to score feature models: %v", err)
		}

		cached, err := evaluator.Embeddings.CountEmbeddings(config.ModelName)
		if err != nil {
			log.Fatalf("Failed to count cached embeddings: %v", err)
		}

		fmt.Printf("run %d: score=%.2f, cached embeddings=%d\n", run, score, cached)
	}
}
