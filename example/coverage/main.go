package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/siherrmann/fmcover"
	"github.com/siherrmann/fmcover/model"
)

func main() {
	defaults := model.DefaultCoverageConfig()

	gt := flag.String("gt", "", "Ground-truth FeatureIDE XML")
	pred := flag.String("pred", "", "Predicted/generated FeatureIDE XML")
	modelName := flag.String("model", defaults.ModelName, "Sentence transformer model")
	threshold := flag.Float64("threshold", defaults.SimilarityThreshold, "Similarity threshold")
	topK := flag.Int("top-k", defaults.TopK, "Top-k matches to consider")
	featureWeight := flag.Float64("feature-weight", defaults.FeatureWeight, "Weight for node similarity")
	parentWeight := flag.Float64("parent-weight", defaults.ParentWeight, "Weight for parent similarity")
	out := flag.String("out", "", "Optional path for the JSON coverage report")
	flag.Parse()

	if *gt == "" || *pred == "" {
		log.Fatal("both -gt and -pred are required")
	}

	// Ignore error, .env file is optional
	_ = godotenv.Load()

	config := model.CoverageConfig{
		ModelName:           *modelName,
		SimilarityThreshold: *threshold,
		TopK:                *topK,
		FeatureWeight:       *featureWeight,
		ParentWeight:        *parentWeight,
	}

	evaluator, err := fmcover.NewEvaluator(config)
	if err != nil {
		log.Fatalf("Failed to create evaluator: %v", err)
	}
	defer evaluator.Close()

	// Well-formedness check of the generated model before scoring
	result, err := evaluator.ValidateFile(*pred)
	if err != nil {
		log.Fatalf("Failed to validate candidate model: %v", err)
	}
	for _, e := range result.Errors {
		fmt.Printf("well-formedness: %s\n", e)
	}

	report, err := evaluator.ScoreFiles(*gt, *pred)
	if err != nil {
		log.Fatalf("Failed to score feature models: %v", err)
	}

	for _, node := range report.Nodes {
		fmt.Printf("REFERENCE NODE: %s\n", node.Reference)
		if !node.Covered() {
			fmt.Println("  -> NO ADEQUATE COVERAGE")
			continue
		}
		for _, match := range node.Matches {
			fmt.Printf("  -> %s | score=%.3f (node=%.3f, parent=%.3f)\n",
				match.Candidate, match.Combined, match.NodeSimilarity, match.ParentSimilarity)
		}
	}

	fmt.Printf("\nCoverage Score (Recall): %.2f/100\n", report.Score)

	if *out != "" {
		if err := report.Save(*out); err != nil {
			log.Fatalf("Failed to save report: %v", err)
		}
		fmt.Printf("Saved: %s\n", *out)
	}
}
