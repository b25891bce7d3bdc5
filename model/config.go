package model

// CoverageConfig represents configuration for a coverage scoring run
type CoverageConfig struct {
	// Embedding model used for both node and parent names
	ModelName string `json:"model_name"`

	// Match selection parameters
	SimilarityThreshold float64 `json:"similarity_threshold"`
	TopK                int     `json:"top_k"`

	// Weighting parameters for the combined score
	FeatureWeight float64 `json:"feature_weight"` // Weight for node name similarity
	ParentWeight  float64 `json:"parent_weight"`  // Weight for parent name similarity
}

// DefaultCoverageConfig returns a sensible default configuration
func DefaultCoverageConfig() CoverageConfig {
	return CoverageConfig{
		ModelName:           "sentence-transformers/all-mpnet-base-v2",
		SimilarityThreshold: 0.35,
		TopK:                3,
		FeatureWeight:       0.9,
		ParentWeight:        0.1,
	}
}
