package model

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
)

// Match represents one valid candidate match for a reference node
type Match struct {
	Candidate        string  `json:"candidate"`
	CandidateParent  string  `json:"candidate_parent,omitempty"`
	Combined         float64 `json:"combined"`          // Weighted node+parent score
	NodeSimilarity   float64 `json:"node_similarity"`   // Cosine similarity of the node names
	ParentSimilarity float64 `json:"parent_similarity"` // Cosine similarity of the parent names
}

// NodeCoverage represents the match evidence and coverage of a single
// reference node
type NodeCoverage struct {
	Reference string  `json:"reference"`
	Parent    string  `json:"parent,omitempty"`
	Matches   []Match `json:"matches,omitempty"` // Valid matches among the top-k, best first
	Coverage  float64 `json:"coverage"`          // Noisy-OR combination of the valid matches, 0 if none
}

// Covered reports whether the reference node had at least one valid match.
func (n NodeCoverage) Covered() bool {
	return len(n.Matches) > 0
}

// CoverageReport represents the full result of a coverage scoring run
type CoverageReport struct {
	RID       uuid.UUID      `json:"rid"`
	Metric    string         `json:"metric"` // Always "coverage_recall"
	Score     float64        `json:"score"`  // Final score in [0,100], rounded to 2 decimals
	Reference string         `json:"reference,omitempty"`
	Candidate string         `json:"candidate,omitempty"`
	Config    CoverageConfig `json:"config"`
	Nodes     []NodeCoverage `json:"nodes,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Save writes the report as indented JSON to the given path
func (r *CoverageReport) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
