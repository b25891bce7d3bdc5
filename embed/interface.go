package embed

import "fmt"

// EmbedFunc is a function that generates embeddings for text
type EmbedFunc func(text string) ([]float32, error)

// Store is a persistent embedding store used by CachedEmbedder to reuse
// embeddings across runs. Lookups that miss return found=false, not an error.
type Store interface {
	SelectEmbedding(modelName string, text string) ([]float32, bool, error)
	UpsertEmbedding(modelName string, text string, embedding []float32) error
}

// UnavailableError is returned when the embedding backend fails for a text.
// The engine never retries; callers apply their own retry policy.
type UnavailableError struct {
	Text string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("embedding unavailable for %q: %v", e.Text, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}
