package embed

// Cache is a call-local embedding cache keyed by the exact input text.
// It is scoped to a single scoring call and never shared between goroutines.
type Cache struct {
	embedder EmbedFunc
	vectors  map[string][]float32
}

// NewCache creates an empty cache backed by the given embedder
func NewCache(embedder EmbedFunc) *Cache {
	return &Cache{
		embedder: embedder,
		vectors:  make(map[string][]float32),
	}
}

// Embed returns the embedding for text, computing it at most once.
// Backend failures are wrapped in an UnavailableError.
func (c *Cache) Embed(text string) ([]float32, error) {
	if vector, ok := c.vectors[text]; ok {
		return vector, nil
	}

	vector, err := c.embedder(text)
	if err != nil {
		return nil, &UnavailableError{Text: text, Err: err}
	}

	c.vectors[text] = vector
	return vector, nil
}

// EmbedAll computes embeddings for all distinct texts up front
func (c *Cache) EmbedAll(texts []string) error {
	for _, text := range texts {
		if _, err := c.Embed(text); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the cached embedding for text without computing it
func (c *Cache) Get(text string) ([]float32, bool) {
	vector, ok := c.vectors[text]
	return vector, ok
}

// Len returns the number of cached embeddings
func (c *Cache) Len() int {
	return len(c.vectors)
}

// CachedEmbedder wraps an embedder with a persistent store. Hits are served
// from the store, misses are embedded and written back. Store write failures
// are surfaced, not swallowed, so a broken cache is visible to the caller.
func CachedEmbedder(store Store, modelName string, embedder EmbedFunc) EmbedFunc {
	return func(text string) ([]float32, error) {
		vector, found, err := store.SelectEmbedding(modelName, text)
		if err != nil {
			return nil, err
		}
		if found {
			return vector, nil
		}

		vector, err = embedder(text)
		if err != nil {
			return nil, err
		}

		if err := store.UpsertEmbedding(modelName, text, vector); err != nil {
			return nil, err
		}
		return vector, nil
	}
}
