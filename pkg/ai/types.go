package ai

import "context"

// Embedder maps text onto a semantic vector. The model is an opaque
// black box; callers only rely on cosine geometry of the output.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}
