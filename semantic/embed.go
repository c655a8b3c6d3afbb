package semantic

import (
	"context"
	"time"

	"github.com/teranos/roomq/errors"
	"github.com/teranos/roomq/internal/deadline"
)

// embedTexts embeds texts under timeout, batching when the embedder supports it
func embedTexts(ctx context.Context, e Embedder, timeout time.Duration, texts []string) ([][]float32, error) {
	if b, ok := e.(BatchEmbedder); ok {
		vectors, err := deadline.Run(ctx, "embedding", timeout, func(ctx context.Context) ([][]float32, error) {
			return b.EmbedBatch(ctx, texts)
		})
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(texts) {
			return nil, errors.Newf("embedder returned %d vectors for %d texts", len(vectors), len(texts))
		}
		return vectors, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := deadline.Run(ctx, "embedding", timeout, func(ctx context.Context) ([]float32, error) {
			return e.Embed(ctx, text)
		})
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}
