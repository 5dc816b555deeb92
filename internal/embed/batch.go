package embed

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds in-flight embedding requests.
const DefaultConcurrency = 5

// Embedder is the single-text embedding collaborator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Progress receives completion counts as a batch advances. Calls may arrive
// from concurrent goroutines; done is monotonic, not ordered.
type Progress func(done, total int)

// Batch embeds texts in sequential windows of at most concurrency requests.
// Each window completes fully before the next starts, so no more than
// concurrency requests are ever in flight. The returned slice matches the
// input in length and order; slots are assigned by index, not completion
// order. The whole batch fails on the first error within a window.
func Batch(ctx context.Context, e Embedder, texts []string, concurrency int, progress Progress) ([][]float32, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	vectors := make([][]float32, len(texts))
	total := len(texts)
	var done atomic.Int64

	for start := 0; start < len(texts); start += concurrency {
		end := start + concurrency
		if end > len(texts) {
			end = len(texts)
		}
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				vec, err := e.Embed(gctx, texts[i])
				if err != nil {
					return fmt.Errorf("embed text %d: %w", i, err)
				}
				vectors[i] = vec
				if progress != nil {
					progress(int(done.Add(1)), total)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}
	return vectors, nil
}
