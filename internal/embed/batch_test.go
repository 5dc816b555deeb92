package embed

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeEmbedder tracks in-flight requests and returns the text's numeric value
// as a one-element vector.
type fakeEmbedder struct {
	mu       sync.Mutex
	inflight int
	maxSeen  int
	delay    time.Duration
	failOn   string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.inflight++
	if f.inflight > f.maxSeen {
		f.maxSeen = f.inflight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inflight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failOn != "" && text == f.failOn {
		return nil, fmt.Errorf("service rejected %q", text)
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return nil, err
	}
	return []float32{float32(n)}, nil
}

func numberedTexts(n int) []string {
	texts := make([]string, n)
	for i := range texts {
		texts[i] = strconv.Itoa(i)
	}
	return texts
}

func TestBatchPreservesOrderAndBoundsConcurrency(t *testing.T) {
	fake := &fakeEmbedder{delay: 5 * time.Millisecond}

	vectors, err := Batch(context.Background(), fake, numberedTexts(12), 5, nil)
	require.NoError(t, err)
	require.Len(t, vectors, 12)
	for i, vec := range vectors {
		require.Equal(t, []float32{float32(i)}, vec)
	}
	require.LessOrEqual(t, fake.maxSeen, 5)
}

func TestBatchProgressIsMonotonicAndComplete(t *testing.T) {
	fake := &fakeEmbedder{}

	var mu sync.Mutex
	var counts []int
	_, err := Batch(context.Background(), fake, numberedTexts(12), 5, func(done, total int) {
		require.Equal(t, 12, total)
		mu.Lock()
		counts = append(counts, done)
		mu.Unlock()
	})
	require.NoError(t, err)

	sort.Ints(counts)
	require.Len(t, counts, 12)
	for i, c := range counts {
		require.Equal(t, i+1, c)
	}
}

func TestBatchFailsWholly(t *testing.T) {
	fake := &fakeEmbedder{failOn: "7"}

	vectors, err := Batch(context.Background(), fake, numberedTexts(12), 5, nil)
	require.Error(t, err)
	require.Nil(t, vectors)
}

func TestBatchEmptyInput(t *testing.T) {
	fake := &fakeEmbedder{}
	vectors, err := Batch(context.Background(), fake, nil, 5, nil)
	require.NoError(t, err)
	require.Empty(t, vectors)
}

func TestBatchDefaultConcurrency(t *testing.T) {
	fake := &fakeEmbedder{delay: 2 * time.Millisecond}
	vectors, err := Batch(context.Background(), fake, numberedTexts(8), 0, nil)
	require.NoError(t, err)
	require.Len(t, vectors, 8)
	require.LessOrEqual(t, fake.maxSeen, DefaultConcurrency)
}
