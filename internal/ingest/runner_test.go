package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"recall/internal/store"

	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	calls int
	fail  bool
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fail {
		return nil, fmt.Errorf("embedding service down")
	}
	return []float32{1, 0}, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "recall.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

const goodTranscript = `{"type":"user","content":"why is the cache returning stale data?"}
{"type":"assistant","content":"the TTL is set in the wrong unit"}
`

func TestFindTranscripts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "proj-a"), 0755))
	writeFile(t, filepath.Join(dir, "proj-a"), "sess-1.jsonl", goodTranscript)
	writeFile(t, dir, "notes.txt", "not a transcript")

	files, err := FindTranscripts(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "sess-1.jsonl", filepath.Base(files[0]))
}

func TestRunIsolatesBadFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.jsonl", goodTranscript)
	degenerate := writeFile(t, dir, "degenerate.jsonl", `{"type":"user","content":"hi"}`+"\n")

	st := newTestStore(t)
	res := Run(context.Background(), st, []string{degenerate, good}, Options{
		Embedder: &stubEmbedder{},
	})

	require.Equal(t, 1, res.Ingested)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 2, res.Chunks)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "degenerate.jsonl")

	stats, err := st.Counts()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Sessions)
	require.Equal(t, 2, stats.Chunks)
	require.Equal(t, 2, stats.EmbeddedChunks)
}

func TestRunSkipEmbed(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.jsonl", goodTranscript)

	st := newTestStore(t)
	res := Run(context.Background(), st, []string{good}, Options{SkipEmbed: true})

	require.Equal(t, 1, res.Ingested)
	stats, err := st.Counts()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Chunks)
	require.Zero(t, stats.EmbeddedChunks)
}

func TestRunEmbedFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.jsonl", goodTranscript)

	st := newTestStore(t)
	res := Run(context.Background(), st, []string{good}, Options{
		Embedder: &stubEmbedder{fail: true},
	})

	require.Zero(t, res.Ingested)
	require.Equal(t, 1, res.Skipped)

	stats, err := st.Counts()
	require.NoError(t, err)
	require.Zero(t, stats.Sessions)
	require.Zero(t, stats.Chunks)
}

func TestRunReingestKeepsOneSession(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.jsonl", goodTranscript)

	st := newTestStore(t)
	opts := Options{Embedder: &stubEmbedder{}}
	Run(context.Background(), st, []string{good}, opts)
	Run(context.Background(), st, []string{good}, opts)

	stats, err := st.Counts()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Sessions)
	require.Equal(t, 2, stats.Chunks)
}

func TestRunHonorsMaxFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.jsonl", goodTranscript)
	b := writeFile(t, dir, "b.jsonl", goodTranscript)

	st := newTestStore(t)
	res := Run(context.Background(), st, []string{a, b}, Options{
		SkipEmbed: true,
		MaxFiles:  1,
	})
	require.Equal(t, 1, res.Ingested)
}
