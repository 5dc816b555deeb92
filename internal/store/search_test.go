package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func seedChunks(t *testing.T, s *Store, sessionID string, chunks []Chunk) {
	t.Helper()
	id, err := s.UpsertSession(testSession(sessionID))
	require.NoError(t, err)
	require.NoError(t, s.InsertChunks(id, chunks))
}

func TestQuerySimilarOrdersByCosine(t *testing.T) {
	s := newTestStore(t)
	seedChunks(t, s, "sess-1", []Chunk{
		{Index: 0, Role: "user", Content: "exactly aligned with the query", Embedding: []float32{1, 0}},
		{Index: 1, Role: "user", Content: "orthogonal to the query vector", Embedding: []float32{0, 1}},
		{Index: 2, Role: "user", Content: "halfway between both of those", Embedding: []float32{0.7, 0.7}},
	})

	results, err := s.QuerySimilar([]float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 0, results[0].Index)
	require.Equal(t, 2, results[1].Index)
	require.Equal(t, 1, results[2].Index)
	require.InDelta(t, 1.0, results[0].Score, 1e-6)

	results, err = s.QuerySimilar([]float32{1, 0}, 2, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
}

func TestQuerySimilarSkipsUnembeddedAndFiltersRole(t *testing.T) {
	s := newTestStore(t)
	seedChunks(t, s, "sess-2", []Chunk{
		{Index: 0, Role: "user", Content: "embedded user question here", Embedding: []float32{1, 0}},
		{Index: 1, Role: "assistant", Content: "embedded assistant answer here", Embedding: []float32{1, 0}},
		{Index: 2, Role: "user", Content: "no embedding yet for this one"},
	})

	results, err := s.QuerySimilar([]float32{1, 0}, 10, "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	results, err = s.QuerySimilar([]float32{1, 0}, 10, "assistant")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "assistant", results[0].Role)
}

func TestQueryHybridRequiresLexicalMatch(t *testing.T) {
	s := newTestStore(t)
	seedChunks(t, s, "sess-3", []Chunk{
		// perfect vector similarity, but no lexical match for "zebra"
		{Index: 0, Role: "user", Content: "database migrations keep failing", Embedding: []float32{1, 0}},
		{Index: 1, Role: "assistant", Content: "the zebra striped table renders fine", Embedding: []float32{0, 1}},
	})

	results, err := s.QueryHybrid([]float32{1, 0}, "zebra", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].Index)

	results, err = s.QueryHybrid([]float32{1, 0}, "migrations", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 0, results[0].Index)

	// unmatched query returns nothing at all
	results, err = s.QueryHybrid([]float32{1, 0}, "nonexistentterm", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestQueryHybridSkipsUnembedded(t *testing.T) {
	s := newTestStore(t)
	seedChunks(t, s, "sess-4", []Chunk{
		{Index: 0, Role: "user", Content: "keyword present but not embedded"},
	})

	results, err := s.QueryHybrid([]float32{1, 0}, "keyword", 10)
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestHybridScoreFormula(t *testing.T) {
	require.InDelta(t, 0.71, HybridScore(0.2, 0.5), 1e-9)
	require.InDelta(t, 0.7, HybridScore(0, 0), 1e-9)
	require.InDelta(t, 0.3, HybridScore(1, 1), 1e-9)
}

func TestLexicalRank(t *testing.T) {
	require.InDelta(t, 0.5, lexicalRank(-1), 1e-9)
	require.Zero(t, lexicalRank(0))
	require.Zero(t, lexicalRank(2))
	require.Greater(t, lexicalRank(-5), lexicalRank(-1))
}

func TestFTSQueryQuotesTerms(t *testing.T) {
	require.Equal(t, `"hello" "world"`, ftsQuery("hello world"))
	require.Equal(t, `"a""b"`, ftsQuery(`a"b`))
	require.Equal(t, "", ftsQuery("   "))
}

func TestNeighbors(t *testing.T) {
	s := newTestStore(t)
	seedChunks(t, s, "sess-5", []Chunk{
		{Index: 0, Role: "user", Content: "the first turn in the session"},
		{Index: 1, Role: "assistant", Content: "the second turn in the session"},
		{Index: 2, Role: "user", Content: "the third turn in the session"},
		{Index: 3, Role: "assistant", Content: "the fourth turn in the session"},
	})

	neighbors, err := s.Neighbors("sess-5", 1, 1)
	require.NoError(t, err)
	require.Len(t, neighbors, 3)
	require.Equal(t, 0, neighbors[0].Index)
	require.Equal(t, 2, neighbors[2].Index)
}
