package store

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"
)

const (
	vectorWeight  = 0.7
	lexicalWeight = 0.3
)

// HybridScore blends vector similarity with the lexical relevance rank.
func HybridScore(cosineDistance, lexicalRank float64) float64 {
	return vectorWeight*(1-cosineDistance) + lexicalWeight*lexicalRank
}

// QuerySimilar ranks embedded chunks by cosine similarity to the query
// vector, optionally restricted to one role. Chunks without an embedding
// never appear.
func (s *Store) QuerySimilar(queryVec []float32, limit int, role string) ([]SearchResult, error) {
	q := `
		SELECT s.session_id, s.project, c.chunk_index, c.role, c.content, c.embedding, c.created_at
		FROM chunks c
		JOIN sessions s ON s.id = c.session_id
		WHERE c.embedding IS NOT NULL`
	args := []any{}
	if role != "" {
		q += " AND c.role = ?"
		args = append(args, role)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		r, emb, err := scanChunkRow(rows, false)
		if err != nil {
			return nil, err
		}
		vec, err := DecodeVector(emb)
		if err != nil {
			return nil, err
		}
		r.Score = 1 - CosineDistance(queryVec, vec)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topK(results, limit), nil
}

// QueryHybrid restricts to embedded chunks whose content lexically matches
// the query string and ranks them by the blended score.
func (s *Store) QueryHybrid(queryVec []float32, query string, limit int) ([]SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := s.db.Query(`
		SELECT s.session_id, s.project, c.chunk_index, c.role, c.content, c.embedding, c.created_at,
		       bm25(chunks_fts)
		FROM chunks_fts
		JOIN chunks c ON c.id = chunks_fts.rowid
		JOIN sessions s ON s.id = c.session_id
		WHERE chunks_fts MATCH ? AND c.embedding IS NOT NULL`, match)
	if err != nil {
		return nil, fmt.Errorf("query fts: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		r, emb, err := scanChunkRow(rows, true)
		if err != nil {
			return nil, err
		}
		vec, err := DecodeVector(emb)
		if err != nil {
			return nil, err
		}
		r.Score = HybridScore(CosineDistance(queryVec, vec), r.Score)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topK(results, limit), nil
}

// Neighbors returns the chunks within n positions of a hit, in sequence
// order, for context display.
func (s *Store) Neighbors(sessionID string, index, n int) ([]SearchResult, error) {
	rows, err := s.db.Query(`
		SELECT s.session_id, s.project, c.chunk_index, c.role, c.content, c.created_at
		FROM chunks c
		JOIN sessions s ON s.id = c.session_id
		WHERE s.session_id = ? AND c.chunk_index BETWEEN ? AND ?
		ORDER BY c.chunk_index`,
		sessionID, index-n, index+n)
	if err != nil {
		return nil, fmt.Errorf("query neighbors: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var created sql.NullTime
		if err := rows.Scan(&r.SessionID, &r.Project, &r.Index, &r.Role, &r.Content, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			r.CreatedAt = &created.Time
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// scanChunkRow reads the common result columns. With withRank it also reads
// the trailing bm25 value and stores the normalized lexical rank in Score.
func scanChunkRow(rows *sql.Rows, withRank bool) (SearchResult, []byte, error) {
	var r SearchResult
	var emb []byte
	var created sql.NullTime
	if withRank {
		var bm25 float64
		if err := rows.Scan(&r.SessionID, &r.Project, &r.Index, &r.Role, &r.Content, &emb, &created, &bm25); err != nil {
			return SearchResult{}, nil, err
		}
		r.Score = lexicalRank(bm25)
	} else {
		if err := rows.Scan(&r.SessionID, &r.Project, &r.Index, &r.Role, &r.Content, &emb, &created); err != nil {
			return SearchResult{}, nil, err
		}
	}
	if created.Valid {
		r.CreatedAt = &created.Time
	}
	return r, emb, nil
}

// lexicalRank maps bm25 output (lower is better, negative for matches) into
// [0, 1). Non-negative values rank as 0.
func lexicalRank(bm25 float64) float64 {
	r := -bm25
	if r <= 0 {
		return 0
	}
	return r / (r + 1)
}

// ftsQuery quotes each term so raw user input cannot break FTS5 syntax.
// Terms combine with implicit AND.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

// topK sorts by descending score and trims. Equal scores keep whatever order
// the scan produced.
func topK(results []SearchResult, limit int) []SearchResult {
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
