package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

// Open creates the database (and its directory) if needed and runs the
// schema migration. The caller owns the handle and must Close it.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	// foreign_keys must be set per connection for the session→chunk cascade
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id    TEXT NOT NULL UNIQUE,
		source_path   TEXT NOT NULL,
		project       TEXT NOT NULL DEFAULT '',
		created_at    DATETIME,
		updated_at    DATETIME,
		message_count INTEGER NOT NULL DEFAULT 0,
		total_tokens  INTEGER NOT NULL DEFAULT 0,
		total_cost    REAL NOT NULL DEFAULT 0,
		metadata      TEXT NOT NULL DEFAULT '',
		ingested_at   DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chunks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  INTEGER NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		chunk_index INTEGER NOT NULL,
		role        TEXT NOT NULL,
		content     TEXT NOT NULL,
		embedding   BLOB,
		token_count INTEGER NOT NULL DEFAULT 0,
		tool_names  TEXT NOT NULL DEFAULT '[]',
		file_refs   TEXT NOT NULL DEFAULT '[]',
		created_at  DATETIME,
		metadata    TEXT NOT NULL DEFAULT '',
		UNIQUE(session_id, chunk_index)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_session ON chunks(session_id);

	CREATE VIRTUAL TABLE IF NOT EXISTS chunks_fts USING fts5(
		content,
		content='chunks',
		content_rowid='id'
	);

	CREATE TRIGGER IF NOT EXISTS chunks_fts_ai AFTER INSERT ON chunks BEGIN
		INSERT INTO chunks_fts(rowid, content) VALUES (new.id, new.content);
	END;
	CREATE TRIGGER IF NOT EXISTS chunks_fts_ad AFTER DELETE ON chunks BEGIN
		INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.id, old.content);
	END;
	CREATE TRIGGER IF NOT EXISTS chunks_fts_au AFTER UPDATE ON chunks BEGIN
		INSERT INTO chunks_fts(chunks_fts, rowid, content) VALUES ('delete', old.id, old.content);
		INSERT INTO chunks_fts(rowid, content) VALUES (new.id, new.content);
	END;
	`
	_, err := s.db.Exec(schema)
	return err
}

// UpsertSession inserts or fully refreshes a session record, keyed by its
// stable session ID, and returns the internal row id.
func (s *Store) UpsertSession(sess Session) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO sessions
			(session_id, source_path, project, created_at, updated_at,
			 message_count, total_tokens, total_cost, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			source_path   = excluded.source_path,
			project       = excluded.project,
			created_at    = excluded.created_at,
			updated_at    = excluded.updated_at,
			message_count = excluded.message_count,
			total_tokens  = excluded.total_tokens,
			total_cost    = excluded.total_cost,
			metadata      = excluded.metadata,
			ingested_at   = excluded.ingested_at
		RETURNING id`,
		sess.SessionID, sess.SourcePath, sess.Project, sess.CreatedAt, sess.UpdatedAt,
		sess.MessageCount, sess.TotalTokens, sess.TotalCost, sess.Metadata, time.Now().UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert session: %w", err)
	}
	return id, nil
}

// InsertChunks bulk-upserts a session's chunks in one transaction, replacing
// derived fields on conflict and pruning stale higher indices left over from
// a previous, longer ingestion of the same file.
func (s *Store) InsertChunks(sessionRef int64, chunks []Chunk) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM chunks WHERE session_id = ? AND chunk_index >= ?",
		sessionRef, len(chunks),
	); err != nil {
		return fmt.Errorf("prune stale chunks: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chunks
			(session_id, chunk_index, role, content, embedding,
			 token_count, tool_names, file_refs, created_at, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, chunk_index) DO UPDATE SET
			role        = excluded.role,
			content     = excluded.content,
			embedding   = excluded.embedding,
			token_count = excluded.token_count,
			tool_names  = excluded.tool_names,
			file_refs   = excluded.file_refs,
			created_at  = excluded.created_at,
			metadata    = excluded.metadata`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		tools, err := json.Marshal(emptyIfNil(c.ToolNames))
		if err != nil {
			return fmt.Errorf("marshal tool names: %w", err)
		}
		refs, err := json.Marshal(emptyIfNil(c.Refs))
		if err != nil {
			return fmt.Errorf("marshal refs: %w", err)
		}
		if _, err := stmt.Exec(
			sessionRef, c.Index, c.Role, c.Content, EncodeVector(c.Embedding),
			c.Tokens, string(tools), string(refs), c.CreatedAt, c.Metadata,
		); err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}
	return tx.Commit()
}

// DeleteSession removes a session by its stable ID; the cascade removes its
// chunks.
func (s *Store) DeleteSession(sessionID string) error {
	res, err := s.db.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %q not found", sessionID)
	}
	return nil
}

// ListSessions returns sessions ordered by most recent activity.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, source_path, project, created_at, updated_at,
		       message_count, total_tokens, total_cost, metadata, ingested_at
		FROM sessions
		ORDER BY updated_at DESC, ingested_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		var created, updated sql.NullTime
		if err := rows.Scan(
			&sess.ID, &sess.SessionID, &sess.SourcePath, &sess.Project,
			&created, &updated, &sess.MessageCount, &sess.TotalTokens,
			&sess.TotalCost, &sess.Metadata, &sess.IngestedAt,
		); err != nil {
			return nil, err
		}
		if created.Valid {
			sess.CreatedAt = &created.Time
		}
		if updated.Valid {
			sess.UpdatedAt = &updated.Time
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Counts reports session, chunk, and embedded-chunk totals.
func (s *Store) Counts() (Stats, error) {
	var st Stats
	if err := s.db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&st.Sessions); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&st.Chunks); err != nil {
		return Stats{}, err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL").Scan(&st.EmbeddedChunks); err != nil {
		return Stats{}, err
	}
	return st, nil
}

func emptyIfNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
