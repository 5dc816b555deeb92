package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"recall/internal/embed"
	"recall/internal/store"
	"recall/internal/transcript"
)

// Options control one ingestion run.
type Options struct {
	Embedder      embed.Embedder
	Concurrency   int
	SkipEmbed     bool
	MaxFiles      int
	Progress      func(format string, args ...any)
	EmbedProgress embed.Progress
}

// Result summarizes a run. Errors holds one line per skipped file.
type Result struct {
	Ingested int
	Skipped  int
	Chunks   int
	Errors   []string
}

// DefaultRoot returns the default transcript scan root.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// FindTranscripts walks root and collects .jsonl transcript files.
func FindTranscripts(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".jsonl") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}
	return files, nil
}

// Run ingests files sequentially: each file is parsed, embedded, and written
// before the next starts. A failing file is recorded as skipped and the run
// continues; nothing partial is written for a skipped file.
func Run(ctx context.Context, st *store.Store, files []string, opts Options) *Result {
	logf := opts.Progress
	if logf == nil {
		logf = func(string, ...any) {}
	}

	res := &Result{}
	for _, file := range files {
		if opts.MaxFiles > 0 && res.Ingested >= opts.MaxFiles {
			break
		}
		n, err := ingestFile(ctx, st, file, opts)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", filepath.Base(file), err))
			continue
		}
		res.Ingested++
		res.Chunks += n
		logf("Ingested %s (%d chunks)", filepath.Base(file), n)
	}
	return res
}

func ingestFile(ctx context.Context, st *store.Store, file string, opts Options) (int, error) {
	sess, chunks, err := transcript.ParseFile(file)
	if err != nil {
		return 0, err
	}

	// embed before writing anything: an embedding failure skips the whole
	// file rather than leaving chunks without vectors
	var vectors [][]float32
	if !opts.SkipEmbed {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Content
		}
		vectors, err = embed.Batch(ctx, opts.Embedder, texts, opts.Concurrency, opts.EmbedProgress)
		if err != nil {
			return 0, err
		}
	}

	id, err := st.UpsertSession(store.Session{
		SessionID:    sess.ID,
		SourcePath:   sess.Path,
		Project:      sess.Project,
		CreatedAt:    sess.FirstSeen,
		UpdatedAt:    sess.LastSeen,
		MessageCount: sess.MessageCount,
		TotalTokens:  sess.TotalTokens,
		TotalCost:    sess.TotalCost,
		Metadata:     sessionMetadata(file),
	})
	if err != nil {
		return 0, err
	}

	rows := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = store.Chunk{
			Index:     c.Index,
			Role:      string(c.Role),
			Content:   c.Content,
			Tokens:    c.Tokens,
			ToolNames: c.ToolNames,
			Refs:      c.Refs,
			CreatedAt: c.Timestamp,
		}
		if vectors != nil {
			rows[i].Embedding = vectors[i]
		}
	}
	if err := st.InsertChunks(id, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func sessionMetadata(path string) string {
	meta := map[string]any{"file": filepath.Base(path)}
	if info, err := os.Stat(path); err == nil {
		meta["size"] = info.Size()
	}
	b, _ := json.Marshal(meta)
	return string(b)
}
