package transcript

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrNoChunks marks a transcript that yields nothing worth indexing.
var ErrNoChunks = errors.New("transcript has no retained chunks")

// Chunk is one retained conversational turn.
type Chunk struct {
	Index     int
	Role      Role
	Content   string
	Tokens    int
	ToolNames []string
	Refs      []string
	Timestamp *time.Time
}

// Session summarizes one parsed transcript file.
type Session struct {
	ID           string
	Path         string
	Project      string
	FirstSeen    *time.Time
	LastSeen     *time.Time
	MessageCount int
	TotalTokens  int
	// TotalCost is always zero: transcripts carry no cost signal.
	TotalCost float64
}

var projectRe = regexp.MustCompile(`/([\w.-]+)/(?:src|app|lib|node_modules)(?:/|$)`)

// ParseFile reads a transcript and produces its session summary and chunks.
// Malformed lines are skipped individually; a file with zero retained chunks
// is rejected with ErrNoChunks.
func ParseFile(path string) (Session, []Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return Session{}, nil, fmt.Errorf("open transcript: %w", err)
	}
	defer f.Close()

	sess := Session{
		ID:   SessionID(path),
		Path: path,
	}

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024) // tool outputs can be huge

	var chunks []Chunk
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rec, err := ParseRecord([]byte(line))
		if err != nil {
			continue
		}
		if rec.Timestamp != nil {
			if sess.FirstSeen == nil || rec.Timestamp.Before(*sess.FirstSeen) {
				sess.FirstSeen = rec.Timestamp
			}
			if sess.LastSeen == nil || rec.Timestamp.After(*sess.LastSeen) {
				sess.LastSeen = rec.Timestamp
			}
		}
		cl := Classify(rec)
		if !Retain(cl) {
			continue
		}
		chunk := Chunk{
			Index:     len(chunks),
			Role:      cl.Role,
			Content:   cl.Text,
			Tokens:    EstimateTokens(cl.Text),
			Refs:      ExtractRefs(cl.Text),
			Timestamp: rec.Timestamp,
		}
		if cl.ToolName != "" {
			chunk.ToolNames = []string{cl.ToolName}
		}
		chunks = append(chunks, chunk)
	}
	if err := sc.Err(); err != nil {
		return Session{}, nil, fmt.Errorf("read transcript: %w", err)
	}
	if len(chunks) == 0 {
		return Session{}, nil, ErrNoChunks
	}

	sess.Project = inferProject(chunks)
	sess.MessageCount = len(chunks)
	for _, c := range chunks {
		sess.TotalTokens += c.Tokens
	}
	return sess, chunks, nil
}

// SessionID derives the stable session identifier from the file name.
func SessionID(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// EstimateTokens approximates the token count as ceil(runes/4). It is a
// character heuristic, not a tokenizer count.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text) + 3) / 4
}

// inferProject tests each chunk's first reference against the
// project-directory shape and returns the parent segment of the first hit.
// Non-first references are never tried.
func inferProject(chunks []Chunk) string {
	for _, c := range chunks {
		if len(c.Refs) == 0 {
			continue
		}
		if m := projectRe.FindStringSubmatch(c.Refs[0]); m != nil {
			return m[1]
		}
	}
	return ""
}
