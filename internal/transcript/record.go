package transcript

import (
	"encoding/json"
	"time"
)

// Kind discriminates the transcript record kinds. The set is closed: anything
// outside the four known tags classifies as KindOther.
type Kind int

const (
	KindUser Kind = iota
	KindAssistant
	KindToolUse
	KindToolResult
	KindOther
)

// Role is the semantic speaker tag carried by a retained chunk.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Record is one decoded transcript line. Only the fields relevant to its Kind
// are populated.
type Record struct {
	Kind        Kind
	Content     string
	ToolName    string
	Description string
	Command     string
	Output      string
	Preview     string
	Timestamp   *time.Time
}

type rawLine struct {
	Type        string `json:"type"`
	Content     string `json:"content"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Command     string `json:"command"`
	Output      string `json:"output"`
	Preview     string `json:"preview"`
	Timestamp   string `json:"timestamp"`
}

// ParseRecord decodes one JSONL line into a Record.
func ParseRecord(line []byte) (Record, error) {
	var raw rawLine
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, err
	}

	rec := Record{
		Content:     raw.Content,
		ToolName:    raw.Name,
		Description: raw.Description,
		Command:     raw.Command,
		Output:      raw.Output,
		Preview:     raw.Preview,
	}
	switch raw.Type {
	case "user":
		rec.Kind = KindUser
	case "assistant":
		rec.Kind = KindAssistant
	case "tool_use":
		rec.Kind = KindToolUse
	case "tool_result":
		rec.Kind = KindToolResult
	default:
		rec.Kind = KindOther
	}
	if raw.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, raw.Timestamp); err == nil {
			rec.Timestamp = &ts
		}
	}
	return rec, nil
}
