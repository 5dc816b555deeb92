package transcript

import (
	"fmt"
	"unicode/utf8"
)

const (
	// toolOutputLimit caps how much of a tool result is kept verbatim.
	toolOutputLimit = 1000
	// minChunkRunes filters acknowledgements and empty tool echoes.
	minChunkRunes = 10

	ellipsis = "..."
)

// Classified is the classifier output for one record.
type Classified struct {
	Role     Role
	Text     string
	ToolName string
	// Drop marks records that render text but carry no recall value on their
	// own: a tool invocation has no outcome, only its paired result does.
	Drop bool
}

// Classify maps a record to its role and rendered text. The switch is
// exhaustive over the record kinds; adding a Kind without a case here is a
// bug caught by the KindOther fallthrough in ParseRecord.
func Classify(rec Record) Classified {
	switch rec.Kind {
	case KindUser:
		return Classified{Role: RoleUser, Text: rec.Content}
	case KindAssistant:
		return Classified{Role: RoleAssistant, Text: rec.Content}
	case KindToolUse:
		desc := rec.Description
		if desc == "" {
			desc = rec.Command
		}
		return Classified{
			Role:     RoleTool,
			Text:     fmt.Sprintf("[Tool: %s] %s", rec.ToolName, desc),
			ToolName: rec.ToolName,
			Drop:     true,
		}
	case KindToolResult:
		out := rec.Output
		if out == "" {
			out = rec.Preview
		}
		return Classified{
			Role:     RoleTool,
			Text:     fmt.Sprintf("[Tool Result: %s]\n%s", rec.ToolName, truncateRunes(out, toolOutputLimit)),
			ToolName: rec.ToolName,
		}
	default:
		return Classified{Role: RoleSystem}
	}
}

// Retain reports whether a classified record survives the post-classification
// filter. Applying it twice changes nothing.
func Retain(c Classified) bool {
	return !c.Drop && utf8.RuneCountInString(c.Text) >= minChunkRunes
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + ellipsis
}
