package event

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/calder-systems/devsight/internal/logstream"
)

// message is the inner message envelope of user and assistant records.
type message struct {
	Role    string          `json:"role"`
	Model   string          `json:"model"`
	Content json.RawMessage `json:"content"`
	Usage   *usage          `json:"usage"`
}

type usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// rawBlock is one element of a typed content list.
type rawBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

// Normalize classifies one raw record and returns the Events it yields.
// A single record can produce several: an assistant turn plus one
// tool_invocation per tool_use block, or tool_result events lifted out of
// a user-role record. Unrecognized shapes become a single KindUnknown
// event carrying the raw line.
func Normalize(rec logstream.Record) []Event {
	base := Event{
		ID:        rec.UUID,
		SessionID: rec.SessionID,
		ProjectID: CanonicalProjectID(rec.Cwd),
		Timestamp: ParseTimestamp(rec.Timestamp),
		Sidechain: rec.IsSidechain || rec.ParentToolUseID != "",
	}

	switch rec.Type {
	case "user":
		return normalizeUser(base, rec)
	case "assistant":
		return normalizeAssistant(base, rec)
	case "summary":
		ev := base
		ev.Kind = KindContextSummary
		ev.Summary = &ContextSummary{Summary: rec.Summary}
		return []Event{ev}
	default:
		ev := base
		ev.Kind = KindUnknown
		ev.Raw = rec.Raw
		return []Event{ev}
	}
}

func normalizeUser(base Event, rec logstream.Record) []Event {
	var msg message
	if rec.Message == nil || json.Unmarshal(rec.Message, &msg) != nil {
		ev := base
		ev.Kind = KindUnknown
		ev.Raw = rec.Raw
		return []Event{ev}
	}

	blocks := normalizeContent(msg.Content)

	var events []Event
	var textBlocks []ContentBlock
	for _, b := range blocks {
		if b.Type == "tool_result" {
			ev := base
			ev.Kind = KindToolResult
			ev.Result = &ToolResult{
				ToolUseID: b.ToolUseID,
				IsError:   b.IsError,
				Length:    len(b.Text),
			}
			events = append(events, ev)
			continue
		}
		textBlocks = append(textBlocks, b)
	}

	if len(textBlocks) > 0 {
		ev := base
		ev.Kind = KindUserTurn
		ev.User = &UserTurn{Blocks: textBlocks}
		events = append(events, ev)
	}
	if len(events) == 0 {
		ev := base
		ev.Kind = KindUserTurn
		ev.User = &UserTurn{}
		events = append(events, ev)
	}
	return events
}

func normalizeAssistant(base Event, rec logstream.Record) []Event {
	var msg message
	if rec.Message == nil || json.Unmarshal(rec.Message, &msg) != nil {
		ev := base
		ev.Kind = KindUnknown
		ev.Raw = rec.Raw
		return []Event{ev}
	}

	turn := &AssistantTurn{
		Model:   msg.Model,
		CostUSD: rec.CostUSD,
	}
	if msg.Usage != nil {
		turn.Usage = TokenUsage{
			Input:         msg.Usage.InputTokens,
			Output:        msg.Usage.OutputTokens,
			CacheCreation: msg.Usage.CacheCreationInputTokens,
			CacheRead:     msg.Usage.CacheReadInputTokens,
		}
	}

	var events []Event
	for _, b := range normalizeContent(msg.Content) {
		if b.Type == "tool_use" {
			ev := base
			ev.Kind = KindToolInvocation
			ev.Tool = &ToolInvocation{
				ToolUseID: b.ToolUseID,
				Name:      b.ToolName,
			}
			events = append(events, ev)
			continue
		}
		turn.Blocks = append(turn.Blocks, b)
	}

	ev := base
	ev.Kind = KindAssistantTurn
	ev.Assistant = turn
	// The turn itself precedes the tools it invokes.
	return append([]Event{ev}, events...)
}

// normalizeContent reduces both legal content shapes (a bare string or an
// ordered list of typed blocks) to one ordered block list.
func normalizeContent(raw json.RawMessage) []ContentBlock {
	if len(raw) == 0 {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return nil
		}
		return []ContentBlock{{Type: "text", Text: s}}
	}

	var rawBlocks []rawBlock
	if err := json.Unmarshal(raw, &rawBlocks); err != nil {
		return nil
	}

	blocks := make([]ContentBlock, 0, len(rawBlocks))
	for _, rb := range rawBlocks {
		switch rb.Type {
		case "text":
			blocks = append(blocks, ContentBlock{Type: "text", Text: rb.Text})
		case "tool_use":
			blocks = append(blocks, ContentBlock{
				Type:     "tool_use",
				ToolName: rb.Name,
				// The block's own ID names the invocation; results
				// reference it through their tool_use_id.
				ToolUseID: rb.ID,
			})
		case "tool_result":
			blocks = append(blocks, ContentBlock{
				Type:      "tool_result",
				Text:      resultText(rb.Content, rb.Text),
				ToolUseID: rb.ToolUseID,
				IsError:   rb.IsError,
			})
		default:
			blocks = append(blocks, ContentBlock{Type: rb.Type, Text: rb.Text})
		}
	}
	return blocks
}

// resultText flattens a tool_result's content, which may itself be a
// string or a list of blocks.
func resultText(raw json.RawMessage, text string) string {
	if text != "" {
		return text
	}
	if raw == nil {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var blocks []rawBlock
	if err := json.Unmarshal(raw, &blocks); err == nil {
		var sb strings.Builder
		for _, b := range blocks {
			sb.WriteString(b.Text)
		}
		return sb.String()
	}
	return string(raw)
}

// CanonicalProjectID derives a Project's identity from a working-directory
// path. Differently-cased or trailing-slashed spellings of one path decode
// to the same ID.
func CanonicalProjectID(path string) string {
	if path == "" {
		return ""
	}
	return strings.ToLower(filepath.Clean(path))
}
