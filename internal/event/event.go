// Package event defines the normalized Event model and turns raw transcript
// records into it. An Event is a tagged variant: exactly one payload pointer
// is set, selected by Kind, and events are never mutated after construction.
package event

import (
	"encoding/json"
	"strings"
	"time"
)

// Kind discriminates the Event payload.
type Kind string

const (
	KindUserTurn       Kind = "user_turn"
	KindAssistantTurn  Kind = "assistant_turn"
	KindToolInvocation Kind = "tool_invocation"
	KindToolResult     Kind = "tool_result"
	KindTaskSnapshot   Kind = "task_snapshot"
	KindContextSummary Kind = "context_summary"
	KindUnknown        Kind = "unknown"
)

// Event is one normalized occurrence within a conversation.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	ProjectID string    `json:"project_id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Sidechain marks events belonging to a spawned sub-task's own
	// thread. They are excluded from the session's main timeline but
	// kept for tool-composition signals.
	Sidechain bool `json:"sidechain,omitempty"`

	User      *UserTurn       `json:"user,omitempty"`
	Assistant *AssistantTurn  `json:"assistant,omitempty"`
	Tool      *ToolInvocation `json:"tool,omitempty"`
	Result    *ToolResult     `json:"result,omitempty"`
	Tasks     *TaskSnapshot   `json:"tasks,omitempty"`
	Summary   *ContextSummary `json:"summary,omitempty"`

	// Raw carries the original line for KindUnknown events only, so
	// unrecognized record shapes stay auditable instead of vanishing.
	Raw json.RawMessage `json:"raw,omitempty"`
}

// ContentBlock is one typed block of message content. Sources emit content
// either as a bare string or as an ordered list of blocks; normalization
// reduces both to this form.
type ContentBlock struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ToolName  string `json:"tool_name,omitempty"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// UserTurn is a user-authored message.
type UserTurn struct {
	Blocks []ContentBlock `json:"blocks"`
}

// Text joins the turn's text blocks.
func (u *UserTurn) Text() string {
	var parts []string
	for _, b := range u.Blocks {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// TokenUsage holds the assistant's token accounting for one turn.
type TokenUsage struct {
	Input         int64 `json:"input"`
	Output        int64 `json:"output"`
	CacheCreation int64 `json:"cache_creation"`
	CacheRead     int64 `json:"cache_read"`
}

// Add accumulates another usage record.
func (t *TokenUsage) Add(o TokenUsage) {
	t.Input += o.Input
	t.Output += o.Output
	t.CacheCreation += o.CacheCreation
	t.CacheRead += o.CacheRead
}

// AssistantTurn is an assistant-authored message.
type AssistantTurn struct {
	Model   string         `json:"model,omitempty"`
	CostUSD float64        `json:"cost_usd,omitempty"`
	Usage   TokenUsage     `json:"usage"`
	Blocks  []ContentBlock `json:"blocks"`
}

// ToolInvocation is one tool_use block lifted out of an assistant turn.
type ToolInvocation struct {
	ToolUseID string `json:"tool_use_id"`
	Name      string `json:"name"`
}

// ToolResult is one tool_result block lifted out of a user-role record.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	IsError   bool   `json:"is_error,omitempty"`
	Length    int    `json:"length"`
}

// TaskStatus is the lifecycle state of one task-list item.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

// TaskItem is one entry in a task-list snapshot.
type TaskItem struct {
	Description string     `json:"content"`
	Status      TaskStatus `json:"status"`
	ActiveForm  string     `json:"activeForm,omitempty"`
}

// TaskSnapshot is the state of a session's task list at one moment.
// AgentID is set when the list belongs to a spawned sub-task; the owning
// tool invocation is found by looking the ID up in the parent session,
// the snapshot itself carries no label.
type TaskSnapshot struct {
	AgentID string     `json:"agent_id,omitempty"`
	Items   []TaskItem `json:"items"`
}

// ContextSummary marks a point where the conversation context was
// summarized to free space.
type ContextSummary struct {
	Summary string `json:"summary,omitempty"`
}

// ParseTimestamp parses an ISO 8601 timestamp string. It tries RFC3339Nano,
// RFC3339, and a plain datetime format without timezone. Returns the zero
// time if the string is empty or unparseable.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", s)
			if err != nil {
				return time.Time{}
			}
		}
	}
	return t
}
