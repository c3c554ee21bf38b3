package event

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(s string) time.Time { return ParseTimestamp(s) }

func TestBuildSessions_TimelineAndTotals(t *testing.T) {
	events := []Event{
		{SessionID: "s1", ProjectID: "/p", Kind: KindUserTurn, Timestamp: ts("2026-02-01T10:00:00Z"), User: &UserTurn{}},
		{SessionID: "s1", Kind: KindAssistantTurn, Timestamp: ts("2026-02-01T10:01:00Z"), Assistant: &AssistantTurn{
			CostUSD: 0.05,
			Usage:   TokenUsage{Input: 10, Output: 20, CacheRead: 100, CacheCreation: 50},
		}},
		{SessionID: "s1", Kind: KindToolInvocation, Timestamp: ts("2026-02-01T10:01:00Z"), Sidechain: true, Tool: &ToolInvocation{Name: "Read"}},
		{SessionID: "s2", ProjectID: "/q", Kind: KindUserTurn, Timestamp: ts("2026-01-15T08:00:00Z"), User: &UserTurn{}},
	}

	sessions := BuildSessions(events)
	require.Len(t, sessions, 2)

	// Ordered by start time: s2 first.
	assert.Equal(t, "s2", sessions[0].ID)

	s1 := sessions[1]
	assert.Equal(t, "s1", s1.ID)
	assert.Equal(t, "/p", s1.ProjectID)
	assert.Equal(t, ts("2026-02-01T10:00:00Z"), s1.Start)
	assert.Equal(t, ts("2026-02-01T10:01:00Z"), s1.End)
	assert.Equal(t, 0.05, s1.CostUSD)
	assert.Equal(t, int64(100), s1.Usage.CacheRead)

	// Sidechain events stay off the main timeline.
	assert.Equal(t, 2, s1.EventCount())
	require.Len(t, s1.Side, 1)
	assert.Equal(t, "Read", s1.Side[0].Tool.Name)
}

func TestGroupProjects_Deterministic(t *testing.T) {
	sessions := []Session{
		{ID: "s1", ProjectID: "/b", Start: ts("2026-02-01T10:00:00Z")},
		{ID: "s2", ProjectID: "/a", Start: ts("2026-02-02T10:00:00Z")},
		{ID: "s3", ProjectID: "/b", Start: ts("2026-01-01T10:00:00Z")},
	}

	projects := GroupProjects(sessions)
	require.Len(t, projects, 2)
	assert.Equal(t, "/a", projects[0].ID)
	assert.Equal(t, "/b", projects[1].ID)

	// Sessions inside a project are start-ordered.
	assert.Equal(t, "s3", projects[1].Sessions[0].ID)
	assert.Equal(t, "s1", projects[1].Sessions[1].ID)
}

func TestLoadTaskSnapshots(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, "todos")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	main := `[{"content":"wire up auth","status":"completed"},{"content":"add tests","status":"pending"}]`
	agent := `[{"content":"search for callers","status":"in_progress","activeForm":"Searching for callers"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sess1.json"), []byte(main), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sess1-agent-a9.json"), []byte(agent), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.json"), []byte(`[]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{`), 0o644))

	events, err := LoadTaskSnapshots(home)
	require.NoError(t, err)
	require.Len(t, events, 2)

	byAgent := map[string]Event{}
	for _, ev := range events {
		assert.Equal(t, KindTaskSnapshot, ev.Kind)
		byAgent[ev.Tasks.AgentID] = ev
	}

	mainEv := byAgent[""]
	assert.Equal(t, "sess1", mainEv.SessionID)
	assert.False(t, mainEv.Sidechain)
	assert.Len(t, mainEv.Tasks.Items, 2)

	agentEv := byAgent["a9"]
	assert.Equal(t, "sess1", agentEv.SessionID)
	assert.True(t, agentEv.Sidechain)
	assert.Equal(t, TaskInProgress, agentEv.Tasks.Items[0].Status)
}

func TestLoadTaskSnapshots_MissingDir(t *testing.T) {
	events, err := LoadTaskSnapshots(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, events)
}
