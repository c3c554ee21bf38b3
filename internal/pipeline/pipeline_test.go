package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-systems/devsight/internal/config"
	"github.com/calder-systems/devsight/internal/scoring"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		LogHome:  t.TempDir(),
		CacheTTL: 24,
		Scan: config.ScanLimits{
			MaxDepth:      4,
			MaxRepos:      100,
			MaxCommits:    5000,
			MaxRepoSizeMB: 500,
			RepoTimeout:   30 * time.Second,
			Workers:       4,
		},
	}
}

func writeTranscript(t *testing.T, logHome, projectDir, sessionID string, lines ...string) {
	t.Helper()
	dir := filepath.Join(logHome, "projects", projectDir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	path := filepath.Join(dir, sessionID+".jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func userLine(sessionID, cwd, ts, text string) string {
	return fmt.Sprintf(
		`{"type":"user","uuid":"u-%s-%s","sessionId":%q,"cwd":%q,"timestamp":%q,"message":{"role":"user","content":%q}}`,
		sessionID, ts, sessionID, cwd, ts, text)
}

func assistantLine(sessionID, cwd, ts string) string {
	return fmt.Sprintf(
		`{"type":"assistant","uuid":"a-%s-%s","sessionId":%q,"cwd":%q,"timestamp":%q,"message":{"role":"assistant","model":"m1","content":[{"type":"text","text":"done"}],"usage":{"input_tokens":10,"output_tokens":5,"cache_read_input_tokens":200,"cache_creation_input_tokens":50}}}`,
		sessionID, ts, sessionID, cwd, ts)
}

func TestRunLogsOnly(t *testing.T) {
	cfg := testConfig(t)
	writeTranscript(t, cfg.LogHome, "-home-dev-widget", "s1",
		userLine("s1", "/home/dev/widget", "2026-03-01T10:00:00Z", "Implement the CSV export with streaming writes in exporter.go"),
		assistantLine("s1", "/home/dev/widget", "2026-03-01T10:00:10Z"),
		userLine("s1", "/home/dev/widget", "2026-03-01T10:05:00Z", "Now add a unit test for the empty-input case"),
		assistantLine("s1", "/home/dev/widget", "2026-03-01T10:05:10Z"),
	)
	writeTranscript(t, cfg.LogHome, "-home-dev-gadget", "s2",
		userLine("s2", "/home/dev/gadget", "2026-03-02T09:00:00Z", "fix it"),
		assistantLine("s2", "/home/dev/gadget", "2026-03-02T09:00:10Z"),
	)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)

	require.Len(t, report.Projects, 2)
	assert.Equal(t, 2, report.SourcesRead)
	assert.Equal(t, 0, report.MalformedLines)
	assert.Equal(t, 0, report.ReposScanned)
	assert.Empty(t, report.UnmatchedRepos)

	ids := []string{report.Projects[0].ProjectID, report.Projects[1].ProjectID}
	assert.Contains(t, ids, "/home/dev/widget")
	assert.Contains(t, ids, "/home/dev/gadget")

	for _, p := range report.Projects {
		assert.Empty(t, p.MatchedRepo)
		assert.True(t, p.Assessment.SingleSource)
		assert.GreaterOrEqual(t, p.Assessment.Overall, 0)
		assert.LessOrEqual(t, p.Assessment.Overall, 100)
		assert.Equal(t, 1, p.Sessions)
	}
}

func TestRunCountsMalformedLines(t *testing.T) {
	cfg := testConfig(t)
	writeTranscript(t, cfg.LogHome, "-home-dev-widget", "s1",
		userLine("s1", "/home/dev/widget", "2026-03-01T10:00:00Z", "Refactor the parser"),
		"this is not json",
		"{\"also\":",
		assistantLine("s1", "/home/dev/widget", "2026-03-01T10:00:10Z"),
	)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, report.MalformedLines)
	require.Len(t, report.Projects, 1)
	assert.Equal(t, 1, report.Projects[0].Sessions)
}

func writeTaskFile(t *testing.T, logHome, name, content string) {
	t.Helper()
	dir := filepath.Join(logHome, "todos")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRunOrphanTaskFileNotScored(t *testing.T) {
	cfg := testConfig(t)
	// A task list whose transcript was cleaned up: its session has no
	// working directory, so it belongs to no project.
	writeTaskFile(t, cfg.LogHome, "ghost-session.json",
		`[{"content":"ship it","status":"completed"}]`)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Projects)
}

func TestRunOrphanTaskFileDoesNotSkewRealProjects(t *testing.T) {
	cfg := testConfig(t)
	writeTranscript(t, cfg.LogHome, "-home-dev-widget", "s1",
		userLine("s1", "/home/dev/widget", "2026-03-01T10:00:00Z", "Implement the exporter in exporter.go"),
		assistantLine("s1", "/home/dev/widget", "2026-03-01T10:00:10Z"),
	)
	writeTaskFile(t, cfg.LogHome, "ghost-session.json",
		`[{"content":"ship it","status":"completed"}]`)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, report.Projects, 1)
	assert.Equal(t, "/home/dev/widget", report.Projects[0].ProjectID)
	assert.NotEmpty(t, report.Projects[0].Name)
	// With one scored project there is no batch to rank against.
	assert.Equal(t, -1, report.Projects[0].Assessment.Percentile)
}

func TestRunEmptyLogHome(t *testing.T) {
	cfg := testConfig(t)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Empty(t, report.Projects)
	assert.Empty(t, report.Errors)
}

func TestRunMissingScanPathsRecorded(t *testing.T) {
	cfg := testConfig(t)
	cfg.ScanPaths = []string{filepath.Join(t.TempDir(), "does-not-exist")}

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, report.ReposScanned)
}

func TestRunDeterministicOrdering(t *testing.T) {
	cfg := testConfig(t)
	for _, name := range []string{"alpha", "beta", "gamma"} {
		writeTranscript(t, cfg.LogHome, "-home-dev-"+name, "s-"+name,
			userLine("s-"+name, "/home/dev/"+name, "2026-03-01T10:00:00Z", "Add retry logic to the HTTP client in client.go"),
			assistantLine("s-"+name, "/home/dev/"+name, "2026-03-01T10:00:10Z"),
		)
	}

	first, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	for trial := 0; trial < 5; trial++ {
		again, err := Run(context.Background(), cfg, nil)
		require.NoError(t, err)
		require.Len(t, again.Projects, len(first.Projects))
		for i := range again.Projects {
			assert.Equal(t, first.Projects[i].ProjectID, again.Projects[i].ProjectID)
			assert.Equal(t, first.Projects[i].Assessment.Overall, again.Projects[i].Assessment.Overall)
		}
	}
}

func TestRunPercentilesAssigned(t *testing.T) {
	cfg := testConfig(t)
	writeTranscript(t, cfg.LogHome, "-home-dev-strong", "s1",
		userLine("s1", "/home/dev/strong", "2026-03-01T10:00:00Z", "Implement pagination in internal/api/list.go using cursor tokens, for example limit=50"),
		assistantLine("s1", "/home/dev/strong", "2026-03-01T10:00:10Z"),
	)
	writeTranscript(t, cfg.LogHome, "-home-dev-weak", "s2",
		userLine("s2", "/home/dev/weak", "2026-03-02T09:00:00Z", "fix it, not working"),
		assistantLine("s2", "/home/dev/weak", "2026-03-02T09:00:10Z"),
	)

	report, err := Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Len(t, report.Projects, 2)
	for _, p := range report.Projects {
		assert.NotEqual(t, -1, p.Assessment.Percentile)
	}
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testConfig(t)
	writeTranscript(t, cfg.LogHome, "-home-dev-widget", "s1",
		userLine("s1", "/home/dev/widget", "2026-03-01T10:00:00Z", "Rename the module"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, cfg, nil)
	assert.Error(t, err)
}

func TestRankAndSortStable(t *testing.T) {
	report := &Report{
		Projects: []ProjectReport{
			{ProjectID: "/b", Assessment: scoring.Assessment{Overall: 50}},
			{ProjectID: "/a", Assessment: scoring.Assessment{Overall: 50}},
			{ProjectID: "/c", Assessment: scoring.Assessment{Overall: 80}},
		},
		Errors: []SourceError{
			{Source: "repo", Path: "/z"},
			{Source: "logs", Path: "/y"},
		},
	}
	rankAndSort(report)
	assert.Equal(t, "/c", report.Projects[0].ProjectID)
	assert.Equal(t, "/a", report.Projects[1].ProjectID)
	assert.Equal(t, "/b", report.Projects[2].ProjectID)
	assert.Equal(t, "logs", report.Errors[0].Source)
}
