package output

import (
	"strings"
	"testing"

	"github.com/calder-systems/devsight/internal/pipeline"
	"github.com/calder-systems/devsight/internal/scoring"
	"github.com/calder-systems/devsight/internal/store"
)

func TestScoreBar(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	bar := ScoreBar(50, 20)
	if !strings.Contains(bar, "50/100") {
		t.Errorf("expected score label in %q", bar)
	}
	if strings.Count(bar, "█") != 10 {
		t.Errorf("expected 10 filled cells, got %d", strings.Count(bar, "█"))
	}
	if strings.Count(bar, "░") != 10 {
		t.Errorf("expected 10 empty cells, got %d", strings.Count(bar, "░"))
	}

	full := ScoreBar(100, 10)
	if strings.Count(full, "█") != 10 || strings.Count(full, "░") != 0 {
		t.Errorf("expected full bar, got %q", full)
	}

	empty := ScoreBar(0, 10)
	if strings.Count(empty, "█") != 0 {
		t.Errorf("expected empty bar, got %q", empty)
	}
}

func TestTrendArrow(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	if got := TrendArrow(5); !strings.Contains(got, "+5") {
		t.Errorf("expected +5 in %q", got)
	}
	if got := TrendArrow(-3); !strings.Contains(got, "-3") {
		t.Errorf("expected -3 in %q", got)
	}
	if got := TrendArrow(0); got != "─" {
		t.Errorf("expected dash for zero delta, got %q", got)
	}
}

func TestRenderReport(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	report := &pipeline.Report{
		Projects: []pipeline.ProjectReport{
			{
				ProjectID:   "/home/dev/widget",
				Path:        "/home/dev/widget",
				Name:        "widget",
				Sessions:    3,
				MatchedRepo: "/home/dev/repos/widget",
				MatchScore:  1.0,
				Assessment: scoring.Assessment{
					DimensionScores: map[string]int{
						scoring.DimPrompting: 75,
						scoring.DimDelivery:  60,
					},
					Overall:    70,
					Level:      scoring.LevelAdvanced,
					Percentile: -1,
					Strength:   scoring.DimPrompting,
					Weakness:   scoring.DimDelivery,
				},
			},
		},
		UnmatchedRepos: []string{"/home/dev/repos/orphan"},
		Errors: []pipeline.SourceError{
			{Source: "repo", Path: "/big/repo", Detail: "timeout"},
		},
		SourcesRead:  3,
		ReposScanned: 2,
	}

	out := RenderReport(report)
	for _, want := range []string{"widget", "prompting", "delivery", "advanced", "orphan", "timeout", "70/100"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in report output", want)
		}
	}
	if strings.Contains(out, "continuity") {
		t.Error("absent dimensions should not render")
	}
}

func TestRenderReportEmpty(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	out := RenderReport(&pipeline.Report{})
	if !strings.Contains(out, "no projects found") {
		t.Error("expected empty-state message")
	}
}

func TestRenderDeltas(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	out := RenderDeltas([]store.AssessmentDelta{
		{Project: "/widget", OverallBefore: 60, OverallAfter: 68, LevelBefore: "intermediate", LevelAfter: "advanced"},
	})
	for _, want := range []string{"/widget", "60", "68", "+8", "advanced"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in delta output", want)
		}
	}

	empty := RenderDeltas(nil)
	if !strings.Contains(empty, "no projects present") {
		t.Error("expected empty-state message")
	}
}

func TestTableAlignment(t *testing.T) {
	SetNoColor(true)
	defer SetNoColor(false)

	tbl := NewTable("NAME", "SCORE").AlignColumns(AlignLeft, AlignRight)
	tbl.AddRow("a", "5")
	tbl.AddRow("bb", "100")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[2], "  5") {
		t.Errorf("expected right-aligned score in %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], "100") {
		t.Errorf("expected right-aligned score in %q", lines[3])
	}
}

func TestVisualLenStripsANSI(t *testing.T) {
	if got := visualLen("\x1b[1mhello\x1b[0m"); got != 5 {
		t.Errorf("visualLen = %d, want 5", got)
	}
	if got := visualLen("plain"); got != 5 {
		t.Errorf("visualLen = %d, want 5", got)
	}
}
