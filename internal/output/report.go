package output

import (
	"fmt"
	"strings"

	"github.com/calder-systems/devsight/internal/pipeline"
	"github.com/calder-systems/devsight/internal/scoring"
	"github.com/calder-systems/devsight/internal/store"
)

// dimensionOrder fixes how dimension columns and detail lines render.
var dimensionOrder = []string{
	scoring.DimPrompting,
	scoring.DimContext,
	scoring.DimContinuity,
	scoring.DimTooling,
	scoring.DimDelivery,
}

// ScoreBar renders a visual bar for a 0-100 score.
// Example: "████████░░░░░░░░░░░░ 42/100"
func ScoreBar(score, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := score * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %s", scoreStyle(score).Render(bar),
		StyleMuted.Render(fmt.Sprintf("%d/100", score)))
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

// RenderReport renders the full analysis report for the terminal.
func RenderReport(r *pipeline.Report) string {
	var sb strings.Builder

	sb.WriteString(Section("Projects"))
	sb.WriteString("\n")

	if len(r.Projects) == 0 {
		sb.WriteString(" " + StyleMuted.Render("no projects found") + "\n")
	} else {
		table := NewTable("PROJECT", "SESSIONS", "REPO", "OVERALL", "LEVEL").
			AlignColumns(AlignLeft, AlignRight, AlignLeft, AlignRight, AlignLeft)
		for _, p := range r.Projects {
			repo := p.MatchedRepo
			if repo == "" {
				repo = "-"
			}
			table.AddRow(
				p.Name,
				fmt.Sprintf("%d", p.Sessions),
				repo,
				fmt.Sprintf("%d", p.Assessment.Overall),
				renderLevel(p.Assessment),
			)
		}
		sb.WriteString(indent(table.Render()))
	}

	for _, p := range r.Projects {
		sb.WriteString(Section(p.Name))
		sb.WriteString("\n")
		sb.WriteString(renderProject(p))
	}

	if len(r.UnmatchedRepos) > 0 {
		sb.WriteString(Section("Unmatched repositories"))
		sb.WriteString("\n")
		for _, path := range r.UnmatchedRepos {
			sb.WriteString(" " + StyleMuted.Render(path) + "\n")
		}
	}

	if len(r.Errors) > 0 {
		sb.WriteString(Section("Source errors"))
		sb.WriteString("\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf(" %s %s: %s\n",
				StyleWarning.Render(e.Source), e.Path, e.Detail))
		}
	}

	sb.WriteString(Section("Run"))
	sb.WriteString(fmt.Sprintf("\n %s sources, %s malformed lines, %s repos scanned, %s cache hits\n",
		StyleBold.Render(fmt.Sprintf("%d", r.SourcesRead)),
		StyleBold.Render(fmt.Sprintf("%d", r.MalformedLines)),
		StyleBold.Render(fmt.Sprintf("%d", r.ReposScanned)),
		StyleBold.Render(fmt.Sprintf("%d", r.CacheHits))))

	return sb.String()
}

// renderProject renders one project's dimension breakdown.
func renderProject(p pipeline.ProjectReport) string {
	var sb strings.Builder

	for _, dim := range dimensionOrder {
		score, ok := p.Assessment.DimensionScores[dim]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf(" %-12s %s\n", dim, ScoreBar(score, 20)))
	}
	sb.WriteString(fmt.Sprintf(" %-12s %s\n", "overall", ScoreBar(p.Assessment.Overall, 20)))

	if p.Assessment.Percentile >= 0 {
		sb.WriteString(fmt.Sprintf(" %s %s\n", StyleMuted.Render("percentile"),
			fmt.Sprintf("%d", p.Assessment.Percentile)))
	}
	if p.Assessment.SingleSource {
		sb.WriteString(" " + StyleMuted.Render("single source only, score discounted") + "\n")
	}
	if p.Assessment.Strength != "" && p.Assessment.Strength != p.Assessment.Weakness {
		sb.WriteString(fmt.Sprintf(" strength %s, weakness %s\n",
			StyleSuccess.Render(p.Assessment.Strength),
			StyleError.Render(p.Assessment.Weakness)))
	}
	if p.Repo != nil && p.Repo.PrimaryLanguage != "" {
		sb.WriteString(fmt.Sprintf(" %s %s, %d commits\n",
			StyleMuted.Render("repository"), p.Repo.PrimaryLanguage, p.Repo.UserCommits))
	}
	return sb.String()
}

// RenderDeltas renders score movement between two stored snapshots.
func RenderDeltas(deltas []store.AssessmentDelta) string {
	var sb strings.Builder
	sb.WriteString(Section("Score changes"))
	sb.WriteString("\n")

	if len(deltas) == 0 {
		sb.WriteString(" " + StyleMuted.Render("no projects present in both snapshots") + "\n")
		return sb.String()
	}

	table := NewTable("PROJECT", "BEFORE", "AFTER", "CHANGE", "LEVEL").
		AlignColumns(AlignLeft, AlignRight, AlignRight, AlignRight, AlignLeft)
	for _, d := range deltas {
		table.AddRow(
			d.Project,
			fmt.Sprintf("%d", d.OverallBefore),
			fmt.Sprintf("%d", d.OverallAfter),
			TrendArrow(d.Change()),
			renderLevelChange(d),
		)
	}
	sb.WriteString(indent(table.Render()))
	return sb.String()
}

// TrendArrow returns a styled indicator for an overall score delta.
func TrendArrow(delta int) string {
	switch {
	case delta > 0:
		return StyleSuccess.Render(fmt.Sprintf("▲ +%d", delta))
	case delta < 0:
		return StyleError.Render(fmt.Sprintf("▼ %d", delta))
	default:
		return StyleMuted.Render("─")
	}
}

func renderLevel(a scoring.Assessment) string {
	return scoreStyle(a.Overall).Render(a.Level)
}

func renderLevelChange(d store.AssessmentDelta) string {
	if d.LevelBefore == d.LevelAfter {
		return d.LevelAfter
	}
	return fmt.Sprintf("%s → %s", StyleMuted.Render(d.LevelBefore), StyleBold.Render(d.LevelAfter))
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = " " + line
	}
	return strings.Join(lines, "\n") + "\n"
}
