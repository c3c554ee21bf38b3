package gitscan

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// logFormat requests one header line per commit; file-level numstat lines
// follow each header.
const logFormat = "COMMIT|%H|%an|%ae|%at|%s"

// Head returns the repository's current head revision.
func Head(ctx context.Context, repoPath string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", repoPath, "rev-parse", "HEAD")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// LogCommits runs git log once for the repository, requesting headers and
// per-file add/delete counts in one pass, capped at maxCommits. The caller
// bounds wall-clock time through ctx.
func LogCommits(ctx context.Context, repoPath string, maxCommits int) ([]Commit, error) {
	args := []string{"-C", repoPath, "log", "--numstat", "--format=" + logFormat}
	if maxCommits > 0 {
		args = append(args, fmt.Sprintf("-%d", maxCommits))
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("git log: %w", err)
	}
	return parseLog(string(out)), nil
}

// parseLog turns git log --numstat output into commit records. Numstat
// reports "-" for binary files; those become changed files with an unknown
// delta rather than zero.
func parseLog(out string) []Commit {
	var commits []Commit
	var cur *Commit

	flush := func() {
		if cur != nil {
			commits = append(commits, *cur)
			cur = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "COMMIT|") {
			flush()
			parts := strings.SplitN(line, "|", 6)
			if len(parts) < 5 {
				continue
			}
			c := Commit{
				Hash:        parts[1],
				AuthorName:  parts[2],
				AuthorEmail: parts[3],
			}
			if secs, err := strconv.ParseInt(parts[4], 10, 64); err == nil && secs > 0 {
				c.Timestamp = time.Unix(secs, 0).UTC()
			}
			if len(parts) > 5 {
				c.Subject = parts[5]
			}
			cur = &c
			continue
		}

		if cur == nil || !strings.Contains(line, "\t") {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) < 3 {
			continue
		}

		fc := FileChange{Path: fields[2], Language: LanguageForPath(fields[2])}
		if fields[0] == "-" || fields[1] == "-" {
			fc.Binary = true
		} else {
			adds, aerr := strconv.Atoi(fields[0])
			dels, derr := strconv.Atoi(fields[1])
			if aerr != nil || derr != nil {
				continue
			}
			fc.Additions = adds
			fc.Deletions = dels
			cur.Additions += adds
			cur.Deletions += dels
		}
		cur.Files = append(cur.Files, fc)
	}
	flush()

	return commits
}

// languageByExt maps file extensions to language names.
var languageByExt = map[string]string{
	".py": "Python", ".js": "JavaScript", ".ts": "TypeScript",
	".tsx": "TypeScript", ".jsx": "JavaScript", ".go": "Go",
	".rs": "Rust", ".java": "Java", ".kt": "Kotlin", ".swift": "Swift",
	".rb": "Ruby", ".php": "PHP", ".cs": "C#", ".cpp": "C++", ".c": "C",
	".h": "C/C++", ".html": "HTML", ".css": "CSS", ".scss": "SCSS",
	".vue": "Vue", ".svelte": "Svelte", ".sql": "SQL", ".sh": "Shell",
	".bash": "Shell", ".zsh": "Shell", ".md": "Markdown",
	".yaml": "YAML", ".yml": "YAML", ".json": "JSON", ".toml": "TOML",
}

// languageWeights down-weight config and docs relative to code when
// computing a repository's language distribution.
var languageWeights = map[string]float64{
	"HTML": 0.5, "CSS": 0.5, "SCSS": 0.5, "SQL": 0.7, "Shell": 0.8,
	"Vue": 0.9, "Svelte": 0.9,
	"JSON": 0.2, "YAML": 0.2, "TOML": 0.2, "Markdown": 0.1,
}

// LanguageForPath maps a changed file to its language, or "" when the
// extension is unrecognized.
func LanguageForPath(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}

// languageWeight returns the scoring weight for a language.
func languageWeight(lang string) float64 {
	if w, ok := languageWeights[lang]; ok {
		return w
	}
	return 1.0
}
