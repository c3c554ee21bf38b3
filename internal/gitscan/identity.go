package gitscan

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// automatedAuthors marks bot commits that never count toward attribution.
var automatedAuthors = []string{
	"dependabot", "renovate", "github-actions", "bot",
	"semantic-release", "greenkeeper", "snyk-bot",
}

// UserIdentifiers collects strings that may identify the current user in
// commit authorship: global git name and email (and the email's local
// part), plus the system username. Lookups are bounded; a missing git
// binary just yields fewer identifiers.
func UserIdentifiers(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ids []string

	if email := gitConfig(ctx, "user.email"); email != "" {
		email = strings.ToLower(email)
		ids = append(ids, email)
		if at := strings.Index(email, "@"); at > 0 {
			ids = append(ids, email[:at])
		}
	}
	if name := gitConfig(ctx, "user.name"); name != "" {
		ids = append(ids, strings.ToLower(name))
	}
	for _, env := range []string{"USER", "USERNAME"} {
		if v := strings.ToLower(os.Getenv(env)); v != "" {
			ids = append(ids, v)
		}
	}
	return ids
}

func gitConfig(ctx context.Context, key string) string {
	cmd := exec.CommandContext(ctx, "git", "config", "--global", key)
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// IsUserCommit reports whether the commit's author matches any identifier.
func IsUserCommit(c Commit, identifiers []string) bool {
	email := strings.ToLower(c.AuthorEmail)
	name := strings.ToLower(c.AuthorName)
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		if strings.Contains(email, id) || strings.Contains(name, id) {
			return true
		}
	}
	return false
}

// isAutomatedCommit reports whether the author looks like a bot.
func isAutomatedCommit(c Commit) bool {
	combined := strings.ToLower(c.AuthorName + c.AuthorEmail)
	for _, bot := range automatedAuthors {
		if strings.Contains(combined, bot) {
			return true
		}
	}
	return false
}
