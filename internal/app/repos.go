package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calder-systems/devsight/internal/config"
	"github.com/calder-systems/devsight/internal/gitscan"
	"github.com/calder-systems/devsight/internal/output"
)

var reposFlagPaths []string

var reposCmd = &cobra.Command{
	Use:   "repos",
	Short: "Discover and scan git repositories only",
	Long: `Repos discovers git repositories under the configured scan paths and
prints per-repository commit statistics without reading any transcript
logs. Useful for checking what the full analysis would correlate against.`,
	RunE: runRepos,
}

func init() {
	reposCmd.Flags().StringSliceVar(&reposFlagPaths, "path", nil, "Additional scan paths (can be repeated)")
	rootCmd.AddCommand(reposCmd)
}

func runRepos(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	scanPaths := cfg.ScanPaths
	if len(reposFlagPaths) > 0 {
		scanPaths = append(scanPaths, reposFlagPaths...)
	}

	ctx := cmd.Context()
	paths := gitscan.DiscoverRepos(scanPaths, gitscan.DiscoverOptions{
		MaxDepth: cfg.Scan.MaxDepth,
		MaxRepos: cfg.Scan.MaxRepos,
		SkipDirs: cfg.SkipDirs,
	})

	identifiers := gitscan.UserIdentifiers(ctx)
	opts := gitscan.ScanOptions{
		MaxCommits:    cfg.Scan.MaxCommits,
		MaxRepoSizeMB: cfg.Scan.MaxRepoSizeMB,
		Timeout:       cfg.Scan.RepoTimeout,
	}

	var repos []gitscan.RepositoryStats
	for _, path := range paths {
		stats, err := gitscan.AnalyzeRepo(ctx, path, identifiers, opts)
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if stats.ScanError != "" && flagVerbose {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, stats.ScanError)
		}
		repos = append(repos, stats)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(repos)
	}

	fmt.Println(output.Section("Repositories"))
	if len(repos) == 0 {
		fmt.Println(" " + output.StyleMuted.Render("no repositories found"))
		return nil
	}

	table := output.NewTable("REPO", "LANGUAGE", "COMMITS", "YOURS", "LAST COMMIT").
		AlignColumns(output.AlignLeft, output.AlignLeft, output.AlignRight, output.AlignRight, output.AlignLeft)
	for _, r := range repos {
		last := "-"
		if !r.LastCommit.IsZero() {
			last = r.LastCommit.Format("2006-01-02")
		}
		lang := r.PrimaryLanguage
		if lang == "" {
			lang = "-"
		}
		table.AddRow(
			r.Name,
			lang,
			fmt.Sprintf("%d", r.TotalCommits),
			fmt.Sprintf("%d", r.UserCommits),
			last,
		)
	}
	fmt.Print(table.Render())
	return nil
}
