package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calder-systems/devsight/internal/config"
	"github.com/calder-systems/devsight/internal/output"
	"github.com/calder-systems/devsight/internal/pipeline"
	"github.com/calder-systems/devsight/internal/repocache"
	"github.com/calder-systems/devsight/internal/scoring"
	"github.com/calder-systems/devsight/internal/store"
)

var (
	analyzeFlagPaths   []string
	analyzeFlagNoCache bool
	analyzeFlagSave    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Read logs, scan repositories, and score proficiency",
	Long: `Analyze reads every transcript under the log home, scans the git
repositories under the configured scan paths, correlates projects with
repositories, and renders per-project dimension and overall scores.

Repository scans are cached per head revision; pass --no-cache to force a
fresh scan of every repository.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringSliceVar(&analyzeFlagPaths, "path", nil, "Additional scan paths (can be repeated)")
	analyzeCmd.Flags().BoolVar(&analyzeFlagNoCache, "no-cache", false, "Bypass the repository scan cache")
	analyzeCmd.Flags().BoolVar(&analyzeFlagSave, "save", false, "Store the run as a snapshot in the local database")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if len(analyzeFlagPaths) > 0 {
		cfg.ScanPaths = append(cfg.ScanPaths, analyzeFlagPaths...)
	}

	var cache *repocache.Cache
	if !analyzeFlagNoCache {
		cache, err = repocache.Open(config.CachePath(), cfg.CacheTTLDuration())
		if err != nil {
			if flagVerbose {
				fmt.Fprintln(os.Stderr, "cache unavailable:", err)
			}
			cache = nil
		} else {
			defer func() { _ = cache.Close() }()
		}
	}

	report, err := pipeline.Run(cmd.Context(), cfg, cache)
	if err != nil {
		return fmt.Errorf("running analysis: %w", err)
	}

	if analyzeFlagSave {
		db, err := store.Open(config.DBPath())
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
		if _, err := saveSnapshot(db, "analyze", report); err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println(output.RenderReport(report))
	return nil
}

// saveSnapshot persists one report as a snapshot and returns its ID.
func saveSnapshot(db *store.DB, command string, report *pipeline.Report) (int64, error) {
	snapshotID, err := db.CreateSnapshot(command, appVersion)
	if err != nil {
		return 0, err
	}

	for _, p := range report.Projects {
		row := &store.AssessmentRow{
			SnapshotID:     snapshotID,
			Project:        p.ProjectID,
			ProjectPath:    p.Path,
			SessionCount:   p.Sessions,
			MatchedRepo:    p.MatchedRepo,
			MatchScore:     p.MatchScore,
			Overall:        p.Assessment.Overall,
			Level:          p.Assessment.Level,
			Percentile:     p.Assessment.Percentile,
			SingleSource:   p.Assessment.SingleSource,
			Prompting:      dimScore(p, scoring.DimPrompting),
			Context:        dimScore(p, scoring.DimContext),
			Continuity:     dimScore(p, scoring.DimContinuity),
			Tooling:        dimScore(p, scoring.DimTooling),
			Delivery:       dimScore(p, scoring.DimDelivery),
			Strength:       p.Assessment.Strength,
			Weakness:       p.Assessment.Weakness,
			WeightsVersion: p.Assessment.WeightsVersion,
		}
		if err := db.InsertAssessment(row); err != nil {
			return 0, fmt.Errorf("inserting assessment for %s: %w", p.ProjectID, err)
		}
	}

	for _, e := range report.Errors {
		if err := db.InsertSourceError(snapshotID, e.Source, e.Path, e.Detail); err != nil {
			return 0, fmt.Errorf("inserting source error: %w", err)
		}
	}

	metrics := map[string]float64{
		"sources_read":    float64(report.SourcesRead),
		"malformed_lines": float64(report.MalformedLines),
		"repos_scanned":   float64(report.ReposScanned),
		"cache_hits":      float64(report.CacheHits),
	}
	for name, value := range metrics {
		if err := db.InsertRunMetric(snapshotID, name, value); err != nil {
			return 0, fmt.Errorf("inserting metric %s: %w", name, err)
		}
	}

	return snapshotID, nil
}

func dimScore(p pipeline.ProjectReport, dim string) int {
	if v, ok := p.Assessment.DimensionScores[dim]; ok {
		return v
	}
	return -1
}
