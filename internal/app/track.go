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
	"github.com/calder-systems/devsight/internal/store"
)

var trackFlagCompare int

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Snapshot an analysis and compare against the previous one",
	Long: `Track runs a full analysis, stores it as a snapshot in the local
database, and shows per-project score movement against a previous
snapshot.`,
	RunE: runTrack,
}

func init() {
	trackCmd.Flags().IntVar(&trackFlagCompare, "compare", 1, "Compare against Nth previous snapshot (1 = most recent)")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	previous, err := db.GetSnapshotN(trackFlagCompare)
	if err != nil {
		return fmt.Errorf("reading previous snapshot: %w", err)
	}

	cache, err := repocache.Open(config.CachePath(), cfg.CacheTTLDuration())
	if err != nil {
		cache = nil
	} else {
		defer func() { _ = cache.Close() }()
	}

	report, err := pipeline.Run(cmd.Context(), cfg, cache)
	if err != nil {
		return fmt.Errorf("running analysis: %w", err)
	}

	snapshotID, err := saveSnapshot(db, "track", report)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	if previous == nil {
		if flagJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		fmt.Println(output.RenderReport(report))
		fmt.Println(output.StyleMuted.Render(" first snapshot stored; run track again to see changes"))
		return nil
	}

	deltas, err := db.CompareSnapshots(previous.ID, snapshotID)
	if err != nil {
		return fmt.Errorf("comparing snapshots: %w", err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Report *pipeline.Report        `json:"report"`
			Deltas []store.AssessmentDelta `json:"deltas"`
		}{report, deltas})
	}

	fmt.Println(output.RenderReport(report))
	fmt.Println(output.RenderDeltas(deltas))
	return nil
}
