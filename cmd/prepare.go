package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raceform/raceform-cli/internal/pipeline"
)

var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Build the filtered snapshot from the results store",
	Long: `Read all rows of the given race type from the results store, keep GB and
Irish courses, derive the won/dnf labels, and write the columnar snapshot.

The snapshot replaces any previous one at the same path atomically; re-running
against an unchanged store produces byte-identical output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "prepare"))

		raceType, _ := cmd.Flags().GetString("type")
		snapPath, _ := cmd.Flags().GetString("snapshot")
		if snapPath == "" {
			snapPath = flatSnapshotPath()
		}

		if err := os.MkdirAll(cfg.Snapshot.Dir, 0o755); err != nil {
			return eris.Wrapf(err, "prepare: create snapshot dir %s", cfg.Snapshot.Dir)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		log.Info("starting prepare", zap.String("type", raceType), zap.String("snapshot", snapPath))

		run, err := pipeline.Prepare(ctx, st, pipeline.PrepareOpts{
			RaceType:     raceType,
			SnapshotPath: snapPath,
		})
		if err != nil {
			return eris.Wrap(err, "prepare")
		}

		fmt.Printf("Snapshot %s: %d of %d rows kept (%.1fs)\n",
			run.Snapshot, run.RowsKept, run.RowsRead, run.Elapsed.Seconds())
		return nil
	},
}

func init() {
	prepareCmd.Flags().String("type", "Flat", "race type predicate")
	prepareCmd.Flags().String("snapshot", "", "snapshot path (default from config)")
	rootCmd.AddCommand(prepareCmd)
}
