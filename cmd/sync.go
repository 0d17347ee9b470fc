package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raceform/raceform-cli/internal/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync <source.db>",
	Short: "Merge new rows from a downloaded copy of the database",
	Long: `Non-destructively merge a freshly downloaded release of the dataset into
the local database. Only (race_id, horse) combinations absent locally are
inserted; existing rows are never modified.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		srcPath := args[0]

		if cfg.Store.Driver != "" && cfg.Store.Driver != "sqlite" {
			return eris.New("sync: only the sqlite store supports merging a downloaded copy")
		}

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		zap.L().Info("merging dataset copy",
			zap.String("source", srcPath),
			zap.String("dest", cfg.Store.Path),
		)

		n, err := st.MergeFrom(ctx, srcPath)
		if err != nil {
			return eris.Wrap(err, "sync")
		}

		if n == 0 {
			fmt.Println("Local database already contains all records.")
		} else {
			fmt.Printf("Imported %d new rows.\n", n)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
