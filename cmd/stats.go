package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/raceform/raceform-cli/internal/export"
	"github.com/raceform/raceform-cli/internal/pipeline"
	"github.com/raceform/raceform-cli/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute win rates from the prepared snapshot",
	Long: `Load the prepared snapshot, recompute the won label, and print the win
rate per group of the chosen attribute. Rows with a null grouping value are
excluded; age grouping is restricted to the 2-12 flat band.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		by, _ := cmd.Flags().GetString("by")
		format, _ := cmd.Flags().GetString("format")
		xlsxPath, _ := cmd.Flags().GetString("xlsx")
		snapPath, _ := cmd.Flags().GetString("snapshot")
		if snapPath == "" {
			snapPath = flatSnapshotPath()
		}

		rows, err := pipeline.Load(snapPath)
		if err != nil {
			return eris.Wrap(err, "stats: load snapshot")
		}

		table, err := stats.WinRate(rows, by)
		if err != nil {
			return err
		}

		if xlsxPath != "" {
			if err := export.WriteXLSX(xlsxPath, table); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", xlsxPath)
			return nil
		}

		switch format {
		case "csv":
			return export.WriteCSV(os.Stdout, table)
		case "table", "":
			runs, wins, rate := stats.Overall(rows)
			fmt.Printf("%d rows, %d wins, overall win rate %.4f\n\n", runs, wins, rate)

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "%s\truns\twins\twin_rate\n", table.Attr)
			for _, g := range table.Groups {
				fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\n", g.Key, g.Runs, g.Wins, g.Rate)
			}
			return w.Flush()
		default:
			return eris.Errorf("unknown format %q (valid: table, csv)", format)
		}
	},
}

func init() {
	statsCmd.Flags().String("by", "age", "grouping attribute: age, sex, draw, course")
	statsCmd.Flags().String("format", "table", "output format: table, csv")
	statsCmd.Flags().String("xlsx", "", "write an XLSX workbook to this path instead of stdout")
	statsCmd.Flags().String("snapshot", "", "snapshot path (default from config)")
	rootCmd.AddCommand(statsCmd)
}
