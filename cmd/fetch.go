package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/raceform/raceform-cli/internal/fetcher"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the dataset archive and extract the database",
	Long: `Download the published dataset release (http(s):// or ftp:// URL) into the
temp directory and, if it is a ZIP archive, extract the database file from it.
The extracted file is left in place for "raceform sync" to merge.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		log := zap.L().With(zap.String("command", "fetch"))

		rawURL, _ := cmd.Flags().GetString("url")
		if rawURL == "" {
			rawURL = cfg.Fetch.URL
		}
		if rawURL == "" {
			return eris.New("fetch: no URL given (set --url or fetch.url in config)")
		}
		outDir, _ := cmd.Flags().GetString("out")
		if outDir == "" {
			outDir = cfg.Fetch.TempDir
		}

		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return eris.Wrapf(err, "fetch: create temp dir %s", outDir)
		}

		httpF := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			RatePerSec: cfg.Fetch.RatePerSec,
		})
		ftpF := fetcher.NewFTPFetcher(fetcher.FTPOptions{})

		f, err := fetcher.ForURL(rawURL, httpF, ftpF)
		if err != nil {
			return err
		}

		archive := filepath.Join(outDir, filepath.Base(rawURL))
		log.Info("downloading dataset", zap.String("url", rawURL), zap.String("dest", archive))

		n, err := f.DownloadToFile(ctx, rawURL, archive)
		if err != nil {
			return eris.Wrap(err, "fetch: download")
		}
		log.Info("download complete", zap.Int64("bytes", n))

		if strings.EqualFold(filepath.Ext(archive), ".zip") {
			extracted, err := fetcher.ExtractZIPSingle(archive, outDir)
			if err != nil {
				return eris.Wrap(err, "fetch: extract")
			}
			fmt.Printf("Extracted %s\n", extracted)
			return nil
		}

		fmt.Printf("Downloaded %s (%d bytes)\n", archive, n)
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("url", "", "dataset archive URL (default from config)")
	fetchCmd.Flags().String("out", "", "output directory (default fetch.temp_dir)")
	rootCmd.AddCommand(fetchCmd)
}
