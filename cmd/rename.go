package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"modlist-downloader/internal/engine"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"

	"github.com/spf13/cobra"
)

var renameFlags runFlags

var renameCmd = &cobra.Command{
	Use:   "rename [worklist]",
	Short: "Rename downloaded files to the name the server reports",
	Long: `Matches files in the download directory to work list records by exact
size and renames each one to the filename the download server would use.
Existing destinations are never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := renameFlags.effectiveConfig(cmd)
		if err != nil {
			return err
		}
		records, err := loadRecords(args, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		p, err := newPipeline(ctx, cfg, records)
		if err != nil {
			return err
		}
		defer p.Close()

		r := &engine.Renamer{
			Resolver: p.resolver,
			Prober:   p.worker,
			Dir:      cfg.DownloadDir,
			OnEvent:  logEvent,
		}
		report, err := r.Run(ctx, records)
		if report != nil {
			fmt.Printf(i18n.T("rename_summary")+"\n", len(report.Renamed), report.Skipped, report.Errors)
		}
		if err != nil {
			return err
		}
		if report.Errors > 0 {
			logger.Warn(i18n.T("rename_errors"), report.Errors)
		}
		return nil
	},
}

func init() {
	renameFlags.register(renameCmd)
}
