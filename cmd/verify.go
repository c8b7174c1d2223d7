package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"modlist-downloader/internal/engine"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/registry"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var verifyFlags runFlags

var verifyCmd = &cobra.Command{
	Use:   "verify [worklist]",
	Short: "Check downloaded archives against the work list without downloading",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := verifyFlags.effectiveConfig(cmd)
		if err != nil {
			return err
		}
		mode, err := cfg.Mode()
		if err != nil {
			return err
		}
		records, err := loadRecords(args, cfg)
		if err != nil {
			return err
		}
		ledger, err := registry.LoadLedger(cfg.LedgerPath)
		if err != nil {
			return fmt.Errorf(i18n.T("ledger_load_fail"), err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		o := &engine.Orchestrator{
			Ledger:      ledger,
			Mode:        mode,
			DownloadDir: cfg.DownloadDir,
			RunID:       uuid.New().String(),
			OnEvent: func(ev engine.Event) {
				if ev.Level == engine.LevelError {
					logger.Warn("%s", ev.Message)
				} else {
					logger.Debug("%s", ev.Message)
				}
			},
		}

		logger.Info(i18n.T("verify_start"), len(records), cfg.DownloadDir, mode)
		start := time.Now()
		report, err := o.Audit(ctx, records)
		if report != nil {
			fmt.Print(report.Summary())
		}
		if err != nil {
			return err
		}

		confirmed, failed, _ := report.Counts()
		if failed > 0 {
			return fmt.Errorf(i18n.T("verify_missing"), failed, len(records))
		}
		logger.Success(i18n.T("verify_done"), confirmed, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	verifyFlags.register(verifyCmd)
}
