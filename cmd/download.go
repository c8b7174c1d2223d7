package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"modlist-downloader/internal/config"
	"modlist-downloader/internal/engine"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/logger"
	"modlist-downloader/internal/notifier"
	"modlist-downloader/internal/registry"
	"modlist-downloader/internal/worklist"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var downloadFlags runFlags

var downloadCmd = &cobra.Command{
	Use:   "download [worklist]",
	Short: "Download and verify every archive of the work list",
	Long: `Reads the work list (CSV or JSON with URL, Hash, Size and Name columns),
skips archives the ledger or the disk already confirm, and downloads the rest
in batches, verifying each file before recording it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := downloadFlags.effectiveConfig(cmd)
		if err != nil {
			return err
		}
		records, err := loadRecords(args, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runDownload(ctx, cfg, records)
	},
}

func init() {
	downloadFlags.register(downloadCmd)
}

func runDownload(ctx context.Context, cfg config.Config, records []worklist.Record) error {
	mode, err := cfg.Mode()
	if err != nil {
		return err
	}

	p, err := newPipeline(ctx, cfg, records)
	if err != nil {
		return err
	}
	defer p.Close()

	ledger, err := registry.LoadLedger(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf(i18n.T("ledger_load_fail"), err)
	}
	logger.Debug(i18n.T("ledger_loaded"), ledger.Len(), ledger.Path())

	history, err := registry.NewHistory(cfg.HistoryPath)
	if err != nil {
		logger.Warn(i18n.T("history_load_fail"), err)
		history = nil
	}

	entry := registry.RunEntry{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Mode:      mode.String(),
		Total:     len(records),
		Status:    registry.RunRunning,
	}
	recordRun(history, entry, true)

	interactive := !nonInteractive() && term.IsTerminal(int(os.Stderr.Fd()))
	sink := newProgressSink(len(records), interactive, os.Stderr)
	detach := sink.attach()

	o := &engine.Orchestrator{
		Ledger: ledger,
		Scheduler: &engine.Scheduler{
			Resolver:    p.resolver,
			Transferer:  p.worker,
			Concurrency: cfg.Concurrency,
		},
		Mode:        mode,
		DownloadDir: cfg.DownloadDir,
		RunID:       entry.ID,
		OnEvent:     logEvent,
		OnProgress:  sink.OnProgress,
		OnTransfer:  sink.OnTransfer,
	}

	logger.Info(i18n.T("download_start"), len(records), cfg.DownloadDir, cfg.Concurrency, mode)
	report, runErr := o.Run(ctx, records)
	detach()

	entry.FinishedAt = time.Now()
	if report != nil {
		entry.Confirmed, entry.Failed, entry.Skipped = report.Counts()
		fmt.Print(report.Summary())
	}
	entry.Status = runStatus(report, runErr)
	if runErr != nil {
		entry.Error = runErr.Error()
	}
	recordRun(history, entry, false)

	if entry.Status != registry.RunCompleted {
		alert(cfg, entry, report, runErr)
	}

	switch {
	case errors.Is(runErr, context.Canceled):
		logger.Warn(i18n.T("download_cancelled"))
		return runErr
	case runErr != nil:
		return runErr
	case entry.Failed > 0:
		return fmt.Errorf(i18n.T("download_failures"), entry.Failed, len(records))
	}
	logger.Success(i18n.T("download_done"), entry.Confirmed)
	return nil
}

func runStatus(report *engine.Report, err error) registry.RunStatus {
	switch {
	case errors.Is(err, context.Canceled):
		return registry.RunCancelled
	case err != nil:
		return registry.RunFailed
	case report == nil:
		return registry.RunFailed
	}
	if _, failed, _ := report.Counts(); failed > 0 {
		return registry.RunPartial
	}
	return registry.RunCompleted
}

// recordRun persists a history entry. History is informative only, so
// failures are logged and ignored.
func recordRun(h *registry.History, entry registry.RunEntry, first bool) {
	if h == nil {
		return
	}
	if first {
		h.Add(entry)
	} else {
		h.Update(entry)
	}
	if err := h.Save(); err != nil {
		logger.Warn(i18n.T("history_save_fail"), err)
	}
}

func alert(cfg config.Config, entry registry.RunEntry, report *engine.Report, runErr error) {
	if cfg.EmailAlertTo == "" {
		return
	}
	var body strings.Builder
	fmt.Fprintf(&body, "Run %s finished with status %s.\n\n", entry.ID, entry.Status)
	if runErr != nil {
		fmt.Fprintf(&body, "Error: %v\n\n", runErr)
	}
	if report != nil {
		body.WriteString(report.Summary())
	}
	subject := fmt.Sprintf("modlist-downloader: %d of %d archives failed", entry.Failed, entry.Total)
	if err := notifier.SendAlert(cfg.EmailAlertTo, subject, body.String()); err != nil {
		logger.Warn(i18n.T("notifier_fail"), err)
	}
}
