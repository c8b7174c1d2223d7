package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"modlist-downloader/internal/config"
	"modlist-downloader/internal/i18n"
	"modlist-downloader/internal/registry"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyID    string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previous download runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := registry.NewHistory(config.AppConfig.HistoryPath)
		if err != nil {
			return err
		}

		if historyID != "" {
			e, ok := findRun(h, historyID)
			if !ok {
				return fmt.Errorf(i18n.T("history_not_found"), historyID)
			}
			printRuns(os.Stdout, []registry.RunEntry{e})
			if e.Error != "" {
				fmt.Printf("\n%s\n", e.Error)
			}
			return nil
		}

		runs := h.Last(historyLimit)
		if len(runs) == 0 {
			fmt.Println(i18n.T("history_empty"))
			return nil
		}
		printRuns(os.Stdout, runs)

		if last := h.LastSuccessful(); last != nil {
			fmt.Printf("\n"+i18n.T("history_last_ok")+"\n", last.FinishedAt.Format(time.DateTime), last.ID)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "number", "n", 10, "Number of runs to show (0 for all)")
	historyCmd.Flags().StringVar(&historyID, "id", "", "Show a single run")
}

func printRuns(out io.Writer, runs []registry.RunEntry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tDURATION\tMODE\tSTATUS\tCONFIRMED\tSKIPPED\tFAILED\tTOTAL")
	for _, r := range runs {
		dur := "-"
		if !r.FinishedAt.IsZero() {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			shortID(r.ID), r.StartedAt.Format(time.DateTime), dur, r.Mode, r.Status,
			r.Confirmed, r.Skipped, r.Failed, r.Total)
	}
	w.Flush()
}

// findRun accepts a full id or the short prefix printed in the table.
func findRun(h *registry.History, id string) (registry.RunEntry, bool) {
	if e, ok := h.Get(id); ok {
		return e, true
	}
	for _, e := range h.Last(0) {
		if strings.HasPrefix(e.ID, id) {
			return e, true
		}
	}
	return registry.RunEntry{}, false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
