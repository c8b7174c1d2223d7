package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"

	"modlist-downloader/internal/verify"
)

// ItemReport is the final outcome of one input record.
type ItemReport struct {
	ID        string
	Name      string
	Reference string
	State     State
	Stage     State // where it failed; meaningless for confirmed items
	Path      string
	Bytes     int64
	Skipped   bool // confirmed from the ledger or disk without any network call
	Err       error
}

// Report lists every input record with its outcome, in processing order.
type Report struct {
	RunID    string
	Mode     verify.Mode
	Started  time.Time
	Finished time.Time
	Items    []ItemReport
}

func (r *Report) Total() int {
	return len(r.Items)
}

// Counts returns confirmed, failed and skipped totals. Skipped items are
// also counted as confirmed.
func (r *Report) Counts() (confirmed, failed, skipped int) {
	for _, it := range r.Items {
		switch it.State {
		case Confirmed:
			confirmed++
			if it.Skipped {
				skipped++
			}
		case Failed:
			failed++
		}
	}
	return
}

// Failures returns only the failed items.
func (r *Report) Failures() []ItemReport {
	var out []ItemReport
	for _, it := range r.Items {
		if it.State == Failed {
			out = append(out, it)
		}
	}
	return out
}

// Downloaded is the number of bytes transferred during the run.
func (r *Report) Downloaded() datasize.ByteSize {
	var n int64
	for _, it := range r.Items {
		if !it.Skipped {
			n += it.Bytes
		}
	}
	return datasize.ByteSize(n)
}

// Summary renders the counts and one line per failed item.
func (r *Report) Summary() string {
	confirmed, failed, skipped := r.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "%d confirmed (%d already present), %d failed, %s downloaded in %s\n",
		confirmed, skipped, failed, r.Downloaded().HumanReadable(), r.Finished.Sub(r.Started).Round(time.Second))
	for _, it := range r.Failures() {
		fmt.Fprintf(&b, "  - %s [%s]: %v\n", it.Name, it.Stage, it.Err)
	}
	return b.String()
}
