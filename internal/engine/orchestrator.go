package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"modlist-downloader/internal/nexus"
	"modlist-downloader/internal/registry"
	"modlist-downloader/internal/verify"
	"modlist-downloader/internal/worklist"
)

// ErrMissingName marks a record without a requested filename.
var ErrMissingName = errors.New("record has no Name")

// Orchestrator turns a work list into a report. It owns the ledger for the
// duration of a run: workers never touch it.
type Orchestrator struct {
	Ledger      *registry.Ledger
	Scheduler   *Scheduler
	Mode        verify.Mode
	DownloadDir string
	RunID       string // generated when empty

	OnEvent    EventFunc
	OnProgress ProgressFunc
	OnTransfer TransferFunc
}

// run is the per-call state shared by Run and Audit.
type run struct {
	o      *Orchestrator
	log    emitter
	report *Report
	items  []WorkItem
	states []State
	index  map[string]int // item id -> position in items/report
	done   int
	dirty  bool
}

// Run processes records to completion. Per-item failures end up in the
// report; the returned error is reserved for faults that stop the whole run
// (download dir not creatable, ledger not writable) and for cancellation, in
// which case the report is still complete.
func (o *Orchestrator) Run(ctx context.Context, records []worklist.Record) (*Report, error) {
	dir, err := filepath.Abs(o.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("resolving download dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating download dir %s: %w", dir, err)
	}
	o.Scheduler.DestDir = dir

	r := o.start(dir, records)
	r.log.emit(LevelInfo, "", "%d records, verification mode %s, %d at a time", len(r.items), o.Mode, max(o.Scheduler.Concurrency, 1))

	var pending []WorkItem
	present := 0
	for i, it := range r.items {
		if r.states[i] != Pending {
			continue
		}
		if r.checkExisting(i) {
			r.confirm(i, true)
			present++
			continue
		}
		pending = append(pending, it)
	}
	if r.dirty {
		if err := r.persist(); err != nil {
			return r.finish(), err
		}
	}
	r.progress()
	if len(pending) > 0 {
		r.log.emit(LevelInfo, "", "%d already present, %d to download", present, len(pending))
	}

	unstarted, err := o.Scheduler.Run(ctx, pending, r.apply, func([]WorkItem) error {
		if err := r.persist(); err != nil {
			return err
		}
		r.progress()
		return nil
	})

	if err != nil {
		reason := err
		if ctx.Err() != nil {
			reason = fmt.Errorf("not started: %w", err)
		}
		for _, it := range unstarted {
			if i := r.index[it.ID]; !r.states[i].Terminal() {
				r.fail(i, Pending, reason)
			}
		}
		r.progress()
	}
	return r.finish(), err
}

// Audit checks every record against the ledger and the disk without any
// network access, updating the ledger with what it finds.
func (o *Orchestrator) Audit(ctx context.Context, records []worklist.Record) (*Report, error) {
	dir, err := filepath.Abs(o.DownloadDir)
	if err != nil {
		return nil, fmt.Errorf("resolving download dir: %w", err)
	}

	r := o.start(dir, records)
	for i := range r.items {
		if err := ctx.Err(); err != nil {
			r.fail(i, Pending, fmt.Errorf("not checked: %w", err))
			continue
		}
		if r.states[i] != Pending {
			continue
		}
		if r.checkExisting(i) {
			r.confirm(i, true)
			continue
		}
		r.fail(i, Verifying, r.auditReason(i))
	}
	r.progress()

	if r.dirty {
		if err := r.persist(); err != nil {
			return r.finish(), err
		}
	}
	return r.finish(), ctx.Err()
}

func (o *Orchestrator) start(dir string, records []worklist.Record) *run {
	sorted := make([]worklist.Record, len(records))
	copy(sorted, records)
	worklist.SortBySize(sorted)

	r := &run{
		o:      o,
		log:    emitter{fn: o.OnEvent},
		report: &Report{RunID: o.RunID, Mode: o.Mode, Started: time.Now()},
		index:  make(map[string]int, len(sorted)),
	}
	if r.report.RunID == "" {
		r.report.RunID = uuid.NewString()
	}

	for _, rec := range sorted {
		it := WorkItem{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(rec.Name),
			Fingerprint: verify.Fingerprint{Hash: rec.Hash, Size: rec.Size},
		}
		var bad error
		ref, err := nexus.ParseReference(rec.URL)
		if err != nil {
			bad = err
		} else if it.Name == "" {
			bad = fmt.Errorf("%w: %w", nexus.ErrMalformedReference, ErrMissingName)
		}
		it.Reference = ref
		if it.Name != "" {
			it.TargetPath = filepath.Join(dir, filepath.Base(it.Name))
		}

		r.index[it.ID] = len(r.items)
		r.items = append(r.items, it)
		r.states = append(r.states, Pending)
		r.report.Items = append(r.report.Items, ItemReport{
			ID:        it.ID,
			Name:      it.Name,
			Reference: rec.URL,
			State:     Pending,
		})

		if bad != nil {
			r.fail(len(r.items)-1, Pending, bad)
		}
	}
	return r
}

// checkExisting reports whether item i can be confirmed without a network
// call. The ledger is consulted by expected hash first; the path-keyed record
// is only used for items without a hash. Failing both, the target path on
// disk is verified directly and the ledger updated when it passes.
func (r *run) checkExisting(i int) bool {
	it := r.items[i]
	mode := r.o.Mode

	// Under Hash and Size a file without any fingerprint is never trusted.
	if mode != verify.ModeSkip && it.Fingerprint.Empty() {
		return false
	}

	if rec, ok := r.o.Ledger.Lookup(it.LedgerKey()); ok && rec.Verified && rec.Path != "" && fileExists(rec.Path) {
		if r.trustRecord(rec.Path, it) {
			r.report.Items[i].Path = rec.Path
			r.log.emit(LevelDebug, it.ID, "%s confirmed by ledger", it.Name)
			return true
		}
	}

	if it.TargetPath == "" || !fileExists(it.TargetPath) {
		return false
	}
	out, err := verify.Verify(it.TargetPath, it.Fingerprint, mode)
	if out != verify.Verified {
		r.log.emit(LevelDebug, it.ID, "%s present but not verified: %v", it.Name, err)
		return false
	}
	r.o.Ledger.Update(it.LedgerKey(), registry.Record{Path: it.TargetPath, Verified: true})
	r.dirty = true
	r.report.Items[i].Path = it.TargetPath
	r.log.emit(LevelDebug, it.ID, "%s verified on disk", it.Name)
	return true
}

// trustRecord decides whether a verified ledger record still holds. Hash mode
// trusts it without re-hashing; Size mode re-checks the size.
func (r *run) trustRecord(path string, it WorkItem) bool {
	switch r.o.Mode {
	case verify.ModeSkip:
		return true
	case verify.ModeHash:
		return strings.TrimSpace(it.Fingerprint.Hash) != ""
	case verify.ModeSize:
		out, _ := verify.Verify(path, it.Fingerprint, verify.ModeSize)
		return out == verify.Verified
	}
	return false
}

func (r *run) auditReason(i int) error {
	it := r.items[i]
	if r.o.Mode != verify.ModeSkip && it.Fingerprint.Empty() {
		return verify.ErrUnverifiable
	}
	if it.TargetPath != "" && fileExists(it.TargetPath) {
		_, err := verify.Verify(it.TargetPath, it.Fingerprint, r.o.Mode)
		if err != nil {
			return err
		}
	}
	return errors.New("not downloaded")
}

// apply handles one worker update on the coordinating goroutine.
func (r *run) apply(u Update) {
	i, ok := r.index[u.Item.ID]
	if !ok {
		return
	}

	switch {
	case u.Progress != nil:
		if r.o.OnTransfer != nil {
			r.o.OnTransfer(u.Item, *u.Progress)
		}
	case u.Result != nil:
		r.complete(i, *u.Result)
	default:
		r.move(i, u.State)
	}
}

func (r *run) complete(i int, res TransferResult) {
	it := r.items[i]
	r.report.Items[i].Bytes = res.Bytes

	if !res.Success {
		r.fail(i, res.Stage, res.Err)
		// No file came out of this attempt; record that under the key so a
		// stale verified entry cannot outlive it.
		r.o.Ledger.Update(it.LedgerKey(), registry.Record{Verified: false})
		return
	}

	if it.TargetPath != "" && res.Path != it.TargetPath {
		r.log.emit(LevelDebug, it.ID, "%s saved as %s", it.Name, filepath.Base(res.Path))
	}
	r.report.Items[i].Path = res.Path
	r.move(i, Verifying)

	out, err := verify.Verify(res.Path, it.Fingerprint, r.o.Mode)
	r.o.Ledger.Update(it.LedgerKey(), registry.Record{Path: res.Path, Verified: out == verify.Verified})
	if out != verify.Verified {
		r.fail(i, Verifying, err)
		return
	}
	r.confirm(i, false)
}

func (r *run) move(i int, to State) {
	next, err := Transition(r.states[i], to)
	if err != nil {
		r.log.emit(LevelDebug, r.items[i].ID, "%s: %v", r.items[i].Name, err)
		return
	}
	r.states[i] = next
	r.report.Items[i].State = next
}

func (r *run) confirm(i int, skipped bool) {
	r.move(i, Confirmed)
	r.report.Items[i].Skipped = skipped
	r.done++
	if !skipped {
		r.log.emit(LevelSuccess, r.items[i].ID, "%s downloaded and verified", r.items[i].Name)
	}
}

func (r *run) fail(i int, stage State, err error) {
	r.move(i, Failed)
	r.report.Items[i].Stage = stage
	r.report.Items[i].Err = err
	r.done++
	r.log.emit(LevelError, r.items[i].ID, "%s failed while %s: %v", displayName(r.items[i], r.report.Items[i]), stage, err)
}

func (r *run) persist() error {
	if err := r.o.Ledger.Save(); err != nil {
		return fmt.Errorf("persisting ledger: %w", err)
	}
	r.dirty = false
	return nil
}

func (r *run) progress() {
	if r.o.OnProgress != nil {
		r.o.OnProgress(r.done, len(r.items))
	}
}

func (r *run) finish() *Report {
	r.report.Finished = time.Now()
	return r.report
}

func displayName(it WorkItem, rep ItemReport) string {
	if it.Name != "" {
		return it.Name
	}
	return rep.Reference
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
