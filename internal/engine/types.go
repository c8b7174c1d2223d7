package engine

import (
	"strings"

	"modlist-downloader/internal/nexus"
	"modlist-downloader/internal/transfer"
	"modlist-downloader/internal/verify"
)

// WorkItem is one file to resolve, download and verify. It is not modified
// once handed to the scheduler.
type WorkItem struct {
	ID          string
	Reference   nexus.Reference
	Name        string // requested filename, only a hint
	TargetPath  string // absolute path under the download dir using Name
	Fingerprint verify.Fingerprint
}

// LedgerKey is the expected hash, or the absolute target path for items
// that have none.
func (w WorkItem) LedgerKey() string {
	if h := strings.TrimSpace(w.Fingerprint.Hash); h != "" {
		return h
	}
	return w.TargetPath
}

// ResolvedTransfer pairs an item with the direct URL obtained for it.
type ResolvedTransfer struct {
	ItemID    string
	DirectURL string
}

// TransferResult is produced exactly once per scheduled item. Path is set
// only on success and is the file actually written, which may differ from
// the item's TargetPath. Stage is the state the item was in when it failed.
type TransferResult struct {
	ItemID   string
	Success  bool
	Path     string
	Filename string
	Bytes    int64
	Stage    State
	Err      error
}

// Update flows from a worker to the coordinator. Exactly one of State,
// Progress or Result is meaningful: a state change, a chunk of progress, or
// the final result.
type Update struct {
	Item     WorkItem
	State    State
	Progress *transfer.Progress
	Result   *TransferResult
}
