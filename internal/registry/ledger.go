package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Record is the verification outcome stored for one ledger key.
// Path is empty when the last attempt produced no file.
type Record struct {
	Path     string `json:"path"`
	Verified bool   `json:"verified"`
}

// Ledger maps an expected fingerprint (or, for records without one, an
// absolute destination path) to the last verification outcome.
//
// The on-disk form is a single JSON object rewritten as a whole on every Save.
// A Ledger is not safe for concurrent use; the download coordinator owns it.
type Ledger struct {
	path    string
	records map[string]Record
}

// NewLedger creates an empty ledger bound to path.
func NewLedger(path string) *Ledger {
	return &Ledger{
		path:    path,
		records: make(map[string]Record),
	}
}

// LoadLedger reads the ledger at path. A missing file yields an empty ledger.
func LoadLedger(path string) (*Ledger, error) {
	l := NewLedger(path)
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Path returns the file backing the ledger.
func (l *Ledger) Path() string {
	return l.path
}

// Reload merges the on-disk records into memory. Keys on disk win over
// in-memory ones; keys only present in memory are kept. Entries that cannot
// be decoded are ignored.
func (l *Ledger) Reload() error {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading ledger %s: %w", l.path, err)
	}
	if len(data) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing ledger %s: %w", l.path, err)
	}
	for key, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			continue
		}
		l.records[key] = rec
	}
	return nil
}

// Save writes the whole ledger to a temp file in the same directory and
// renames it over the target, so readers never see a torn file.
func (l *Ledger) Save() error {
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*.tmp")
	if err != nil {
		return fmt.Errorf("creating ledger temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing ledger: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, l.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing ledger %s: %w", l.path, err)
	}
	return nil
}

// Lookup returns the record stored under key.
func (l *Ledger) Lookup(key string) (Record, bool) {
	if key == "" {
		return Record{}, false
	}
	rec, ok := l.records[key]
	return rec, ok
}

// Update stores rec under key, overwriting any previous outcome.
// Records are never removed.
func (l *Ledger) Update(key string, rec Record) {
	if key == "" {
		return
	}
	l.records[key] = rec
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Keys returns every key in sorted order.
func (l *Ledger) Keys() []string {
	keys := make([]string, 0, len(l.records))
	for k := range l.records {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
