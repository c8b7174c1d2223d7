package registry

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed" // every item confirmed
	RunPartial   RunStatus = "partial"   // finished with failed items
	RunFailed    RunStatus = "failed"    // aborted by a fatal error
	RunCancelled RunStatus = "cancelled"
)

// RunEntry summarizes one download or audit run.
type RunEntry struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
	Mode       string    `json:"mode"`
	Total      int       `json:"total"`
	Confirmed  int       `json:"confirmed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Status     RunStatus `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// History is an append-mostly log of runs, stored as JSONL.
type History struct {
	FilePath string     `json:"-"`
	Runs     []RunEntry `json:"runs"`
	mu       sync.RWMutex
}

func NewHistory(path string) (*History, error) {
	h := &History{
		FilePath: path,
		Runs:     []RunEntry{},
	}
	if err := h.Load(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, err := os.Open(h.FilePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	// Una entrada por línea; las líneas corruptas se ignoran
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry RunEntry
		if err := json.Unmarshal(line, &entry); err == nil {
			h.Runs = append(h.Runs, entry)
		}
	}
	return scanner.Err()
}

func (h *History) Save() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(h.FilePath), 0755); err != nil {
		return err
	}
	f, err := os.Create(h.FilePath)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, entry := range h.Runs {
		if err := enc.Encode(entry); err != nil {
			return err
		}
	}
	return nil
}

func (h *History) Add(entry RunEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Runs = append(h.Runs, entry)
}

// Update replaces the entry with the same ID.
func (h *History) Update(entry RunEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, e := range h.Runs {
		if e.ID == entry.ID {
			h.Runs[i] = entry
			return
		}
	}
}

// Get returns a copy of the entry with that ID.
func (h *History) Get(id string) (RunEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, e := range h.Runs {
		if e.ID == id {
			return e, true
		}
	}
	return RunEntry{}, false
}

// Last returns up to n most recent runs, newest first.
func (h *History) Last(n int) []RunEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.Runs) {
		n = len(h.Runs)
	}
	out := make([]RunEntry, 0, n)
	for i := len(h.Runs) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, h.Runs[i])
	}
	return out
}

// LastSuccessful returns the most recent run that confirmed every item.
func (h *History) LastSuccessful() *RunEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := len(h.Runs) - 1; i >= 0; i-- {
		if h.Runs[i].Status == RunCompleted {
			e := h.Runs[i]
			return &e
		}
	}
	return nil
}
