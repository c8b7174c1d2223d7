package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"modlist-downloader/internal/worklist"
)

// Prober asks the server which name a direct URL would be saved under.
type Prober interface {
	ProbeFilename(ctx context.Context, directURL string) (string, error)
}

// Renamer fixes files downloaded under the requested name instead of the
// server's. Local files are matched to records by exact byte size.
type Renamer struct {
	Resolver Resolver
	Prober   Prober
	Dir      string
	OnEvent  EventFunc
}

type Rename struct {
	From string
	To   string
}

type RenameReport struct {
	Renamed []Rename
	Skipped int // destination already exists
	Errors  int // could not resolve, probe or rename
}

// Run renames every local file whose size matches a record and whose name
// differs from the server-reported one. Only a failure to list Dir is
// returned as an error.
func (r *Renamer) Run(ctx context.Context, records []worklist.Record) (*RenameReport, error) {
	log := emitter{fn: r.OnEvent}

	bySize := map[int64]string{}
	for _, rec := range records {
		if size := rec.SizeValue(); size > 0 && rec.URL != "" {
			bySize[size] = rec.URL
		}
	}

	entries, err := os.ReadDir(r.Dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.Dir, err)
	}
	local := map[int64][]string{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		local[info.Size()] = append(local[info.Size()], e.Name())
	}

	sizes := make([]int64, 0, len(bySize))
	for size := range bySize {
		if len(local[size]) > 0 {
			sizes = append(sizes, size)
		}
	}
	sort.Slice(sizes, func(i, j int) bool { return sizes[i] < sizes[j] })
	log.emit(LevelInfo, "", "%d records, %d size matches in %s", len(bySize), len(sizes), r.Dir)

	report := &RenameReport{}
	for _, size := range sizes {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		ref := bySize[size]
		direct, err := r.Resolver.Resolve(ctx, ref)
		if err != nil {
			log.emit(LevelError, "", "resolving %s: %v", ref, err)
			report.Errors++
			continue
		}
		correct, err := r.Prober.ProbeFilename(ctx, direct)
		if err != nil {
			log.emit(LevelError, "", "probing %s: %v", ref, err)
			report.Errors++
			continue
		}

		for _, name := range local[size] {
			if name == correct {
				continue
			}
			src := filepath.Join(r.Dir, name)
			dst := filepath.Join(r.Dir, correct)
			if _, err := os.Stat(dst); err == nil {
				log.emit(LevelInfo, "", "skipping %s, %s already exists", name, correct)
				report.Skipped++
				continue
			}
			if err := os.Rename(src, dst); err != nil {
				log.emit(LevelError, "", "renaming %s: %v", name, err)
				report.Errors++
				continue
			}
			log.emit(LevelSuccess, "", "renamed %s -> %s", name, correct)
			report.Renamed = append(report.Renamed, Rename{From: name, To: correct})
		}
	}
	return report, nil
}
