package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modlist-downloader/internal/worklist"
)

type fakeProber map[string]string

func (f fakeProber) ProbeFilename(ctx context.Context, directURL string) (string, error) {
	name, ok := f[directURL]
	if !ok {
		return "", errors.New("no such file")
	}
	return name, nil
}

func TestRenamer(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, size int) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(strings.Repeat("x", size)), 0644); err != nil {
			t.Fatal(err)
		}
	}
	write("wrong-a.7z", 10)
	write("Right B.zip", 20)
	write("wrong-c.rar", 30)
	write("Taken C.rar", 31)
	write("orphan.bin", 40)

	records := []worklist.Record{
		{URL: pageURL(1), Size: "10"},
		{URL: pageURL(2), Size: "20"},
		{URL: pageURL(3), Size: "30"},
		{URL: pageURL(4), Size: "50"},
		{URL: pageURL(5), Size: "31"},
	}
	prober := fakeProber{
		"mem://1": "Right A.7z",
		"mem://2": "Right B.zip",
		"mem://3": "Taken C.rar",
		"mem://4": "Never.7z",
	}

	r := &Renamer{Resolver: &fakeResolver{}, Prober: prober, Dir: dir}
	report, err := r.Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Renamed) != 1 || report.Renamed[0].From != "wrong-a.7z" || report.Renamed[0].To != "Right A.7z" {
		t.Errorf("renamed = %+v", report.Renamed)
	}
	if report.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", report.Skipped)
	}
	// size 31 has no prober entry
	if report.Errors != 1 {
		t.Errorf("errors = %d, want 1", report.Errors)
	}
	if _, err := os.Stat(filepath.Join(dir, "Right A.7z")); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "wrong-c.rar")); err != nil {
		t.Errorf("file with taken destination should stay: %v", err)
	}
}

func TestRenamerMissingDir(t *testing.T) {
	r := &Renamer{Resolver: &fakeResolver{}, Prober: fakeProber{}, Dir: filepath.Join(t.TempDir(), "nope")}
	if _, err := r.Run(context.Background(), nil); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
