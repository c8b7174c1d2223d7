package registry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadLedgerMissingFile(t *testing.T) {
	l, err := LoadLedger(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("expected empty ledger, got %d records", l.Len())
	}
	if _, ok := l.Lookup("anything"); ok {
		t.Error("lookup on empty ledger should miss")
	}
}

func TestLedgerSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	l := NewLedger(path)
	l.Update("menYUTfbRu8=", Record{Path: "/dl/a.zip", Verified: true})
	l.Update("/dl/b.zip", Record{Path: "/dl/b.zip", Verified: false})
	if err := l.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := LoadLedger(path)
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	rec, ok := loaded.Lookup("menYUTfbRu8=")
	if !ok || !rec.Verified || rec.Path != "/dl/a.zip" {
		t.Errorf("hash record = %+v, %v", rec, ok)
	}
	rec, ok = loaded.Lookup("/dl/b.zip")
	if !ok || rec.Verified {
		t.Errorf("path record = %+v, %v", rec, ok)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLedgerReadsOriginalSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	content := `{
  "abc=": {"path": "/x/a.7z", "verified": true},
  "def=": {"path": null, "verified": false},
  "bad=": "not a record"
}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	l, err := LoadLedger(path)
	if err != nil {
		t.Fatalf("LoadLedger: %v", err)
	}
	if rec, ok := l.Lookup("def="); !ok || rec.Path != "" || rec.Verified {
		t.Errorf("null path record = %+v, %v", rec, ok)
	}
	if _, ok := l.Lookup("bad="); ok {
		t.Error("undecodable entry should be treated as absent")
	}
	if l.Len() != 2 {
		t.Errorf("Len = %d, want 2", l.Len())
	}
}

func TestLedgerReloadMerges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	disk := NewLedger(path)
	disk.Update("k1", Record{Path: "/disk", Verified: true})
	if err := disk.Save(); err != nil {
		t.Fatal(err)
	}

	mem := NewLedger(path)
	mem.Update("k1", Record{Path: "/mem", Verified: false})
	mem.Update("k2", Record{Path: "/only-mem", Verified: true})
	if err := mem.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if rec, _ := mem.Lookup("k1"); rec.Path != "/disk" {
		t.Errorf("disk record should win, got %+v", rec)
	}
	if _, ok := mem.Lookup("k2"); !ok {
		t.Error("memory-only record lost on reload")
	}
}

func TestLedgerUpdateOverwritesNeverDeletes(t *testing.T) {
	l := NewLedger(filepath.Join(t.TempDir(), "s.json"))
	l.Update("k", Record{Path: "/a", Verified: true})
	l.Update("k", Record{Path: "/a", Verified: false})
	rec, ok := l.Lookup("k")
	if !ok || rec.Verified {
		t.Errorf("record = %+v, %v", rec, ok)
	}
	l.Update("", Record{Verified: true})
	if l.Len() != 1 {
		t.Errorf("empty key must be ignored, Len = %d", l.Len())
	}
}

func TestLedgerCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLedger(path); err == nil {
		t.Fatal("expected error for corrupt ledger")
	}
}
