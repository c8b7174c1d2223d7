package worklist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCSVWithBOMAndExtraColumns(t *testing.T) {
	content := "\xEF\xBB\xBFURL,Hash,Name,Size,State_Author\n" +
		"https://www.nexusmods.com/skyrimspecialedition/mods/1?tab=files&file_id=10,abc=,a.7z,100,someone\n" +
		",,,,\n" +
		"https://www.nexusmods.com/skyrimspecialedition/mods/2?tab=files&file_id=20,,b.zip,,x\n"
	records, err := Load(write(t, "output.csv", content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Hash != "abc=" || records[0].Size != "100" || records[0].Name != "a.7z" {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Hash != "" || records[1].Size != "" {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestLoadCSVMissingURLColumn(t *testing.T) {
	_, err := Load(write(t, "bad.csv", "Hash,Size\nx,1\n"))
	if err == nil || !strings.Contains(err.Error(), "URL") {
		t.Fatalf("expected missing URL column error, got %v", err)
	}
}

func TestLoadJSON(t *testing.T) {
	content := `[
  {"URL": "u1", "Hash": "h1", "Size": 2048, "Name": "one.zip"},
  {"URL": "u2", "Hash": "", "Size": "10", "Name": "two.zip"},
  {"URL": "u3", "Name": "three.zip"}
]`
	records, err := Load(write(t, "list.json", content))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"2048", "10", ""}
	for i, r := range records {
		if r.Size != want[i] {
			t.Errorf("record %d size = %q, want %q", i, r.Size, want[i])
		}
	}
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(write(t, "empty.csv", "URL,Hash,Size,Name\n"))
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}

func TestSortBySizeStable(t *testing.T) {
	records := []Record{
		{Name: "big", Size: "300"},
		{Name: "none-1"},
		{Name: "small", Size: "5"},
		{Name: "junk", Size: "abc"},
		{Name: "none-2", Size: ""},
	}
	SortBySize(records)

	var got []string
	for _, r := range records {
		got = append(got, r.Name)
	}
	want := "none-1,junk,none-2,small,big"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
}
