package worklist

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Record is one row of the flattened modlist: a page reference plus the
// expected fingerprint and the requested filename.
type Record struct {
	URL  string `json:"URL"`
	Hash string `json:"Hash"`
	Size string `json:"Size"`
	Name string `json:"Name"`
}

// SizeValue returns Size as bytes, 0 when missing or not numeric.
func (r Record) SizeValue() int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(r.Size), 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

var ErrEmpty = errors.New("work list has no records")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load reads a work list from a CSV file (header row with URL, Hash, Size and
// Name columns, extra columns ignored) or a JSON array of records. The format
// is chosen by extension, falling back to sniffing the first byte.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading work list: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var records []Record
	switch {
	case strings.EqualFold(filepath.Ext(path), ".json"),
		len(bytes.TrimSpace(data)) > 0 && bytes.TrimSpace(data)[0] == '[':
		records, err = ParseJSON(bytes.NewReader(data))
	default:
		records, err = ParseCSV(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parsing work list %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

// ParseCSV reads records from CSV. Column lookup is by header name, case
// insensitive. Rows that are entirely blank are skipped.
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(string(bytes.TrimPrefix([]byte(h), utf8BOM))))] = i
	}
	if _, ok := cols["url"]; !ok {
		return nil, fmt.Errorf("missing URL column in header %v", header)
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := Record{
			URL:  field(row, "url"),
			Hash: field(row, "hash"),
			Size: field(row, "size"),
			Name: field(row, "name"),
		}
		if rec == (Record{}) {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// jsonRecord accepts Size as either a JSON number or a string, as manifest
// exports write both.
type jsonRecord struct {
	URL  string          `json:"URL"`
	Hash string          `json:"Hash"`
	Size json.RawMessage `json:"Size"`
	Name string          `json:"Name"`
}

// ParseJSON reads a JSON array of records.
func ParseJSON(r io.Reader) ([]Record, error) {
	var raw []jsonRecord
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(raw))
	for _, jr := range raw {
		records = append(records, Record{
			URL:  strings.TrimSpace(jr.URL),
			Hash: strings.TrimSpace(jr.Hash),
			Size: sizeString(jr.Size),
			Name: strings.TrimSpace(jr.Name),
		})
	}
	return records, nil
}

func sizeString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// SortBySize orders records by ascending expected size. Missing or
// non-numeric sizes count as 0. The sort is stable.
func SortBySize(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SizeValue() < records[j].SizeValue()
	})
}
