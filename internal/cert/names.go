package cert

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseNameList reads one name per line. Surrounding whitespace is trimmed
// and blank lines are skipped.
func ParseNameList(r io.Reader) ([]string, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	out := []string{}
	for sc.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(sc.Text(), "\ufeff"))
		if line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading name list: %w", err)
	}
	return out, nil
}

// ParseRegistrationCSV reads a CSV with a "name" column and an optional
// "category" column (header match is case-insensitive). Rows with an empty
// category fall back to defaultCategory.
func ParseRegistrationCSV(r io.Reader, defaultCategory string) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv has no header")
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := cols["name"]; !ok {
		return nil, fmt.Errorf("csv header has no name column")
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := []Entry{}
	for _, row := range rows[1:] {
		name := get(row, "name")
		if name == "" {
			continue
		}
		cat := get(row, "category")
		if cat == "" {
			cat = defaultCategory
		}
		out = append(out, Entry{Name: name, Category: cat})
	}
	return out, nil
}
