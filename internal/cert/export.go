package cert

import "strings"

// ExportNamesText renders the log as "[<category>] <name>" lines.
func ExportNamesText(records []Record) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, "["+r.Category+"] "+r.Name)
	}
	return strings.Join(lines, "\n")
}
