// Package report writes the certificate spreadsheet: an event summary, the
// full certificate log and a per-category breakdown.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/youruser/certgen/internal/cert"
)

// Sheet names.
const (
	SheetSummary    = "Event Summary"
	SheetLog        = "Certificate Log"
	SheetCategories = "Category Summary"
)

// LogHeaders are the certificate log columns.
var LogHeaders = []string{"#", "Full Name", "Department", "Batch", "Roll No", "Category", "Event", "Date", "Day", "Time"}

// ContentType is the MIME type of Build's output.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SummaryRow is one key/value line of the event summary sheet.
type SummaryRow struct {
	Key   string
	Value string
}

// Summary returns the event summary lines for log.
func Summary(event cert.EventMeta, log []cert.Record, now time.Time) []SummaryRow {
	return []SummaryRow{
		{"Event Name", event.Name},
		{"Topic", event.Topic},
		{"Date", event.Date},
		{"Day", event.Weekday()},
		{"Venue", event.Venue},
		{"Organizer", event.Organizer},
		{"Generated At", now.Format("2006-01-02 15:04:05")},
		{"Total Certs", strconv.Itoa(len(log))},
	}
}

// CategoryRow aggregates the log for one category.
type CategoryRow struct {
	Category string
	Count    int
	Names    string
}

// Categories groups log by category in first-seen order. Names lists
// "name (roll_no)" pairs.
func Categories(log []cert.Record) []CategoryRow {
	idx := map[string]int{}
	rows := []CategoryRow{}
	names := [][]string{}
	for _, r := range log {
		cat := r.Category
		if cat == "" {
			cat = "Other"
		}
		i, ok := idx[cat]
		if !ok {
			i = len(rows)
			idx[cat] = i
			rows = append(rows, CategoryRow{Category: cat})
			names = append(names, nil)
		}
		rows[i].Count++
		names[i] = append(names[i], fmt.Sprintf("%s (%s)", r.Name, r.RollNo))
	}
	for i := range rows {
		rows[i].Names = strings.Join(names[i], ", ")
	}
	return rows
}

type styles struct {
	title, header, key, value, rowEven, rowOdd, catKey int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	defs := []struct {
		dst *int
		s   *excelize.Style
	}{
		{&st.title, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFD159", Size: 15},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0B132B"}},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		}},
		{&st.header, &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E1B4B"}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		}},
		{&st.key, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "7ECEFD"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E1B4B"}},
		}},
		{&st.value, &excelize.Style{Font: &excelize.Font{Color: "404040"}}},
		{&st.rowEven, &excelize.Style{
			Font: &excelize.Font{Color: "E0E0E0"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0F1B35"}},
		}},
		{&st.rowOdd, &excelize.Style{
			Font: &excelize.Font{Color: "E0E0E0"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E1B4B"}},
		}},
		{&st.catKey, &excelize.Style{
			Font: &excelize.Font{Bold: true, Color: "FFD159"},
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1E1B4B"}},
		}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.s)
		if err != nil {
			return st, err
		}
		*d.dst = id
	}
	return st, nil
}

// Build writes the three-sheet workbook for log and returns the xlsx bytes.
func Build(event cert.EventMeta, log []cert.Record, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, fmt.Errorf("report styles: %w", err)
	}
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	if err := writeSummary(f, st, event, log, now); err != nil {
		return nil, fmt.Errorf("report summary: %w", err)
	}
	if err := writeLog(f, st, log); err != nil {
		return nil, fmt.Errorf("report log: %w", err)
	}
	if err := writeCategories(f, st, log); err != nil {
		return nil, fmt.Errorf("report categories: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("report write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummary(f *excelize.File, st styles, event cert.EventMeta, log []cert.Record, now time.Time) error {
	sh := SheetSummary
	title := event.Name
	if title == "" {
		title = "Event"
	}
	if err := f.MergeCell(sh, "A1", "C1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sh, "A1", title+" - Certificate Report"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sh, "A1", "C1", st.title); err != nil {
		return err
	}
	if err := f.SetRowHeight(sh, 1, 36); err != nil {
		return err
	}
	for i, row := range Summary(event, log, now) {
		r := i + 2
		if err := f.SetSheetRow(sh, fmt.Sprintf("A%d", r), &[]interface{}{row.Key, row.Value}); err != nil {
			return err
		}
		if err := f.SetCellStyle(sh, fmt.Sprintf("A%d", r), fmt.Sprintf("A%d", r), st.key); err != nil {
			return err
		}
		if err := f.SetCellStyle(sh, fmt.Sprintf("B%d", r), fmt.Sprintf("B%d", r), st.value); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sh, "A", "A", 20); err != nil {
		return err
	}
	return f.SetColWidth(sh, "B", "B", 45)
}

func writeLog(f *excelize.File, st styles, log []cert.Record) error {
	sh := SheetLog
	if _, err := f.NewSheet(sh); err != nil {
		return err
	}
	header := make([]interface{}, len(LogHeaders))
	for i, h := range LogHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sh, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sh, "A1", "J1", st.header); err != nil {
		return err
	}
	for i, rec := range log {
		r := i + 2
		row := []interface{}{i + 1, rec.Name, rec.Department, rec.Batch, rec.RollNo, rec.Category, rec.Event, rec.Date, rec.Day, rec.Time}
		if err := f.SetSheetRow(sh, fmt.Sprintf("A%d", r), &row); err != nil {
			return err
		}
		style := st.rowOdd
		if r%2 == 0 {
			style = st.rowEven
		}
		if err := f.SetCellStyle(sh, fmt.Sprintf("A%d", r), fmt.Sprintf("J%d", r), style); err != nil {
			return err
		}
	}
	for i, w := range []float64{5, 28, 22, 16, 14, 15, 30, 13, 12, 10} {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sh, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

func writeCategories(f *excelize.File, st styles, log []cert.Record) error {
	sh := SheetCategories
	if _, err := f.NewSheet(sh); err != nil {
		return err
	}
	if err := f.SetSheetRow(sh, "A1", &[]interface{}{"Category", "Count", "Names"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sh, "A1", "C1", st.header); err != nil {
		return err
	}
	for i, c := range Categories(log) {
		r := i + 2
		if err := f.SetSheetRow(sh, fmt.Sprintf("A%d", r), &[]interface{}{c.Category, c.Count, c.Names}); err != nil {
			return err
		}
		if err := f.SetCellStyle(sh, fmt.Sprintf("A%d", r), fmt.Sprintf("A%d", r), st.catKey); err != nil {
			return err
		}
		if err := f.SetCellStyle(sh, fmt.Sprintf("B%d", r), fmt.Sprintf("C%d", r), st.rowOdd); err != nil {
			return err
		}
	}
	for _, w := range []struct {
		col   string
		width float64
	}{{"A", 20}, {"B", 10}, {"C", 70}} {
		if err := f.SetColWidth(sh, w.col, w.col, w.width); err != nil {
			return err
		}
	}
	return nil
}
