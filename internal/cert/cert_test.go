package cert

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHexColor(t *testing.T) {
	for in, want := range map[string]Color{
		"#1a1a1a": {0x1a, 0x1a, 0x1a},
		"FF8000":  {0xff, 0x80, 0x00},
		" #abc ":  {0xaa, 0xbb, 0xcc},
	} {
		got, err := ParseHexColor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "#12345", "#gggggg", "red"} {
		_, err := ParseHexColor(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "#ff8000", Color{0xff, 0x80, 0x00}.Hex())
}

func TestRenderConfigJSON(t *testing.T) {
	b, err := json.Marshal(DefaultRenderConfig())
	require.NoError(t, err)
	assert.JSONEq(t, `{"text_x":50,"text_y":60,"font_size":72,"text_color":"#1a1a1a","font_style":"Bold"}`, string(b))

	var cfg RenderConfig
	require.NoError(t, json.Unmarshal([]byte(`{"text_color":"#00ff00"}`), &cfg))
	assert.Equal(t, Color{G: 0xff}, cfg.TextColor)
	assert.Error(t, json.Unmarshal([]byte(`{"text_color":"green"}`), &cfg))
}

func TestNormalize(t *testing.T) {
	got := RenderConfig{TextX: math.NaN(), TextY: 250, FontSize: 5000, FontStyle: "Wingdings"}.Normalize()
	assert.Equal(t, 50.0, got.TextX)
	assert.Equal(t, 100.0, got.TextY)
	assert.Equal(t, MaxFontSize, got.FontSize)
	assert.Equal(t, StyleBold, got.FontStyle)

	got = RenderConfig{TextX: -1, TextY: 12.5, FontSize: -3, FontStyle: StyleCourier}.Normalize()
	assert.Equal(t, 0.0, got.TextX)
	assert.Equal(t, 12.5, got.TextY)
	assert.Equal(t, 72, got.FontSize)
	assert.Equal(t, StyleCourier, got.FontStyle)
}

func TestWeekday(t *testing.T) {
	assert.Equal(t, "Thursday", EventMeta{Date: "2026-10-15"}.Weekday())
	assert.Equal(t, "", EventMeta{Date: "15-10-2026"}.Weekday())
	assert.Equal(t, "", EventMeta{}.Weekday())
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2026, 10, 15, 14, 5, 9, 0, time.UTC)
	r := NewRecord(Entry{Name: "Ali", Category: "Teacher"}, "Expo", at)
	assert.Equal(t, Record{Name: "Ali", Category: "Teacher", Event: "Expo", Date: "2026-10-15", Day: "Thursday", Time: "14:05:09"}, r)
}

func TestParseNameList(t *testing.T) {
	names, err := ParseNameList(strings.NewReader("\ufeffAli Khan\r\n\n   \n  Sara  \nAli Khan"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ali Khan", "Sara", "Ali Khan"}, names)

	names, err = ParseNameList(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestParseRegistrationCSV(t *testing.T) {
	in := "\ufeffCategory, NAME\nSpeaker,Dr. Noor\n,Bilal\nTeacher,\n"
	entries, err := ParseRegistrationCSV(strings.NewReader(in), "Participant")
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Name: "Dr. Noor", Category: "Speaker"},
		{Name: "Bilal", Category: "Participant"},
	}, entries)

	_, err = ParseRegistrationCSV(strings.NewReader("email\nx@y.z\n"), "Participant")
	assert.Error(t, err)
	_, err = ParseRegistrationCSV(strings.NewReader(""), "Participant")
	assert.Error(t, err)
}

func TestValidateSubmission(t *testing.T) {
	s, missing := ValidateSubmission(Submission{Name: " Ali ", Department: "CS", Batch: "24", RollNo: " 7 "})
	assert.Nil(t, missing)
	assert.Equal(t, "Ali", s.Name)
	assert.Equal(t, "7", s.RollNo)

	_, missing = ValidateSubmission(Submission{Department: "CS", RollNo: "  "})
	assert.Equal(t, []string{"Full Name", "Batch", "Roll No"}, missing)

	rec := s.Record("Expo", Record{Date: "2026-10-15", Day: "Thursday", Time: "10:00:00"})
	assert.Equal(t, "Ali", rec.Name)
	assert.Equal(t, "CS", rec.Department)
	assert.Equal(t, "Expo", rec.Event)
	assert.Equal(t, "Thursday", rec.Day)
}

func TestExportNamesText(t *testing.T) {
	assert.Equal(t, "", ExportNamesText(nil))
	assert.Equal(t, "[Teacher] Ali\n[Participant] Sara", ExportNamesText([]Record{
		{Name: "Ali", Category: "Teacher"},
		{Name: "Sara", Category: "Participant"},
	}))
}

func TestFilterRecords(t *testing.T) {
	log := []Record{
		{Name: "Ali Khan", Department: "CS", Category: "Participant"},
		{Name: "Sara Malik", Department: "EE", Category: "Teacher"},
		{Name: "Omar Khan", Department: "EE", Batch: "2024", Category: "Participant"},
	}
	assert.Len(t, FilterRecords(log, FilterOptions{}), 3)
	assert.Len(t, FilterRecords(log, FilterOptions{Categories: []string{"Teacher"}}), 1)

	got := FilterRecords(log, FilterOptions{FreeWords: "khan ee"})
	require.Len(t, got, 1)
	assert.Equal(t, "Omar Khan", got[0].Name)

	assert.Empty(t, FilterRecords(log, FilterOptions{Categories: []string{"Speaker"}, FreeWords: "khan"}))
}

func TestCheckCategory(t *testing.T) {
	c, err := CheckCategory("  Chief Guest ")
	require.NoError(t, err)
	assert.Equal(t, "Chief Guest", c)

	for _, bad := range []string{"", "   ", "Guest, VIP", "A,B"} {
		_, err := CheckCategory(bad)
		assert.ErrorIs(t, err, ErrCategoryName, bad)
	}
}
