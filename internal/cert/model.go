package cert

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Font style names accepted in a RenderConfig.
const (
	StyleRegular     = "Regular"
	StyleBold        = "Bold"
	StyleItalic      = "Italic"
	StyleBoldItalic  = "Bold Italic"
	StyleTimes       = "Times"
	StyleTimesBold   = "Times Bold"
	StyleCourier     = "Courier"
	StyleCourierBold = "Courier Bold"
)

// Styles lists the font styles in the order the organizer page shows them.
var Styles = []string{
	StyleRegular, StyleBold, StyleItalic, StyleBoldItalic,
	StyleTimes, StyleTimesBold, StyleCourier, StyleCourierBold,
}

// MaxFontSize caps the text size in pixels.
const MaxFontSize = 1000

// DefaultStyle is used when a style name is unknown.
const DefaultStyle = StyleBold

// DefaultCategories seeds the registration list of a new session.
var DefaultCategories = []string{"Participant", "Teacher", "Speaker", "Management"}

// ErrCategoryName is returned for category names a self-service link
// cannot carry. Links join categories with commas.
var ErrCategoryName = errors.New("category name must not be blank or contain a comma")

// CheckCategory trims c and rejects it when it is blank or contains a comma.
func CheckCategory(c string) (string, error) {
	c = strings.TrimSpace(c)
	if c == "" || strings.Contains(c, ",") {
		return "", fmt.Errorf("%w: %q", ErrCategoryName, c)
	}
	return c, nil
}

// IsStyle reports whether s is one of Styles.
func IsStyle(s string) bool {
	for _, st := range Styles {
		if st == s {
			return true
		}
	}
	return false
}

// Color is an opaque RGB text color.
type Color struct {
	R, G, B uint8
}

// DefaultTextColor is #1a1a1a.
var DefaultTextColor = Color{R: 0x1a, G: 0x1a, B: 0x1a}

// Hex formats c as lowercase #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexColor accepts "#rrggbb", "rrggbb" or the short "#rgb" form.
func ParseHexColor(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseHexColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// RenderConfig controls where and how a name is drawn on a template.
type RenderConfig struct {
	TextX     float64 `json:"text_x"`
	TextY     float64 `json:"text_y"`
	FontSize  int     `json:"font_size"`
	TextColor Color   `json:"text_color"`
	FontStyle string  `json:"font_style"`
}

// DefaultRenderConfig matches the defaults of the self-service link.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		TextX:     50,
		TextY:     60,
		FontSize:  72,
		TextColor: DefaultTextColor,
		FontStyle: DefaultStyle,
	}
}

// Normalize clamps anchors to [0,100] and replaces an unusable size or
// style with the defaults.
func (c RenderConfig) Normalize() RenderConfig {
	c.TextX = clampPct(c.TextX, 50)
	c.TextY = clampPct(c.TextY, 60)
	if c.FontSize <= 0 {
		c.FontSize = 72
	}
	if c.FontSize > MaxFontSize {
		c.FontSize = MaxFontSize
	}
	if !IsStyle(c.FontStyle) {
		c.FontStyle = DefaultStyle
	}
	return c
}

func clampPct(v, fallback float64) float64 {
	switch {
	case v != v: // NaN
		return fallback
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

// EventMeta describes the event printed in reports and footers.
type EventMeta struct {
	Name      string `json:"event_name"`
	Topic     string `json:"topic"`
	Date      string `json:"date"`
	Venue     string `json:"venue"`
	Organizer string `json:"organizer"`
}

// DefaultEventName is the event name of a fresh session.
const DefaultEventName = "Certificate of Participation"

// Weekday returns the English weekday of Date, or "" when Date is not a
// yyyy-mm-dd calendar date.
func (e EventMeta) Weekday() string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(e.Date))
	if err != nil {
		return ""
	}
	return t.Weekday().String()
}

// Entry is one registered name.
type Entry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// Record is one logged certificate issuance.
type Record struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Batch      string `json:"batch"`
	RollNo     string `json:"roll_no"`
	Category   string `json:"category"`
	Event      string `json:"event"`
	Date       string `json:"date"`
	Day        string `json:"day"`
	Time       string `json:"time"`
}

// NewRecord stamps a record for name at t.
func NewRecord(e Entry, event string, t time.Time) Record {
	return Record{
		Name:     e.Name,
		Category: e.Category,
		Event:    event,
		Date:     t.Format("2006-01-02"),
		Day:      t.Weekday().String(),
		Time:     t.Format("15:04:05"),
	}
}
