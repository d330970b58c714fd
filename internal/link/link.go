// Package link builds and parses the self-service certificate URL that the
// organizer prints as a QR code.
package link

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/youruser/certgen/internal/cert"
	imagepkg "github.com/youruser/certgen/internal/image"
)

// Query keys. They are part of printed QR codes and must not change.
const (
	KeyPage            = "page"
	KeyEvent           = "event"
	KeyTextX           = "tx"
	KeyTextY           = "ty"
	KeyFontSize        = "fs"
	KeyTextColor       = "tc"
	KeyFontStyle       = "fw"
	KeyCategories      = "cats"
	KeyTemplateVersion = "tv"
)

// PageCert selects the self-service page.
const PageCert = "cert"

// DefaultEvent is the event name when a link carries none.
const DefaultEvent = "Certificate Event"

// QRSize is the pixel size of generated QR codes.
const QRSize = 400

// Link is everything a self-service URL carries.
type Link struct {
	Config     cert.RenderConfig `json:"config"`
	Event      string            `json:"event"`
	Categories []string          `json:"categories"`
	// TemplateVersion is the organizer template version current when the
	// link was made; zero when unknown.
	TemplateVersion uint64 `json:"template_version"`
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Encode returns the self-service URL for l below baseURL. Keys are written
// in a fixed order so equal inputs give equal URLs.
func Encode(baseURL string, l Link) string {
	cfg := l.Config
	pairs := [][2]string{
		{KeyPage, PageCert},
		{KeyEvent, l.Event},
		{KeyTextX, formatPct(cfg.TextX)},
		{KeyTextY, formatPct(cfg.TextY)},
		{KeyFontSize, strconv.Itoa(cfg.FontSize)},
		{KeyTextColor, cfg.TextColor.Hex()},
		{KeyFontStyle, cfg.FontStyle},
		{KeyCategories, strings.Join(l.Categories, ",")},
	}
	if l.TemplateVersion > 0 {
		pairs = append(pairs, [2]string{KeyTemplateVersion, strconv.FormatUint(l.TemplateVersion, 10)})
	}

	var sb strings.Builder
	sb.WriteString(strings.TrimRight(baseURL, "?"))
	for i, kv := range pairs {
		if i == 0 {
			sb.WriteByte('?')
		} else {
			sb.WriteByte('&')
		}
		sb.WriteString(kv[0])
		sb.WriteByte('=')
		sb.WriteString(escape(kv[1]))
	}
	return sb.String()
}

// EncodeQR returns the URL for l and a PNG QR code of it.
func EncodeQR(baseURL string, l Link) (string, []byte, error) {
	u := Encode(baseURL, l)
	png, err := imagepkg.GenerateQRPNG(u, QRSize)
	if err != nil {
		return "", nil, err
	}
	return u, png, nil
}

// legacy reverses the literal substitutions older links applied by hand.
func legacy(s string) string {
	return strings.NewReplacer("%20", " ", "%23", "#").Replace(s)
}

// Decode reads a self-service query. Missing or malformed fields fall back
// to their defaults; Decode never fails.
func Decode(q url.Values) Link {
	def := cert.DefaultRenderConfig()
	l := Link{Config: def, Event: DefaultEvent, Categories: append([]string(nil), cert.DefaultCategories...)}

	if v := legacy(q.Get(KeyEvent)); strings.TrimSpace(v) != "" {
		l.Event = v
	}
	l.Config.TextX = parsePct(q.Get(KeyTextX), def.TextX)
	l.Config.TextY = parsePct(q.Get(KeyTextY), def.TextY)
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get(KeyFontSize))); err == nil && n > 0 {
		l.Config.FontSize = n
	} else if f, err := strconv.ParseFloat(strings.TrimSpace(q.Get(KeyFontSize)), 64); err == nil && f >= 1 && f < 1e6 {
		l.Config.FontSize = int(f)
	}
	if c, err := cert.ParseHexColor(legacy(q.Get(KeyTextColor))); err == nil {
		l.Config.TextColor = c
	}
	if v := legacy(q.Get(KeyFontStyle)); cert.IsStyle(v) {
		l.Config.FontStyle = v
	}
	if raw := q.Get(KeyCategories); raw != "" {
		cats := []string{}
		seen := map[string]bool{}
		for _, c := range strings.Split(raw, ",") {
			c = strings.TrimSpace(legacy(c))
			if c == "" || seen[c] {
				continue
			}
			seen[c] = true
			cats = append(cats, c)
		}
		if len(cats) > 0 {
			l.Categories = cats
		}
	}
	if v, err := strconv.ParseUint(q.Get(KeyTemplateVersion), 10, 64); err == nil {
		l.TemplateVersion = v
	}
	l.Config = l.Config.Normalize()
	return l
}

func parsePct(s string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v != v {
		return fallback
	}
	return min(max(v, 0), 100)
}
