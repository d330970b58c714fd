package link

import (
	"bytes"
	"image/png"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/certgen/internal/cert"
)

func parse(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u.Query()
}

func TestEncodeLayout(t *testing.T) {
	l := Link{
		Config:     cert.DefaultRenderConfig(),
		Event:      "Tech Expo 2026",
		Categories: []string{"Participant", "Guest Speaker"},
	}
	got := Encode("https://certs.example.org/", l)
	assert.Equal(t,
		"https://certs.example.org/?page=cert&event=Tech%20Expo%202026&tx=50&ty=60&fs=72&tc=%231a1a1a&fw=Bold&cats=Participant%2CGuest%20Speaker",
		got)
	assert.Equal(t, got, Encode("https://certs.example.org/", l))
}

func TestRoundTrip(t *testing.T) {
	cases := []Link{
		{
			Config:     cert.DefaultRenderConfig(),
			Event:      "Certificate Event",
			Categories: []string{"Participant", "Teacher", "Speaker", "Management"},
		},
		{
			Config:          cert.RenderConfig{TextX: 12.5, TextY: 99.75, FontSize: 140, TextColor: cert.Color{R: 0xff, G: 0x00, B: 0x7f}, FontStyle: cert.StyleBoldItalic},
			Event:           "Café & Code #3 + friends",
			Categories:      []string{"Volunteer", "Chief Guest", "100% Club"},
			TemplateVersion: 7,
		},
		{
			Config:     cert.RenderConfig{TextX: 0, TextY: 100, FontSize: 20, TextColor: cert.Color{}, FontStyle: cert.StyleCourier},
			Event:      "a=b&c=d",
			Categories: []string{"x"},
		},
		{
			Config:     cert.DefaultRenderConfig(),
			Event:      "  Padded Expo ",
			Categories: []string{"Participant"},
		},
	}
	for _, want := range cases {
		got := Decode(parse(t, Encode("http://localhost:8080/", want)))
		assert.Equal(t, want, got)
	}
}

func TestDecodeDefaults(t *testing.T) {
	got := Decode(url.Values{})
	assert.Equal(t, cert.DefaultRenderConfig(), got.Config)
	assert.Equal(t, DefaultEvent, got.Event)
	assert.Equal(t, cert.DefaultCategories, got.Categories)
	assert.Zero(t, got.TemplateVersion)

	assert.Equal(t, DefaultEvent, Decode(url.Values{KeyEvent: {"   "}}).Event)
}

func TestDecodeMalformedFontSize(t *testing.T) {
	got := Decode(parse(t, "/?page=cert&fs=abc"))
	assert.Equal(t, 72, got.Config.FontSize)

	got = Decode(parse(t, "/?page=cert&fs=-4&tx=north&ty=250&tc=%23zzzzzz&fw=Papyrus"))
	assert.Equal(t, 72, got.Config.FontSize)
	assert.Equal(t, 50.0, got.Config.TextX)
	assert.Equal(t, 100.0, got.Config.TextY)
	assert.Equal(t, cert.DefaultTextColor, got.Config.TextColor)
	assert.Equal(t, cert.StyleBold, got.Config.FontStyle)
}

func TestDecodeLegacyLinks(t *testing.T) {
	// Links printed by the first release escaped by hand and were
	// sometimes escaped twice by the share sheet.
	got := Decode(parse(t, "/?page=cert&event=Annual%2520Seminar&tx=40&ty=70&fs=90&tc=%25232e6bef&fw=Times%2520Bold&cats=Participant,Guest%2520Speaker"))
	assert.Equal(t, "Annual Seminar", got.Event)
	assert.Equal(t, 40.0, got.Config.TextX)
	assert.Equal(t, 70.0, got.Config.TextY)
	assert.Equal(t, 90, got.Config.FontSize)
	assert.Equal(t, "#2e6bef", got.Config.TextColor.Hex())
	assert.Equal(t, cert.StyleTimesBold, got.Config.FontStyle)
	assert.Equal(t, []string{"Participant", "Guest Speaker"}, got.Categories)
}

func TestDecodeCategoriesTrimmed(t *testing.T) {
	got := Decode(parse(t, "/?cats=%20A%20,,B,A"))
	assert.Equal(t, []string{"A", "B"}, got.Categories)
}

func TestEncodeQR(t *testing.T) {
	u, b, err := EncodeQR("https://certs.example.org/", Link{Config: cert.DefaultRenderConfig(), Event: "Expo", Categories: []string{"Participant"}})
	require.NoError(t, err)
	assert.Contains(t, u, "page=cert")
	img, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, QRSize, img.Bounds().Dx())
}
