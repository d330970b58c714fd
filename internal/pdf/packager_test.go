package pdf

import (
	"bytes"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitRectLandscapeTemplate(t *testing.T) {
	r := FitRect(842, 595, 1000, 600)
	assert.InDelta(t, 842, r.W, 1e-9)
	assert.InDelta(t, 505.2, r.H, 1e-9)
	assert.InDelta(t, 0, r.X, 1e-9)
	assert.InDelta(t, (595-505.2)/2, r.Y, 1e-9)
}

func TestFitRectPortraitTemplate(t *testing.T) {
	r := FitRect(842, 595, 600, 1000)
	assert.InDelta(t, 595, r.H, 1e-9)
	assert.InDelta(t, 357, r.W, 1e-9)
	assert.InDelta(t, (842-357)/2.0, r.X, 1e-9)
	assert.InDelta(t, 0, r.Y, 1e-9)
	assert.InDelta(t, r.W/r.H, 0.6, 1e-9)
}

func TestFitRectDegenerate(t *testing.T) {
	assert.Equal(t, Rect{}, FitRect(842, 595, 0, 10))
}

func TestFooter(t *testing.T) {
	p := &Packager{Now: func() time.Time { return time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC) }}
	assert.Equal(t, "Ali Khan | Tech Expo | 2026-03-14 09:05", p.Footer("Ali Khan | Tech Expo"))
}

func TestToPDF(t *testing.T) {
	img := imaging.New(300, 180, color.NRGBA{R: 240, G: 230, B: 200, A: 255})
	out, err := NewPackager().ToPDF(img, "Ali Khan | Tech Expo")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Contains(t, string(out), "%%EOF")
}
