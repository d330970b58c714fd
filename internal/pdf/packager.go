// Package pdf wraps a rendered certificate into a single landscape A4 page.
package pdf

import (
	"fmt"
	"image"
	"time"

	"github.com/signintech/gopdf"
	"golang.org/x/image/font/gofont/gobold"
)

const (
	footerFamily   = "footer"
	footerSize     = 9
	footerBaseline = 16
)

// Rect is a placement on the page in points, origin top-left.
type Rect struct {
	X, Y, W, H float64
}

// FitRect scales an iw x ih image uniformly into a pw x ph page and
// centers it.
func FitRect(pw, ph float64, iw, ih int) Rect {
	if iw <= 0 || ih <= 0 {
		return Rect{}
	}
	scale := min(pw/float64(iw), ph/float64(ih))
	w, h := float64(iw)*scale, float64(ih)*scale
	return Rect{X: (pw - w) / 2, Y: (ph - h) / 2, W: w, H: h}
}

// Packager builds certificate PDFs. Now stamps the footer and defaults to
// time.Now.
type Packager struct {
	Now func() time.Time
}

func NewPackager() *Packager {
	return &Packager{Now: time.Now}
}

// Footer returns the footer line printed under the certificate.
func (p *Packager) Footer(caption string) string {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return caption + " | " + now().Format("2006-01-02 15:04")
}

// ToPDF places img on one landscape A4 page with a centered footer holding
// caption and the generation time.
func (p *Packager) ToPDF(img image.Image, caption string) ([]byte, error) {
	page := *gopdf.PageSizeA4Landscape
	doc := gopdf.GoPdf{}
	doc.Start(gopdf.Config{PageSize: page})
	doc.AddPage()

	size := img.Bounds().Size()
	r := FitRect(page.W, page.H, size.X, size.Y)
	if err := doc.ImageFrom(img, r.X, r.Y, &gopdf.Rect{W: r.W, H: r.H}); err != nil {
		return nil, fmt.Errorf("pdf image: %w", err)
	}

	if err := doc.AddTTFFontData(footerFamily, gobold.TTF); err != nil {
		return nil, fmt.Errorf("pdf font: %w", err)
	}
	if err := doc.SetFont(footerFamily, "", footerSize); err != nil {
		return nil, fmt.Errorf("pdf font: %w", err)
	}
	doc.SetTextColor(128, 128, 128)

	text := p.Footer(caption)
	tw, err := doc.MeasureTextWidth(text)
	if err != nil {
		return nil, fmt.Errorf("pdf footer: %w", err)
	}
	doc.SetX((page.W - tw) / 2)
	doc.SetY(page.H - footerBaseline - footerSize)
	if err := doc.Cell(nil, text); err != nil {
		return nil, fmt.Errorf("pdf footer: %w", err)
	}

	out, err := doc.GetBytesPdfReturnErr()
	if err != nil {
		return nil, fmt.Errorf("pdf write: %w", err)
	}
	return out, nil
}
