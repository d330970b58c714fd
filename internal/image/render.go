package imagepkg

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/youruser/certgen/internal/cert"
)

// Placement is where a name lands on a template.
type Placement struct {
	// Anchor is the percentage anchor in template pixels.
	Anchor image.Point
	// Dot is the text baseline origin handed to the glyph drawer.
	Dot fixed.Point26_6
	// Box is the text bounding box after placement, in 26.6 pixels.
	Box fixed.Rectangle26_6
}

// Center returns the center of the placed bounding box in pixels.
func (p Placement) Center() (x, y float64) {
	cx := (p.Box.Min.X + p.Box.Max.X) / 2
	cy := (p.Box.Min.Y + p.Box.Max.Y) / 2
	return float64(cx) / 64, float64(cy) / 64
}

// Place centers the bounding box of name on the anchor given by cfg inside
// a w x h template.
func Place(face font.Face, name string, w, h int, cfg cert.RenderConfig) Placement {
	ax := int(float64(w) * cfg.TextX / 100)
	ay := int(float64(h) * cfg.TextY / 100)

	bounds, _ := font.BoundString(face, name)
	bw := bounds.Max.X - bounds.Min.X
	bh := bounds.Max.Y - bounds.Min.Y

	dot := fixed.Point26_6{
		X: fixed.I(ax) - bw/2 - bounds.Min.X,
		Y: fixed.I(ay) - bh/2 - bounds.Min.Y,
	}
	return Placement{
		Anchor: image.Pt(ax, ay),
		Dot:    dot,
		Box:    bounds.Add(dot),
	}
}

// Render draws name onto a copy of tmpl and returns an opaque image of the
// same size. The template itself is never modified.
func Render(name string, tmpl image.Image, cfg cert.RenderConfig, fonts *FontResolver) *image.NRGBA {
	cfg = cfg.Normalize()
	size := tmpl.Bounds().Size()

	canvas := imaging.New(size.X, size.Y, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	canvas = imaging.Overlay(canvas, tmpl, image.Pt(0, 0), 1.0)

	if name != "" {
		face := fonts.Face(cfg.FontStyle, cfg.FontSize)
		defer face.Close()

		p := Place(face, name, size.X, size.Y, cfg)
		layer := image.NewNRGBA(image.Rect(0, 0, size.X, size.Y))
		d := &font.Drawer{
			Dst:  layer,
			Src:  image.NewUniform(color.NRGBA{R: cfg.TextColor.R, G: cfg.TextColor.G, B: cfg.TextColor.B, A: 0xff}),
			Face: face,
			Dot:  p.Dot,
		}
		d.DrawString(name)
		canvas = imaging.Overlay(canvas, layer, image.Pt(0, 0), 1.0)
	}

	flatten(canvas)
	return canvas
}

// flatten forces every pixel fully opaque.
func flatten(img *image.NRGBA) {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xff
	}
}
