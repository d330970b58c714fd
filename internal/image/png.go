package imagepkg

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"

	"github.com/disintegration/imaging"
)

// PrintDPI is the resolution declared in rendered certificate PNGs.
const PrintDPI = 300

// MaxTemplateSide bounds either dimension of an accepted template.
const MaxTemplateSide = 12000

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

var (
	ErrTemplateFormat = errors.New("template must be a PNG or JPEG image")
	ErrTemplateSize   = errors.New("template dimensions out of range")
)

// EncodePNG encodes img as PNG carrying a pHYs chunk for PrintDPI.
func EncodePNG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return withDPI(buf.Bytes(), PrintDPI)
}

// withDPI inserts a pHYs chunk right after IHDR.
func withDPI(png []byte, dpi int) ([]byte, error) {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	if len(png) < ihdrEnd || !bytes.Equal(png[:8], pngSignature) || string(png[12:16]) != "IHDR" {
		return nil, errors.New("encode png: unexpected header")
	}
	ppm := uint32(float64(dpi)/0.0254 + 0.5)

	chunk := make([]byte, 4+4+9+4)
	binary.BigEndian.PutUint32(chunk[0:], 9)
	copy(chunk[4:], "pHYs")
	binary.BigEndian.PutUint32(chunk[8:], ppm)
	binary.BigEndian.PutUint32(chunk[12:], ppm)
	chunk[16] = 1 // unit: metre
	binary.BigEndian.PutUint32(chunk[17:], crc32.ChecksumIEEE(chunk[4:17]))

	out := make([]byte, 0, len(png)+len(chunk))
	out = append(out, png[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, png[ihdrEnd:]...)
	return out, nil
}

// DecodeTemplate decodes a PNG or JPEG template, applying EXIF orientation.
func DecodeTemplate(data []byte) (image.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTemplateFormat, err)
	}
	if format != "png" && format != "jpeg" {
		return nil, fmt.Errorf("%w: got %s", ErrTemplateFormat, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxTemplateSide || cfg.Height > MaxTemplateSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrTemplateSize, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode template: %w", err)
	}
	return img, nil
}
