package imagepkg

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	qrcode "github.com/skip2/go-qrcode"
)

// QR module colors: dark navy on white.
var (
	qrForeground = color.RGBA{R: 0x0b, G: 0x13, B: 0x2b, A: 0xff}
	qrBackground = color.White
)

// GenerateQRPNG returns PNG bytes of a high error-correction QR code for text.
func GenerateQRPNG(text string, size int) ([]byte, error) {
	q, err := qrcode.New(text, qrcode.Highest)
	if err != nil {
		return nil, err
	}
	q.ForegroundColor = qrForeground
	q.BackgroundColor = qrBackground
	return q.PNG(size)
}

// GenerateQRImage returns the QR code as an image for further composition.
func GenerateQRImage(text string, size int) (image.Image, error) {
	b, err := GenerateQRPNG(text, size)
	if err != nil {
		return nil, err
	}
	return png.Decode(bytes.NewReader(b))
}
