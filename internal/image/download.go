package imagepkg

import (
	"image"

	"github.com/youruser/certgen/internal/util"
)

// DownloadTemplate fetches a template image from url, reading at most limit
// bytes, and decodes it.
func DownloadTemplate(url string, limit int64) (image.Image, []byte, error) {
	body, err := util.GetBytes(url, limit)
	if err != nil {
		return nil, nil, err
	}
	img, err := DecodeTemplate(body)
	if err != nil {
		return nil, nil, err
	}
	return img, body, nil
}
