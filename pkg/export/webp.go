package export

import (
	"bytes"
	"image"

	"github.com/chai2010/webp"
)

// WebPEncoder encodes images to lossy WebP with alpha.
type WebPEncoder struct{}

func (e *WebPEncoder) Format() string    { return "webp" }
func (e *WebPEncoder) Extension() string { return "webp" }
func (e *WebPEncoder) Available() bool   { return true }

func (e *WebPEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = 82
	}

	var buf bytes.Buffer
	opts := &webp.Options{Lossless: false, Quality: float32(quality)}
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
