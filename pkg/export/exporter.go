package export

import (
	"fmt"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/menta2k/sticker-maker/pkg/types"
)

const (
	// ResolutionCap is the largest edge allowed in the lossless export;
	// bigger buffers are downscaled uniformly first.
	ResolutionCap = 2048

	// LossyCanvasSize is the square canvas the lossy export is centered
	// on, the size messenger sticker packs expect.
	LossyCanvasSize = 512

	// Quality search parameters for the lossy export.
	lossyStartQuality = 95
	lossyQualityStep  = 5
	lossyQualityFloor = 50
)

// Exporter produces the sticker payloads.
type Exporter struct {
	lossless Encoder
	lossy    Encoder
}

// New creates an Exporter with the default PNG and WebP encoders.
func New() *Exporter {
	return &Exporter{
		lossless: &PNGEncoder{},
		lossy:    &WebPEncoder{},
	}
}

// NewWithEncoders creates an Exporter with custom encoders. A nil lossy
// encoder means the runtime has no lossy codec; Lossy then reports
// "unavailable" without attempting a search.
func NewWithEncoders(lossless, lossy Encoder) *Exporter {
	return &Exporter{lossless: lossless, lossy: lossy}
}

// LosslessExtension returns the file extension of the lossless format.
func (e *Exporter) LosslessExtension() string { return e.lossless.Extension() }

// LossyExtension returns the file extension of the lossy format, or "" if
// no lossy encoder is available.
func (e *Exporter) LossyExtension() string {
	if e.lossy == nil {
		return ""
	}
	return e.lossy.Extension()
}

// Lossless encodes the buffer exactly. Only when an edge exceeds
// ResolutionCap is the image downscaled (uniformly, Lanczos) before
// encoding; below the cap every pixel is preserved bit for bit.
func (e *Exporter) Lossless(buf *types.PixelBuffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	img := buf.NRGBA()
	if buf.Width > ResolutionCap || buf.Height > ResolutionCap {
		if buf.Width >= buf.Height {
			img = imaging.Resize(img, ResolutionCap, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, ResolutionCap, imaging.Lanczos)
		}
	}

	data, err := e.lossless.Encode(img, 0)
	if err != nil {
		return nil, fmt.Errorf("export: lossless encode: %w", err)
	}
	return data, nil
}

// Lossy scales the buffer uniformly so its long side fills a transparent
// LossyCanvasSize square, centers it, then searches downward from
// lossyStartQuality in lossyQualityStep decrements for the first encoding
// within maxBytes.
// It returns (nil, nil) when no quality at or above lossyQualityFloor
// fits, or when no lossy encoder is available; callers must treat that as
// "lossy export unavailable", not as an error.
func (e *Exporter) Lossy(buf *types.PixelBuffer, maxBytes int) ([]byte, error) {
	if e.lossy == nil || !e.lossy.Available() {
		return nil, nil
	}
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("export: maxBytes must be positive, got %d", maxBytes)
	}

	// Aspect-preserving pad to square: one uniform factor brings the
	// long side to the canvas size (small crops scale up, large ones
	// down), then the result is centered on a transparent canvas.
	long := buf.Width
	if buf.Height > long {
		long = buf.Height
	}
	fitted := buf.NRGBA()
	if long != LossyCanvasSize {
		if buf.Width >= buf.Height {
			fitted = imaging.Resize(fitted, LossyCanvasSize, 0, imaging.Lanczos)
		} else {
			fitted = imaging.Resize(fitted, 0, LossyCanvasSize, imaging.Lanczos)
		}
	}
	canvas := imaging.New(LossyCanvasSize, LossyCanvasSize, color.NRGBA{})
	canvas = imaging.PasteCenter(canvas, fitted)

	for quality := lossyStartQuality; quality >= lossyQualityFloor; quality -= lossyQualityStep {
		data, err := e.lossy.Encode(canvas, quality)
		if err != nil {
			return nil, fmt.Errorf("export: lossy encode at q=%d: %w", quality, err)
		}
		if len(data) <= maxBytes {
			return data, nil
		}
	}

	return nil, nil
}
