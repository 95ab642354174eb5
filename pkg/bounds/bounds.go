// Package bounds computes minimal enclosing rectangles over pixel data.
package bounds

import (
	"errors"
	"fmt"

	"github.com/menta2k/sticker-maker/pkg/types"
)

// ErrEmptyRegion is returned when no pixel qualifies as content: a fully
// transparent buffer or an all-zero mask.
var ErrEmptyRegion = errors.New("bounds: empty region")

// FromAlpha returns the tight bounding box of all pixels with alpha > 0.
// One pass over the buffer, no state beyond four running extrema.
func FromAlpha(buf *types.PixelBuffer) (types.BoundingBox, error) {
	if err := buf.Validate(); err != nil {
		return types.BoundingBox{}, fmt.Errorf("bounds: %w", err)
	}

	minX, minY := buf.Width, buf.Height
	maxX, maxY := -1, -1

	for y := 0; y < buf.Height; y++ {
		row := y * buf.Width * 4
		for x := 0; x < buf.Width; x++ {
			if buf.Pix[row+x*4+3] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return types.BoundingBox{}, ErrEmptyRegion
	}
	return types.BoundingBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}, nil
}

// FromMask returns the tight bounding box of all set entries in a binary
// width×height mask.
func FromMask(mask []uint8, width, height int) (types.BoundingBox, error) {
	if width <= 0 || height <= 0 || len(mask) != width*height {
		return types.BoundingBox{}, fmt.Errorf("bounds: mask length %d does not match %dx%d", len(mask), width, height)
	}

	minX, minY := width, height
	maxX, maxY := -1, -1

	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			if mask[row+x] == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < 0 {
		return types.BoundingBox{}, ErrEmptyRegion
	}
	return types.BoundingBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}, nil
}
