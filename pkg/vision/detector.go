// Package vision implements the local, deterministic subject detector.
// It needs no network access and is the fallback path when the remote
// vision service is unavailable or fails.
package vision

import (
	"context"
	"fmt"

	"github.com/menta2k/sticker-maker/pkg/bounds"
	"github.com/menta2k/sticker-maker/pkg/types"
)

// DefaultConfidence is the fixed confidence reported by the pixel
// detector. It has no semantic understanding of the drawing, so the value
// is a documented constant, deliberately lower than the AI path's.
const DefaultConfidence = 0.60

// DefaultAlphaThreshold rejects near-invisible strokes when binarizing.
const DefaultAlphaThreshold = 10

// DetectionConfig holds configuration for the pixel detector.
type DetectionConfig struct {
	// AlphaThreshold: a pixel is foreground iff alpha > AlphaThreshold.
	AlphaThreshold uint8
	// Confidence reported on every produced mask.
	Confidence float64
}

// PixelDetector finds the largest connected ink region of a drawing by
// flood fill and cleans its silhouette with a morphological close.
type PixelDetector struct {
	config DetectionConfig
}

// New creates a PixelDetector with default configuration.
func New() *PixelDetector {
	return &PixelDetector{
		config: DetectionConfig{
			AlphaThreshold: DefaultAlphaThreshold,
			Confidence:     DefaultConfidence,
		},
	}
}

// NewWithConfig creates a PixelDetector with custom configuration.
func NewWithConfig(config DetectionConfig) *PixelDetector {
	return &PixelDetector{config: config}
}

// DetectSubject produces a binary subject mask for the buffer. It fails
// with bounds.ErrEmptyRegion when no pixel clears the alpha threshold.
// The context is accepted for interface symmetry with the AI detector;
// the work is synchronous and CPU-bound.
func (d *PixelDetector) DetectSubject(_ context.Context, buf *types.PixelBuffer) (*types.SubjectMask, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("vision: %w", err)
	}

	fg := d.binarize(buf)

	component, found := largestComponent(fg, buf.Width, buf.Height)
	if !found {
		return nil, bounds.ErrEmptyRegion
	}

	closed := morphClose(component, buf.Width, buf.Height)

	box, err := bounds.FromMask(closed, buf.Width, buf.Height)
	if err != nil {
		return nil, err
	}

	return &types.SubjectMask{
		Mask:        closed,
		Width:       buf.Width,
		Height:      buf.Height,
		BoundingBox: box,
		Confidence:  d.config.Confidence,
		Method:      types.MethodFallback,
	}, nil
}

// binarize marks every pixel with alpha above the threshold as foreground.
func (d *PixelDetector) binarize(buf *types.PixelBuffer) []uint8 {
	fg := make([]uint8, buf.Width*buf.Height)
	for i := range fg {
		if buf.Pix[i*4+3] > d.config.AlphaThreshold {
			fg[i] = 1
		}
	}
	return fg
}

// largestComponent labels 4-connected foreground components and returns a
// mask holding only the largest one. Ties go to the component discovered
// first in raster-scan order (strict > comparison below). The flood fill
// uses an explicit stack: recursion depth would be bounded only by image
// size and overflows on large filled canvases.
func largestComponent(fg []uint8, width, height int) ([]uint8, bool) {
	labels := make([]int32, len(fg))
	var sizes []int

	stack := make([]int32, 0, 1024)
	next := int32(1)

	for start := range fg {
		if fg[start] == 0 || labels[start] != 0 {
			continue
		}

		label := next
		next++
		size := 0

		stack = append(stack[:0], int32(start))
		labels[start] = label
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++

			x := int(idx) % width
			y := int(idx) / width

			// 4-adjacency only.
			if x > 0 {
				if n := idx - 1; fg[n] != 0 && labels[n] == 0 {
					labels[n] = label
					stack = append(stack, n)
				}
			}
			if x < width-1 {
				if n := idx + 1; fg[n] != 0 && labels[n] == 0 {
					labels[n] = label
					stack = append(stack, n)
				}
			}
			if y > 0 {
				if n := idx - int32(width); fg[n] != 0 && labels[n] == 0 {
					labels[n] = label
					stack = append(stack, n)
				}
			}
			if y < height-1 {
				if n := idx + int32(width); fg[n] != 0 && labels[n] == 0 {
					labels[n] = label
					stack = append(stack, n)
				}
			}
		}

		sizes = append(sizes, size)
	}

	if len(sizes) == 0 {
		return nil, false
	}

	best := int32(1)
	for i := 1; i < len(sizes); i++ {
		if sizes[i] > sizes[best-1] {
			best = int32(i + 1)
		}
	}

	out := make([]uint8, len(fg))
	for i, l := range labels {
		if l == best {
			out[i] = 1
		}
	}
	return out, true
}

// eight-neighborhood offsets shared by dilation and erosion.
var neighbors8 = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// morphClose runs one dilation followed by one erosion (8-neighborhood),
// bridging 1-pixel gaps and smoothing jagged boundaries without growing
// the mask beyond what the dilation introduced.
func morphClose(mask []uint8, width, height int) []uint8 {
	dilated := make([]uint8, len(mask))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if mask[idx] != 0 {
				dilated[idx] = 1
				continue
			}
			for _, n := range neighbors8 {
				nx, ny := x+n[0], y+n[1]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				if mask[ny*width+nx] != 0 {
					dilated[idx] = 1
					break
				}
			}
		}
	}

	// Out-of-image neighbors count as foreground during erosion so a
	// close against the canvas edge does not eat the border row.
	eroded := make([]uint8, len(mask))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := y*width + x
			if dilated[idx] == 0 {
				continue
			}
			keep := true
			for _, n := range neighbors8 {
				nx, ny := x+n[0], y+n[1]
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				if dilated[ny*width+nx] == 0 {
					keep = false
					break
				}
			}
			if keep {
				eroded[idx] = 1
			}
		}
	}
	return eroded
}
