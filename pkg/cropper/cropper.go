// Package cropper crops a background-removed buffer to its content plus
// padding, enforcing minimum and maximum output dimensions.
package cropper

import (
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/sticker-maker/pkg/bounds"
	"github.com/menta2k/sticker-maker/pkg/types"
)

const (
	// MinDimension is the smallest usable crop edge.
	MinDimension = 64
	// MaxDimension is the largest crop edge before uniform downscaling.
	MaxDimension = 2048

	// Padding bounds enforced at construction time.
	MinPadding = 5
	MaxPadding = 10

	// DefaultPadding around the detected content.
	DefaultPadding = 8
)

// SmartCropper crops to the non-transparent content of a buffer.
type SmartCropper struct {
	padding int
}

// New creates a SmartCropper with the default padding.
func New() *SmartCropper {
	return NewWithPadding(DefaultPadding)
}

// NewWithPadding creates a SmartCropper with the given padding, clamped to
// [MinPadding, MaxPadding].
func NewWithPadding(padding int) *SmartCropper {
	if padding < MinPadding {
		padding = MinPadding
	}
	if padding > MaxPadding {
		padding = MaxPadding
	}
	return &SmartCropper{padding: padding}
}

// Padding returns the effective padding.
func (c *SmartCropper) Padding() int {
	return c.padding
}

// Crop extracts the content region plus padding, growing it back to
// MinDimension per axis when possible and downscaling uniformly when an
// axis exceeds MaxDimension. The crop never exceeds the source buffer.
// Propagates bounds.ErrEmptyRegion when nothing non-transparent remains.
func (c *SmartCropper) Crop(buf *types.PixelBuffer) (*types.CroppedResult, error) {
	content, err := bounds.FromAlpha(buf)
	if err != nil {
		return nil, err
	}

	box := expand(content, c.padding).ClampTo(buf.Width, buf.Height)

	if box.Width < MinDimension {
		box = growAxis(box, content.X+content.Width/2, MinDimension, buf.Width, true)
	}
	if box.Height < MinDimension {
		box = growAxis(box, content.Y+content.Height/2, MinDimension, buf.Height, false)
	}

	sub := extract(buf, box)

	// One uniform factor for both axes keeps the aspect ratio introduced
	// by padding and growth.
	scale := 1.0
	if box.Width > MaxDimension || box.Height > MaxDimension {
		scale = math.Min(
			float64(MaxDimension)/float64(box.Width),
			float64(MaxDimension)/float64(box.Height),
		)
	}

	if scale != 1.0 {
		outW := int(math.Round(float64(box.Width) * scale))
		outH := int(math.Round(float64(box.Height) * scale))
		if outW < 1 {
			outW = 1
		}
		if outH < 1 {
			outH = 1
		}
		resized := imaging.Resize(sub.NRGBA(), outW, outH, imaging.Lanczos)
		sub = types.FromImage(resized)
	}

	return &types.CroppedResult{
		ImageData:   sub,
		BoundingBox: box,
		Padding:     c.padding,
	}, nil
}

// expand grows a box by p pixels on every side.
func expand(b types.BoundingBox, p int) types.BoundingBox {
	return types.BoundingBox{
		X:      b.X - p,
		Y:      b.Y - p,
		Width:  b.Width + 2*p,
		Height: b.Height + 2*p,
	}
}

// growAxis widens one axis of the box to at least min pixels, re-centered
// on the original content center and clipped to the buffer. When the
// buffer itself is smaller than min, the axis spans the whole buffer.
func growAxis(b types.BoundingBox, center, min, limit int, horizontal bool) types.BoundingBox {
	if limit < min {
		min = limit
	}
	start := center - min/2
	if start < 0 {
		start = 0
	}
	if start+min > limit {
		start = limit - min
	}
	if horizontal {
		b.X = start
		b.Width = min
	} else {
		b.Y = start
		b.Height = min
	}
	return b
}

// extract copies the box sub-region into a fresh buffer.
func extract(buf *types.PixelBuffer, box types.BoundingBox) *types.PixelBuffer {
	out := types.NewPixelBuffer(box.Width, box.Height)
	for y := 0; y < box.Height; y++ {
		srcOff := ((box.Y+y)*buf.Width + box.X) * 4
		dstOff := y * box.Width * 4
		copy(out.Pix[dstOff:dstOff+box.Width*4], buf.Pix[srcOff:srcOff+box.Width*4])
	}
	return out
}
