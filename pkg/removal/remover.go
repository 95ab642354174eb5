// Package removal erases the background of a drawing through its subject
// mask and softens the resulting silhouette.
package removal

import (
	"fmt"

	"github.com/menta2k/sticker-maker/pkg/types"
)

// Smoothing kernel weights: center 4, edge-adjacent 2, corner-adjacent 1.
// A discrete Gaussian-like kernel over the 8-neighborhood.
var kernel = [3][3]int{
	{1, 2, 1},
	{2, 4, 2},
	{1, 2, 1},
}

// Remover applies a subject mask to the alpha channel of a buffer.
type Remover struct{}

// New creates a Remover.
func New() *Remover {
	return &Remover{}
}

// Remove returns a new buffer where every pixel outside the mask is fully
// transparent and foreground pixels on the mask edge get a smoothed alpha.
// Interior foreground pixels are byte-identical to the input. Identical
// (buffer, mask) pairs always produce byte-identical output.
func (r *Remover) Remove(buf *types.PixelBuffer, mask *types.SubjectMask) (*types.PixelBuffer, error) {
	if err := buf.Validate(); err != nil {
		return nil, fmt.Errorf("removal: %w", err)
	}
	if mask == nil || mask.Width != buf.Width || mask.Height != buf.Height {
		return nil, fmt.Errorf("removal: mask dimensions do not match buffer %dx%d", buf.Width, buf.Height)
	}

	out := buf.Clone()
	w, h := buf.Width, buf.Height

	// Pass 1: zero the alpha of every background pixel.
	for i, m := range mask.Mask {
		if m == 0 {
			out.Pix[i*4+3] = 0
		}
	}

	// Snapshot the masked alpha plane so pass 2 reads stable values
	// regardless of scan order.
	alpha := make([]uint8, w*h)
	for i := range alpha {
		alpha[i] = out.Pix[i*4+3]
	}

	// Pass 2: smooth the alpha of foreground pixels that touch the
	// background (8-neighborhood). Only foreground neighbors contribute,
	// so background transparency never bleeds into the subject. Interior
	// pixels are skipped entirely.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			idx := y*w + x
			if mask.Mask[idx] == 0 {
				continue
			}
			if !touchesBackground(mask.Mask, w, h, x, y) {
				continue
			}

			sum, weight := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					nidx := ny*w + nx
					if mask.Mask[nidx] == 0 {
						continue
					}
					k := kernel[dy+1][dx+1]
					sum += int(alpha[nidx]) * k
					weight += k
				}
			}
			if weight > 0 {
				out.Pix[idx*4+3] = uint8(sum / weight)
			}
		}
	}

	return out, nil
}

// touchesBackground reports whether the foreground pixel (x, y) has at
// least one background pixel among its 8 neighbors. Out-of-image neighbors
// count as background so silhouettes on the canvas edge are smoothed too.
func touchesBackground(mask []uint8, w, h, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= w || ny >= h {
				return true
			}
			if mask[ny*w+nx] == 0 {
				return true
			}
		}
	}
	return false
}
