package bounds

import (
	"errors"
	"testing"

	"github.com/menta2k/sticker-maker/pkg/types"
)

// createBufferWithRect creates a transparent buffer with an opaque
// rectangle painted on it.
func createBufferWithRect(w, h, rx, ry, rw, rh int) *types.PixelBuffer {
	buf := types.NewPixelBuffer(w, h)
	for y := ry; y < ry+rh; y++ {
		for x := rx; x < rx+rw; x++ {
			i := (y*w + x) * 4
			buf.Pix[i] = 255
			buf.Pix[i+3] = 255
		}
	}
	return buf
}

func TestFromAlphaTightBox(t *testing.T) {
	buf := createBufferWithRect(100, 80, 20, 10, 30, 40)

	box, err := FromAlpha(buf)
	if err != nil {
		t.Fatalf("FromAlpha failed: %v", err)
	}

	want := types.BoundingBox{X: 20, Y: 10, Width: 30, Height: 40}
	if box != want {
		t.Errorf("expected %+v, got %+v", want, box)
	}
}

func TestFromAlphaSinglePixel(t *testing.T) {
	buf := types.NewPixelBuffer(50, 50)
	buf.Pix[(25*50+33)*4+3] = 1 // barely visible still counts

	box, err := FromAlpha(buf)
	if err != nil {
		t.Fatalf("FromAlpha failed: %v", err)
	}

	want := types.BoundingBox{X: 33, Y: 25, Width: 1, Height: 1}
	if box != want {
		t.Errorf("expected %+v, got %+v", want, box)
	}
}

func TestFromAlphaEmpty(t *testing.T) {
	buf := types.NewPixelBuffer(40, 40)

	_, err := FromAlpha(buf)
	if !errors.Is(err, ErrEmptyRegion) {
		t.Errorf("expected ErrEmptyRegion, got %v", err)
	}
}

func TestFromAlphaDeterministic(t *testing.T) {
	buf := createBufferWithRect(64, 64, 5, 7, 20, 9)

	first, err := FromAlpha(buf)
	if err != nil {
		t.Fatalf("FromAlpha failed: %v", err)
	}
	second, err := FromAlpha(buf)
	if err != nil {
		t.Fatalf("FromAlpha failed: %v", err)
	}
	if first != second {
		t.Errorf("same input produced different boxes: %+v vs %+v", first, second)
	}
}

func TestFromMaskTightness(t *testing.T) {
	const w, h = 30, 20
	mask := make([]uint8, w*h)
	set := [][2]int{{4, 3}, {17, 3}, {10, 15}}
	for _, p := range set {
		mask[p[1]*w+p[0]] = 1
	}

	box, err := FromMask(mask, w, h)
	if err != nil {
		t.Fatalf("FromMask failed: %v", err)
	}

	// Every set pixel lies inside the box.
	for _, p := range set {
		if !box.Contains(p[0], p[1]) {
			t.Errorf("pixel (%d,%d) outside box %+v", p[0], p[1], box)
		}
	}

	// No smaller box contains them: the extrema touch every edge.
	want := types.BoundingBox{X: 4, Y: 3, Width: 14, Height: 13}
	if box != want {
		t.Errorf("expected tight box %+v, got %+v", want, box)
	}
}

func TestFromMaskAllZero(t *testing.T) {
	mask := make([]uint8, 10*10)

	_, err := FromMask(mask, 10, 10)
	if !errors.Is(err, ErrEmptyRegion) {
		t.Errorf("expected ErrEmptyRegion, got %v", err)
	}
}

func TestFromMaskBadLength(t *testing.T) {
	mask := make([]uint8, 9)

	if _, err := FromMask(mask, 10, 10); err == nil {
		t.Error("expected error for mismatched mask length")
	}
}

func BenchmarkFromAlpha(b *testing.B) {
	buf := createBufferWithRect(1024, 1024, 100, 100, 800, 800)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		FromAlpha(buf)
	}
}
